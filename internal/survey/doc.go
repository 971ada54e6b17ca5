// Package survey defines the data model shared across the collection
// pipeline: survey packets, verification records, geo samples, and the
// question descriptors consumed by session controllers.
//
// A Packet is the unit of persistence and sync. It is keyed by SurveyID,
// carries the answer map and optional verification record, and tracks its
// sync lifecycle through SyncStatus. Treat this package as the single
// source of truth for packet semantics; when you add fields, update the
// store schema alongside.
package survey
