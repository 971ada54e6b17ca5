// Package store persists survey packets locally and exposes the degrade
// semantics the rest of the pipeline relies on while offline.
//
// Two backends implement the same logical schema: a SQLite database
// (primary) and a flat JSON file (fallback). Open selects one according to
// configuration, degrading transparently when the database is unavailable,
// and never fails the caller: the collector must stay usable with no
// working medium at all.
//
// Read paths (ListPending, Stats) swallow backend errors and return empty
// results after logging, so callers can render state without error
// handling. Write paths (Save, ClearAll) surface ErrPersistence.
package store
