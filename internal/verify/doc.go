// Package verify records the audit trail of a survey attempt: start and
// end location fixes, a bounded history of periodic samples, per-answer
// log entries, a device snapshot, and a content-derived integrity digest.
//
// A Recorder holds at most one active record at a time. StartSurvey
// transitions Idle to Active and launches the background sampler;
// Complete finalizes the record, computes the digest, and hands ownership
// to the caller; Abort discards an abandoned attempt. Answer logging is
// best-effort by design: a failed location fix never blocks capture.
package verify
