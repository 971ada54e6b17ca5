// Package syncer drains pending survey packets from the local store to a
// remote destination, one packet at a time.
//
// The Coordinator enforces the system's only mutual-exclusion contract:
// at most one sync run at a time, with overlapping callers rejected via
// ErrBusy and offline callers via ErrOffline. Per-packet upload failures
// are isolated and reported in the run result; a failed packet simply
// stays pending for the next run. Progress is observable through Status
// while a run is in flight and resets to zero on every exit path.
//
// Destinations are pluggable: an HTTP uploader for real endpoints and a
// directory uploader that stands in for cloud storage, both writing under
// the dated surveys/{year}/{month}/{day}/ key layout.
package syncer
