// Package daemon runs the background collector: it enforces
// single-instance execution with a file lock, probes destination
// connectivity on a cadence, and periodically drains pending packets
// through the sync coordinator while online.
package daemon
