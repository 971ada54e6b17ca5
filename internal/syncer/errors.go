package syncer

import "errors"

var (
	// ErrOffline rejects a sync run while connectivity is down.
	ErrOffline = errors.New("sync offline")
	// ErrBusy rejects a sync run while another is in flight.
	ErrBusy = errors.New("sync already running")
)
