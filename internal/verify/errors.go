package verify

import "errors"

var (
	// ErrNotActive is returned when Complete is called with no survey in
	// flight.
	ErrNotActive = errors.New("no active survey")
	// ErrProvider marks start failures caused by an unavailable location
	// or device provider.
	ErrProvider = errors.New("verification provider error")
	// ErrLocationUnavailable is the provider-level failure for a single
	// fix. It is caught and degraded inside the recorder and never
	// propagates past it.
	ErrLocationUnavailable = errors.New("location unavailable")
)
