package session

import "errors"

// ErrCompletion marks failures in the completion pipeline: verification
// finalization or packet persistence.
var ErrCompletion = errors.New("session completion failed")
