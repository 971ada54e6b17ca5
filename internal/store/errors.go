package store

import (
	"errors"
	"fmt"
)

// ErrPersistence marks failures of the backing medium itself (open, write,
// quota). Read-path degradation never produces this error.
var ErrPersistence = errors.New("persistence error")

func wrapPersistence(operation string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, operation, err)
}
