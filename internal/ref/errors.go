package ref

import "errors"

// Errors for reference operations.
var (
	// ErrInvalidRef is returned when releasing a Ref that was never taken
	// or was already released.
	ErrInvalidRef = errors.New("reference is invalid or already released")
)
