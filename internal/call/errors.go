package call

import "errors"

// Errors for invocation workflow operations.
var (
	// ErrNotCallable is returned when invoking through a nil or stranded
	// Callable.
	ErrNotCallable = errors.New("callable is not bound to a function")

	// ErrClosedCallable is returned when closing a Callable twice or after
	// its base slot was truncated away.
	ErrClosedCallable = errors.New("callable is already closed or stale")
)
