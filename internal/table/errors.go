package table

import "errors"

// Errors for table handle operations.
var (
	// ErrStaleHandle is returned when closing a handle whose slot no
	// longer exists — either already closed, or invalidated by closing an
	// earlier handle out of LIFO order.
	ErrStaleHandle = errors.New("table handle is stale")
)
