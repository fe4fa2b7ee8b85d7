package conf

import "errors"

// Errors for configuration loading and hook dispatch.
var (
	// ErrNoConfigTable is returned when the script does not define the
	// expected global configuration table.
	ErrNoConfigTable = errors.New("config table not found")

	// ErrNoSuchHook is returned when calling a hook path that does not
	// resolve to a function.
	ErrNoSuchHook = errors.New("hook is not defined")

	// ErrClosed is returned when using a Config after Close.
	ErrClosed = errors.New("config is closed")
)
