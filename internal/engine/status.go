package engine

import (
	"errors"
	"fmt"
	"log"

	lua "github.com/yuin/gopher-lua"
)

// Status is the engine-level outcome of a load or protected call. The set
// mirrors the interpreter's own classification; the bridge only passes it
// through.
type Status int

const (
	// StatusOK means the operation completed without error.
	StatusOK Status = iota

	// StatusSyntax means a chunk failed to compile.
	StatusSyntax

	// StatusFile means a source file could not be read.
	StatusFile

	// StatusRuntime means the script raised an error during execution.
	StatusRuntime

	// StatusUnhandled means an error escaped the script's own error
	// handling (an error inside an error handler, or error() at top level).
	StatusUnhandled

	// StatusPanic means the interpreter itself panicked; the engine caught
	// it, but the state should be considered suspect.
	StatusPanic
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusSyntax:
		return "syntax-error"
	case StatusFile:
		return "file-error"
	case StatusRuntime:
		return "runtime-error"
	case StatusUnhandled:
		return "unhandled-error"
	case StatusPanic:
		return "panic"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Classify maps an error returned by a load or call operation to its engine
// status and a human-readable message. A nil error classifies as StatusOK
// with an empty message.
func Classify(err error) (Status, string) {
	if err == nil {
		return StatusOK, ""
	}

	var apiErr *lua.ApiError
	if !errors.As(err, &apiErr) {
		// Panics recovered by the engine and plain Go errors.
		return StatusPanic, err.Error()
	}

	msg := apiErr.Object.String()
	if msg == "" || apiErr.Object == lua.LNil {
		msg = apiErr.Error()
	}

	switch apiErr.Type {
	case lua.ApiErrorSyntax:
		return StatusSyntax, msg
	case lua.ApiErrorFile:
		return StatusFile, msg
	case lua.ApiErrorRun:
		return StatusRuntime, msg
	case lua.ApiErrorError:
		return StatusUnhandled, msg
	case lua.ApiErrorPanic:
		return StatusPanic, msg
	default:
		return StatusRuntime, msg
	}
}

// Must is the opt-in fail-fast path for unrecoverable setup errors such as a
// missing config file: it terminates the process after printing the caller's
// context plus the engine's own error text. Callers that want to recover use
// Classify instead.
func Must(err error, context string) {
	if err == nil {
		return
	}
	status, msg := Classify(err)
	log.Fatalf("%s: %s: %s", context, status, msg)
}
