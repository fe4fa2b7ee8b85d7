package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"
)

// Engine owns one embedded Lua interpreter: its value stack, its globals and
// its registry. Every other bridge component borrows an Engine for the
// duration of a call and must not outlive it.
//
// IMPORTANT: gopher-lua's LState is not goroutine-safe, and the Engine adds
// no locking of its own. All operations on one Engine must run on a single
// goroutine, or the caller must serialize access externally. Hosts that need
// parallelism should create one Engine per goroutine.
type Engine struct {
	l  *lua.LState
	id string

	sandbox *Sandbox
	closed  bool
}

// New creates an Engine with the given options. By default only the safe
// standard libraries are opened and a module-whitelist sandbox is installed.
func New(opts ...Option) (*Engine, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	lopts := lua.Options{
		SkipOpenLibs: !o.openAll,
	}
	if o.callStackSize > 0 {
		lopts.CallStackSize = o.callStackSize
	}
	if o.registrySize > 0 {
		lopts.RegistrySize = o.registrySize
	}

	L := lua.NewState(lopts)

	eng := &Engine{
		l:  L,
		id: uuid.NewString(),
	}

	if !o.openAll {
		openSafeLibraries(L)
		eng.sandbox = NewSandbox(L)
		eng.sandbox.Install()
		for _, mod := range o.allowModules {
			eng.sandbox.Allow(mod)
		}
	}

	if o.ctx != nil {
		L.SetContext(o.ctx)
	}

	return eng, nil
}

// openSafeLibraries opens only the Lua standard libraries that cannot touch
// the host system. io, os and debug stay closed unless allowed explicitly.
func openSafeLibraries(L *lua.LState) {
	// package must load before base, matching the interpreter's own order.
	openLibrary(L, lua.LoadLibName, lua.OpenPackage)
	openLibrary(L, lua.BaseLibName, lua.OpenBase)
	openLibrary(L, lua.TabLibName, lua.OpenTable)
	openLibrary(L, lua.StringLibName, lua.OpenString)
	openLibrary(L, lua.MathLibName, lua.OpenMath)
}

// openLibrary drives a standard library loader the way the interpreter's
// own bootstrap does. Loaders return their module table; calling them
// directly would strand that table on the stack, and the stack must stay
// empty on a fresh engine.
func openLibrary(L *lua.LState, name string, fn lua.LGFunction) {
	L.Push(L.NewFunction(fn))
	L.Push(lua.LString(name))
	L.Call(1, 0)
}

// ID returns the unique identifier of this engine instance, for log and
// error context.
func (e *Engine) ID() string { return e.id }

// State returns the underlying gopher-lua state.
//
// Direct LState access bypasses the sandbox and the stack-balance helpers.
// Bridge packages use it for operations the Engine surface does not cover;
// host code normally should not.
func (e *Engine) State() *lua.LState { return e.l }

// Sandbox returns the installed sandbox, or nil when the engine was created
// with WithAllLibraries.
func (e *Engine) Sandbox() *Sandbox { return e.sandbox }

// SetContext attaches a context to script execution. Long-running scripts
// are interrupted when the context is cancelled; this is the engine-side
// substitute for a timeout, since a protected call cannot otherwise be
// cancelled mid-flight.
func (e *Engine) SetContext(ctx context.Context) {
	if e.closed {
		return
	}
	e.l.SetContext(ctx)
}

// IsClosed reports whether Close has been called.
func (e *Engine) IsClosed() bool { return e.closed }

// Close releases the interpreter. All handles and references derived from
// this engine are invalid afterwards. Close is idempotent.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.l.Close()
	e.closed = true
	return nil
}

// DoFile loads and runs a Lua file.
func (e *Engine) DoFile(path string) error {
	if e.closed {
		return ErrEngineClosed
	}
	return e.recovered(func() error { return e.l.DoFile(path) })
}

// DoString runs a chunk of Lua source.
func (e *Engine) DoString(code string) error {
	if e.closed {
		return ErrEngineClosed
	}
	return e.recovered(func() error { return e.l.DoString(code) })
}

// LoadString compiles a chunk without running it and pushes the resulting
// function onto the stack. Nothing is pushed on error.
func (e *Engine) LoadString(code string) error {
	if e.closed {
		return ErrEngineClosed
	}
	return e.recovered(func() error {
		fn, err := e.l.LoadString(code)
		if err != nil {
			return err
		}
		e.l.Push(fn)
		return nil
	})
}

// LoadFile compiles a file without running it and pushes the resulting
// function onto the stack. Nothing is pushed on error.
func (e *Engine) LoadFile(path string) error {
	if e.closed {
		return ErrEngineClosed
	}
	return e.recovered(func() error {
		fn, err := e.l.LoadFile(path)
		if err != nil {
			return err
		}
		e.l.Push(fn)
		return nil
	})
}

// recovered runs fn with panic recovery so an interpreter bug cannot take
// the host process down.
func (e *Engine) recovered(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine %s: lua panic: %v", e.id, r)
		}
	}()
	return fn()
}
