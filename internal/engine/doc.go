// Package engine owns the embedded Lua interpreter and exposes the stack
// primitives the rest of the bridge is built from.
//
// An Engine wraps one gopher-lua state: its implicit value stack, its
// globals and its registry. The higher-level packages (table, extract, ref,
// call) are pure composition over the primitives here; they never reach
// into the interpreter behind the Engine's back except through State().
//
// # Stack discipline
//
// The stack is one shared mutable resource per engine. Every bridge
// operation documents its net stack effect, and any operation that claims
// to leave the stack unchanged pairs each push with a pop on every exit
// path, including error returns. Depth() exists so callers and tests can
// verify this.
//
// # Creation
//
//	eng, err := engine.New(engine.WithModules("os"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	if err := eng.DoFile("config.lua"); err != nil {
//	    engine.Must(err, "loading config.lua")
//	}
//
// By default a sandbox is installed: only base, package, table, string and
// math are open, code-loading globals are removed, and require is gated on
// a whitelist. WithAllLibraries skips all of that for trusted scripts.
//
// # Concurrency
//
// The interpreter is single-threaded and the Engine performs no locking.
// One Engine belongs to one goroutine; hosts needing parallelism create
// one Engine per goroutine or serialize externally.
package engine
