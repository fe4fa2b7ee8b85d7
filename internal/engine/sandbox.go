package engine

import (
	lua "github.com/yuin/gopher-lua"
)

// Sandbox restricts what sandboxed scripts can load. Scripts read
// configuration and expose callbacks; they have no business loading
// arbitrary modules from disk.
type Sandbox struct {
	L *lua.LState

	allowed map[string]bool
}

// Modules that are safe to require without an explicit allowance.
var safeModules = map[string]bool{
	"string": true,
	"table":  true,
	"math":   true,
}

// Openers for the gated standard modules.
var moduleOpeners = map[string]lua.LGFunction{
	lua.IoLibName:    lua.OpenIo,
	lua.OsLibName:    lua.OpenOs,
	lua.DebugLibName: lua.OpenDebug,
}

// NewSandbox creates a sandbox for the given state.
func NewSandbox(L *lua.LState) *Sandbox {
	return &Sandbox{
		L:       L,
		allowed: make(map[string]bool),
	}
}

// Install removes the globals that can bypass the sandbox and replaces
// require with a whitelist-based version.
func (s *Sandbox) Install() {
	// Functions that load arbitrary code from disk or strings.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		s.L.SetGlobal(name, lua.LNil)
	}

	s.installSafeRequire()
}

// installSafeRequire clears the module search paths and gates require on
// the whitelist. Only preloaded modules and whitelisted built-ins load.
func (s *Sandbox) installSafeRequire() {
	if pkg, ok := s.L.GetGlobal("package").(*lua.LTable); ok {
		s.L.SetField(pkg, "path", lua.LString(""))
		s.L.SetField(pkg, "cpath", lua.LString(""))
	}

	originalRequire := s.L.GetGlobal("require")

	s.L.SetGlobal("require", s.L.NewFunction(func(L *lua.LState) int {
		modName := L.CheckString(1)

		if safeModules[modName] || s.allowed[modName] {
			L.Push(originalRequire)
			L.Push(lua.LString(modName))
			L.Call(1, 1)
			return 1
		}

		// L.RaiseError does a longjmp; the return is unreachable.
		L.RaiseError("module %q is not available", modName)
		return 0
	}))
}

// Allow opens a gated standard module ("io", "os", "debug") and whitelists
// it in require. Unknown names only extend the require whitelist, for
// modules provided via PreloadModule.
func (s *Sandbox) Allow(name string) {
	s.allowed[name] = true
	if opener, ok := moduleOpeners[name]; ok {
		openLibrary(s.L, name, opener)
	}
}

// Allowed reports whether the named module may be required.
func (s *Sandbox) Allowed(name string) bool {
	return safeModules[name] || s.allowed[name]
}
