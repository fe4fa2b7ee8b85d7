package engine

import "context"

type options struct {
	openAll       bool
	ctx           context.Context
	callStackSize int
	registrySize  int
	allowModules  []string
}

// Option configures an Engine.
type Option func(*options)

// WithAllLibraries opens the full Lua standard library and skips the
// sandbox. Only use for trusted scripts.
func WithAllLibraries() Option {
	return func(o *options) {
		o.openAll = true
	}
}

// WithContext attaches a context to script execution at creation time.
// Cancelling the context interrupts running scripts.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}

// WithCallStackSize sets the interpreter call stack size.
func WithCallStackSize(n int) Option {
	return func(o *options) {
		o.callStackSize = n
	}
}

// WithRegistrySize sets the initial size of the interpreter's value stack
// and registry.
func WithRegistrySize(n int) Option {
	return func(o *options) {
		o.registrySize = n
	}
}

// WithModules whitelists additional standard modules ("io", "os", "debug")
// in the sandbox. Ignored when WithAllLibraries is set.
func WithModules(names ...string) Option {
	return func(o *options) {
		o.allowModules = append(o.allowModules, names...)
	}
}
