package conf

import (
	"fmt"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/luadeck/internal/call"
	"github.com/dshills/luadeck/internal/engine"
	"github.com/dshills/luadeck/internal/ref"
	"github.com/dshills/luadeck/internal/table"
)

// defaultGlobalName is the global the loaded script is expected to fill.
const defaultGlobalName = "config"

// Config is a configuration document backed by a script. The script runs
// once per load; afterwards every read navigates the live table, so values
// computed by the script (including hook functions) stay available.
//
// The underlying engine is not safe for concurrent use, and every accessor
// traverses its shared stack, so all methods serialize on one mutex.
type Config struct {
	mu sync.Mutex

	eng    *engine.Engine
	root   ref.Ref
	closed bool

	path       string
	globalName string
	engineOpts []engine.Option

	watcher  *Watcher
	onReload []func(error)
}

// Option configures a Config instance.
type Option func(*Config)

// WithGlobalName overrides the name of the global table the script must
// define.
func WithGlobalName(name string) Option {
	return func(c *Config) {
		if name != "" {
			c.globalName = name
		}
	}
}

// WithEngineOptions passes options through to the script engine, for
// example to widen the sandbox.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(c *Config) {
		c.engineOpts = append(c.engineOpts, opts...)
	}
}

// Load runs the script at path and binds the resulting configuration
// table.
func Load(path string, opts ...Option) (*Config, error) {
	c := &Config{
		path:       path,
		globalName: defaultGlobalName,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

// load boots a fresh engine, runs the script and re-binds the root
// reference. On success the previous engine, if any, is torn down; on
// failure the previous state stays live. A debounced watcher event can
// deliver a reload after Close, so the closed flag is re-checked before
// the swap and the fresh engine discarded.
func (c *Config) load() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.mu.Unlock()

	eng, err := engine.New(c.engineOpts...)
	if err != nil {
		return err
	}
	if err := eng.DoFile(c.path); err != nil {
		eng.Close()
		status, msg := engine.Classify(err)
		return fmt.Errorf("loading %s: %s: %s", c.path, status, msg)
	}

	if eng.PushGlobal(c.globalName) != lua.LTTable {
		eng.Pop(1)
		eng.Close()
		return fmt.Errorf("%w: global %q in %s", ErrNoConfigTable, c.globalName, c.path)
	}
	root, flags := ref.ForTop(eng)
	if !flags.Ok() {
		eng.Close()
		return fmt.Errorf("%w: global %q in %s", ErrNoConfigTable, c.globalName, c.path)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		eng.Close()
		return ErrClosed
	}
	old := c.eng
	c.eng = eng
	c.root = root
	c.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return nil
}

// Reload re-runs the script. On error the previous configuration remains
// in effect.
func (c *Config) Reload() error {
	err := c.load()
	c.mu.Lock()
	subs := make([]func(error), len(c.onReload))
	copy(subs, c.onReload)
	c.mu.Unlock()
	for _, fn := range subs {
		fn(err)
	}
	return err
}

// OnReload registers a callback invoked after every reload attempt,
// successful or not.
func (c *Config) OnReload(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onReload = append(c.onReload, fn)
}

// Watch starts live reloading: whenever the script file changes on disk
// the configuration reloads and OnReload callbacks fire.
func (c *Config) Watch() error {
	c.mu.Lock()
	if c.watcher != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	w, err := NewWatcher()
	if err != nil {
		return err
	}
	w.OnChange(func(Event) {
		_ = c.Reload()
	})
	if err := w.Watch(c.path); err != nil {
		w.Stop()
		return err
	}
	w.Start()

	c.mu.Lock()
	c.watcher = w
	c.mu.Unlock()
	return nil
}

// Path returns the script path the configuration was loaded from.
func (c *Config) Path() string { return c.path }

// Close stops watching and tears down the engine. Safe to call more than
// once.
func (c *Config) Close() {
	c.mu.Lock()
	c.closed = true
	w := c.watcher
	c.watcher = nil
	eng := c.eng
	c.eng = nil
	c.root = ref.Ref{}
	c.mu.Unlock()

	if w != nil {
		w.Stop()
	}
	if eng != nil {
		eng.Close()
	}
}

// open walks the dotted path down to the table holding the final segment.
// The returned close function unwinds every handle opened along the way,
// innermost first. Callers must hold c.mu.
func (c *Config) open(path string) (*table.Handle, string, func(), bool) {
	if c.eng == nil || path == "" {
		return nil, "", nil, false
	}
	c.root.PushTop()
	h := table.FromTop(c.eng)
	if h == nil {
		return nil, "", nil, false
	}

	opened := []*table.Handle{h}
	closeAll := func() {
		for i := len(opened) - 1; i >= 0; i-- {
			_ = opened[i].Close()
		}
	}

	parts := strings.Split(path, ".")
	for _, part := range parts[:len(parts)-1] {
		next := table.Open(h, part)
		if next == nil {
			closeAll()
			return nil, "", nil, false
		}
		opened = append(opened, next)
		h = next
	}
	return h, parts[len(parts)-1], closeAll, true
}

// Exists reports whether the dotted path resolves to any value.
func (c *Config) Exists(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, last, closeAll, ok := c.open(path)
	if !ok {
		return false
	}
	defer closeAll()
	return table.Exists(table.Field(h, last))
}

// String returns the string at the dotted path, or def when the path is
// absent or holds another type.
func (c *Config) String(path, def string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, last, closeAll, ok := c.open(path)
	if !ok {
		return def
	}
	defer closeAll()
	v, _ := table.OptString(table.Field(h, last), def)
	return v
}

// Int returns the integer at the dotted path, or def.
func (c *Config) Int(path string, def int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, last, closeAll, ok := c.open(path)
	if !ok {
		return def
	}
	defer closeAll()
	v, _ := table.OptNumber[int64](table.Field(h, last), def)
	return v
}

// Float returns the number at the dotted path, or def.
func (c *Config) Float(path string, def float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, last, closeAll, ok := c.open(path)
	if !ok {
		return def
	}
	defer closeAll()
	v, _ := table.OptNumber[float64](table.Field(h, last), def)
	return v
}

// Bool returns the boolean at the dotted path, or def.
func (c *Config) Bool(path string, def bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, last, closeAll, ok := c.open(path)
	if !ok {
		return def
	}
	defer closeAll()
	v, _ := table.OptBool(table.Field(h, last), def)
	return v
}

// Strings returns the string sequence at the dotted path, or nil when
// absent. Entries of the wrong type come back as empty strings.
func (c *Config) Strings(path string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, last, closeAll, ok := c.open(path)
	if !ok {
		return nil
	}
	defer closeAll()
	v, _ := table.Strings(table.Field(h, last))
	return v
}

// Floats returns the numeric sequence at the dotted path, or nil when
// absent. Entries of the wrong type come back as zero.
func (c *Config) Floats(path string) []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, last, closeAll, ok := c.open(path)
	if !ok {
		return nil
	}
	defer closeAll()
	v, _ := table.Numbers[float64](table.Field(h, last))
	return v
}

// Value returns the value at the dotted path converted to plain Go data
// (tables become maps or slices). The second result is false when the
// path is absent or the value cannot be represented.
func (c *Config) Value(path string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, last, closeAll, ok := c.open(path)
	if !ok {
		return nil, false
	}
	defer closeAll()

	if table.Resolve(table.Field(h, last)) == lua.LTNil {
		c.eng.Pop(1)
		return nil, false
	}
	v, ok := goValue(c.eng.Top(), map[*lua.LTable]bool{})
	c.eng.Pop(1)
	return v, ok
}

// Call invokes the hook function at the dotted path with the given
// arguments and returns nresults results converted to Go values, first
// result first. Supported argument types are nil, bool, integers,
// float64, string, []float64 and []string; anything else is passed as
// opaque userdata.
func (c *Config) Call(path string, nresults int, args ...any) ([]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.eng == nil {
		return nil, ErrClosed
	}
	h, last, closeAll, ok := c.open(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchHook, path)
	}
	defer closeAll()

	fn := call.FromField(h, last)
	if fn == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchHook, path)
	}
	defer func() { _ = fn.Close() }()

	for _, a := range args {
		switch v := a.(type) {
		case nil:
			fn.ArgNil()
		case bool:
			fn.ArgBool(v)
		case int:
			fn.ArgInteger(int64(v))
		case int64:
			fn.ArgInteger(v)
		case float64:
			fn.ArgNumber(v)
		case string:
			fn.ArgString(v)
		case []float64:
			fn.ArgNumbers(v)
		case []string:
			fn.ArgStrings(v)
		default:
			fn.ArgUserdata(v)
		}
	}

	if _, err := fn.Invoke(nresults); err != nil {
		status, msg := engine.Classify(err)
		return nil, fmt.Errorf("hook %s: %s: %s", path, status, msg)
	}

	// Results sit on the stack with the last one on top.
	out := make([]any, nresults)
	for i := nresults - 1; i >= 0; i-- {
		out[i], _ = goValue(c.eng.Top(), map[*lua.LTable]bool{})
		c.eng.Pop(1)
	}
	return out, nil
}
