package call

import (
	"reflect"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/luadeck/internal/engine"
	"github.com/dshills/luadeck/internal/fault"
	"github.com/dshills/luadeck/internal/ref"
	"github.com/dshills/luadeck/internal/table"
)

// argsInvoked marks a Callable whose arguments were consumed by a call
// attempt; the next argument push rearms it for a fresh call.
const argsInvoked = -1

// Callable is a script function staged on the stack for invocation, plus
// the bookkeeping to keep the staging balanced: the slot the function was
// pushed at, the number of arguments accumulated above it, and an identity
// tag for logging.
type Callable struct {
	eng   *engine.Engine
	fn    *lua.LFunction
	base  int
	nargs int
	id    uint64
}

// FromGlobal stages the named global. Returns nil when the global is
// absent or not a function, leaving the stack unchanged.
func FromGlobal(eng *engine.Engine, name string) *Callable {
	if eng == nil {
		return nil
	}
	eng.PushGlobal(name)
	return adoptPushed(eng)
}

// FromField stages h[key], with the same absent semantics as FromGlobal.
func FromField(h *table.Handle, key string) *Callable {
	eng := h.Engine()
	if eng == nil {
		return nil
	}
	h.Push(key)
	return adoptPushed(eng)
}

// FromIndex stages h[pos].
func FromIndex(h *table.Handle, pos int) *Callable {
	eng := h.Engine()
	if eng == nil {
		return nil
	}
	h.PushIndex(pos)
	return adoptPushed(eng)
}

// FromRef stages the function a reference points at. The reference is not
// consumed.
func FromRef(r ref.Ref) *Callable {
	if !r.Valid() {
		return nil
	}
	r.PushTop()
	return adoptPushed(r.Engine())
}

// FromTop adopts the function already at the stack top, in place. Returns
// nil, leaving the stack alone, when the top is not a function.
func FromTop(eng *engine.Engine) *Callable {
	if eng == nil || eng.Depth() == 0 {
		return nil
	}
	fn, ok := eng.Top().(*lua.LFunction)
	if !ok {
		return nil
	}
	return newCallable(eng, fn)
}

// adoptPushed turns a freshly pushed value into a Callable, or pops it
// when it is not a function.
func adoptPushed(eng *engine.Engine) *Callable {
	fn, ok := eng.Top().(*lua.LFunction)
	if !ok {
		eng.Pop(1)
		return nil
	}
	return newCallable(eng, fn)
}

func newCallable(eng *engine.Engine, fn *lua.LFunction) *Callable {
	return &Callable{
		eng:   eng,
		fn:    fn,
		base:  eng.Depth(),
		nargs: 0,
		id:    uint64(reflect.ValueOf(fn).Pointer()),
	}
}

// Valid reports whether the Callable is open and its base slot still
// exists.
func (c *Callable) Valid() bool {
	return c != nil && c.base > 0 && c.base-1 <= c.eng.Depth()
}

// ID returns the identity tag derived from the function object's address:
// stable for the Callable's lifetime, good for logging and equality,
// useless for dereferencing.
func (c *Callable) ID() uint64 {
	if c == nil {
		return 0
	}
	return c.id
}

// Args returns the number of arguments staged, or -1 after an invocation
// consumed them.
func (c *Callable) Args() int {
	if c == nil {
		return 0
	}
	return c.nargs
}

// rearm restores the just-invoked Callable to a fresh bound state:
// leftover results are discarded, the function is pushed again, and the
// argument count starts over.
func (c *Callable) rearm() {
	c.eng.SetDepth(c.base - 1)
	c.eng.PushValue(c.fn)
	c.nargs = 0
}

// Arg stages an already-constructed Lua value as the next argument.
func (c *Callable) Arg(v lua.LValue) fault.Flags {
	if !c.Valid() {
		return fault.NonExistent | fault.Fatal
	}
	if c.nargs == argsInvoked {
		c.rearm()
	}
	c.eng.PushValue(v)
	c.nargs++
	return 0
}

// ArgBool stages a boolean argument.
func (c *Callable) ArgBool(v bool) fault.Flags { return c.Arg(lua.LBool(v)) }

// ArgInteger stages an integer argument.
func (c *Callable) ArgInteger(v int64) fault.Flags { return c.Arg(lua.LNumber(v)) }

// ArgNumber stages a floating-point argument.
func (c *Callable) ArgNumber(v float64) fault.Flags { return c.Arg(lua.LNumber(v)) }

// ArgString stages a string argument.
func (c *Callable) ArgString(v string) fault.Flags { return c.Arg(lua.LString(v)) }

// ArgNil stages an explicit nil argument.
func (c *Callable) ArgNil() fault.Flags { return c.Arg(lua.LNil) }

// ArgUserdata stages an opaque host value as an argument.
func (c *Callable) ArgUserdata(v any) fault.Flags {
	if !c.Valid() {
		return fault.NonExistent | fault.Fatal
	}
	if c.nargs == argsInvoked {
		c.rearm()
	}
	c.eng.PushUserdata(v)
	c.nargs++
	return 0
}

// ArgFromTop stages whatever is already at the stack top as the next
// argument. When the Callable needs rearming first, the value is kept
// across the rearm.
func (c *Callable) ArgFromTop() fault.Flags {
	if !c.Valid() {
		return fault.NonExistent | fault.Fatal
	}
	if c.eng.Depth() <= c.base {
		return fault.NonExistent | fault.Fatal
	}
	if c.nargs == argsInvoked {
		v := c.eng.Top()
		c.eng.Pop(1)
		c.rearm()
		c.eng.PushValue(v)
		c.nargs++
		return 0
	}
	c.nargs++
	return 0
}

// ArgNumbers materializes vals as a new table and stages it as one
// argument.
func (c *Callable) ArgNumbers(vals []float64) fault.Flags {
	if !c.Valid() {
		return fault.NonExistent | fault.Fatal
	}
	if c.nargs == argsInvoked {
		c.rearm()
	}
	arr := table.OpenNew(c.eng)
	for i, v := range vals {
		table.SetNumber(arr, table.At(i+1), v)
	}
	// The builder table sits at the top; it is the argument.
	c.nargs++
	return 0
}

// ArgStrings materializes vals as a new table and stages it as one
// argument.
func (c *Callable) ArgStrings(vals []string) fault.Flags {
	if !c.Valid() {
		return fault.NonExistent | fault.Fatal
	}
	if c.nargs == argsInvoked {
		c.rearm()
	}
	arr := table.OpenNew(c.eng)
	for i, v := range vals {
		table.SetString(arr, table.At(i+1), v)
	}
	c.nargs++
	return 0
}

// Invoke performs a protected call with the staged arguments, requesting
// nresults results. Arguments are consumed by the attempt whether or not
// it succeeds. On success the results sit on the stack, the last one on
// top, for the caller to extract; on failure the returned error carries
// the engine's classification and message, and the stack holds nothing
// above the pre-open depth.
func (c *Callable) Invoke(nresults int) (fault.Flags, error) {
	if !c.Valid() {
		return fault.NonExistent | fault.Fatal, ErrNotCallable
	}
	if c.nargs == argsInvoked {
		// Invoking again without staging arguments is a fresh zero-arg call.
		c.rearm()
	}

	nargs := c.nargs
	c.nargs = argsInvoked

	err := c.eng.State().PCall(nargs, nresults, nil)
	if err != nil {
		// gopher-lua already truncated function and arguments off the stack.
		return fault.Fatal, err
	}
	return 0, nil
}

// Close truncates the stack to one below the function's slot — dropping
// the callable, leftover arguments and unread results — and zeroes the
// handle. Must be called exactly once per successful open.
func (c *Callable) Close() error {
	if c == nil || c.base == 0 {
		return ErrClosedCallable
	}
	if c.base-1 > c.eng.Depth() {
		c.base = 0
		return ErrClosedCallable
	}
	c.eng.SetDepth(c.base - 1)
	c.base = 0
	c.nargs = 0
	c.fn = nil
	return nil
}
