package extract

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/luadeck/internal/engine"
	"github.com/dshills/luadeck/internal/fault"
)

// Numeric is the closed set of host numeric kinds an extraction can target.
// Lua numbers coerce freely across these; nothing else coerces to a number.
type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// take pops and returns the stack top, classifying absence. Every extraction
// funnels through here so the pop happens on all paths.
func take(e *engine.Engine) (lua.LValue, fault.Flags) {
	v := e.Top()
	e.Pop(1)
	if v == lua.LNil || v.Type() == lua.LTNil {
		return lua.LNil, fault.NonExistent
	}
	return v, 0
}

// Bool pops the stack top and converts it to a bool. With no recovery value
// available, absence or a type mismatch is fatal.
func Bool(e *engine.Engine) (bool, fault.Flags) {
	v, flags := take(e)
	if flags != 0 {
		return false, flags | fault.Fatal
	}
	b, ok := v.(lua.LBool)
	if !ok {
		return false, fault.WrongType | fault.Fatal
	}
	return bool(b), 0
}

// OptBool pops the stack top and converts it to a bool, substituting def
// when the value is absent or mistyped. The returned flags say whether the
// real value or the default came back.
func OptBool(e *engine.Engine, def bool) (bool, fault.Flags) {
	v, flags := take(e)
	if flags != 0 {
		return def, flags
	}
	b, ok := v.(lua.LBool)
	if !ok {
		return def, fault.WrongType
	}
	return bool(b), 0
}

// Number pops the stack top and converts it to the requested numeric kind.
// Only Lua numbers convert; strings are not coerced.
func Number[T Numeric](e *engine.Engine) (T, fault.Flags) {
	var zero T
	v, flags := take(e)
	if flags != 0 {
		return zero, flags | fault.Fatal
	}
	n, ok := v.(lua.LNumber)
	if !ok {
		return zero, fault.WrongType | fault.Fatal
	}
	return T(n), 0
}

// OptNumber pops the stack top and converts it to the requested numeric
// kind, substituting def on absence or mismatch.
func OptNumber[T Numeric](e *engine.Engine, def T) (T, fault.Flags) {
	v, flags := take(e)
	if flags != 0 {
		return def, flags
	}
	n, ok := v.(lua.LNumber)
	if !ok {
		return def, fault.WrongType
	}
	return T(n), 0
}

// String pops the stack top and converts it to a string. Numbers are not
// coerced; only true Lua strings convert.
func String(e *engine.Engine) (string, fault.Flags) {
	v, flags := take(e)
	if flags != 0 {
		return "", flags | fault.Fatal
	}
	s, ok := v.(lua.LString)
	if !ok {
		return "", fault.WrongType | fault.Fatal
	}
	return string(s), 0
}

// OptString pops the stack top and converts it to a string, substituting
// def on absence or mismatch.
func OptString(e *engine.Engine, def string) (string, fault.Flags) {
	v, flags := take(e)
	if flags != 0 {
		return def, flags
	}
	s, ok := v.(lua.LString)
	if !ok {
		return def, fault.WrongType
	}
	return string(s), 0
}

// StringInto pops the stack top and copies the string into buf, returning
// the number of bytes written. Strings longer than buf are silently
// truncated to its capacity; that is documented behavior, not an error.
func StringInto(e *engine.Engine, buf []byte) (int, fault.Flags) {
	s, flags := String(e)
	if !flags.Usable() {
		return 0, flags
	}
	n := copy(buf, s)
	return n, flags
}

// Userdata pops the stack top and returns the host value carried by a
// userdata wrapper.
func Userdata(e *engine.Engine) (any, fault.Flags) {
	v, flags := take(e)
	if flags != 0 {
		return nil, flags | fault.Fatal
	}
	ud, ok := v.(*lua.LUserData)
	if !ok {
		return nil, fault.WrongType | fault.Fatal
	}
	return ud.Value, 0
}

// OptUserdata pops the stack top and returns the wrapped host value,
// substituting def on absence or mismatch.
func OptUserdata(e *engine.Engine, def any) (any, fault.Flags) {
	v, flags := take(e)
	if flags != 0 {
		return def, flags
	}
	ud, ok := v.(*lua.LUserData)
	if !ok {
		return def, fault.WrongType
	}
	return ud.Value, 0
}
