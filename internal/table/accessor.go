package table

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/luadeck/internal/engine"
	"github.com/dshills/luadeck/internal/extract"
	"github.com/dshills/luadeck/internal/fault"
)

// Source selects where a value comes from: a table field, a table
// position, a global, or whatever is already at the stack top. The
// constructors make "key tried before position" unrepresentable rather
// than a runtime rule.
type Source struct {
	h    *Handle
	eng  *engine.Engine
	key  string
	pos  int
	kind sourceKind
}

type sourceKind int

const (
	srcField sourceKind = iota
	srcIndex
	srcGlobal
	srcTop
)

// Field selects h[key].
func Field(h *Handle, key string) Source {
	return Source{h: h, key: key, kind: srcField}
}

// Index selects h[pos].
func Index(h *Handle, pos int) Source {
	return Source{h: h, pos: pos, kind: srcIndex}
}

// Global selects the named global.
func Global(eng *engine.Engine, name string) Source {
	return Source{eng: eng, key: name, kind: srcGlobal}
}

// Top selects the value already at the stack top. Resolving it pushes
// nothing; extracting through it consumes that value.
func Top(eng *engine.Engine) Source {
	return Source{eng: eng, kind: srcTop}
}

// Engine returns the engine the source resolves against.
func (s Source) Engine() *engine.Engine {
	if s.h != nil {
		return s.h.eng
	}
	return s.eng
}

// Resolve pushes the selected value and returns its type tag. For a Top
// source nothing is pushed (net zero); for everything else the net effect
// is +1, pushing nil when the source cannot be resolved. A source built
// from a null handle has no engine to push on; it resolves to nil with no
// stack effect.
func Resolve(s Source) lua.LValueType {
	if s.Engine() == nil {
		return lua.LTNil
	}
	switch s.kind {
	case srcField:
		return s.h.Push(s.key)
	case srcIndex:
		return s.h.PushIndex(s.pos)
	case srcGlobal:
		return s.eng.PushGlobal(s.key)
	default: // srcTop
		return s.Engine().TypeAt(-1)
	}
}

// resolve guards against sources built from a null handle (a failed Open)
// before pushing. When it returns false, nothing was pushed.
func resolve(s Source) (*engine.Engine, bool) {
	eng := s.Engine()
	if eng == nil {
		return nil, false
	}
	Resolve(s)
	return eng, true
}

// Exists resolves the source and reports whether it holds a non-nil value,
// leaving the stack exactly as it found it.
func Exists(s Source) bool {
	eng := s.Engine()
	if eng == nil {
		return false
	}
	tag := Resolve(s)
	if s.kind != srcTop {
		eng.Pop(1)
	}
	return tag != lua.LTNil
}

// TypeOf resolves the source and reports its type tag, leaving the stack
// exactly as it found it.
func TypeOf(s Source) lua.LValueType {
	eng := s.Engine()
	if eng == nil {
		return lua.LTNil
	}
	tag := Resolve(s)
	if s.kind != srcTop {
		eng.Pop(1)
	}
	return tag
}

// The typed getters resolve the source and extract the value in one step.
// Their net stack effect is zero; the fail-fast-vs-recover decision rides
// on choosing the bare or the Opt form, exactly as in package extract.

// Bool reads a boolean from the source.
func Bool(s Source) (bool, fault.Flags) {
	eng, ok := resolve(s)
	if !ok {
		return false, fault.NonExistent | fault.Fatal
	}
	return extract.Bool(eng)
}

// OptBool reads a boolean, substituting def on absence or mismatch.
func OptBool(s Source, def bool) (bool, fault.Flags) {
	eng, ok := resolve(s)
	if !ok {
		return def, fault.NonExistent
	}
	return extract.OptBool(eng, def)
}

// Number reads a numeric value of kind T from the source.
func Number[T extract.Numeric](s Source) (T, fault.Flags) {
	eng, ok := resolve(s)
	if !ok {
		var zero T
		return zero, fault.NonExistent | fault.Fatal
	}
	return extract.Number[T](eng)
}

// OptNumber reads a numeric value of kind T, substituting def on absence
// or mismatch.
func OptNumber[T extract.Numeric](s Source, def T) (T, fault.Flags) {
	eng, ok := resolve(s)
	if !ok {
		return def, fault.NonExistent
	}
	return extract.OptNumber(eng, def)
}

// String reads a string from the source.
func String(s Source) (string, fault.Flags) {
	eng, ok := resolve(s)
	if !ok {
		return "", fault.NonExistent | fault.Fatal
	}
	return extract.String(eng)
}

// OptString reads a string, substituting def on absence or mismatch.
func OptString(s Source, def string) (string, fault.Flags) {
	eng, ok := resolve(s)
	if !ok {
		return def, fault.NonExistent
	}
	return extract.OptString(eng, def)
}

// Userdata reads an opaque host value from the source.
func Userdata(s Source) (any, fault.Flags) {
	eng, ok := resolve(s)
	if !ok {
		return nil, fault.NonExistent | fault.Fatal
	}
	return extract.Userdata(eng)
}

// OptUserdata reads an opaque host value, substituting def on absence or
// mismatch.
func OptUserdata(s Source, def any) (any, fault.Flags) {
	eng, ok := resolve(s)
	if !ok {
		return def, fault.NonExistent
	}
	return extract.OptUserdata(eng, def)
}

// Key selects where a value is stored in a table: by name or by position.
// The kind is carried explicitly — the empty string is a legal field name,
// so it cannot double as the "positional" marker.
type Key struct {
	name   string
	pos    int
	byName bool
}

// Name keys a store by field name.
func Name(s string) Key { return Key{name: s, byName: true} }

// At keys a store by integer position.
func At(i int) Key { return Key{pos: i} }

// Set stores an already-constructed Lua value into h[at]. Returns
// fault.Fatal when the handle is not valid.
func Set(h *Handle, at Key, v lua.LValue) fault.Flags {
	if !h.Valid() {
		return fault.NonExistent | fault.Fatal
	}
	if at.byName {
		h.table().RawSetString(at.name, v)
	} else {
		h.table().RawSetInt(at.pos, v)
	}
	return 0
}

// SetFromTop pops the stack top and stores it into h[at]. The pop happens
// even when the handle is not valid, so the operation's net stack effect
// is always -1.
func SetFromTop(h *Handle, at Key) fault.Flags {
	var eng *engine.Engine
	if h != nil {
		eng = h.eng
	}
	if !h.Valid() {
		if eng != nil && eng.Depth() > 0 {
			eng.Pop(1)
		}
		return fault.NonExistent | fault.Fatal
	}
	v := eng.Top()
	eng.Pop(1)
	return Set(h, at, v)
}

// SetBool stores a boolean into h[at].
func SetBool(h *Handle, at Key, v bool) fault.Flags {
	return Set(h, at, lua.LBool(v))
}

// SetNumber stores a numeric value of any host kind into h[at].
func SetNumber[T extract.Numeric](h *Handle, at Key, v T) fault.Flags {
	return Set(h, at, lua.LNumber(float64(v)))
}

// SetString stores a string into h[at].
func SetString(h *Handle, at Key, v string) fault.Flags {
	return Set(h, at, lua.LString(v))
}

// SetNil removes the entry at h[at].
func SetNil(h *Handle, at Key) fault.Flags {
	return Set(h, at, lua.LNil)
}
