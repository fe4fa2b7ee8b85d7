package ref

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/luadeck/internal/engine"
	"github.com/dshills/luadeck/internal/fault"
	"github.com/dshills/luadeck/internal/table"
)

// anchorKey names the table inside the engine registry that holds all
// references, keeping them clear of anything else living there.
const anchorKey = "luadeck.refs"

// freelistIndex is where released keys are chained, luaL_ref style: entry
// 0 holds the most recently released key, whose slot holds the next one.
const freelistIndex = 0

// Ref is a durable integer key into the engine registry. Unlike a stack
// slot it survives arbitrary unrelated stack traffic, so a script object
// can be held across calls without re-navigating to it.
type Ref struct {
	eng *engine.Engine
	key int
}

// ForTop pops the stack top and stores it in the registry under a fresh
// key. A nil top is popped but yields an invalid Ref with NonExistent set;
// an empty stack yields the same without popping.
func ForTop(eng *engine.Engine) (Ref, fault.Flags) {
	if eng == nil || eng.Depth() == 0 {
		return Ref{}, fault.NonExistent | fault.Fatal
	}
	v := eng.Top()
	eng.Pop(1)
	if v.Type() == lua.LTNil {
		return Ref{}, fault.NonExistent | fault.Fatal
	}

	refs := refsTable(eng)
	key := alloc(refs)
	refs.RawSetInt(key, v)
	return Ref{eng: eng, key: key}, 0
}

// For resolves the source exactly as the navigator would and takes a
// reference to the result. Resolving Top falls back to whatever is already
// on the stack, matching ForTop.
func For(src table.Source) (Ref, fault.Flags) {
	eng := src.Engine()
	if eng == nil {
		return Ref{}, fault.NonExistent | fault.Fatal
	}
	table.Resolve(src)
	return ForTop(eng)
}

// Valid reports whether the Ref holds a live registry key.
func (r Ref) Valid() bool { return r.eng != nil && r.key > 0 }

// Engine returns the engine instance the Ref belongs to.
func (r Ref) Engine() *engine.Engine { return r.eng }

// Key returns the registry key, or 0 for an invalid Ref. The key is only
// meaningful to this engine instance.
func (r Ref) Key() int { return r.key }

// PushTop pushes a copy of the referenced value. The Ref is not consumed;
// PushTop may be called any number of times. An invalid Ref pushes nil so
// the net stack effect is always +1.
func (r Ref) PushTop() fault.Flags {
	if !r.Valid() {
		if r.eng != nil {
			r.eng.PushNil()
		}
		return fault.NonExistent | fault.Fatal
	}
	r.eng.PushValue(refsTable(r.eng).RawGetInt(r.key))
	return 0
}

// Release returns the key to the registry's freelist and zeroes the Ref.
// Without it, references accumulate for the life of the engine. Releasing
// twice is an error, not a corruption.
func (r *Ref) Release() error {
	if !r.Valid() {
		return ErrInvalidRef
	}
	refs := refsTable(r.eng)
	refs.RawSetInt(r.key, refs.RawGetInt(freelistIndex))
	refs.RawSetInt(freelistIndex, lua.LNumber(r.key))
	r.key = 0
	return nil
}

// refsTable returns the reference anchor table, creating it in the engine
// registry on first use.
func refsTable(eng *engine.Engine) *lua.LTable {
	L := eng.State()
	reg := L.G.Registry
	if t, ok := reg.RawGetString(anchorKey).(*lua.LTable); ok {
		return t
	}
	t := L.NewTable()
	reg.RawSetString(anchorKey, t)
	return t
}

// alloc hands out the most recently released key, or extends the dense
// key range when the freelist is empty.
func alloc(refs *lua.LTable) int {
	if head, ok := refs.RawGetInt(freelistIndex).(lua.LNumber); ok && int(head) > 0 {
		key := int(head)
		refs.RawSetInt(freelistIndex, refs.RawGetInt(key))
		return key
	}
	return refs.Len() + 1
}
