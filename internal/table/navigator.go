package table

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/luadeck/internal/engine"
)

// Handle denotes a stack slot known to hold a table. It is not an owning
// reference: the slot is only valid until the stack is truncated at or
// below it. Handles nest LIFO — a handle opened later must be closed
// before any handle opened earlier.
//
// A nil Handle is the null handle: the normal "absent" outcome of an Open
// that found nothing table-typed.
type Handle struct {
	eng  *engine.Engine
	slot int
}

// Open pushes parent[key] and adopts it as a new handle. It returns nil
// when the entry is absent or not a table; the stack is left unchanged in
// that case.
func Open(parent *Handle, key string) *Handle {
	if !parent.Valid() {
		return nil
	}
	return adopt(parent.eng, parent.Push(key))
}

// OpenIndex pushes parent[pos] and adopts it as a new handle, with the same
// absent semantics as Open.
func OpenIndex(parent *Handle, pos int) *Handle {
	if !parent.Valid() {
		return nil
	}
	return adopt(parent.eng, parent.PushIndex(pos))
}

// OpenGlobal pushes the named global and adopts it as a new handle, with
// the same absent semantics as Open.
func OpenGlobal(eng *engine.Engine, name string) *Handle {
	return adopt(eng, eng.PushGlobal(name))
}

// OpenNew creates a brand-new empty table, pushes it, and returns its
// handle.
func OpenNew(eng *engine.Engine) *Handle {
	eng.PushNewTable()
	return &Handle{eng: eng, slot: eng.Depth()}
}

// FromTop adopts whatever is currently at the stack top. The value stays
// where it is; it is not duplicated. Returns nil, leaving the stack alone,
// when the top is not a table.
func FromTop(eng *engine.Engine) *Handle {
	if eng.Depth() == 0 || eng.TypeAt(-1) != lua.LTTable {
		return nil
	}
	return &Handle{eng: eng, slot: eng.Depth()}
}

// adopt turns the freshly pushed stack top into a handle, or pops it when
// it is not a table.
func adopt(eng *engine.Engine, tag lua.LValueType) *Handle {
	if tag != lua.LTTable {
		eng.Pop(1)
		return nil
	}
	return &Handle{eng: eng, slot: eng.Depth()}
}

// Valid reports whether the handle still denotes a live table slot. A
// handle goes stale when an earlier handle is closed beneath it; the depth
// check makes that detectable instead of silently reusing the slot.
func (h *Handle) Valid() bool {
	if h == nil || h.slot < 1 || h.eng == nil {
		return false
	}
	return h.slot <= h.eng.Depth() && h.eng.TypeAt(h.slot) == lua.LTTable
}

// Slot returns the stack slot this handle denotes, or 0 for a null or
// closed handle.
func (h *Handle) Slot() int {
	if h == nil {
		return 0
	}
	return h.slot
}

// Engine returns the engine the handle belongs to.
func (h *Handle) Engine() *engine.Engine {
	if h == nil {
		return nil
	}
	return h.eng
}

// Close truncates the stack to one below the handle's slot and zeroes the
// handle. Anything pushed above the slot — including handles opened later
// and not yet closed — is discarded, so closing out of LIFO order leaves
// those handles stale; their own Close then reports ErrStaleHandle.
func (h *Handle) Close() error {
	if h == nil || h.slot == 0 {
		return ErrStaleHandle
	}
	if h.slot > h.eng.Depth() {
		h.slot = 0
		return ErrStaleHandle
	}
	h.eng.SetDepth(h.slot - 1)
	h.slot = 0
	return nil
}

// table returns the table value at the handle's slot. Callers must have
// checked Valid.
func (h *Handle) table() *lua.LTable {
	return h.eng.Value(h.slot).(*lua.LTable)
}

// Push pushes h[key] (a raw access, no metamethods) and returns its type
// tag. An invalid handle pushes nil. Net stack effect +1.
func (h *Handle) Push(key string) lua.LValueType {
	if !h.Valid() {
		h.pushNil()
		return lua.LTNil
	}
	v := h.table().RawGetString(key)
	h.eng.PushValue(v)
	return v.Type()
}

// PushIndex pushes h[pos] and returns its type tag. An invalid handle
// pushes nil. Net stack effect +1.
func (h *Handle) PushIndex(pos int) lua.LValueType {
	if !h.Valid() {
		h.pushNil()
		return lua.LTNil
	}
	v := h.table().RawGetInt(pos)
	h.eng.PushValue(v)
	return v.Type()
}

func (h *Handle) pushNil() {
	if h != nil && h.eng != nil {
		h.eng.PushNil()
	}
}

// First begins iteration over the table's entries. When the table is
// non-empty it pushes the first key at -2 and its value at -1 and returns
// true; otherwise it pushes nothing and returns false. Enumeration order
// is unspecified.
func (h *Handle) First() bool {
	if !h.Valid() {
		return false
	}
	k, v := h.table().Next(lua.LNil)
	if k == lua.LNil {
		return false
	}
	h.eng.PushValue(k)
	h.eng.PushValue(v)
	return true
}

// Advance pops the current key/value pair and pushes the next one,
// returning false (with nothing pushed) when the table is exhausted. Must
// only be called while the pair from First/Advance is still at the top.
func (h *Handle) Advance() bool {
	if !h.Valid() {
		return false
	}
	key := h.eng.Value(-2)
	h.eng.Pop(2)
	k, v := h.table().Next(key)
	if k == lua.LNil {
		return false
	}
	h.eng.PushValue(k)
	h.eng.PushValue(v)
	return true
}

// Len counts all entries in the table, hash and array part alike, by full
// iteration. This is intentionally the total entry count, not the sequence
// length, and costs O(entries). Sequence length is SeqLen.
func (h *Handle) Len() int {
	if !h.Valid() {
		return 0
	}
	count := 0
	h.table().ForEach(func(_, _ lua.LValue) { count++ })
	return count
}

// SeqLen returns the length of the contiguous integer-indexed prefix, the
// Lua # operator. O(1)-ish, unlike Len.
func (h *Handle) SeqLen() int {
	if !h.Valid() {
		return 0
	}
	return h.table().Len()
}
