package engine

import (
	lua "github.com/yuin/gopher-lua"
)

// Stack primitives. Slots are 1-based absolute positions counted from the
// stack bottom; negative slots count back from the top, -1 being the top
// itself. A slot is only valid until a push or pop changes the stack depth
// at or below it — never persist one across unrelated calls.

// Depth returns the number of values on the stack.
func (e *Engine) Depth() int { return e.l.GetTop() }

// SetDepth truncates or nil-extends the stack to exactly n values.
func (e *Engine) SetDepth(n int) { e.l.SetTop(n) }

// Pop removes the top n values.
func (e *Engine) Pop(n int) { e.l.Pop(n) }

// Value returns the value at the given slot without disturbing the stack.
// Out-of-range slots yield nil (the Lua nil, not a Go nil).
func (e *Engine) Value(slot int) lua.LValue { return e.l.Get(slot) }

// TypeAt returns the type tag of the value at the given slot.
func (e *Engine) TypeAt(slot int) lua.LValueType { return e.l.Get(slot).Type() }

// Top returns the value currently at the top of the stack.
func (e *Engine) Top() lua.LValue { return e.l.Get(-1) }

// PushNil pushes the Lua nil value.
func (e *Engine) PushNil() { e.l.Push(lua.LNil) }

// PushBool pushes a boolean.
func (e *Engine) PushBool(v bool) { e.l.Push(lua.LBool(v)) }

// PushInteger pushes an integer as a Lua number.
func (e *Engine) PushInteger(v int64) { e.l.Push(lua.LNumber(v)) }

// PushNumber pushes a floating-point Lua number.
func (e *Engine) PushNumber(v float64) { e.l.Push(lua.LNumber(v)) }

// PushString pushes a string.
func (e *Engine) PushString(v string) { e.l.Push(lua.LString(v)) }

// PushUserdata pushes an opaque host pointer wrapped in a userdata value.
func (e *Engine) PushUserdata(v any) {
	ud := e.l.NewUserData()
	ud.Value = v
	e.l.Push(ud)
}

// PushValue pushes an already-constructed Lua value.
func (e *Engine) PushValue(v lua.LValue) { e.l.Push(v) }

// PushCopy pushes a copy of the value at the given slot.
func (e *Engine) PushCopy(slot int) { e.l.Push(e.l.Get(slot)) }

// PushNewTable creates an empty table and pushes it.
func (e *Engine) PushNewTable() { e.l.Push(e.l.NewTable()) }

// PushGlobal pushes the value of the named global and returns its type tag.
// Absent globals push nil.
func (e *Engine) PushGlobal(name string) lua.LValueType {
	v := e.l.GetGlobal(name)
	e.l.Push(v)
	return v.Type()
}

// SetGlobalFromTop pops the top of the stack and stores it as the named
// global.
func (e *Engine) SetGlobalFromTop(name string) {
	v := e.l.Get(-1)
	e.l.Pop(1)
	e.l.SetGlobal(name, v)
}
