// Package ref converts ephemeral stack positions into durable registry
// keys and back.
//
// A stack slot dies with the next pop beneath it; a Ref does not. Take a
// reference once, run any amount of unrelated table or function work, then
// push the referenced value back whenever it is needed:
//
//	handlers := table.OpenGlobal(eng, "handlers")
//	onSave, _ := ref.For(table.Field(handlers, "on_save"))
//	handlers.Close()
//
//	// ... much later ...
//	onSave.PushTop()         // the function is at the stack top again
//	defer onSave.Release()
//
// Keys are handed out luaL_ref style from an anchor table in the engine
// registry, with released keys recycled through a freelist threaded at
// index 0. Release exists precisely so long-lived engines do not leak one
// registry entry per reference ever taken.
package ref
