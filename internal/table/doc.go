// Package table navigates Lua tables through stack-slot handles and reads
// and writes host-typed values against them.
//
// # Handles
//
// Open/OpenIndex/OpenGlobal/OpenNew push a table onto the stack and return
// a Handle denoting its slot. A failed Open returns the nil handle — an
// ordinary "absent" outcome, not an error. Handles nest strictly LIFO:
//
//	window := table.OpenGlobal(eng, "window")
//	if window == nil {
//	    // no window table in this script
//	}
//	size := table.Open(window, "size")
//	// ... use size ...
//	size.Close()
//	window.Close()
//
// Closing truncates the stack to below the handle's slot, so closing out
// of order strands later handles; their Close reports ErrStaleHandle
// rather than corrupting the stack silently.
//
// # Accessors
//
// The typed getters take a Source — Field, Index, Global or Top — resolve
// it the way the navigator would, extract through package extract, and
// leave the stack as they found it:
//
//	w, flags := table.OptNumber[int](table.Field(size, "width"), 80)
//	title, _ := table.OptString(table.Global(eng, "title"), "untitled")
//
// Setters are keyed by Name or At and store host scalars, or with
// SetFromTop whatever another component just produced.
//
// # Iteration
//
// First/Advance enumerate all entries in unspecified order, keeping the
// current key/value pair on the stack:
//
//	for ok := h.First(); ok; ok = h.Advance() {
//	    k, v := eng.Value(-2), eng.Value(-1)
//	    // inspect k, v; do not pop — Advance does
//	}
package table
