package table

import (
	"github.com/dshills/luadeck/internal/extract"
	"github.com/dshills/luadeck/internal/fault"
)

// Array accessors move 1-D host arrays in and out of tables. Reads walk
// the sequence part in order; writes build a fresh table and store it with
// SetFromTop. Element-level failures do not stop the walk: the first
// element's flags are propagated, but the full array is still produced,
// since partial results beat none when reading configuration.

// Numbers reads the source's sequence part as a numeric array of kind T.
// Mistyped elements become T's zero value and are reported through the
// returned flags.
func Numbers[T extract.Numeric](s Source) ([]T, fault.Flags) {
	arr := openSource(s)
	if arr == nil {
		return nil, fault.NonExistent | fault.Fatal
	}
	defer arr.Close()

	n := arr.SeqLen()
	vals := make([]T, n)
	var first fault.Flags
	var zero T
	for i := 1; i <= n; i++ {
		arr.PushIndex(i)
		v, flags := extract.OptNumber(arr.eng, zero)
		vals[i-1] = v
		if !flags.Ok() && first.Ok() {
			first = flags
		}
	}
	return vals, first
}

// Strings reads the source's sequence part as a string array, with the
// same element-error policy as Numbers.
func Strings(s Source) ([]string, fault.Flags) {
	arr := openSource(s)
	if arr == nil {
		return nil, fault.NonExistent | fault.Fatal
	}
	defer arr.Close()

	n := arr.SeqLen()
	vals := make([]string, n)
	var first fault.Flags
	for i := 1; i <= n; i++ {
		arr.PushIndex(i)
		v, flags := extract.OptString(arr.eng, "")
		vals[i-1] = v
		if !flags.Ok() && first.Ok() {
			first = flags
		}
	}
	return vals, first
}

// SetNumbers builds a new table from vals, in order, and stores it into
// h[at]. The freshly built table is consumed off the stack by the store.
func SetNumbers[T extract.Numeric](h *Handle, at Key, vals []T) fault.Flags {
	if !h.Valid() {
		return fault.NonExistent | fault.Fatal
	}
	arr := OpenNew(h.eng)
	for i, v := range vals {
		SetNumber(arr, At(i+1), v)
	}
	// SetFromTop consumes the array table; the sub-handle is spent, not closed.
	return SetFromTop(h, at)
}

// SetStrings builds a new table from vals, in order, and stores it into
// h[at].
func SetStrings(h *Handle, at Key, vals []string) fault.Flags {
	if !h.Valid() {
		return fault.NonExistent | fault.Fatal
	}
	arr := OpenNew(h.eng)
	for i, v := range vals {
		SetString(arr, At(i+1), v)
	}
	return SetFromTop(h, at)
}

// openSource opens a sub-handle on the table the source points at,
// resolving exactly like the scalar getters do. Returns nil (stack
// untouched) when the source is not a table.
func openSource(s Source) *Handle {
	eng := s.Engine()
	if eng == nil {
		return nil
	}
	if s.kind == srcTop {
		return FromTop(eng)
	}
	return adopt(eng, Resolve(s))
}
