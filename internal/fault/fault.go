package fault

import "strings"

// Flags classifies why a bridge operation could not produce the requested
// value. NonExistent and WrongType describe the cause and may accompany a
// successfully substituted default; only Fatal means the result is unusable.
type Flags uint8

const (
	// NonExistent indicates the requested value was nil or absent.
	NonExistent Flags = 1 << iota

	// WrongType indicates the value exists but has an incompatible type.
	WrongType

	// Fatal indicates no recovery value was available; the returned value
	// is the kind's zero value and must not be used.
	Fatal
)

// Has reports whether all flags in f2 are set in f.
func (f Flags) Has(f2 Flags) bool { return f&f2 == f2 }

// Ok reports whether no flags are set: the value is the real one, not a
// substituted default.
func (f Flags) Ok() bool { return f == 0 }

// Usable reports whether the returned value may be used. A defaulted value
// is usable even though NonExistent or WrongType is set.
func (f Flags) Usable() bool { return f&Fatal == 0 }

// String returns a pipe-separated list of the set flags.
func (f Flags) String() string {
	if f == 0 {
		return "ok"
	}
	var parts []string
	if f.Has(NonExistent) {
		parts = append(parts, "non-existent")
	}
	if f.Has(WrongType) {
		parts = append(parts, "wrong-type")
	}
	if f.Has(Fatal) {
		parts = append(parts, "fatal")
	}
	return strings.Join(parts, "|")
}
