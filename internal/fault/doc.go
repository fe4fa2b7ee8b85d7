// Package fault defines the shared failure classification used by every
// bridge component.
//
// Extraction and accessor operations never abort on their own. They return a
// Flags value alongside a possibly-defaulted result, leaving the
// fail-fast-vs-recover decision to the caller:
//
//	v, flags := table.OptNumber[float64](table.Field(h, "scale"), 1.0)
//	if !flags.Ok() {
//	    // v is the default; flags says why the real value was unavailable
//	}
//
// Callers that only care whether the result is safe to use should check
// Usable; callers that care whether a default was substituted must inspect
// the individual flags.
package fault
