// Package extract converts the value at the stack top into host scalar
// kinds under one uniform contract.
//
// Precondition: the value to convert is at the stack top. Postcondition:
// exactly one value is popped, regardless of outcome — success, absence,
// or type mismatch. This pairing is what lets the higher-level accessors
// promise a net-zero stack effect.
//
// Each kind comes as a Check/Opt pair, following the interpreter's own
// naming: the bare form (Bool, Number, String, Userdata) has no recovery
// value, so absence or mismatch sets fault.Fatal; the Opt form substitutes
// the caller's default and reports why via fault.NonExistent or
// fault.WrongType, leaving the result usable either way.
//
// Numbers convert across the whole Numeric kind set through the one
// generic pair Number/OptNumber. Strings and booleans require the exact
// Lua type; no string↔number coercion happens here.
package extract
