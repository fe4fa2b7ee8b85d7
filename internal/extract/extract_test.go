package extract

import (
	"testing"

	"github.com/dshills/luadeck/internal/engine"
	"github.com/dshills/luadeck/internal/fault"
)

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng, err := engine.New()
	if err != nil {
		t.Fatalf("engine.New() error = %v", err)
	}
	t.Cleanup(func() { eng.Close() })
	return eng
}

func TestBool(t *testing.T) {
	eng := newEngine(t)
	base := eng.Depth()

	eng.PushBool(true)
	v, flags := Bool(eng)
	if !flags.Ok() {
		t.Errorf("Bool() flags = %v, want ok", flags)
	}
	if !v {
		t.Error("Bool() = false, want true")
	}
	if eng.Depth() != base {
		t.Errorf("Depth() = %d, want %d", eng.Depth(), base)
	}
}

func TestBoolAbsent(t *testing.T) {
	eng := newEngine(t)

	eng.PushNil()
	_, flags := Bool(eng)
	if !flags.Has(fault.NonExistent | fault.Fatal) {
		t.Errorf("Bool() on nil flags = %v, want non-existent|fatal", flags)
	}

	eng.PushNil()
	v, flags := OptBool(eng, true)
	if !flags.Has(fault.NonExistent) || flags.Has(fault.Fatal) {
		t.Errorf("OptBool() on nil flags = %v, want non-existent only", flags)
	}
	if !v {
		t.Error("OptBool() did not substitute default")
	}
}

func TestBoolWrongType(t *testing.T) {
	eng := newEngine(t)

	eng.PushString("yes")
	_, flags := Bool(eng)
	if !flags.Has(fault.WrongType | fault.Fatal) {
		t.Errorf("Bool() on string flags = %v, want wrong-type|fatal", flags)
	}

	eng.PushString("yes")
	v, flags := OptBool(eng, true)
	if !flags.Has(fault.WrongType) || flags.Has(fault.Fatal) {
		t.Errorf("OptBool() on string flags = %v, want wrong-type only", flags)
	}
	if !v {
		t.Error("OptBool() did not substitute default")
	}
}

func TestNumberKinds(t *testing.T) {
	eng := newEngine(t)
	base := eng.Depth()

	eng.PushNumber(42.0)
	i, flags := Number[int](eng)
	if !flags.Ok() || i != 42 {
		t.Errorf("Number[int]() = %d, %v; want 42, ok", i, flags)
	}

	eng.PushNumber(3.5)
	f32, flags := Number[float32](eng)
	if !flags.Ok() || f32 != 3.5 {
		t.Errorf("Number[float32]() = %v, %v; want 3.5, ok", f32, flags)
	}

	eng.PushNumber(3.9)
	i64, flags := Number[int64](eng)
	if !flags.Ok() || i64 != 3 {
		t.Errorf("Number[int64](3.9) = %d, %v; want truncated 3, ok", i64, flags)
	}

	eng.PushInteger(255)
	u8, flags := Number[uint8](eng)
	if !flags.Ok() || u8 != 255 {
		t.Errorf("Number[uint8]() = %d, %v; want 255, ok", u8, flags)
	}

	if eng.Depth() != base {
		t.Errorf("Depth() = %d, want %d", eng.Depth(), base)
	}
}

func TestNumberNoStringCoercion(t *testing.T) {
	eng := newEngine(t)

	eng.PushString("42")
	_, flags := Number[int](eng)
	if !flags.Has(fault.WrongType | fault.Fatal) {
		t.Errorf("Number[int]() on string flags = %v, want wrong-type|fatal", flags)
	}
}

func TestOptNumberDefault(t *testing.T) {
	eng := newEngine(t)

	eng.PushNil()
	v, flags := OptNumber(eng, 9.25)
	if v != 9.25 {
		t.Errorf("OptNumber() = %v, want default 9.25", v)
	}
	if !flags.Has(fault.NonExistent) || flags.Has(fault.Fatal) {
		t.Errorf("OptNumber() flags = %v, want non-existent only", flags)
	}

	eng.PushBool(false)
	n, flags := OptNumber[int32](eng, -5)
	if n != -5 {
		t.Errorf("OptNumber[int32]() = %d, want default -5", n)
	}
	if !flags.Has(fault.WrongType) || flags.Has(fault.Fatal) {
		t.Errorf("OptNumber[int32]() flags = %v, want wrong-type only", flags)
	}
}

func TestString(t *testing.T) {
	eng := newEngine(t)
	base := eng.Depth()

	eng.PushString("hello")
	s, flags := String(eng)
	if !flags.Ok() || s != "hello" {
		t.Errorf("String() = %q, %v; want hello, ok", s, flags)
	}

	// Numbers must not coerce to strings.
	eng.PushNumber(1.5)
	_, flags = String(eng)
	if !flags.Has(fault.WrongType | fault.Fatal) {
		t.Errorf("String() on number flags = %v, want wrong-type|fatal", flags)
	}

	eng.PushNil()
	s, flags = OptString(eng, "fallback")
	if s != "fallback" || !flags.Has(fault.NonExistent) {
		t.Errorf("OptString() = %q, %v; want fallback, non-existent", s, flags)
	}

	if eng.Depth() != base {
		t.Errorf("Depth() = %d, want %d", eng.Depth(), base)
	}
}

func TestStringInto(t *testing.T) {
	eng := newEngine(t)

	// Fits.
	eng.PushString("abc")
	buf := make([]byte, 8)
	n, flags := StringInto(eng, buf)
	if !flags.Ok() || n != 3 || string(buf[:n]) != "abc" {
		t.Errorf("StringInto() = %d %q, %v; want 3 abc, ok", n, buf[:n], flags)
	}

	// Truncates silently.
	eng.PushString("abcdefgh")
	small := make([]byte, 4)
	n, flags = StringInto(eng, small)
	if !flags.Ok() {
		t.Errorf("StringInto() truncation flags = %v, want ok", flags)
	}
	if n != 4 || string(small) != "abcd" {
		t.Errorf("StringInto() truncated = %d %q, want 4 abcd", n, small)
	}
}

func TestUserdata(t *testing.T) {
	eng := newEngine(t)
	base := eng.Depth()

	type host struct{ tag string }
	h := &host{tag: "x"}

	eng.PushUserdata(h)
	got, flags := Userdata(eng)
	if !flags.Ok() {
		t.Errorf("Userdata() flags = %v, want ok", flags)
	}
	if got != h {
		t.Errorf("Userdata() = %v, want %v", got, h)
	}

	eng.PushString("not a pointer")
	def := &host{tag: "def"}
	v, flags := OptUserdata(eng, def)
	if v != def || !flags.Has(fault.WrongType) {
		t.Errorf("OptUserdata() = %v, %v; want default, wrong-type", v, flags)
	}

	if eng.Depth() != base {
		t.Errorf("Depth() = %d, want %d", eng.Depth(), base)
	}
}

// Every kind pops exactly one slot no matter the outcome.
func TestAlwaysPopsOne(t *testing.T) {
	eng := newEngine(t)

	pushes := []func(){
		func() { eng.PushNil() },
		func() { eng.PushBool(true) },
		func() { eng.PushNumber(1) },
		func() { eng.PushString("s") },
		func() { eng.PushUserdata(1) },
		func() { eng.PushNewTable() },
	}
	extracts := []func(){
		func() { Bool(eng) },
		func() { OptBool(eng, false) },
		func() { Number[float64](eng) },
		func() { OptNumber[int](eng, 0) },
		func() { String(eng) },
		func() { OptString(eng, "") },
		func() { Userdata(eng) },
		func() { OptUserdata(eng, nil) },
	}

	base := eng.Depth()
	for _, push := range pushes {
		for _, ex := range extracts {
			push()
			ex()
			if eng.Depth() != base {
				t.Fatalf("Depth() = %d, want %d (extraction did not pop exactly one)", eng.Depth(), base)
			}
		}
	}
}

// An extraction with lua.LValue push mix, for coverage of the type switch
// against values produced by the interpreter itself.
func TestExtractFromScriptValues(t *testing.T) {
	eng := newEngine(t)

	if err := eng.DoString(`n = 12.75; s = "twelve"; b = true`); err != nil {
		t.Fatalf("DoString() error = %v", err)
	}

	eng.PushGlobal("n")
	f, flags := Number[float64](eng)
	if !flags.Ok() || f != 12.75 {
		t.Errorf("Number(n) = %v, %v; want 12.75, ok", f, flags)
	}

	eng.PushGlobal("s")
	s, flags := String(eng)
	if !flags.Ok() || s != "twelve" {
		t.Errorf("String(s) = %q, %v; want twelve, ok", s, flags)
	}

	eng.PushGlobal("b")
	b, flags := Bool(eng)
	if !flags.Ok() || !b {
		t.Errorf("Bool(b) = %v, %v; want true, ok", b, flags)
	}

	eng.PushGlobal("missing")
	v, flags := OptNumber(eng, 7.0)
	if v != 7.0 || !flags.Has(fault.NonExistent) {
		t.Errorf("OptNumber(missing) = %v, %v; want 7, non-existent", v, flags)
	}

	if eng.Depth() != 0 {
		t.Errorf("stack not restored, depth = %d", eng.Depth())
	}
}
