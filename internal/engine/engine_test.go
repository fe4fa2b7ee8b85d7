package engine

import (
	"strings"
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func TestNew(t *testing.T) {
	eng, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer eng.Close()

	if eng.IsClosed() {
		t.Error("New() returned closed engine")
	}
	if eng.State() == nil {
		t.Error("State() is nil")
	}
	if eng.ID() == "" {
		t.Error("ID() is empty")
	}
	if eng.Sandbox() == nil {
		t.Error("Sandbox() is nil for default engine")
	}
}

func TestNewWithAllLibraries(t *testing.T) {
	eng, err := New(WithAllLibraries())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer eng.Close()

	if eng.Sandbox() != nil {
		t.Error("Sandbox() should be nil with WithAllLibraries")
	}

	// os is open without an explicit allowance.
	if err := eng.DoString(`x = os.time()`); err != nil {
		t.Errorf("DoString() with os error = %v", err)
	}
}

func TestClose(t *testing.T) {
	eng, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := eng.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if !eng.IsClosed() {
		t.Error("IsClosed() = false after Close")
	}

	// Idempotent.
	if err := eng.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if err := eng.DoString(`x = 1`); err != ErrEngineClosed {
		t.Errorf("DoString() on closed engine error = %v, want ErrEngineClosed", err)
	}
}

func TestDoString(t *testing.T) {
	eng, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer eng.Close()

	if err := eng.DoString(`answer = 6 * 7`); err != nil {
		t.Fatalf("DoString() error = %v", err)
	}

	if tag := eng.PushGlobal("answer"); tag != lua.LTNumber {
		t.Errorf("PushGlobal(answer) type = %v, want number", tag)
	}
	if n, ok := eng.Top().(lua.LNumber); !ok || float64(n) != 42 {
		t.Errorf("answer = %v, want 42", eng.Top())
	}
	eng.Pop(1)
}

func TestDoStringSyntaxError(t *testing.T) {
	eng, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer eng.Close()

	err = eng.DoString(`not valid lua !!!`)
	if err == nil {
		t.Fatal("DoString() with invalid code should return error")
	}

	status, msg := Classify(err)
	if status != StatusSyntax {
		t.Errorf("Classify() status = %v, want syntax-error", status)
	}
	if msg == "" {
		t.Error("Classify() message is empty")
	}
}

func TestLoadString(t *testing.T) {
	eng, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer eng.Close()

	before := eng.Depth()
	if err := eng.LoadString(`return 1 + 1`); err != nil {
		t.Fatalf("LoadString() error = %v", err)
	}
	if eng.Depth() != before+1 {
		t.Errorf("Depth() = %d after LoadString, want %d", eng.Depth(), before+1)
	}
	if eng.TypeAt(-1) != lua.LTFunction {
		t.Errorf("TypeAt(-1) = %v, want function", eng.TypeAt(-1))
	}
	eng.Pop(1)

	// Failed loads must push nothing.
	if err := eng.LoadString(`return return`); err == nil {
		t.Fatal("LoadString() with invalid code should return error")
	}
	if eng.Depth() != before {
		t.Errorf("Depth() = %d after failed LoadString, want %d", eng.Depth(), before)
	}
}

func TestStackPrimitives(t *testing.T) {
	eng, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer eng.Close()

	base := eng.Depth()

	eng.PushBool(true)
	eng.PushInteger(7)
	eng.PushNumber(2.5)
	eng.PushString("hello")
	eng.PushNil()

	if got := eng.Depth(); got != base+5 {
		t.Fatalf("Depth() = %d, want %d", got, base+5)
	}

	tags := []lua.LValueType{lua.LTBool, lua.LTNumber, lua.LTNumber, lua.LTString, lua.LTNil}
	for i, want := range tags {
		if got := eng.TypeAt(base + i + 1); got != want {
			t.Errorf("TypeAt(%d) = %v, want %v", base+i+1, got, want)
		}
	}

	eng.Pop(2)
	if got := eng.Depth(); got != base+3 {
		t.Errorf("Depth() after Pop(2) = %d, want %d", got, base+3)
	}

	eng.SetDepth(base)
	if got := eng.Depth(); got != base {
		t.Errorf("Depth() after SetDepth = %d, want %d", got, base)
	}
}

func TestPushUserdata(t *testing.T) {
	eng, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer eng.Close()

	type payload struct{ n int }
	p := &payload{n: 3}

	eng.PushUserdata(p)
	if eng.TypeAt(-1) != lua.LTUserData {
		t.Fatalf("TypeAt(-1) = %v, want userdata", eng.TypeAt(-1))
	}
	ud := eng.Top().(*lua.LUserData)
	if ud.Value != p {
		t.Errorf("userdata value = %v, want %v", ud.Value, p)
	}
	eng.Pop(1)
}

func TestPushCopy(t *testing.T) {
	eng, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer eng.Close()

	eng.PushString("anchor")
	slot := eng.Depth()
	eng.PushInteger(1)
	eng.PushCopy(slot)

	if s, ok := eng.Top().(lua.LString); !ok || string(s) != "anchor" {
		t.Errorf("PushCopy top = %v, want anchor", eng.Top())
	}
	eng.SetDepth(slot - 1)
}

func TestSetGlobalFromTop(t *testing.T) {
	eng, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer eng.Close()

	base := eng.Depth()
	eng.PushString("stored")
	eng.SetGlobalFromTop("marker")

	if eng.Depth() != base {
		t.Errorf("Depth() = %d after SetGlobalFromTop, want %d", eng.Depth(), base)
	}

	eng.PushGlobal("marker")
	if s, ok := eng.Top().(lua.LString); !ok || string(s) != "stored" {
		t.Errorf("marker = %v, want stored", eng.Top())
	}
	eng.Pop(1)
}

func TestClassify(t *testing.T) {
	eng, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer eng.Close()

	tests := []struct {
		name string
		code string
		want Status
	}{
		{"syntax", `func broken(`, StatusSyntax},
		{"runtime", `local t = nil; return t.field`, StatusRuntime},
		{"raised", `error("deliberate")`, StatusRuntime},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := eng.DoString(tt.code)
			if err == nil {
				t.Fatal("DoString() should return error")
			}
			status, msg := Classify(err)
			if status != tt.want {
				t.Errorf("Classify() status = %v, want %v", status, tt.want)
			}
			if msg == "" {
				t.Error("Classify() message is empty")
			}
		})
	}
}

func TestClassifyNil(t *testing.T) {
	status, msg := Classify(nil)
	if status != StatusOK {
		t.Errorf("Classify(nil) status = %v, want ok", status)
	}
	if msg != "" {
		t.Errorf("Classify(nil) message = %q, want empty", msg)
	}
}

func TestClassifyRaisedMessage(t *testing.T) {
	eng, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer eng.Close()

	err = eng.DoString(`error("kaboom")`)
	if err == nil {
		t.Fatal("DoString() should return error")
	}
	_, msg := Classify(err)
	if !strings.Contains(msg, "kaboom") {
		t.Errorf("Classify() message = %q, want it to contain kaboom", msg)
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		s    Status
		want string
	}{
		{StatusOK, "ok"},
		{StatusSyntax, "syntax-error"},
		{StatusFile, "file-error"},
		{StatusRuntime, "runtime-error"},
		{StatusUnhandled, "unhandled-error"},
		{StatusPanic, "panic"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", int(tt.s), got, tt.want)
		}
	}
}

func TestNewStartsWithEmptyStack(t *testing.T) {
	eng, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer eng.Close()

	// Library loaders return their module table; opening them must not
	// strand those tables on the stack.
	if got := eng.Depth(); got != 0 {
		t.Errorf("Depth() = %d on a fresh sandboxed engine, want 0", got)
	}

	all, err := New(WithAllLibraries())
	if err != nil {
		t.Fatalf("New(WithAllLibraries) error = %v", err)
	}
	defer all.Close()

	if got := all.Depth(); got != 0 {
		t.Errorf("Depth() = %d with all libraries, want 0", got)
	}
}
