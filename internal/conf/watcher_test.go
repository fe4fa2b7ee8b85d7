package conf

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestWatcherDispatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.lua")
	if err := os.WriteFile(path, []byte(`config = {}`), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	w, err := NewWatcher(WithDebounce(20 * time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	var hits atomic.Int64
	var lastPath atomic.Value
	w.OnChange(func(ev Event) {
		lastPath.Store(ev.Path)
		hits.Add(1)
	})

	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	w.Start()
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(path, []byte(`config = { a = 1 }`), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if !waitFor(t, 5*time.Second, func() bool { return hits.Load() >= 1 }) {
		t.Fatal("no change event dispatched")
	}

	want, _ := filepath.Abs(path)
	if got := lastPath.Load(); got != want {
		t.Errorf("event path = %v, want %v", got, want)
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "app.lua")
	other := filepath.Join(dir, "other.lua")
	for _, p := range []string{watched, other} {
		if err := os.WriteFile(p, []byte(`config = {}`), 0o644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}

	w, err := NewWatcher(WithDebounce(10 * time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	var hits atomic.Int64
	w.OnChange(func(Event) { hits.Add(1) })
	if err := w.Watch(watched); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	w.Start()
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(other, []byte(`config = { b = 2 }`), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	time.Sleep(300 * time.Millisecond)

	if hits.Load() != 0 {
		t.Errorf("got %d events for an unwatched file, want 0", hits.Load())
	}
}

func TestWatcherStopBeforeStart(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.Stop() // must not hang or panic
}

func TestOperationString(t *testing.T) {
	if OpWrite.String() != "write" || OpRemove.String() != "remove" {
		t.Error("operation names wrong")
	}
	if Operation(99).String() != "unknown" {
		t.Error("unknown operation name wrong")
	}
}

func TestConfigWatchReload(t *testing.T) {
	path := writeScript(t, sampleScript)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	defer cfg.Close()

	reloaded := make(chan error, 4)
	cfg.OnReload(func(err error) { reloaded <- err })

	if err := cfg.Watch(); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(path, []byte(`config = { workers = 9 }`), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	select {
	case err := <-reloaded:
		if err != nil {
			t.Fatalf("reload error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after file change")
	}

	if got := cfg.Int("workers", 0); got != 9 {
		t.Errorf("Int(workers) after watched reload = %d, want 9", got)
	}
}
