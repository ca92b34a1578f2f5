package watcher

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil, 0, nil); err == nil {
		t.Fatalf("expected error for no paths")
	}
	if _, err := New([]string{filepath.Join(t.TempDir(), "missing")}, 0, nil); err == nil {
		t.Fatalf("expected error for missing path")
	}
}

func TestWatcher_DebouncesChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir}, 100*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan []string, 10)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(changed []string) { changes <- changed })
	}()

	file := filepath.Join(dir, "app.conf")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(file, []byte{byte('a' + i)}, 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case changed := <-changes:
		if !slices.Contains(changed, file) {
			t.Fatalf("expected %s in %v", file, changed)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("no change reported")
	}

	select {
	case changed := <-changes:
		t.Fatalf("expected a single debounced report, got another: %v", changed)
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}

func TestWatcher_Paths(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir}, 0, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = w.Run(ctx, func([]string) {})

	abs, _ := filepath.Abs(dir)
	if !slices.Equal(w.Paths(), []string{abs}) {
		t.Fatalf("unexpected paths %v", w.Paths())
	}
}
