package runner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/SanjoDeundiak/process-handle/pkg/lib"
	"github.com/SanjoDeundiak/process-handle/pkg/lib/journal"
)

type mockJournal struct {
	mu     sync.Mutex
	events []journal.Event
}

func (m *mockJournal) Write(ev journal.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *mockJournal) count(kind journal.Event) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, ev := range m.events {
		if ev.Type() == kind.Type() {
			n++
		}
	}
	return n
}

// syncBuffer is a console that can be read while readers echo to it.
type syncBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}

func newTestRunner(t *testing.T, opts ...Option) *Runner {
	t.Helper()
	opts = append([]Option{WithPollInterval(10 * time.Millisecond), WithConsole(&syncBuffer{})}, opts...)
	r := NewRunner(opts...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = r.Shutdown(ctx)
	})
	return r
}

func newTestHandle(t *testing.T, r *Runner, command ...string) *Handle {
	t.Helper()
	h, err := r.NewHandle(lib.Params{Command: command})
	if err != nil {
		t.Fatalf("NewHandle failed: %v", err)
	}
	return h
}

func startTestHandle(t *testing.T, r *Runner, command ...string) *Handle {
	t.Helper()
	h := newTestHandle(t, r, command...)
	if err := h.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return h
}

func waitFor(t *testing.T, h *Handle) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.WaitFor(ctx); err != nil {
		t.Fatalf("WaitFor failed: %v", err)
	}
}

func waitUntil(t *testing.T, d time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met in %s: %s", d, msg)
}
