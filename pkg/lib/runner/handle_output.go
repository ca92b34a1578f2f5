package runner

import (
	"context"
	"strings"
	"time"

	"github.com/SanjoDeundiak/process-handle/pkg/lib/output_storage"
)

// Out returns everything captured from stdout so far, across all runs.
// Every line ends with a newline.
func (h *Handle) Out() string {
	return h.out.String()
}

// Err returns everything captured from stderr so far, across all runs.
func (h *Handle) Err() string {
	return h.err.String()
}

// OutAndError returns stdout and stderr lines interleaved in capture order.
// Lines from different streams captured at nearly the same time may appear
// in either order.
func (h *Handle) OutAndError() string {
	return h.combined.String()
}

// Print writes OutAndError to the runner console.
func (h *Handle) Print() {
	h.runner.printString(h.combined.String())
}

// OutputQueue returns the stdout delivery queue, or nil if the handle was
// created without a queue capacity.
func (h *Handle) OutputQueue() <-chan string {
	return h.outQueue
}

// ErrorQueue returns the stderr delivery queue, or nil.
func (h *Handle) ErrorQueue() <-chan string {
	return h.errQueue
}

// Receive hands captured lines to onOut and onErr on the calling goroutine
// until the process has exited, both readers are done and a final grace
// period has passed. Lines are consumed: each one is delivered to exactly
// one Receive call. They are taken from the delivery queues when the handle
// has them, from the captured output otherwise. A nil callback leaves the
// captured output of its stream untouched, while its queued lines are
// discarded. Cancelling ctx returns ErrCancelled.
func (h *Handle) Receive(ctx context.Context, onOut, onErr func(string)) error {
	notify, err := h.changes.Subscribe()
	if err == nil {
		defer h.changes.Unsubscribe(notify)
	}

	ticker := time.NewTicker(h.runner.pollInterval)
	defer ticker.Stop()

	grace := true
	for {
		if ctx.Err() != nil {
			return cancelled(ctx.Err())
		}
		h.drain(onOut, onErr)

		if h.finished() {
			if !grace {
				return nil
			}
			grace = false
			if err := sleep(ctx, h.runner.gracePeriod); err != nil {
				return err
			}
			continue
		}

		select {
		case <-ctx.Done():
			return cancelled(ctx.Err())
		case _, ok := <-notify:
			if !ok {
				notify = nil
			}
		case <-ticker.C:
		}
	}
}

// finished reports whether the current run has exited and its readers are
// done. A handle that was never started counts as finished.
func (h *Handle) finished() bool {
	r := h.currentRun()
	return r == nil || (r.hasExited() && r.readersDone())
}

// drain hands every pending line to its callback. Queued lines of a stream
// without a callback are dropped so its reader never stays blocked.
func (h *Handle) drain(onOut, onErr func(string)) {
	h.drainStream(h.outQueue, h.outCursor, onOut)
	h.drainStream(h.errQueue, h.errCursor, onErr)
}

func (h *Handle) drainStream(queue chan string, cursor *output_storage.Cursor, fn func(string)) {
	if fn == nil {
		if queue == nil {
			return
		}
		fn = func(string) {}
	}
	for line, ok := h.nextLine(queue, cursor); ok; line, ok = h.nextLine(queue, cursor) {
		fn(line)
	}
}

func (h *Handle) nextLine(queue chan string, cursor *output_storage.Cursor) (string, bool) {
	if queue != nil {
		select {
		case line := <-queue:
			return line, true
		default:
			return "", false
		}
	}

	h.receiveMu.Lock()
	defer h.receiveMu.Unlock()
	data, ok := cursor.Next()
	if !ok {
		return "", false
	}
	return strings.TrimSuffix(string(data), "\n"), true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return cancelled(ctx.Err())
	}
}
