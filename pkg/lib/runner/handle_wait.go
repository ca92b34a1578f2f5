package runner

import (
	"context"
	"errors"
	"time"

	"github.com/SanjoDeundiak/process-handle/pkg/lib/journal"
)

// WaitFor blocks until the current run exits and both of its output readers
// are done, so all output produced before the exit is captured when it
// returns. Cancelling ctx aborts the wait with ErrCancelled and leaves the
// process running.
func (h *Handle) WaitFor(ctx context.Context) error {
	r, err := h.awaitExit(ctx)
	if err != nil {
		return err
	}
	return awaitReaders(ctx, r)
}

// WaitForTimeout is WaitFor with the wait for exit bounded by timeout. It
// returns false if the process is still running when the timeout elapses.
// The wait for the readers that follows an exit is bounded by ctx only.
func (h *Handle) WaitForTimeout(ctx context.Context, timeout time.Duration) (bool, error) {
	exitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r, err := h.awaitExit(exitCtx)
	if err != nil {
		if errors.Is(err, ErrNotStarted) || ctx.Err() != nil {
			return false, err
		}
		return false, nil
	}
	return true, awaitReaders(ctx, r)
}

func (h *Handle) awaitExit(ctx context.Context) (*run, error) {
	r := h.currentRun()
	if r == nil {
		return nil, ErrNotStarted
	}
	select {
	case <-r.exited:
	case <-ctx.Done():
		return r, cancelled(ctx.Err())
	}
	h.markFinished(r)
	return r, nil
}

func awaitReaders(ctx context.Context, r *run) error {
	for _, done := range []chan struct{}{r.outDone, r.errDone} {
		select {
		case <-done:
		case <-ctx.Done():
			return cancelled(ctx.Err())
		}
	}
	return nil
}

// checkTerminated is called by the crawler on every scan.
func (h *Handle) checkTerminated() {
	if r := h.currentRun(); r != nil {
		h.markFinished(r)
	}
}

// markFinished records the finish time of r once, if r is still the current
// run and has exited.
func (h *Handle) markFinished(r *run) {
	h.mu.Lock()
	if h.run != r || !h.finishedAt.IsZero() || !r.hasExited() {
		h.mu.Unlock()
		return
	}
	h.finishedAt = time.Now()
	duration := h.finishedAt.Sub(h.startedAt)
	h.mu.Unlock()

	h.logger.Info("process finished", "pid", r.pid, "exit_code", r.exitCode, "duration", duration.String())
	h.runner.record(&journal.EventProcessExited{
		ID:         h.id,
		PID:        r.pid,
		ExitCode:   r.exitCode,
		DurationMs: duration.Milliseconds(),
	})
}
