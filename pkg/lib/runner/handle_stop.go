package runner

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/SanjoDeundiak/process-handle/pkg/lib/journal"
)

// Destroy asks the process group of the current run to terminate with
// SIGTERM. It does not wait for the exit, see WaitFor. Destroying an exited
// run is a no-op.
func (h *Handle) Destroy() error {
	return h.signal(syscall.SIGTERM)
}

// DestroyForcibly kills the process group of the current run with SIGKILL.
func (h *Handle) DestroyForcibly() error {
	return h.signal(syscall.SIGKILL)
}

// Terminate is the management action behind ActionTerminate.
func (h *Handle) Terminate() error {
	return h.Destroy()
}

// Restart destroys the current run, if any, and starts a new one with the
// same params. The id and group membership are kept. It does not wait for
// the previous run to exit.
func (h *Handle) Restart() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.logger.Info("restarting process")
	h.runner.record(&journal.EventProcessRestarted{ID: h.id})

	if err := h.signalLocked(syscall.SIGTERM); err != nil && !errors.Is(err, ErrNotStarted) {
		h.logger.Warn("cannot terminate previous run", "error", err)
	}
	return h.startLocked()
}

func (h *Handle) signal(sig syscall.Signal) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.signalLocked(sig)
}

func (h *Handle) signalLocked(sig syscall.Signal) error {
	if h.run == nil {
		return fmt.Errorf("handle %s: %w", h.id, ErrNotStarted)
	}
	if h.run.hasExited() {
		return nil
	}

	pid := h.run.pid
	h.logger.Info("sending signal", "pid", pid, "signal", sig.String())
	h.runner.record(&journal.EventProcessSignaled{ID: h.id, PID: pid, Signal: sig.String()})

	if err := signalGroup(pid, sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("signal process %s: %w", h.id, err)
	}
	return nil
}
