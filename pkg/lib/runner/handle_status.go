package runner

import (
	"time"

	"github.com/SanjoDeundiak/process-handle/pkg/lib"
)

// Action names returned by Actions.
const (
	ActionRestart   = "restart"
	ActionTerminate = "terminate"
)

// IsAlive reports whether the current run has not exited yet.
func (h *Handle) IsAlive() bool {
	r := h.currentRun()
	return r != nil && !r.hasExited()
}

// ExitCode returns the exit code of the current run. ok is false while the
// process runs or if it was never started.
func (h *Handle) ExitCode() (code int, ok bool) {
	r := h.currentRun()
	if r == nil || !r.hasExited() {
		return 0, false
	}
	return r.exitCode, true
}

// Duration returns the elapsed run time: zero before the first start, the
// time since start while running, and a fixed value once the termination
// has been observed.
func (h *Handle) Duration() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.startedAt.IsZero() {
		return 0
	}
	if !h.finishedAt.IsZero() {
		return h.finishedAt.Sub(h.startedAt)
	}
	return time.Since(h.startedAt)
}

// Actions lists the management actions currently available.
func (h *Handle) Actions() []string {
	actions := []string{ActionRestart}
	if h.IsAlive() {
		actions = append(actions, ActionTerminate)
	}
	return actions
}

// Status returns a snapshot of the current run.
func (h *Handle) Status() lib.ProcessStatus {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.run == nil {
		return lib.ProcessStatus{State: lib.ProcessStateNotStarted}
	}

	st := lib.ProcessStatus{
		State:       lib.ProcessStateRunning,
		StartTime:   h.startedAt,
		OutputLines: h.combined.Len(),
		OutputBytes: h.combined.Size(),
	}
	if h.run.hasExited() {
		st.State = lib.ProcessStateStopped
		code := h.run.exitCode
		st.ExitCode = &code
		if h.run.signal != 0 {
			st.Signal = h.run.signal.String()
		}
	}
	if !h.finishedAt.IsZero() {
		end := h.finishedAt
		st.EndTime = &end
	}
	return st
}
