package runner

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/SanjoDeundiak/process-handle/pkg/lib/journal"
)

// Start spawns the process. Every Start begins a new run: completion flags
// and the finish time are reset, output buffers keep accumulating. The
// returned error matches ErrStart and carries the underlying cause when the
// process cannot be spawned.
func (h *Handle) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.startLocked()
}

func (h *Handle) startLocked() error {
	if h.ctx.Err() != nil {
		return fmt.Errorf("handle %s: %w", h.id, ErrClosed)
	}

	startedAt := time.Now()
	r, stdout, stderr, err := h.spawn()
	if err != nil {
		h.logger.Error("cannot start process", "command", h.params.CommandOf().String(), "error", err)
		h.runner.record(&journal.EventProcessSpawnError{
			ID:      h.id,
			Command: h.params.Command,
			Reason:  err.Error(),
		})
		return &StartError{Command: append([]string(nil), h.params.Command...), Err: err}
	}

	h.run = r
	h.startedAt = startedAt
	h.finishedAt = time.Time{}

	go h.readLines(stdout, r.outDone, h.out, h.outQueue)
	go h.readLines(stderr, r.errDone, h.err, h.errQueue)
	go h.waitExit(r)

	h.runner.startCrawler()

	h.logger.Info("process started", "pid", r.pid, "command", h.params.CommandOf().String())
	h.runner.record(&journal.EventProcessSpawned{ID: h.id, PID: r.pid, Command: h.params.Command})
	return nil
}

// spawn starts the native process with all three standard streams attached
// to pipes owned by the handle. Pipes are created manually so that Wait
// does not close the read ends while readers still drain them.
func (h *Handle) spawn() (*run, *os.File, *os.File, error) {
	var toClose []*os.File
	cleanup := func() {
		for _, f := range toClose {
			_ = f.Close()
		}
	}

	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	toClose = append(toClose, stdinR, stdinW)

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	toClose = append(toClose, stdoutR, stdoutW)

	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		cleanup()
		return nil, nil, nil, fmt.Errorf("create stderr pipe: %w", err)
	}
	toClose = append(toClose, stderrR, stderrW)

	cmd := exec.Command(h.params.Command[0], h.params.Command[1:]...)
	cmd.Dir = h.params.Dir
	cmd.SysProcAttr = getSysProcAttr()
	cmd.Stdin = stdinR
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	if err := cmd.Start(); err != nil {
		cleanup()
		return nil, nil, nil, err
	}

	// The child holds its own copies now
	_ = stdinR.Close()
	_ = stdoutW.Close()
	_ = stderrW.Close()

	r := &run{
		cmd:     cmd,
		pid:     cmd.Process.Pid,
		stdin:   stdinW,
		exited:  make(chan struct{}),
		outDone: make(chan struct{}),
		errDone: make(chan struct{}),
	}
	return r, stdoutR, stderrR, nil
}

// waitExit reaps the process of r and records its exit code. A process
// killed by a signal reports -1 and keeps the signal for Status.
func (h *Handle) waitExit(r *run) {
	err := r.cmd.Wait()

	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			code = -1
		}
	}
	r.exitCode = code
	r.exitErr = err
	r.signal = exitSignal(err)
	close(r.exited)

	// Writes to a dead process fail from now on
	_ = r.stdin.Close()

	h.logger.Debug("process exited", "pid", r.pid, "exit_code", code)
	h.changes.Publish(struct{}{})
}
