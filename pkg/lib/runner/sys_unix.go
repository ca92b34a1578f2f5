//go:build unix

package runner

import (
	"errors"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

func getSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		// New process group to manage children as a unit
		Setpgid: true,
	}
}

// signalGroup delivers sig to the process group led by pid. It falls back to
// the process itself when the group is gone, and reports os.ErrProcessDone
// when neither exists anymore.
func signalGroup(pid int, sig syscall.Signal) error {
	// Negative PID means process group
	err := unix.Kill(-pid, sig)
	if err == nil {
		return nil
	}
	if !errors.Is(err, unix.ESRCH) {
		return err
	}

	if err := unix.Kill(pid, sig); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
	return nil
}

// exitSignal returns the signal that terminated the process reaped with err,
// or 0 if it exited on its own.
func exitSignal(err error) syscall.Signal {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 0
	}
	ws, ok := exitErr.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return 0
	}
	return ws.Signal()
}
