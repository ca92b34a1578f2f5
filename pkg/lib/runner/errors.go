package runner

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the runner package.
var (
	// ErrStart is matched by every error returned from a failed spawn.
	ErrStart = errors.New("cannot start process")

	// ErrUnsupportedInput is returned by Write for payloads that are neither
	// string nor []byte.
	ErrUnsupportedInput = errors.New("unsupported input type")

	// ErrCancelled is returned when a blocking call is interrupted by its
	// context. The process itself is left untouched.
	ErrCancelled = errors.New("operation cancelled")

	// ErrNotStarted is returned by operations that need a started process.
	ErrNotStarted = errors.New("process not started")

	// ErrClosed is returned once a handle or runner has been closed.
	ErrClosed = errors.New("closed")

	// ErrDuplicateID is returned when a handle id is already registered.
	ErrDuplicateID = errors.New("process id already registered")

	// ErrEmptyCommand is returned for params without a command.
	ErrEmptyCommand = errors.New("command is required")
)

// StartError is returned when the native process cannot be spawned.
type StartError struct {
	Command []string
	Err     error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("cannot start process: %s: %v", strings.Join(e.Command, " "), e.Err)
}

func (e *StartError) Unwrap() []error {
	return []error{ErrStart, e.Err}
}

func cancelled(cause error) error {
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}
