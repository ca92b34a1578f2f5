package journal

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// FileLockJournaler is a journaler that uses a file lock (flock) to lock the
// given file and appends to it. The FileLockJournaler instance must be closed
// by the caller or by the operating system when the application exits.
//
// Readers do not need the lock: every event is appended with a single write,
// so a Reader sees whole records only.
type FileLockJournaler struct {
	*Writer
	f *os.File
	l *flock.Flock
}

// ErrLockedElsewhere is returned if NewFileLockJournaler can't acquire the file
// lock.
var ErrLockedElsewhere = errors.New("file already locked elsewhere")

// NewFileLockJournaler creates a new file journaler if it can acquire a flock
// on the path. It returns ErrLockedElsewhere if the lock is held.
func NewFileLockJournaler(path string) (*FileLockJournaler, error) {
	return newFileLockJournaler(nil, path)
}

// NewFileLockJournalerWait creates a new file journaler but waits until the
// lock can be acquired or until the context times out.
func NewFileLockJournalerWait(ctx context.Context, path string) (*FileLockJournaler, error) {
	return newFileLockJournaler(ctx, path)
}

func newFileLockJournaler(ctx context.Context, path string) (*FileLockJournaler, error) {
	// Ensure the directory exists.
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, errors.Wrap(err, "failed to create journal directory")
	}

	// The lock lives next to the journal so that readers opening the journal
	// itself never interfere with it.
	l := flock.New(path + ".lock")

	var locked bool
	var err error
	if ctx != nil {
		locked, err = l.TryLockContext(ctx, 25*time.Millisecond)
	} else {
		locked, err = l.TryLock()
	}

	if err != nil {
		return nil, errors.Wrap(err, "failed to acquire lock")
	}

	if !locked {
		return nil, ErrLockedElsewhere
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600)
	if err != nil {
		l.Unlock()
		return nil, errors.Wrap(err, "failed to open file")
	}

	return &FileLockJournaler{
		Writer: NewWriter(f),
		f:      f,
		l:      l,
	}, nil
}

// Path returns the journal file path.
func (f *FileLockJournaler) Path() string {
	return f.f.Name()
}

// Close closes the file and releases the flock.
func (f *FileLockJournaler) Close() error {
	if err := f.f.Close(); err != nil {
		f.l.Unlock()
		return errors.Wrap(err, "failed to close journal")
	}
	return f.l.Unlock()
}
