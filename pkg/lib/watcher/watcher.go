// Package watcher reports debounced file system changes, used to restart a
// managed process when its inputs change.
package watcher

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/SanjoDeundiak/process-handle/pkg/lib/journal"
)

const DefaultDebounce = 200 * time.Millisecond

// Watcher watches a set of files and directories. Changes that arrive within
// the debounce window of each other are reported together.
type Watcher struct {
	w        *fsnotify.Watcher
	j        journal.Journaler
	paths    []string
	debounce time.Duration
}

// New creates a watcher over paths. Directories are watched one level deep.
// A non-positive debounce selects DefaultDebounce.
func New(paths []string, debounce time.Duration, j journal.Journaler) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, errors.New("no paths to watch")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if j == nil {
		j = journal.Nop
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create watcher")
	}

	w := &Watcher{w: fsw, j: j, debounce: debounce}
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			fsw.Close()
			return nil, errors.Wrapf(err, "failed to resolve %q", path)
		}
		if err := fsw.Add(abs); err != nil {
			fsw.Close()
			return nil, errors.Wrapf(err, "failed to watch %q", path)
		}
		w.paths = append(w.paths, abs)
	}

	return w, nil
}

// Paths returns the absolute watched paths.
func (w *Watcher) Paths() []string {
	return append([]string(nil), w.paths...)
}

// Run blocks until ctx is done, calling onChange with the sorted set of
// changed files after each quiet debounce window. onChange runs on the
// calling goroutine. The underlying watcher is closed when Run returns.
func (w *Watcher) Run(ctx context.Context, onChange func(changed []string)) error {
	defer w.w.Close()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-w.w.Errors:
			if !ok {
				return nil
			}
			w.j.Write(&journal.EventWarning{
				Component: "watcher",
				Error:     "inotify error: " + err.Error(),
			})

		case evt, ok := <-w.w.Events:
			if !ok {
				return nil
			}
			if !relevant(evt) {
				continue
			}
			pending[evt.Name] = struct{}{}
			timer.Reset(w.debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			sort.Strings(changed)
			clear(pending)

			onChange(changed)
		}
	}
}

// relevant filters out attribute-only changes.
func relevant(evt fsnotify.Event) bool {
	return evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}
