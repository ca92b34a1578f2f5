package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SanjoDeundiak/process-handle/pkg/lib"
	"github.com/SanjoDeundiak/process-handle/pkg/lib/journal"
	"github.com/SanjoDeundiak/process-handle/pkg/lib/logging"
)

const (
	DefaultPollInterval = 100 * time.Millisecond
	DefaultGracePeriod  = 10 * time.Millisecond

	// inputCapacity bounds the number of pending writes per handle.
	inputCapacity = 100
)

// Runner owns the registry of handles and the crawler that records
// termination times for them. The zero value is not usable, see NewRunner.
type Runner struct {
	mu        sync.RWMutex
	processes map[string]*Handle
	closed    bool

	pollInterval time.Duration
	gracePeriod  time.Duration
	logger       *logging.Logger
	journal      journal.Journaler

	consoleMu sync.Mutex
	console   io.Writer

	ctx    context.Context
	cancel context.CancelFunc

	crawlerOnce    sync.Once
	crawlerStarted atomic.Bool
	crawlerDone    chan struct{}
}

// Option configures a Runner.
type Option func(*Runner)

// WithPollInterval sets the crawler period and the fallback poll period of
// Receive.
func WithPollInterval(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

// WithGracePeriod sets how long Receive waits for stragglers once the
// process has exited and both readers are done.
func WithGracePeriod(d time.Duration) Option {
	return func(r *Runner) {
		if d >= 0 {
			r.gracePeriod = d
		}
	}
}

// WithLogger sets the diagnostic logger. Handles log through a child logger
// carrying their process id.
func WithLogger(l *logging.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithJournaler sets the sink for lifecycle events.
func WithJournaler(j journal.Journaler) Option {
	return func(r *Runner) {
		if j != nil {
			r.journal = j
		}
	}
}

// WithConsole sets where echoed output and Print go. Defaults to os.Stdout.
func WithConsole(w io.Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.console = w
		}
	}
}

// NewRunner creates a new Runner. The crawler is started lazily by the
// first successful Start of any handle.
func NewRunner(opts ...Option) *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		processes:    make(map[string]*Handle),
		pollInterval: DefaultPollInterval,
		gracePeriod:  DefaultGracePeriod,
		logger:       logging.NopLogger(),
		journal:      journal.Nop,
		console:      os.Stdout,
		ctx:          ctx,
		cancel:       cancel,
		crawlerDone:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultRunner = sync.OnceValue(func() *Runner { return NewRunner() })

// Default returns the process-wide runner used by New.
func Default() *Runner {
	return defaultRunner()
}

// New creates a handle registered with the default runner.
func New(params lib.Params, opts ...HandleOption) (*Handle, error) {
	return Default().NewHandle(params, opts...)
}

// NewHandle validates params, registers a new handle under its id and
// returns it in the not started state.
func (r *Runner) NewHandle(params lib.Params, opts ...HandleOption) (*Handle, error) {
	if len(params.Command) == 0 || params.Command[0] == "" {
		return nil, ErrEmptyCommand
	}
	params.Command = append([]string(nil), params.Command...)
	if params.ID == "" {
		params.ID = lib.NewID()
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, fmt.Errorf("runner: %w", ErrClosed)
	}
	if _, ok := r.processes[params.ID]; ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, params.ID)
	}
	h := newHandle(r, params)
	r.processes[params.ID] = h
	r.mu.Unlock()

	for _, opt := range opts {
		opt(h)
	}
	if h.group != nil {
		h.group.add(h)
	}
	go h.writeInput()

	h.logger.Debug("process registered", "command", params.CommandOf().String())
	return h, nil
}

// Get returns the handle registered under id, or nil.
func (r *Runner) Get(id string) *Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.processes[id]
}

// Handles returns all registered handles ordered by id.
func (r *Runner) Handles() []*Handle {
	r.mu.RLock()
	handles := make([]*Handle, 0, len(r.processes))
	for _, h := range r.processes {
		handles = append(handles, h)
	}
	r.mu.RUnlock()

	sort.Slice(handles, func(i, j int) bool { return handles[i].id < handles[j].id })
	return handles
}

func (r *Runner) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.processes)
}

// CrawlerRunning reports whether the crawler has been started.
func (r *Runner) CrawlerRunning() bool {
	return r.crawlerStarted.Load()
}

// Shutdown sends SIGTERM to every live process and waits for them until ctx
// is done. Processes still alive at that point are killed. The runner is
// closed afterwards.
func (r *Runner) Shutdown(ctx context.Context) error {
	for _, h := range r.Handles() {
		if h.IsAlive() {
			if err := h.Destroy(); err != nil {
				r.logger.Warn("cannot terminate process", "id", h.id, "error", err)
			}
		}
	}

	var firstErr error
	for _, h := range r.Handles() {
		if _, err := h.awaitExit(ctx); err != nil {
			if !h.IsAlive() {
				continue
			}
			if err := h.DestroyForcibly(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}

	r.Close()
	return firstErr
}

// Close stops the crawler and closes every handle. Running processes are
// left alone, see Shutdown.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	r.cancel()
	r.crawlerOnce.Do(func() { close(r.crawlerDone) })
	<-r.crawlerDone

	for _, h := range r.Handles() {
		h.Close()
	}
}

func (r *Runner) printLine(line string) {
	r.consoleMu.Lock()
	defer r.consoleMu.Unlock()
	_, _ = io.WriteString(r.console, line+"\n")
}

func (r *Runner) printString(s string) {
	r.consoleMu.Lock()
	defer r.consoleMu.Unlock()
	_, _ = io.WriteString(r.console, s)
}

func (r *Runner) record(ev journal.Event) {
	if err := r.journal.Write(ev); err != nil {
		r.logger.Warn("cannot write journal event", "event", ev.Type(), "error", err)
	}
}
