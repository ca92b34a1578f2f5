package runner

import (
	"context"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/SanjoDeundiak/process-handle/pkg/lib"
	"github.com/SanjoDeundiak/process-handle/pkg/lib/logging"
	"github.com/SanjoDeundiak/process-handle/pkg/lib/output_storage"
)

// Handle controls one managed process across any number of runs. Output
// buffers live as long as the handle and accumulate over restarts. All
// methods are safe for concurrent use.
type Handle struct {
	runner *Runner
	params lib.Params
	id     string
	group  *Group
	logger *logging.Logger

	// ctx is cancelled by Close and unblocks queue producers and the
	// writer worker.
	ctx    context.Context
	cancel context.CancelFunc

	input chan inputRequest

	out      *output_storage.OutputStorage
	err      *output_storage.OutputStorage
	combined *output_storage.OutputStorage

	// outQueue and errQueue are nil unless Params.QueueCapacity > 0.
	outQueue chan string
	errQueue chan string

	// receiveMu guards the consumption cursors used by Receive when no
	// queues are configured.
	receiveMu sync.Mutex
	outCursor *output_storage.Cursor
	errCursor *output_storage.Cursor

	// changes is notified whenever a line was captured, a reader finished
	// or the process exited.
	changes *output_storage.Broadcaster[struct{}]

	mu         sync.Mutex
	run        *run
	startedAt  time.Time
	finishedAt time.Time
}

// HandleOption configures a Handle at construction time.
type HandleOption func(*Handle)

// WithGroup adds the handle to g.
func WithGroup(g *Group) HandleOption {
	return func(h *Handle) {
		h.group = g
	}
}

// run is the state of a single spawn. Completion channels are per run, so a
// restart never observes the flags of its predecessor.
type run struct {
	cmd   *exec.Cmd
	pid   int
	stdin *os.File

	exited   chan struct{}
	exitCode int
	exitErr  error
	signal   syscall.Signal

	outDone chan struct{}
	errDone chan struct{}
}

func (r *run) hasExited() bool {
	select {
	case <-r.exited:
		return true
	default:
		return false
	}
}

func (r *run) readersDone() bool {
	for _, done := range []chan struct{}{r.outDone, r.errDone} {
		select {
		case <-done:
		default:
			return false
		}
	}
	return true
}

func newHandle(r *Runner, params lib.Params) *Handle {
	ctx, cancel := context.WithCancel(r.ctx)
	h := &Handle{
		runner:   r,
		params:   params,
		id:       params.ID,
		logger:   r.logger.WithProcess(params.ID),
		ctx:      ctx,
		cancel:   cancel,
		input:    make(chan inputRequest, inputCapacity),
		out:      output_storage.NewOutputStorage(),
		err:      output_storage.NewOutputStorage(),
		combined: output_storage.NewOutputStorage(),
		changes:  output_storage.RunNewBroadcaster[struct{}](),
	}
	h.outCursor = h.out.Cursor()
	h.errCursor = h.err.Cursor()
	if params.QueueCapacity > 0 {
		h.outQueue = make(chan string, params.QueueCapacity)
		h.errQueue = make(chan string, params.QueueCapacity)
	}
	return h
}

func (h *Handle) ID() string {
	return h.id
}

// Params returns a copy of the parameters the handle was created with.
func (h *Handle) Params() lib.Params {
	p := h.params
	p.Command = append([]string(nil), h.params.Command...)
	return p
}

func (h *Handle) Group() *Group {
	return h.group
}

// Cmd returns the executable name.
func (h *Handle) Cmd() string {
	return h.params.Command[0]
}

// Args returns the arguments following the executable.
func (h *Handle) Args() []string {
	return append([]string(nil), h.params.Command[1:]...)
}

// PID returns the process id of the current run, or 0 if never started.
func (h *Handle) PID() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.run == nil {
		return 0
	}
	return h.run.pid
}

// StartedAt returns when the current run was started, or the zero time.
func (h *Handle) StartedAt() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.startedAt
}

// FinishedAt returns when the termination of the current run was observed,
// or the zero time while it is running or not yet observed.
func (h *Handle) FinishedAt() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.finishedAt
}

func (h *Handle) currentRun() *run {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.run
}

// Close releases the handle's goroutines and notifies Receive callers.
// The process, if running, is not affected. Writes fail with ErrClosed
// afterwards. The handle stays registered under its id.
func (h *Handle) Close() {
	h.cancel()
	h.changes.Stop()
}
