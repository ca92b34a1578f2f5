package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/SanjoDeundiak/process-handle/pkg/lib"
	"github.com/SanjoDeundiak/process-handle/pkg/lib/config"
	"github.com/SanjoDeundiak/process-handle/pkg/lib/journal"
	"github.com/SanjoDeundiak/process-handle/pkg/lib/logging"
	"github.com/SanjoDeundiak/process-handle/pkg/lib/runner"
	"github.com/SanjoDeundiak/process-handle/pkg/lib/watcher"
)

// killAfter is how long an interrupted process gets before SIGKILL.
const killAfter = 5 * time.Second

type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("process exited with code %d", e.code)
}

type runOptions struct {
	dir     string
	id      string
	timeout time.Duration
	stdin   bool
	events  bool
}

func newRunCmd(app *cliApp) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run [flags] -- <command> [args...]",
		Short: "Run a process and stream its output",
		Long: `Runs a process until it exits and exits with its exit code.
Interrupting prh terminates the process group of the child.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("command to execute is required; use -- to separate CLI flags from the command")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.load(cmd, map[string]string{
				"output.print":          "print",
				"output.line_prefix":    "prefix",
				"runner.queue_capacity": "queue",
				"logging.level":         "log-level",
				"logging.file":          "log-file",
				"journal.path":          "journal",
				"watch.paths":           "watch",
			})
			if err != nil {
				return err
			}
			return runProcess(cmd, cfg, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.dir, "dir", "", "working directory of the process")
	flags.StringVar(&opts.id, "id", "", "process id used in logs and the journal (default is a random UUID)")
	flags.DurationVar(&opts.timeout, "timeout", 0, "terminate the process after this duration (0 disables)")
	flags.BoolVar(&opts.stdin, "stdin", false, "forward standard input to the process")
	flags.BoolVar(&opts.events, "events", false, "print lifecycle events to stderr")
	flags.Bool("print", true, "echo captured lines as one combined stream")
	flags.String("prefix", "", "prefix for echoed lines")
	flags.Int("queue", 0, "capacity of the per-line delivery queues (0 disables)")
	flags.String("log-level", "warn", "log level: debug, info, warn, error")
	flags.String("log-file", "", "log file (default is stderr)")
	flags.String("journal", "", "append lifecycle events to this JSON lines file")
	flags.StringSlice("watch", nil, "restart the process when these paths change")

	return cmd
}

func runProcess(cmd *cobra.Command, cfg *config.Config, opts runOptions, args []string) error {
	logger, err := logging.NewLogger(cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		return errors.Wrap(err, "failed to create logger")
	}
	defer logger.Close()

	j, closeJournal, err := openJournal(cfg, opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closeJournal()

	r := runner.NewRunner(
		runner.WithPollInterval(cfg.Runner.PollInterval()),
		runner.WithGracePeriod(cfg.Runner.GracePeriod()),
		runner.WithLogger(logger),
		runner.WithJournaler(j),
		runner.WithConsole(cmd.OutOrStdout()),
	)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), killAfter)
		defer cancel()
		if err := r.Shutdown(ctx); err != nil {
			logger.Warn("shutdown incomplete", "error", err)
		}
	}()

	h, err := r.NewHandle(lib.Params{
		Command:       args,
		Dir:           opts.dir,
		ID:            opts.id,
		PrintOutput:   cfg.Output.Print,
		LinePrefix:    cfg.Output.LinePrefix,
		QueueCapacity: cfg.Runner.QueueCapacity,
	})
	if err != nil {
		return err
	}

	if err := h.Start(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	go destroyOnSignal(ctx, h, logger)

	if opts.timeout > 0 {
		go destroyAfter(ctx, h, opts.timeout, logger)
	}
	if opts.stdin {
		go forwardInput(ctx, h, cmd.InOrStdin(), logger)
	}
	if len(cfg.Watch.Paths) > 0 {
		w, err := watcher.New(cfg.Watch.Paths, cfg.Watch.Debounce(), j)
		if err != nil {
			return errors.Wrap(err, "failed to watch paths")
		}
		go func() {
			_ = w.Run(ctx, func(changed []string) {
				logger.Info("restarting after change", "paths", changed)
				if err := h.Restart(); err != nil {
					logger.Error("cannot restart process", "error", err)
				}
			})
		}()
	}

	onOut, onErr := streamLines(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
	for {
		startedAt := h.StartedAt()
		if err := h.Receive(ctx, onOut, onErr); err != nil {
			return err
		}
		// A restart replaced the run we were following
		if !h.StartedAt().Equal(startedAt) {
			continue
		}
		break
	}

	if err := h.WaitFor(ctx); err != nil {
		return err
	}
	if code, _ := h.ExitCode(); code != 0 {
		if code < 0 {
			code = 1
		}
		return &exitCodeError{code: code}
	}
	return nil
}

// openJournal combines the configured journal file with human readable
// events on stderr, whichever are enabled.
func openJournal(cfg *config.Config, opts runOptions, stderr io.Writer) (journal.Journaler, func(), error) {
	var journalers []journal.Journaler
	closeFn := func() {}

	if cfg.Journal.Path != "" {
		fj, err := journal.NewFileLockJournaler(cfg.Journal.Path)
		if err != nil {
			return nil, nil, errors.Wrap(err, "failed to open journal")
		}
		journalers = append(journalers, fj)
		closeFn = func() { _ = fj.Close() }
	}
	if opts.events {
		journalers = append(journalers, journal.NewHumanWriter("prh", stderr))
	}

	switch len(journalers) {
	case 0:
		return journal.Nop, closeFn, nil
	case 1:
		return journalers[0], closeFn, nil
	default:
		return journal.MultiWriter(journalers...), closeFn, nil
	}
}

// streamLines returns the Receive callbacks. With console echo enabled the
// runner already prints every line, so the callbacks only consume.
func streamLines(cfg *config.Config, stdout, stderr io.Writer) (func(string), func(string)) {
	if cfg.Output.Print {
		discard := func(string) {}
		return discard, discard
	}
	prefix := cfg.Output.LinePrefix
	onOut := func(line string) {
		_, _ = fmt.Fprintln(stdout, prefix+line)
	}
	onErr := func(line string) {
		_, _ = fmt.Fprintln(stderr, prefix+line)
	}
	return onOut, onErr
}

func destroyOnSignal(ctx context.Context, h *runner.Handle, logger *logging.Logger) {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-sigCtx.Done()
	if ctx.Err() != nil {
		return
	}

	logger.Info("interrupted, terminating process")
	if err := h.Destroy(); err != nil {
		logger.Warn("cannot terminate process", "error", err)
	}

	timer := time.NewTimer(killAfter)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
		if h.IsAlive() {
			logger.Warn("process ignored termination, killing it")
			_ = h.DestroyForcibly()
		}
	}
}

func destroyAfter(ctx context.Context, h *runner.Handle, timeout time.Duration, logger *logging.Logger) {
	exited, err := h.WaitForTimeout(ctx, timeout)
	if err != nil || exited {
		return
	}
	logger.Warn("timeout reached, terminating process", "timeout", timeout.String())
	if err := h.Destroy(); err != nil {
		logger.Warn("cannot terminate process", "error", err)
	}
}

func forwardInput(ctx context.Context, h *runner.Handle, in io.Reader, logger *logging.Logger) {
	buf := make([]byte, 32*1024)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			if werr := h.WriteContext(ctx, buf[:n]); werr != nil {
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				logger.Warn("cannot read standard input", "error", err)
			}
			_ = h.CloseInput(ctx)
			return
		}
	}
}
