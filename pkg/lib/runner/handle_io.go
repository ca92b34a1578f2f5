package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/SanjoDeundiak/process-handle/pkg/lib/output_storage"
)

// inputRequest is a pending write to the process input. An eof request
// closes the input of the current run instead.
type inputRequest struct {
	data []byte
	eof  bool
}

// Write enqueues data for delivery to the process input. Only string and
// []byte are accepted. Write blocks while the input queue is full; requests
// are written to whichever run is current when they are dequeued, and
// dropped with a logged error if none is.
func (h *Handle) Write(data any) error {
	return h.WriteContext(context.Background(), data)
}

// WriteContext is Write with a context bounding the wait for queue space.
func (h *Handle) WriteContext(ctx context.Context, data any) error {
	var payload []byte
	switch v := data.(type) {
	case string:
		payload = []byte(v)
	case []byte:
		payload = append([]byte(nil), v...)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedInput, data)
	}
	return h.enqueue(ctx, inputRequest{data: payload})
}

// CloseInput enqueues an end of input marker. Once the writes queued before
// it are delivered, the input of the current run is closed.
func (h *Handle) CloseInput(ctx context.Context) error {
	return h.enqueue(ctx, inputRequest{eof: true})
}

func (h *Handle) enqueue(ctx context.Context, req inputRequest) error {
	if h.ctx.Err() != nil {
		return fmt.Errorf("handle %s: %w", h.id, ErrClosed)
	}
	select {
	case h.input <- req:
		return nil
	case <-ctx.Done():
		return cancelled(ctx.Err())
	case <-h.ctx.Done():
		return fmt.Errorf("handle %s: %w", h.id, ErrClosed)
	}
}

// writeInput is the single consumer of the input queue. It lives as long as
// the handle, across runs.
func (h *Handle) writeInput() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case req := <-h.input:
			if err := h.deliverInput(req); err != nil {
				h.logger.Error("cannot write to process input", "error", err)
			}
		}
	}
}

func (h *Handle) deliverInput(req inputRequest) error {
	r := h.currentRun()
	if r == nil {
		return ErrNotStarted
	}
	if req.eof {
		if err := r.stdin.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			return err
		}
		return nil
	}
	_, err := r.stdin.Write(req.data)
	return err
}

// readLines captures src line by line until end of stream. Each line is
// pushed to queue (if any), echoed to the console (if enabled) and appended
// to both own and the combined storage, terminator restored. done is closed
// exactly once, after the last line was stored.
func (h *Handle) readLines(src *os.File, done chan struct{}, own *output_storage.OutputStorage, queue chan string) {
	defer func() {
		_ = src.Close()
		close(done)
		h.changes.Publish(struct{}{})
	}()

	reader := bufio.NewReader(src)
	for {
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			line = strings.TrimSuffix(line, "\n")
			line = strings.TrimSuffix(line, "\r")
			if !h.captureLine(line, own, queue) {
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				h.logger.Warn("cannot read process output", "error", err)
			}
			return
		}
	}
}

func (h *Handle) captureLine(line string, own *output_storage.OutputStorage, queue chan string) bool {
	if queue != nil {
		select {
		case queue <- line:
		case <-h.ctx.Done():
			return false
		}
	}
	if h.params.PrintOutput {
		h.runner.printLine(h.params.LinePrefix + line)
	}
	own.AppendString(line + "\n")
	h.combined.AppendString(line + "\n")
	h.changes.Publish(struct{}{})
	return true
}
