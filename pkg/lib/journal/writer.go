package journal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Journaler describes an event logger.
type Journaler interface {
	Write(Event) error
}

// Nop is a Journaler that drops every event.
var Nop Journaler = nopJournaler{}

type nopJournaler struct{}

func (nopJournaler) Write(Event) error { return nil }

// Entry describes the JSON structure of an event to be written.
type Entry struct {
	Time time.Time `json:"time"`
	Type string    `json:"type"`
	Data Event     `json:"data"`
}

// Writer is a simple journaler that writes line-delimited JSON events into the
// writer.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

var _ Journaler = (*Writer)(nil)

// NewWriter creates a new journal writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write writes the given event into the writer. Writes are concurrently safe
// and each event is written with a single Write call.
func (l *Writer) Write(ev Event) error {
	evJSON := Entry{
		Time: time.Now(),
		Type: ev.Type(),
		Data: ev,
	}

	buf := bytes.Buffer{}
	buf.Grow(512)

	// Encode terminates the record with a new line.
	if err := json.NewEncoder(&buf).Encode(evJSON); err != nil {
		return errors.Wrap(err, "failed to marshal event")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "failed to write event")
	}

	return nil
}

// HumanWriter writes events as single human readable lines.
type HumanWriter struct {
	mu   sync.Mutex
	name string
	w    io.Writer
}

// NewHumanWriter creates a new human readable journal writer. The name is
// prepended to every line.
func NewHumanWriter(name string, w io.Writer) *HumanWriter {
	return &HumanWriter{name: name, w: w}
}

func (h *HumanWriter) Write(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return errors.Wrap(err, "failed to marshal event")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err = fmt.Fprintf(h.w, "%s [%s] %s: %s\n",
		time.Now().Format(time.RFC3339), h.name, ev.Type(), data)
	return errors.Wrap(err, "failed to write event")
}

// multiWriter combines multiple journalers.
type multiWriter struct {
	writers []Journaler
}

// MultiWriter creates a journaler that writes to multiple other journalers.
// Every journaler receives the event even if an earlier one fails; the first
// error is returned.
func MultiWriter(ws ...Journaler) Journaler {
	return &multiWriter{ws}
}

func (w *multiWriter) Write(event Event) error {
	var firstErr error
	for _, writer := range w.writers {
		if err := writer.Write(event); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
