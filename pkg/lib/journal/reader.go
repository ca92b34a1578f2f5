package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
)

// Reader parses journals written by Writer from top to bottom.
type Reader struct {
	s *bufio.Scanner
}

// NewReader creates a new journal reader.
func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &Reader{s}
}

// Read reads a single entry. io.EOF is returned once the input has been fully
// consumed.
func (r *Reader) Read() (Event, time.Time, error) {
	var line []byte
	for {
		if !r.s.Scan() {
			if err := r.s.Err(); err != nil {
				return nil, time.Time{}, errors.Wrap(err, "failed to scan journal")
			}
			return nil, time.Time{}, io.EOF
		}
		line = r.s.Bytes()
		if len(line) > 0 {
			break
		}
	}

	var rawEvent struct {
		Time time.Time       `json:"time"`
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(line, &rawEvent); err != nil {
		return nil, time.Time{}, errors.Wrap(err, "failed to decode JSON")
	}

	event := NewEvent(rawEvent.Type)
	if event == nil {
		return nil, time.Time{}, fmt.Errorf("unknown event %q", rawEvent.Type)
	}

	if err := json.Unmarshal(rawEvent.Data, event); err != nil {
		return nil, time.Time{}, errors.Wrap(err, "failed to decode event data")
	}

	return event, rawEvent.Time, nil
}

// ReadFile reads every event of the journal at path.
func ReadFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var events []Event
	r := NewReader(f)
	for {
		ev, _, err := r.Read()
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
}
