// Package journal records lifecycle events of managed processes. Events are
// written as line-delimited JSON, optionally into a file guarded by an
// exclusive flock so that only one runner appends to a given journal.
package journal

// eventType describes an event type.
type eventType = string

const (
	eventWarning           eventType = "warning"
	eventProcessSpawnError eventType = "process spawn error"
	eventProcessSpawned    eventType = "process spawned"
	eventProcessExited     eventType = "process exited"
	eventProcessSignaled   eventType = "process signaled"
	eventProcessRestarted  eventType = "process restarted"
)

// Event is an interface describing known events.
type Event interface {
	Type() string
	event()
}

// NewEvent creates a new event from the given event type. It is used primarily
// for decoding events from its type. Nil is returned if the event type is
// unknown.
func NewEvent(eventType string) Event {
	switch eventType {
	case eventWarning:
		return &EventWarning{}
	case eventProcessSpawnError:
		return &EventProcessSpawnError{}
	case eventProcessSpawned:
		return &EventProcessSpawned{}
	case eventProcessExited:
		return &EventProcessExited{}
	case eventProcessSignaled:
		return &EventProcessSignaled{}
	case eventProcessRestarted:
		return &EventProcessRestarted{}
	default:
		return nil
	}
}

// EventWarning is emitted when a non-fatal error occurs.
type EventWarning struct {
	Component string `json:"component"`
	Error     string `json:"error"`
}

func (ev *EventWarning) Type() string { return eventWarning }
func (ev *EventWarning) event()       {}

// EventProcessSpawnError is emitted when a process fails to start.
type EventProcessSpawnError struct {
	ID      string   `json:"id"`
	Command []string `json:"command"`
	Reason  string   `json:"reason"`
}

func (ev *EventProcessSpawnError) Type() string { return eventProcessSpawnError }
func (ev *EventProcessSpawnError) event()       {}

// EventProcessSpawned is emitted when a process has been started.
type EventProcessSpawned struct {
	ID      string   `json:"id"`
	PID     int      `json:"pid"`
	Command []string `json:"command"`
}

func (ev *EventProcessSpawned) Type() string { return eventProcessSpawned }
func (ev *EventProcessSpawned) event()       {}

// EventProcessExited is emitted once per run, when the termination of the
// process has been observed.
type EventProcessExited struct {
	ID         string `json:"id"`
	PID        int    `json:"pid"`
	ExitCode   int    `json:"exit_code"` // -1 if killed by a signal
	DurationMs int64  `json:"duration_ms"`
}

func (ev *EventProcessExited) Type() string { return eventProcessExited }
func (ev *EventProcessExited) event()       {}

// EventProcessSignaled is emitted when a termination signal is sent.
type EventProcessSignaled struct {
	ID     string `json:"id"`
	PID    int    `json:"pid"`
	Signal string `json:"signal"`
}

func (ev *EventProcessSignaled) Type() string { return eventProcessSignaled }
func (ev *EventProcessSignaled) event()       {}

// EventProcessRestarted is emitted when a restart is requested.
type EventProcessRestarted struct {
	ID     string `json:"id"`
	Reason string `json:"reason,omitempty"`
}

func (ev *EventProcessRestarted) Type() string { return eventProcessRestarted }
func (ev *EventProcessRestarted) event()       {}
