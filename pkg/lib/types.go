package lib

import (
	"strings"
	"time"
)

// ProcessState is the lifecycle state of a single run of a managed process.
type ProcessState int

const (
	ProcessStateNotStarted ProcessState = iota
	ProcessStateRunning
	ProcessStateStopped
)

func (s ProcessState) String() string {
	switch s {
	case ProcessStateNotStarted:
		return "not started"
	case ProcessStateRunning:
		return "running"
	case ProcessStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Command captures command metadata used to start a process.
type Command struct {
	Command string
	Args    []string
}

// String joins the command and its arguments with spaces. It is meant for
// messages only, no quoting is applied.
func (c Command) String() string {
	return strings.TrimSpace(strings.Join(append([]string{c.Command}, c.Args...), " "))
}

// ProcessStatus captures runtime state and timestamps.
type ProcessStatus struct {
	State     ProcessState
	ExitCode  *int
	StartTime time.Time
	EndTime   *time.Time

	// Signal names the signal that killed the process, empty otherwise.
	Signal string

	// OutputLines and OutputBytes count captured output over all runs.
	OutputLines int
	OutputBytes int
}

// Params describes how a managed process is spawned. A Params value is
// treated as immutable once handed over; restarts reuse it unchanged.
type Params struct {
	// Command is the already tokenized argument vector. It must not be empty.
	Command []string
	// Dir is the working directory. Empty means the current one.
	Dir string
	// ID identifies the process. A UUID is generated when empty.
	ID string
	// PrintOutput echoes every captured line to the console.
	PrintOutput bool
	// LinePrefix is prepended to echoed lines.
	LinePrefix string
	// QueueCapacity enables per-line delivery queues for stdout and stderr
	// when positive. Readers block while a queue is full.
	QueueCapacity int
}

// CommandOf returns the command split into executable and arguments.
func (p Params) CommandOf() Command {
	if len(p.Command) == 0 {
		return Command{}
	}
	return Command{Command: p.Command[0], Args: append([]string(nil), p.Command[1:]...)}
}
