// Package audit records every mutating NOS-CLI command a task issues.
package audit

import (
	"fmt"
	"strings"
	"time"
)

// Event is one mutating command and its outcome.
type Event struct {
	ID         string        `json:"id"`
	Timestamp  time.Time     `json:"timestamp"`
	User       string        `json:"user,omitempty"`
	Task       string        `json:"task"`
	Switch     string        `json:"switch,omitempty"`
	Subcommand string        `json:"subcommand"`
	Command    string        `json:"command"`
	Success    bool          `json:"success"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Filter selects events from a log.
type Filter struct {
	Task        string
	Switch      string
	Subcommand  string
	StartTime   time.Time
	EndTime     time.Time
	SuccessOnly bool
	FailureOnly bool
	Limit       int
	Offset      int
}

// NewEvent creates an event for a command issued by task.
func NewEvent(task, sw, subcommand string) *Event {
	return &Event{
		ID:         fmt.Sprintf("%d", time.Now().UnixNano()),
		Timestamp:  time.Now(),
		Task:       task,
		Switch:     sw,
		Subcommand: subcommand,
	}
}

// WithUser sets the CLI user.
func (e *Event) WithUser(user string) *Event {
	e.User = user
	return e
}

// WithArgv records the full, already redacted, invocation.
func (e *Event) WithArgv(argv []string) *Event {
	e.Command = strings.Join(argv, " ")
	return e
}

// WithResult marks the event succeeded when err is nil and failed otherwise.
func (e *Event) WithResult(err error) *Event {
	e.Success = err == nil
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// WithDuration sets how long the command ran.
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}

func (f Filter) matches(e *Event) bool {
	switch {
	case f.Task != "" && e.Task != f.Task:
		return false
	case f.Switch != "" && e.Switch != f.Switch:
		return false
	case f.Subcommand != "" && e.Subcommand != f.Subcommand:
		return false
	case !f.StartTime.IsZero() && e.Timestamp.Before(f.StartTime):
		return false
	case !f.EndTime.IsZero() && e.Timestamp.After(f.EndTime):
		return false
	case f.SuccessOnly && !e.Success:
		return false
	case f.FailureOnly && e.Success:
		return false
	}
	return true
}

// page applies Offset and Limit.
func (f Filter) page(events []*Event) []*Event {
	if f.Offset > 0 {
		if f.Offset >= len(events) {
			return nil
		}
		events = events[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(events) {
		events = events[:f.Limit]
	}
	return events
}
