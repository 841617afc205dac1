// Package task defines the result envelope every task emits exactly once,
// the change ledger it is built from, and the sinks envelopes are
// published to.
package task

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Status codes reported by the fleet runner for each task.
const (
	StatusOK      = "0"
	StatusFailed  = "1"
	StatusSkipped = "-1"
)

// InvalidCSVSummary is the summary of a task whose input failed validation.
const InvalidCSVSummary = "Invalid csv file"

// Entry is one line of per-switch output.
type Entry struct {
	Switch string `json:"switch"`
	Output string `json:"output"`
}

// Summary is either an ordered list of per-switch entries or, for
// validation failures, a single note. It marshals to a JSON array or a JSON
// string accordingly.
type Summary struct {
	Entries []Entry
	Note    string
}

// MarshalJSON implements json.Marshaler.
func (s Summary) MarshalJSON() ([]byte, error) {
	if s.Note != "" {
		return json.Marshal(s.Note)
	}
	if s.Entries == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.Entries)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Summary) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		s.Entries = nil
		return json.Unmarshal(data, &s.Note)
	}
	s.Note = ""
	if err := json.Unmarshal(data, &s.Entries); err != nil {
		return err
	}
	if len(s.Entries) == 0 {
		s.Entries = nil
	}
	return nil
}

// Len returns the number of entries.
func (s Summary) Len() int {
	return len(s.Entries)
}

// Result is the envelope a task emits.
type Result struct {
	Task        string  `json:"task"`
	Msg         string  `json:"msg"`
	Summary     Summary `json:"summary"`
	Changed     bool    `json:"changed"`
	Failed      bool    `json:"failed"`
	Unreachable bool    `json:"unreachable"`
	Skipped     bool    `json:"skipped,omitempty"`
	Exception   string  `json:"exception"`
}

// Status maps the envelope to the fleet runner status code.
func (r *Result) Status() string {
	switch {
	case r.Failed, r.Unreachable:
		return StatusFailed
	case r.Skipped:
		return StatusSkipped
	default:
		return StatusOK
	}
}

// Err returns an error when the task failed or a host was unreachable.
func (r *Result) Err() error {
	if r.Status() != StatusFailed {
		return nil
	}
	if r.Exception != "" {
		return fmt.Errorf("%s: %s", r.Msg, strings.TrimSpace(r.Exception))
	}
	return fmt.Errorf("%s", r.Msg)
}

// Skip returns the envelope of a task that did not run on this host.
func Skip(taskName, reason string) *Result {
	return &Result{Task: taskName, Msg: reason, Skipped: true}
}

// SummaryFromLines splits a newline-separated message buffer into entries,
// keying each line on the switch name before the first ": ".
func SummaryFromLines(buf string) []Entry {
	var out []Entry
	for _, line := range strings.Split(buf, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		sw, text := "", line
		if i := strings.Index(line, ": "); i >= 0 {
			sw, text = line[:i], line[i+2:]
		}
		out = append(out, Entry{Switch: sw, Output: text})
	}
	return out
}
