package task

import (
	"errors"
	"fmt"
	"strings"

	"github.com/newtron-network/ztpfab/pkg/nvos"
	"github.com/newtron-network/ztpfab/pkg/util"
)

// Ledger is the append-only record of whether each applied row changed
// the switch. The task is changed if any row was.
type Ledger struct {
	entries []bool
}

// Record appends one observation.
func (l *Ledger) Record(changed bool) {
	l.entries = append(l.entries, changed)
}

// Changed is the disjunction of every recorded observation.
func (l *Ledger) Changed() bool {
	for _, c := range l.entries {
		if c {
			return true
		}
	}
	return false
}

// Len returns the number of observations.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Recorder builds a task's envelope incrementally: a buffer of
// "<switch>: <text>" lines and the change ledger.
type Recorder struct {
	Task string
	// Action names the operation in msg, e.g. "vlan creation".
	Action string

	buf         strings.Builder
	ledger      Ledger
	unreachable bool
}

// NewRecorder creates a recorder for the named task.
func NewRecorder(taskName, action string) *Recorder {
	return &Recorder{Task: taskName, Action: action}
}

// Changed records a mutation on sw.
func (r *Recorder) Changed(sw, format string, args ...interface{}) {
	r.line(sw, fmt.Sprintf(format, args...))
	r.ledger.Record(true)
	util.WithTask(r.Task).WithField("switch", sw).Infof(format, args...)
}

// Unchanged records an observation that did not change the switch, such
// as a one-shot action that was already done.
func (r *Recorder) Unchanged(sw, format string, args ...interface{}) {
	r.line(sw, fmt.Sprintf(format, args...))
	r.ledger.Record(false)
}

// Unreachable records a host that could not be contacted. The task carries
// on with the remaining hosts but its envelope is marked unreachable.
func (r *Recorder) Unreachable(sw, format string, args ...interface{}) {
	r.line(sw, fmt.Sprintf(format, args...))
	r.ledger.Record(false)
	r.unreachable = true
	util.WithTask(r.Task).WithField("switch", sw).Warnf(format, args...)
}

// Skipped records a converged row without emitting a summary line.
func (r *Recorder) Skipped() {
	r.ledger.Record(false)
}

func (r *Recorder) line(sw, text string) {
	r.buf.WriteString(sw)
	r.buf.WriteString(": ")
	r.buf.WriteString(text)
	r.buf.WriteString("\n")
}

// Lines returns the message buffer.
func (r *Recorder) Lines() string {
	return r.buf.String()
}

// Success builds the envelope of a task that ran to completion.
func (r *Recorder) Success() *Result {
	res := &Result{
		Task:        r.Task,
		Msg:         r.Action + " succeeded",
		Summary:     Summary{Entries: SummaryFromLines(r.buf.String())},
		Changed:     r.ledger.Changed(),
		Unreachable: r.unreachable,
	}
	if r.unreachable {
		res.Msg = r.Action + " failed"
	}
	return res
}

// Validated builds the envelope of a validate-only run over n rows.
func (r *Recorder) Validated(n int) *Result {
	return &Result{
		Task: r.Task,
		Msg:  fmt.Sprintf("%s validated, %d rows", r.Action, n),
	}
}

// Fail builds the envelope of a task aborted by err while working on sw.
// A *nvos.CLIError puts the offending command in the summary and its
// stderr in the exception. Partial successes are not reported.
func (r *Recorder) Fail(sw string, err error) *Result {
	res := &Result{
		Task:   r.Task,
		Msg:    r.Action + " failed",
		Failed: true,
	}

	var cliErr *nvos.CLIError
	switch {
	case errors.As(err, &cliErr):
		res.Exception = strings.TrimSpace(cliErr.Stderr)
		res.Summary.Entries = []Entry{{Switch: sw, Output: cliErr.Command}}
	case errors.Is(err, util.ErrUnreachable):
		res.Failed = false
		res.Unreachable = true
		res.Exception = err.Error()
		res.Summary.Entries = []Entry{{Switch: sw, Output: "Switch is unreachable"}}
	default:
		res.Exception = err.Error()
		res.Summary.Entries = []Entry{{Switch: sw, Output: err.Error()}}
	}

	util.WithTask(r.Task).WithField("switch", sw).Errorf("%s: %v", res.Msg, err)
	return res
}

// Invalid builds the envelope of a task whose CSV input failed validation.
func (r *Recorder) Invalid(diagnostics string) *Result {
	util.WithTask(r.Task).Warnf("validation failed:\n%s", diagnostics)
	return &Result{
		Task:    r.Task,
		Msg:     diagnostics,
		Summary: Summary{Note: InvalidCSVSummary},
		Failed:  true,
	}
}
