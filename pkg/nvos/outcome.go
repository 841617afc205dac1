package nvos

import (
	"fmt"
	"strings"

	"github.com/newtron-network/ztpfab/pkg/util"
)

// OutcomeKind classifies a finished CLI invocation.
type OutcomeKind int

const (
	OutcomeEmpty OutcomeKind = iota
	OutcomeOutput
	OutcomeError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOutput:
		return "output"
	case OutcomeError:
		return "error"
	default:
		return "empty"
	}
}

// Outcome is the classified result of one invocation.
type Outcome struct {
	Kind     OutcomeKind
	Text     string
	ExitCode int
}

// Classify maps raw process output to an Outcome: non-empty stdout wins,
// then non-empty stderr, otherwise the outcome is empty.
func Classify(stdout, stderr string, exitCode int) Outcome {
	switch {
	case strings.TrimSpace(stdout) != "":
		return Outcome{Kind: OutcomeOutput, Text: stdout, ExitCode: exitCode}
	case strings.TrimSpace(stderr) != "":
		return Outcome{Kind: OutcomeError, Text: stderr, ExitCode: exitCode}
	default:
		return Outcome{Kind: OutcomeEmpty, ExitCode: exitCode}
	}
}

// Tokens splits the outcome text on whitespace. Empty and error outcomes
// yield no tokens.
func (o Outcome) Tokens() []string {
	if o.Kind != OutcomeOutput {
		return nil
	}
	return strings.Fields(o.Text)
}

// CLIError is returned when the NOS-CLI wrote to stderr.
type CLIError struct {
	Command string
	Stderr  string
}

func (e *CLIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Command, strings.TrimSpace(e.Stderr))
}

func (e *CLIError) Unwrap() error {
	return util.ErrCLI
}

// UnreachableError is returned by remote runners when the host cannot be
// reached at all.
type UnreachableError struct {
	Host   string
	Reason string
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("%s unreachable: %s", e.Host, e.Reason)
}

func (e *UnreachableError) Unwrap() error {
	return util.ErrUnreachable
}
