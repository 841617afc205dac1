package nvos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/newtron-network/ztpfab/pkg/util"
)

// DefaultPrefix is the CLI binary and fixed flags every invocation starts with.
const DefaultPrefix = "/usr/bin/cli --quiet"

// Credentials authenticate CLI invocations. When Username is empty the CLI
// runs as the invoking (root) user.
type Credentials struct {
	Username string `yaml:"username,omitempty" json:"username,omitempty"`
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
}

// Present reports whether --user should be passed.
func (c Credentials) Present() bool {
	return c.Username != ""
}

// Runner executes an argument vector and returns the raw process output.
// A non-nil error means the process could not be run at all.
type Runner interface {
	Run(ctx context.Context, argv []string) (stdout, stderr string, exitCode int, err error)
}

// Auditor is notified after every mutating command.
type Auditor interface {
	RecordCommand(cmd *Command, argv []string, err error, elapsed time.Duration)
}

// Client builds full invocations from Commands and classifies the results.
type Client struct {
	runner  Runner
	prefix  []string
	creds   Credentials
	auditor Auditor
}

// ParsePrefix splits a configured CLI prefix such as "/usr/bin/cli --quiet"
// into an argument vector. An empty string yields DefaultPrefix.
func ParsePrefix(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		s = DefaultPrefix
	}
	argv, err := shlex.Split(s)
	if err != nil {
		return nil, fmt.Errorf("parsing cli prefix %q: %w", s, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("parsing cli prefix %q: empty", s)
	}
	return argv, nil
}

// NewClient creates a client. A nil prefix means DefaultPrefix.
func NewClient(runner Runner, prefix []string, creds Credentials) *Client {
	if len(prefix) == 0 {
		prefix, _ = ParsePrefix(DefaultPrefix)
	}
	return &Client{runner: runner, prefix: prefix, creds: creds}
}

// WithAuditor attaches an auditor notified of every mutating command.
func (c *Client) WithAuditor(a Auditor) *Client {
	c.auditor = a
	return c
}

// Argv returns the complete argument vector for cmd.
func (c *Client) Argv(cmd *Command) []string {
	argv := make([]string, 0, len(c.prefix)+2+len(cmd.args)+2)
	argv = append(argv, c.prefix...)
	if c.creds.Present() {
		argv = append(argv, "--user", c.creds.Username+":"+c.creds.Password)
	}
	return append(argv, cmd.Args()...)
}

// Run executes cmd and classifies its output. The returned error is only
// set when the process itself could not run.
func (c *Client) Run(ctx context.Context, cmd *Command) (Outcome, error) {
	argv := c.Argv(cmd)
	start := time.Now()

	log := util.WithFields(map[string]interface{}{
		"switch": cmd.Target(),
		"cmd":    cmd.String(),
	})
	log.Debug("running cli")

	stdout, stderr, code, err := c.runner.Run(ctx, argv)
	if err != nil {
		err = fmt.Errorf("running %s: %w", cmd.Subcommand(), err)
		c.audit(cmd, argv, err, start)
		return Outcome{}, err
	}

	out := Classify(stdout, stderr, code)
	if out.Kind == OutcomeError {
		log.WithField("stderr", strings.TrimSpace(out.Text)).Debug("cli error")
		c.audit(cmd, argv, &CLIError{Command: cmd.String(), Stderr: out.Text}, start)
	} else {
		c.audit(cmd, argv, nil, start)
	}
	return out, nil
}

// Query runs a show command and returns its whitespace-separated tokens.
// Empty output yields no tokens; stderr output is a *CLIError.
func (c *Client) Query(ctx context.Context, cmd *Command) ([]string, error) {
	out, err := c.Run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if out.Kind == OutcomeError {
		return nil, &CLIError{Command: cmd.String(), Stderr: out.Text}
	}
	return out.Tokens(), nil
}

// Exec runs a mutating command. Stderr output is a *CLIError.
func (c *Client) Exec(ctx context.Context, cmd *Command) (string, error) {
	out, err := c.Run(ctx, cmd)
	if err != nil {
		return "", err
	}
	if out.Kind == OutcomeError {
		return "", &CLIError{Command: cmd.String(), Stderr: out.Text}
	}
	util.WithSwitch(cmd.Target()).Infof("applied: %s", cmd.String())
	return out.Text, nil
}

func (c *Client) audit(cmd *Command, argv []string, err error, start time.Time) {
	if c.auditor == nil || !cmd.Mutating() {
		return
	}
	c.auditor.RecordCommand(cmd, redactArgv(argv), err, time.Since(start))
}

// redactArgv hides the password in "--user U:P".
func redactArgv(argv []string) []string {
	out := make([]string, len(argv))
	copy(out, argv)
	for i := 0; i+1 < len(out); i++ {
		if out[i] == "--user" {
			if idx := strings.Index(out[i+1], ":"); idx >= 0 {
				out[i+1] = out[i+1][:idx] + ":****"
			}
		}
	}
	return out
}
