// Package nvos drives the switch network OS command line. Commands are built
// as argument vectors and handed to a Runner, which executes them either on
// the local switch or on a remote one over SSH.
package nvos

import (
	"strings"
)

// selector kinds for the switch a command targets
const (
	selectNone = iota
	selectLocal
	selectSwitch
)

// Command is a single NOS-CLI subcommand with its arguments. The CLI binary,
// --quiet and --user are not part of the Command; the Client prepends them.
type Command struct {
	selector int
	target   string
	args     []string
}

// NewCommand starts a command for the given subcommand, e.g. "vlan-create".
func NewCommand(subcommand string, args ...string) *Command {
	c := &Command{args: []string{subcommand}}
	return c.Arg(args...)
}

// Show starts a read-only "<object>-show" command.
func Show(object string) *Command {
	return NewCommand(object + "-show")
}

// On scopes the command to the named switch ("switch <name>").
func (c *Command) On(name string) *Command {
	if name == "" {
		c.selector = selectNone
		c.target = ""
		return c
	}
	c.selector = selectSwitch
	c.target = name
	return c
}

// Local scopes the command to the switch the CLI runs on ("switch-local").
func (c *Command) Local() *Command {
	c.selector = selectLocal
	c.target = ""
	return c
}

// Arg appends raw arguments.
func (c *Command) Arg(args ...string) *Command {
	c.args = append(c.args, args...)
	return c
}

// Opt appends "key value". Nothing is appended when value is empty.
func (c *Command) Opt(key, value string) *Command {
	if value == "" {
		return c
	}
	c.args = append(c.args, key, value)
	return c
}

// Format requests the given output fields without headers.
func (c *Command) Format(fields ...string) *Command {
	c.args = append(c.args, "format", strings.Join(fields, ","), "no-show-headers")
	return c
}

// Subcommand returns the NOS-CLI subcommand name.
func (c *Command) Subcommand() string {
	return c.args[0]
}

// Target returns the switch named by the selector, or "" for none/local.
func (c *Command) Target() string {
	return c.target
}

// Mutating reports whether the command changes switch state. Every
// subcommand other than "*-show" and "*-info" is treated as mutating.
func (c *Command) Mutating() bool {
	sub := c.Subcommand()
	return !strings.HasSuffix(sub, "-show") && !strings.HasSuffix(sub, "-info")
}

// Args returns the selector followed by the subcommand arguments.
func (c *Command) Args() []string {
	out := make([]string, 0, len(c.args)+2)
	switch c.selector {
	case selectLocal:
		out = append(out, "switch-local")
	case selectSwitch:
		out = append(out, "switch", c.target)
	}
	return append(out, c.args...)
}

// String renders the command the way it appears in task summaries.
func (c *Command) String() string {
	return strings.Join(c.Args(), " ")
}
