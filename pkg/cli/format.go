// Package cli provides terminal formatting for ztpfab output.
package cli

import (
	"os"

	"github.com/newtron-network/ztpfab/pkg/task"
)

// colorEnabled is false when NO_COLOR is set (no-color.org).
var colorEnabled = os.Getenv("NO_COLOR") == ""

func paint(code, s string) string {
	if !colorEnabled {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

// Green wraps s in ANSI green.
func Green(s string) string { return paint("32", s) }

// Yellow wraps s in ANSI yellow.
func Yellow(s string) string { return paint("33", s) }

// Red wraps s in ANSI red.
func Red(s string) string { return paint("31", s) }

// Bold wraps s in ANSI bold.
func Bold(s string) string { return paint("1", s) }

// StatusLabel renders an envelope for humans: ok, changed, failed,
// unreachable or skipped, coloured accordingly.
func StatusLabel(r *task.Result) string {
	switch {
	case r.Unreachable:
		return Red("unreachable")
	case r.Failed:
		return Red("failed")
	case r.Skipped:
		return Yellow("skipped")
	case r.Changed:
		return Yellow("changed")
	default:
		return Green("ok")
	}
}
