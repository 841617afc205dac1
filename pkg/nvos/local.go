package nvos

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// LocalRunner runs the CLI as a child process on this host.
type LocalRunner struct{}

// Run implements Runner. A non-zero exit status is not an error; callers
// classify the invocation by its output.
func (LocalRunner) Run(ctx context.Context, argv []string) (string, string, int, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.String(), stderr.String(), exitErr.ExitCode(), nil
	}
	if err != nil {
		return "", "", -1, err
	}
	return stdout.String(), stderr.String(), 0, nil
}
