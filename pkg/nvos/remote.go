package nvos

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/newtron-network/ztpfab/pkg/util"
)

// RemoteRunner runs the CLI on another switch over SSH. A fresh connection
// is dialed per invocation.
type RemoteRunner struct {
	Host    string
	User    string
	Pass    string
	Port    int
	Timeout time.Duration
}

// NewRemoteRunner creates a runner for host with password authentication.
func NewRemoteRunner(host, user, pass string) *RemoteRunner {
	return &RemoteRunner{
		Host:    host,
		User:    user,
		Pass:    pass,
		Port:    22,
		Timeout: 10 * time.Second,
	}
}

// Run implements Runner. Dial failures are returned as *UnreachableError and
// authentication failures as errors matching util.ErrPermissionDenied.
func (r *RemoteRunner) Run(ctx context.Context, argv []string) (string, string, int, error) {
	config := &ssh.ClientConfig{
		User: r.User,
		Auth: []ssh.AuthMethod{
			ssh.Password(r.Pass),
		},
		// Switches under ZTP present freshly generated host keys.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         r.Timeout,
	}

	addr := net.JoinHostPort(r.Host, fmt.Sprintf("%d", r.Port))
	dialer := net.Dialer{Timeout: r.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", "", -1, &UnreachableError{Host: r.Host, Reason: err.Error()}
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		if strings.Contains(err.Error(), "unable to authenticate") {
			return "", "", -1, fmt.Errorf("SSH login %s@%s: %w", r.User, r.Host, util.ErrPermissionDenied)
		}
		return "", "", -1, &UnreachableError{Host: r.Host, Reason: err.Error()}
	}
	client := ssh.NewClient(sshConn, chans, reqs)
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return "", "", -1, fmt.Errorf("SSH session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(remoteCommandLine(argv)) }()

	select {
	case <-ctx.Done():
		session.Signal(ssh.SIGTERM)
		return stdout.String(), stderr.String(), -1, ctx.Err()
	case err = <-done:
	}

	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return stdout.String(), stderr.String(), exitErr.ExitStatus(), nil
	}
	if err != nil {
		return stdout.String(), stderr.String(), -1, fmt.Errorf("SSH exec on %s: %w", r.Host, err)
	}
	return stdout.String(), stderr.String(), 0, nil
}

// remoteCommandLine joins argv into a single remote shell command, quoting
// each argument.
func remoteCommandLine(argv []string) string {
	return strings.Join(quoteArgs(argv), " ")
}

// singleQuote wraps a string in single quotes, escaping any embedded single quotes.
func singleQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
}

// quoteArgs shell-quotes each argument using singleQuote.
func quoteArgs(args []string) []string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		quoted[i] = singleQuote(arg)
	}
	return quoted
}

// RemoteStatus is the outcome of a remote one-shot command.
type RemoteStatus int

const (
	RemoteOK RemoteStatus = iota
	// RemoteAlreadyDone means the host rejected the login because the
	// credential was already rotated: the switch was reset or set up before.
	RemoteAlreadyDone
	RemoteUnreachable
	RemoteFailed
)

func (s RemoteStatus) String() string {
	switch s {
	case RemoteOK:
		return "ok"
	case RemoteAlreadyDone:
		return "already-done"
	case RemoteUnreachable:
		return "unreachable"
	default:
		return "failed"
	}
}

// ClassifyRemote maps the output and error of a remote invocation to a
// RemoteStatus. "permission denied" means already done, "no route to host"
// or any dial failure means unreachable.
func ClassifyRemote(output string, err error) RemoteStatus {
	text := strings.ToLower(output)
	if err != nil {
		text += " " + strings.ToLower(err.Error())
	}
	switch {
	case errors.Is(err, util.ErrPermissionDenied), strings.Contains(text, "permission denied"):
		return RemoteAlreadyDone
	case errors.Is(err, util.ErrUnreachable), strings.Contains(text, "no route to host"):
		return RemoteUnreachable
	case err != nil:
		return RemoteFailed
	}
	return RemoteOK
}
