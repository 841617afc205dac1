package nvos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/newtron-network/ztpfab/pkg/util"
)

type scriptedRunner struct {
	calls  [][]string
	stdout string
	stderr string
	err    error
}

func (r *scriptedRunner) Run(_ context.Context, argv []string) (string, string, int, error) {
	r.calls = append(r.calls, argv)
	return r.stdout, r.stderr, 0, r.err
}

type recordingAuditor struct {
	cmds []string
	errs []error
}

func (a *recordingAuditor) RecordCommand(cmd *Command, argv []string, err error, _ time.Duration) {
	a.cmds = append(a.cmds, strings.Join(argv, " "))
	a.errs = append(a.errs, err)
}

func TestCommandArgs(t *testing.T) {
	tests := []struct {
		name string
		cmd  *Command
		want string
	}{
		{
			name: "fabric scope",
			cmd:  NewCommand("vlan-create", "id", "100", "scope", "fabric"),
			want: "vlan-create id 100 scope fabric",
		},
		{
			name: "switch selector",
			cmd:  Show("trunk").On("spine1").Format("name"),
			want: "switch spine1 trunk-show format name no-show-headers",
		},
		{
			name: "switch-local",
			cmd:  Show("vlan").Local().Format("id"),
			want: "switch-local vlan-show format id no-show-headers",
		},
		{
			name: "empty opt skipped",
			cmd:  NewCommand("vlan-create").Opt("id", "5").Opt("untagged-ports", ""),
			want: "vlan-create id 5",
		},
		{
			name: "On empty clears selector",
			cmd:  NewCommand("vlan-show").On("x").On(""),
			want: "vlan-show",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cmd.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommandMutating(t *testing.T) {
	tests := map[string]bool{
		"vlan-show":             false,
		"fabric-info":           false,
		"vlan-create":           true,
		"vrouter-interface-add": true,
		"switch-config-reset":   true,
	}
	for sub, want := range tests {
		if got := NewCommand(sub).Mutating(); got != want {
			t.Errorf("%s Mutating() = %v, want %v", sub, got, want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
		stderr string
		want   OutcomeKind
	}{
		{"stdout wins", "100 200\n", "warning", OutcomeOutput},
		{"stderr only", "", "vlan-create: bad id", OutcomeError},
		{"whitespace only", " \n", "\n", OutcomeEmpty},
		{"nothing", "", "", OutcomeEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.stdout, tt.stderr, 0).Kind; got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParsePrefix(t *testing.T) {
	got, err := ParsePrefix("")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"/usr/bin/cli", "--quiet"}, got); diff != "" {
		t.Errorf("default prefix mismatch (-want +got):\n%s", diff)
	}

	got, err = ParsePrefix(`"/opt/nvos/bin/cli" --quiet --no-login-prompt`)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"/opt/nvos/bin/cli", "--quiet", "--no-login-prompt"}, got); diff != "" {
		t.Errorf("quoted prefix mismatch (-want +got):\n%s", diff)
	}

	if _, err := ParsePrefix(`"unterminated`); err == nil {
		t.Error("expected error for unterminated quote")
	}
}

func TestClientArgv(t *testing.T) {
	cmd := NewCommand("vlan-create", "id", "10", "scope", "fabric")

	root := NewClient(&scriptedRunner{}, nil, Credentials{})
	want := []string{"/usr/bin/cli", "--quiet", "vlan-create", "id", "10", "scope", "fabric"}
	if diff := cmp.Diff(want, root.Argv(cmd)); diff != "" {
		t.Errorf("root argv mismatch (-want +got):\n%s", diff)
	}

	user := NewClient(&scriptedRunner{}, nil, Credentials{Username: "admin", Password: "pw"})
	want = []string{"/usr/bin/cli", "--quiet", "--user", "admin:pw", "switch", "leaf1", "vlan-create", "id", "10", "scope", "fabric"}
	if diff := cmp.Diff(want, user.Argv(cmd.On("leaf1"))); diff != "" {
		t.Errorf("user argv mismatch (-want +got):\n%s", diff)
	}
}

func TestClientQuery(t *testing.T) {
	r := &scriptedRunner{stdout: "100\n200 300\n"}
	c := NewClient(r, nil, Credentials{})

	tokens, err := c.Query(context.Background(), Show("vlan").Format("id"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"100", "200", "300"}, tokens); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}

	r.stdout = ""
	tokens, err = c.Query(context.Background(), Show("vlan").Format("id"))
	if err != nil || len(tokens) != 0 {
		t.Errorf("empty output should yield no tokens, got %v, %v", tokens, err)
	}

	r.stderr = "vlan-show: not permitted"
	_, err = c.Query(context.Background(), Show("vlan").Format("id"))
	var cliErr *CLIError
	if !errors.As(err, &cliErr) || !errors.Is(err, util.ErrCLI) {
		t.Fatalf("expected *CLIError, got %v", err)
	}
	if cliErr.Stderr != "vlan-show: not permitted" {
		t.Errorf("Stderr = %q", cliErr.Stderr)
	}
}

func TestClientExecAudit(t *testing.T) {
	r := &scriptedRunner{}
	a := &recordingAuditor{}
	c := NewClient(r, nil, Credentials{Username: "admin", Password: "secret"}).WithAuditor(a)

	if _, err := c.Exec(context.Background(), NewCommand("vlan-create", "id", "5")); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Query(context.Background(), Show("vlan")); err != nil {
		t.Fatal(err)
	}

	if len(a.cmds) != 1 {
		t.Fatalf("auditor should only see mutations, got %v", a.cmds)
	}
	if strings.Contains(a.cmds[0], "secret") || !strings.Contains(a.cmds[0], "admin:****") {
		t.Errorf("password not redacted: %s", a.cmds[0])
	}

	r.stderr = "vlan exists"
	if _, err := c.Exec(context.Background(), NewCommand("vlan-create", "id", "5")); err == nil {
		t.Fatal("expected error")
	}
	if a.errs[1] == nil {
		t.Error("auditor should receive the cli error")
	}
}

func TestClientRunnerError(t *testing.T) {
	r := &scriptedRunner{err: fmt.Errorf("exec: not found")}
	c := NewClient(r, nil, Credentials{})
	if _, err := c.Exec(context.Background(), NewCommand("vlan-create")); err == nil {
		t.Fatal("expected runner error to propagate")
	}
}

func TestClassifyRemote(t *testing.T) {
	tests := []struct {
		name   string
		output string
		err    error
		want   RemoteStatus
	}{
		{"ok", "switch-config-reset done", nil, RemoteOK},
		{"permission denied text", "Permission denied, please try again.", nil, RemoteAlreadyDone},
		{"auth error", "", fmt.Errorf("login: %w", util.ErrPermissionDenied), RemoteAlreadyDone},
		{"no route", "ssh: connect to host 10.0.0.1 port 22: No route to host", nil, RemoteUnreachable},
		{"dial error", "", &UnreachableError{Host: "h", Reason: "i/o timeout"}, RemoteUnreachable},
		{"other error", "", errors.New("session closed"), RemoteFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyRemote(tt.output, tt.err); got != tt.want {
				t.Errorf("ClassifyRemote() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRemoteCommandLine(t *testing.T) {
	got := remoteCommandLine([]string{"/usr/bin/cli", "--quiet", "eula-show", "it's"})
	want := `'/usr/bin/cli' '--quiet' 'eula-show' 'it'\''s'`
	if got != want {
		t.Errorf("remoteCommandLine() = %s, want %s", got, want)
	}
}
