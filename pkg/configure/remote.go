package configure

import (
	"context"
	"fmt"
	"time"

	"github.com/newtron-network/ztpfab/pkg/intent"
	"github.com/newtron-network/ztpfab/pkg/nvos"
	"github.com/newtron-network/ztpfab/pkg/task"
	"github.com/newtron-network/ztpfab/pkg/util"
)

// Dialer returns the runner that executes commands on sw.
type Dialer func(sw intent.Switch) nvos.Runner

// SSHDialer dials each switch's management address with password
// authentication.
func SSHDialer(user, pass string) Dialer {
	return func(sw intent.Switch) nvos.Runner {
		host := sw.MgmtIP
		if host == "" {
			host = sw.Name
		}
		return nvos.NewRemoteRunner(host, user, pass)
	}
}

// Remote runs one-shot commands on other switches.
type Remote struct {
	Dial    Dialer
	Prefix  []string
	Auditor nvos.Auditor
	Check   bool
}

func (r *Remote) run(ctx context.Context, sw intent.Switch, cmd *nvos.Command) (nvos.RemoteStatus, error) {
	client := nvos.NewClient(r.Dial(sw), r.Prefix, nvos.Credentials{})
	if r.Auditor != nil {
		client.WithAuditor(r.Auditor)
	}
	out, err := client.Run(ctx, cmd)
	status := nvos.ClassifyRemote(out.Text, err)
	if status == nvos.RemoteOK && out.Kind == nvos.OutcomeError {
		return nvos.RemoteFailed, &nvos.CLIError{Command: cmd.String(), Stderr: out.Text}
	}
	return status, err
}

// AcceptEula accepts the EULA on every host and sets the admin password.
// A host that rejects the login has already been set up.
func AcceptEula(ctx context.Context, r *Remote, hosts []intent.Switch, password string) *task.Result {
	rec := task.NewRecorder(TaskEula, "eula acceptance")
	if err := util.RequireParam("password", password); err != nil {
		return rec.Fail("", err)
	}
	if r.Check {
		return rec.Validated(len(hosts))
	}

	cmd := nvos.NewCommand("switch-setup-modify").
		Opt("eula-accepted", "true").
		Opt("password", password)
	for _, sw := range hosts {
		status, err := r.run(ctx, sw, cmd)
		switch status {
		case nvos.RemoteOK:
			rec.Changed(sw.Name, "EULA accepted")
		case nvos.RemoteAlreadyDone:
			rec.Unchanged(sw.Name, "EULA has already been accepted")
		case nvos.RemoteUnreachable:
			rec.Unreachable(sw.Name, "Switch is unreachable")
		default:
			return rec.Fail(sw.Name, err)
		}
	}
	return rec.Success()
}

// ResetOptions control the waits of a switch config reset.
type ResetOptions struct {
	// Wait is the pause after all resets are issued.
	Wait time.Duration
	// PollInterval and PollTimeout bound the per-host wait for the
	// switch to come back with its credentials rotated.
	PollInterval time.Duration
	PollTimeout  time.Duration
	// Sleep blocks for d or until ctx is done.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultResetOptions waits 180s, then polls every 10s for up to 60s.
func DefaultResetOptions() ResetOptions {
	return ResetOptions{
		Wait:         180 * time.Second,
		PollInterval: 10 * time.Second,
		PollTimeout:  60 * time.Second,
		Sleep:        sleep,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ResetSwitches issues switch-config-reset on every host, then waits for
// each to come back. A reset switch rejects the old credentials, so
// "permission denied" is success both before and after the reset.
func ResetSwitches(ctx context.Context, r *Remote, hosts []intent.Switch, opts ResetOptions) *task.Result {
	rec := task.NewRecorder(TaskReset, "switch config reset")
	if r.Check {
		return rec.Validated(len(hosts))
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}

	var pending []intent.Switch
	for _, sw := range hosts {
		status, err := r.run(ctx, sw, nvos.NewCommand("switch-config-reset"))
		switch status {
		case nvos.RemoteOK:
			pending = append(pending, sw)
		case nvos.RemoteAlreadyDone:
			rec.Unchanged(sw.Name, "Switch has already been reset")
		case nvos.RemoteUnreachable:
			rec.Unreachable(sw.Name, "Switch is unreachable")
		default:
			return rec.Fail(sw.Name, err)
		}
	}
	if len(pending) == 0 {
		return rec.Success()
	}

	util.WithTask(TaskReset).Infof("waiting %s for %d switches to reset", opts.Wait, len(pending))
	if err := opts.Sleep(ctx, opts.Wait); err != nil {
		return rec.Fail(pending[0].Name, err)
	}

	for _, sw := range pending {
		done, err := r.waitForReset(ctx, sw, opts)
		if err != nil {
			return rec.Fail(sw.Name, err)
		}
		if !done {
			return rec.Fail(sw.Name, fmt.Errorf("switch %s did not come back within %s", sw.Name, opts.PollTimeout))
		}
		rec.Changed(sw.Name, "Switch has been reset")
	}
	return rec.Success()
}

func (r *Remote) waitForReset(ctx context.Context, sw intent.Switch, opts ResetOptions) (bool, error) {
	attempts := 1
	if opts.PollInterval > 0 {
		attempts = int(opts.PollTimeout / opts.PollInterval)
	}
	if attempts < 1 {
		attempts = 1
	}

	probe := nvos.Show("eula")
	for i := 0; i < attempts; i++ {
		status, _ := r.run(ctx, sw, probe)
		if status == nvos.RemoteAlreadyDone {
			return true, nil
		}
		util.WithSwitch(sw.Name).Debugf("reset probe %d/%d: %s", i+1, attempts, status)
		if i+1 < attempts {
			if err := opts.Sleep(ctx, opts.PollInterval); err != nil {
				return false, err
			}
		}
	}
	return false, nil
}

// ValidateHosts parses a hosts file and reports the inventory it declares.
func ValidateHosts(text string) (*intent.Inventory, *task.Result) {
	rec := task.NewRecorder(TaskHosts, "hosts validation")
	inv, ds := intent.ParseHosts(text)
	if !ds.OK() {
		return nil, rec.Invalid(ds.String())
	}
	for _, sw := range inv.Switches {
		rec.Unchanged(sw.Name, "%s %s", sw.Role, sw.MgmtIP)
	}
	return inv, rec.Success()
}
