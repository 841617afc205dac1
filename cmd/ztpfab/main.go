// ztpfab - CSV-driven fabric configuration for NOS-CLI switches
//
// Each subcommand is one provisioning task. A task reads its parameters
// (a YAML file plus flag overrides), validates its CSV input, converges the
// fabric through the NOS-CLI and prints exactly one JSON result envelope on
// stdout. Logs go to stderr.
//
// Examples:
//
//	ztpfab vlan -p leaf1.yaml --csv vlans.csv
//	ztpfab trunk -p leaf1.yaml --csv trunks.csv --check
//	ztpfab cluster --nodes spine1,spine2 -p spine1.yaml
//	ztpfab eula -p fleet.yaml --publish redis://runner:6379/0
//	ztpfab report results.json
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/newtron-network/ztpfab/pkg/audit"
	"github.com/newtron-network/ztpfab/pkg/configure"
	"github.com/newtron-network/ztpfab/pkg/nvos"
	"github.com/newtron-network/ztpfab/pkg/params"
	"github.com/newtron-network/ztpfab/pkg/settings"
	"github.com/newtron-network/ztpfab/pkg/task"
	"github.com/newtron-network/ztpfab/pkg/util"
	"github.com/newtron-network/ztpfab/pkg/version"
)

// errTaskFailed is returned after a failed envelope has been printed, so
// main exits non-zero without printing anything else.
var errTaskFailed = errors.New("task failed")

// App holds flag values and state shared by all commands.
type App struct {
	paramsFile string
	switchName string
	user       string
	askPass    bool
	check      bool
	publish    string
	verbose    bool
	logJSON    bool
	jsonOutput bool

	settings *settings.Settings
}

var app = &App{}

// Seams replaced in tests.
var (
	stdout    io.Writer = os.Stdout
	newRunner           = func() nvos.Runner { return nvos.LocalRunner{} }
	newDialer           = configure.SSHDialer
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errTaskFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "ztpfab",
	Short:             "CSV-driven fabric configuration for NOS-CLI switches",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `ztpfab provisions a switch fabric from CSV intent files.

Every task validates its input first; invalid input never reaches a switch.
Tasks are idempotent: re-running a task on a converged fabric changes nothing.

  ztpfab <task> -p <params.yaml> [--csv <file>] [--check]`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if app.verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("warn")
		}
		if app.logJSON {
			util.SetJSONFormat()
		}

		var err error
		app.settings, err = settings.Load()
		if err != nil {
			util.Warnf("Could not load settings: %v", err)
			app.settings = &settings.Settings{}
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&app.paramsFile, "params", "p", "", "Task parameter file (YAML)")
	pf.StringVarP(&app.switchName, "switch", "s", "", "Switch the task runs on (default: hostname)")
	pf.StringVarP(&app.user, "user", "u", "", "NOS-CLI user")
	pf.BoolVar(&app.askPass, "ask-pass", false, "Prompt for the NOS-CLI password")
	pf.BoolVar(&app.check, "check", false, "Validate input only, change nothing")
	pf.StringVar(&app.publish, "publish", "", "Also publish the result to this redis:// URL")
	pf.BoolVarP(&app.verbose, "verbose", "v", false, "Verbose logging")
	pf.BoolVar(&app.logJSON, "log-json", false, "Log in JSON format")

	rootCmd.AddGroup(
		&cobra.Group{ID: "fabric", Title: "Fabric Tasks:"},
		&cobra.Group{ID: "setup", Title: "Switch Setup Tasks:"},
		&cobra.Group{ID: "meta", Title: "Results & Meta:"},
	)

	for _, cmd := range []*cobra.Command{
		clusterCmd, vlanCmd, trunkCmd, vlagCmd, sviCmd,
		l2VrrpCmd, l3OspfCmd, vrrpCmd, fabricCmd, loopbackCmd,
	} {
		cmd.GroupID = "fabric"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{eulaCmd, resetCmd, hostsCmd} {
		cmd.GroupID = "setup"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{reportCmd, settingsCmd, auditCmd, versionCmd} {
		cmd.GroupID = "meta"
		rootCmd.AddCommand(cmd)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(stdout, version.Info())
	},
}

// addOutputFlags registers --json as a local flag.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&app.jsonOutput, "json", false, "JSON output")
}

// runtime is what a task body needs: its parameters, the CLI environment of
// the current switch and a way to report a pre-flight failure.
type runtime struct {
	params  *params.Params
	env     *configure.Env
	prefix  []string
	auditor nvos.Auditor
	rec     *task.Recorder
}

// fail builds the envelope of a task that could not start.
func (rt *runtime) fail(err error) *task.Result {
	return rt.rec.Fail(rt.env.Switch, err)
}

// remote returns the remote runner configuration for SSH-based tasks.
func (rt *runtime) remote(user, pass string) *configure.Remote {
	return &configure.Remote{
		Dial:    newDialer(user, pass),
		Prefix:  rt.prefix,
		Auditor: rt.auditor,
		Check:   app.check,
	}
}

// runTask loads parameters, builds the environment, runs body and emits
// the single envelope.
func runTask(taskName, action string, body func(ctx context.Context, rt *runtime) *task.Result) error {
	ctx := context.Background()
	rec := task.NewRecorder(taskName, action)

	rt, closeAudit, err := newRuntime(taskName, rec)
	var res *task.Result
	if err != nil {
		res = rec.Fail(app.switchName, err)
	} else {
		defer closeAudit()
		res = body(ctx, rt)
	}
	return emit(ctx, res)
}

func newRuntime(taskName string, rec *task.Recorder) (*runtime, func(), error) {
	p := &params.Params{}
	if app.paramsFile != "" {
		var err error
		if p, err = params.Load(app.paramsFile); err != nil {
			return nil, nil, err
		}
	}
	if err := applyOverrides(p); err != nil {
		return nil, nil, err
	}

	prefix, err := nvos.ParsePrefix(app.settings.GetCLIPrefix())
	if err != nil {
		return nil, nil, err
	}

	client := nvos.NewClient(newRunner(), prefix, p.Credentials())
	var auditor nvos.Auditor
	closeAudit := func() {}
	if path := app.settings.GetAuditLog(); path != "" {
		logger, err := audit.NewFileLogger(path, audit.DefaultRotation)
		if err != nil {
			util.Warnf("Could not initialize audit logging: %v", err)
		} else {
			auditor = &audit.CommandAuditor{Logger: logger, Task: taskName, User: p.Username}
			client.WithAuditor(auditor)
			closeAudit = func() { logger.Close() }
		}
	}

	env := configure.NewEnv(client, p.CurrentSwitch)
	env.Check = app.check
	return &runtime{params: p, env: env, prefix: prefix, auditor: auditor, rec: rec}, closeAudit, nil
}

// applyOverrides lets flags and settings fill in or override parameters.
func applyOverrides(p *params.Params) error {
	if app.switchName != "" {
		p.CurrentSwitch = app.switchName
	}
	if p.CurrentSwitch == "" {
		host, err := os.Hostname()
		if err != nil {
			return util.NewConfigError("current_switch", "not set and hostname unavailable: %v", err)
		}
		p.CurrentSwitch = host
	}
	if app.user != "" {
		p.Username = app.user
	}
	if p.Username == "" {
		p.Username = app.settings.DefaultUser
	}
	if app.askPass {
		pass, err := promptPassword(fmt.Sprintf("Password for %s: ", p.Username))
		if err != nil {
			return err
		}
		p.Password = pass
	}
	return nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimSpace(string(pass)), nil
}

// emit prints the envelope and publishes it. A failed or unreachable task
// yields errTaskFailed.
func emit(ctx context.Context, res *task.Result) error {
	sinks := task.MultiSink{task.NewWriterSink(stdout, true)}

	url := app.publish
	if url == "" {
		url = app.settings.ResultsURL
	}
	if url != "" {
		rs, err := task.NewRedisSink(url, app.settings.ResultsKey)
		if err != nil {
			util.Warnf("Could not publish result: %v", err)
		} else {
			sinks = append(sinks, rs)
		}
	}
	defer sinks.Close()

	if err := sinks.Publish(ctx, res); err != nil {
		util.Warnf("Could not publish result: %v", err)
	}
	if res.Status() == task.StatusFailed {
		return errTaskFailed
	}
	return nil
}
