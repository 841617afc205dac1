package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/newtron-network/ztpfab/pkg/configure"
	"github.com/newtron-network/ztpfab/pkg/task"
	"github.com/newtron-network/ztpfab/pkg/util"
)

var (
	resetWait     time.Duration
	resetInterval time.Duration
	resetTimeout  time.Duration
)

// Replaced in tests.
var resetSleep func(ctx context.Context, d time.Duration) error

var eulaCmd = &cobra.Command{
	Use:   "eula",
	Short: "Accept the EULA and set the admin password on every host",
	Long: `Accept the EULA and set the admin password on every host.

Each switch is reached over SSH with the factory initial_password. A switch
that rejects it has already been set up.

Examples:
  ztpfab eula -p fleet.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTask(configure.TaskEula, "eula acceptance", func(ctx context.Context, rt *runtime) *task.Result {
			hosts, err := rt.params.Hosts()
			if err != nil {
				return rt.fail(err)
			}
			if err := util.RequireParam("initial_password", rt.params.InitialPassword); err != nil {
				return rt.fail(err)
			}
			r := rt.remote(rt.params.Username, rt.params.InitialPassword)
			return configure.AcceptEula(ctx, r, hosts, rt.params.Password)
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the configuration of every host",
	Long: `Reset the configuration of every host.

Issues switch-config-reset on each switch, waits for them to reboot and
checks that each comes back.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTask(configure.TaskReset, "switch config reset", func(ctx context.Context, rt *runtime) *task.Result {
			hosts, err := rt.params.Hosts()
			if err != nil {
				return rt.fail(err)
			}
			opts := configure.DefaultResetOptions()
			opts.Wait, opts.PollInterval, opts.PollTimeout = resetWait, resetInterval, resetTimeout
			if resetSleep != nil {
				opts.Sleep = resetSleep
			}
			r := rt.remote(rt.params.Username, rt.params.Password)
			return configure.ResetSwitches(ctx, r, hosts, opts)
		})
	},
}

var hostsCmd = &cobra.Command{
	Use:   "hosts [file]",
	Short: "Validate a hosts inventory file",
	Long: `Validate a hosts inventory file.

The file defaults to the hosts_file parameter.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTask(configure.TaskHosts, "hosts validation", func(ctx context.Context, rt *runtime) *task.Result {
			path := rt.params.HostsFile
			if len(args) == 1 {
				path = args[0]
			}
			if err := util.RequireParam("hosts_file", path); err != nil {
				return rt.fail(err)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return rt.fail(fmt.Errorf("reading hosts file: %w", err))
			}
			_, res := configure.ValidateHosts(string(data))
			return res
		})
	},
}

func init() {
	def := configure.DefaultResetOptions()
	resetCmd.Flags().DurationVar(&resetWait, "wait", def.Wait, "Pause after issuing resets")
	resetCmd.Flags().DurationVar(&resetInterval, "poll-interval", def.PollInterval, "Interval between reachability probes")
	resetCmd.Flags().DurationVar(&resetTimeout, "poll-timeout", def.PollTimeout, "Per-switch probe timeout")
}
