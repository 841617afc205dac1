package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newtron-network/ztpfab/pkg/cli"
	"github.com/newtron-network/ztpfab/pkg/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage persistent settings",
	Long: `Manage persistent settings stored in ~/.ztpfab/settings.json.

Settings provide defaults that parameter files and flags override:
  - cli_prefix:   NOS-CLI binary and fixed flags
  - default_user: CLI user when none is given
  - audit_log:    Audit log path, "off" to disable
  - results_url:  redis:// URL every result is published to
  - results_key:  Redis list results are pushed onto

Examples:
  ztpfab settings show
  ztpfab settings set default_user network-admin
  ztpfab settings set results_url redis://runner:6379/0
  ztpfab settings clear`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}

		fmt.Fprintf(stdout, "Settings file: %s\n\n", settings.DefaultSettingsPath())

		t := cli.NewTableTo(stdout, "SETTING", "VALUE")
		printSetting := func(name, value string) {
			if value == "" {
				value = "(not set)"
			}
			t.Row(name, value)
		}
		printSetting("cli_prefix", s.CLIPrefix)
		printSetting("default_user", s.DefaultUser)
		printSetting("audit_log", s.AuditLog)
		printSetting("results_url", s.ResultsURL)
		printSetting("results_key", s.ResultsKey)
		t.Flush()
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <setting> <value>",
	Short: "Set a setting value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load()
		if err != nil {
			s = &settings.Settings{}
		}
		if !s.Set(args[0], args[1]) {
			return fmt.Errorf("unknown setting: %s (valid: cli_prefix, default_user, audit_log, results_url, results_key)", args[0])
		}
		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Fprintf(stdout, "%s set to: %s\n", args[0], args[1])
		return nil
	},
}

var settingsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Reset all settings to defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := &settings.Settings{}
		s.Clear()
		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Fprintln(stdout, "Settings cleared")
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsClearCmd)
}
