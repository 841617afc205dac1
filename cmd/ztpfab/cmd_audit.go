package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/newtron-network/ztpfab/pkg/audit"
	"github.com/newtron-network/ztpfab/pkg/cli"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "View the command audit log",
	Long: `View the log of mutating NOS-CLI commands issued by tasks.
--switch filters by the switch a command ran on.

Examples:
  ztpfab audit list --switch leaf1
  ztpfab audit list --task "Vlan creation" --last 24h
  ztpfab audit list --failures`,
}

var (
	auditTask     string
	auditLast     string
	auditLimit    int
	auditFailures bool
)

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit events",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := app.settings.GetAuditLog()
		if path == "" {
			return fmt.Errorf("audit logging is disabled")
		}

		filter := audit.Filter{
			Task:        auditTask,
			Switch:      app.switchName,
			Limit:       auditLimit,
			FailureOnly: auditFailures,
		}
		if auditLast != "" {
			d, err := time.ParseDuration(auditLast)
			if err != nil {
				return fmt.Errorf("invalid duration: %s", auditLast)
			}
			filter.StartTime = time.Now().Add(-d)
		}

		logger, err := audit.NewFileLogger(path, audit.DefaultRotation)
		if err != nil {
			return fmt.Errorf("opening audit log: %w", err)
		}
		defer logger.Close()

		events, err := logger.Query(filter)
		if err != nil {
			return fmt.Errorf("querying audit log: %w", err)
		}

		if app.jsonOutput {
			return json.NewEncoder(stdout).Encode(events)
		}
		if len(events) == 0 {
			fmt.Fprintln(stdout, "No audit events found")
			return nil
		}

		t := cli.NewTableTo(stdout, "TIMESTAMP", "TASK", "SWITCH", "SUBCOMMAND", "STATUS")
		for _, e := range events {
			status := cli.Green("ok")
			if !e.Success {
				status = cli.Red("failed")
			}
			t.Row(e.Timestamp.Format("2006-01-02 15:04:05"), e.Task, e.Switch, e.Subcommand, status)
		}
		t.Flush()
		return nil
	},
}

func init() {
	auditListCmd.Flags().StringVar(&auditTask, "task", "", "Filter by task")
	auditListCmd.Flags().StringVar(&auditLast, "last", "", "Show events from last duration (e.g., 24h)")
	auditListCmd.Flags().IntVar(&auditLimit, "limit", 100, "Maximum events to show")
	auditListCmd.Flags().BoolVar(&auditFailures, "failures", false, "Show only failed commands")
	addOutputFlags(auditListCmd)

	auditCmd.AddCommand(auditListCmd)
}
