package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/newtron-network/ztpfab/pkg/cli"
	"github.com/newtron-network/ztpfab/pkg/task"
)

var (
	reportRedis string
	reportKey   string
)

var reportCmd = &cobra.Command{
	Use:   "report [file...]",
	Short: "Collate task results",
	Long: `Collate task result envelopes into one status line per task.

Envelopes are read from the named files, from stdin, or drained from the
Redis list tasks publish to.

Examples:
  ztpfab vlan -p leaf1.yaml > results.json; ztpfab report results.json
  ztpfab report --redis redis://runner:6379/0`,
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := collectResults(cmd.Context(), args)
		if err != nil {
			return err
		}
		lines := task.Collate(results)

		if app.jsonOutput {
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(lines)
		}

		if len(lines) == 0 {
			fmt.Fprintln(stdout, "No results found")
			return nil
		}

		t := cli.NewTableTo(stdout, "TASK", "STATUS", "ENTRIES", "MESSAGE")
		for i, l := range lines {
			t.Row(l.Task, cli.StatusLabel(results[i]), strconv.Itoa(l.Summary.Len()), l.Msg)
		}
		t.Flush()

		counts := task.Counts(lines)
		fmt.Fprintf(stdout, "\n%d ok, %d failed, %d skipped\n",
			counts[task.StatusOK], counts[task.StatusFailed], counts[task.StatusSkipped])
		if counts[task.StatusFailed] > 0 {
			return errTaskFailed
		}
		return nil
	},
}

func collectResults(ctx context.Context, files []string) ([]*task.Result, error) {
	if reportRedis != "" {
		if ctx == nil {
			ctx = context.Background()
		}
		key := reportKey
		if key == "" {
			key = app.settings.ResultsKey
		}
		rs, err := task.NewRedisSink(reportRedis, key)
		if err != nil {
			return nil, err
		}
		defer rs.Close()
		return rs.Drain(ctx)
	}

	if len(files) == 0 {
		return task.ReadResults(os.Stdin)
	}
	var out []*task.Result
	for _, path := range files {
		results, err := readResultFile(path)
		if err != nil {
			return nil, err
		}
		out = append(out, results...)
	}
	return out, nil
}

func readResultFile(path string) ([]*task.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening results: %w", err)
	}
	defer f.Close()
	results, err := task.ReadResults(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return results, nil
}

func init() {
	reportCmd.Flags().StringVar(&reportRedis, "redis", "", "Drain results from this redis:// URL")
	reportCmd.Flags().StringVar(&reportKey, "key", "", "Redis list key (default: settings results_key)")
	addOutputFlags(reportCmd)
}
