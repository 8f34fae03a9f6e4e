package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/grovetools/ark/cli"
	"github.com/grovetools/ark/logging"
	"github.com/spf13/cobra"
)

// CleanupOutput is the JSON form of `ark cleanup`.
type CleanupOutput struct {
	RemovedLogs []string `json:"removed_logs"`
	Evicted     []string `json:"evicted"`
}

func newCleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete old event logs and purge finished sessions",
		Long: `Apply event log retention (30 days) and cap the registry at 50
finished sessions, oldest first. Active sessions are never removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := newDeps(cmd)
			removed, evicted := d.manager.Cleanup()

			if cli.GetOptions(cmd).JSONOutput {
				out := CleanupOutput{RemovedLogs: removed, Evicted: evicted}
				if out.RemovedLogs == nil {
					out.RemovedLogs = []string{}
				}
				if out.Evicted == nil {
					out.Evicted = []string{}
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}

			pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			for _, path := range removed {
				pretty.InfoPretty("removed " + filepath.Base(path))
			}
			for _, id := range evicted {
				pretty.InfoPretty("evicted " + id)
			}
			if len(removed) > 0 || len(evicted) > 0 {
				pretty.Divider()
			}
			pretty.Success(fmt.Sprintf("Removed %d log file(s), evicted %d session(s)", len(removed), len(evicted)))
			return nil
		},
	}
}
