package cmd

import (
	"fmt"
	"time"

	"github.com/grovetools/ark/cli"
	"github.com/grovetools/ark/pkg/sessions"
	"github.com/spf13/cobra"
)

func newCrashesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crashes",
		Short: "Mark dead sessions as crashed and report them",
		Long: `Run the crash sweep outside of a session start. An active session is
marked crashed when its last heartbeat is more than 10 minutes old and its
process is gone. Each crash is reported once.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := newDeps(cmd)
			crashes := d.manager.DetectCrashes(cmd.Context())

			if cli.GetOptions(cmd).JSONOutput {
				if crashes == nil {
					crashes = []sessions.CrashReport{}
				}
				return writeJSON(cmd.OutOrStdout(), crashes)
			}
			if len(crashes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No crashed sessions")
				return nil
			}
			printCrashBanners(cmd.OutOrStdout(), crashes, time.Now())
			return nil
		},
	}
}
