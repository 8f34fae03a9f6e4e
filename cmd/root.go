package cmd

import (
	"github.com/grovetools/ark/cli"
	"github.com/grovetools/ark/pkg/profiling"
	"github.com/grovetools/ark/tui/theme"
	"github.com/spf13/cobra"
)

// NewRootCmd assembles the ark command tree.
func NewRootCmd() *cobra.Command {
	root := cli.NewStandardCommand(
		"ark",
		"Track developer-tool sessions across their lifecycle",
	)
	root.Long = `ark keeps a registry of running developer-tool sessions on this machine.

Host tool hooks report start, heartbeat, compaction and stop events; ark
assigns each session a callsign, detects sessions that died without a stop
event, and records finished sessions in the workspace diary and daily notes.

Examples:
  # Register a session from a start hook
  echo '{"session_id":"abc123","cwd":"/src/07-Carbon-Meth-Hub"}' | ark hook start

  # Show active sessions
  ark status`

	prof := profiling.NewFlags()
	prof.AddFlags(root)

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		theme.SetupOutput(cmd.OutOrStdout(), cli.GetOptions(cmd).JSONOutput)
		return prof.PreRun(cmd, args)
	}
	root.PersistentPostRun = prof.PostRun

	root.AddCommand(
		newHookCmd(),
		newIntentCmd(),
		newStatusCmd(),
		newCrashesCmd(),
		newEventsCmd(),
		newCleanupCmd(),
		newPathsCmd(),
		newMachineCmd(),
		newConfigCmd(),
		cli.NewVersionCommand("ark"),
	)
	return root
}
