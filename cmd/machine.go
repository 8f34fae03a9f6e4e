package cmd

import (
	"github.com/grovetools/ark/cli"
	"github.com/grovetools/ark/logging"
	"github.com/grovetools/ark/pkg/machine"
	"github.com/spf13/cobra"
)

func newMachineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "machine",
		Short: "Show the machine identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := newDeps(cmd)
			path := d.cfg.MachineConfigPath()
			id := machine.Load(d.fs, path)

			if cli.GetOptions(cmd).JSONOutput {
				return writeJSON(cmd.OutOrStdout(), id)
			}

			pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			pretty.Field("machine_id", id.MachineID)
			if id.WorkspaceRoot != "" {
				pretty.Path("workspace_root", id.WorkspaceRoot)
			}
			if !id.Found() {
				pretty.WarnPretty("no identity found at " + path)
			}
			return nil
		},
	}
}
