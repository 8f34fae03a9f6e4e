package cmd

import (
	"github.com/grovetools/ark/pkg/paths"
	"github.com/spf13/cobra"
)

// PathsOutput lists the files and directories ark uses.
type PathsOutput struct {
	ConfigDir     string `json:"config_dir"`
	SessionsDir   string `json:"sessions_dir"`
	RegistryFile  string `json:"registry_file"`
	LogDir        string `json:"log_dir"`
	MachineConfig string `json:"machine_config"`
}

func newPathsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print the paths used by ark",
		Long: `Print the paths used by ark as JSON.

Environment overrides (ARK_ACTIVE_FILE, ARK_LOG_DIR, ARK_MACHINE_CONFIG)
and configuration values are applied:
- config_dir: ark.yml / ark.toml
- sessions_dir: machine-local session state
- registry_file: active session registry
- log_dir: date-partitioned event log
- machine_config: machine identity file`,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := newDeps(cmd)
			return writeJSON(cmd.OutOrStdout(), PathsOutput{
				ConfigDir:     paths.ConfigDir(),
				SessionsDir:   paths.SessionsDir(),
				RegistryFile:  d.cfg.RegistryPath(),
				LogDir:        d.cfg.LogDirPath(),
				MachineConfig: d.cfg.MachineConfigPath(),
			})
		},
	}
}
