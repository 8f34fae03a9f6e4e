package cmd

import (
	"fmt"

	"github.com/grovetools/ark/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect ark configuration",
	}
	cmd.AddCommand(newConfigSchemaCmd(), newConfigShowCmd())
	return cmd
}

func newConfigSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema for ark.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(schema))
			return nil
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := newDeps(cmd)
			data, err := yaml.Marshal(d.cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# registry_file: %s\n# log_dir: %s\n", d.cfg.RegistryPath(), d.cfg.LogDirPath())
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
