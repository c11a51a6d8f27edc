// Package cli wires the replicator command tree.
package cli

import (
	"github.com/spf13/cobra"

	"replicator/pkg/config"
)

// globalConfig holds the loaded configuration for all commands.
var globalConfig config.Config

// NewRoot builds the root command.
func NewRoot() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "replicator",
		Short: "Supervisor for multi-stage paper reproduction workflows",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			globalConfig = cfg
			return nil
		},
		RunE: func(c *cobra.Command, _ []string) error { return c.Help() },
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", ".replicator/config.yaml", "config file path")

	cmd.AddCommand(newStepCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newMetricsCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}
