// Package cli wires configuration, storage and the Telegram bot behind cobra commands.
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

// Execute runs the CLI.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config"
	}

	cmd := &cobra.Command{
		Use:           "harvester-bot",
		Short:         "Telegram community bot with trivia, roll contests and duels",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "directory holding config.yaml and .env")
	cmd.AddCommand(NewRunCmd(&configPath))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	cmd.AddCommand(NewSetCommandsCmd(&configPath))
	return cmd
}
