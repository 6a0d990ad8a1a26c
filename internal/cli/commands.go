package cli

import (
	"github.com/spf13/cobra"

	"harvester-bot/internal/bot"
)

// NewSetCommandsCmd builds the command that publishes the bot's command menu.
func NewSetCommandsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "set-commands",
		Short: "Publish the command menu to Telegram",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			b, err := bot.New(cfg)
			if err != nil {
				return err
			}
			return b.SetCommands()
		},
	}
}
