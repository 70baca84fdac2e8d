package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/EgorLis/chestbot/internal/bot"
)

var registerCmd = &cobra.Command{
	Use:   "register-commands",
	Short: "Overwrite the guild's slash commands with /chest",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		logger.Info("started refreshing application (/) commands")
		b := bot.New(cfg, logger.Named("bot"))
		defer b.Tracker().Destroy()
		return b.RegisterCommands(ctx)
	},
}
