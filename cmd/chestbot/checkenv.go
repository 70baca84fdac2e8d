package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/EgorLis/chestbot/internal/bot"
	"github.com/EgorLis/chestbot/internal/config"
)

// checkOnline - дополнительно спросить у Discord, принимается ли токен.
var checkOnline bool

var checkEnvCmd = &cobra.Command{
	Use:   "check-env",
	Short: "Show which settings are present without printing secrets",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "🔍 Configuration check:")
		fmt.Fprintln(out, "==============================")
		for _, line := range cfg.Report() {
			fmt.Fprintln(out, line)
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(out, "\n❌ %v\n", err)
			return err
		}
		fmt.Fprintln(out, "\n✅ All required settings are present!")
		if !checkOnline {
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()
		b := bot.New(cfg, logger.Named("bot"))
		defer b.Tracker().Destroy()
		u, err := b.CheckToken(ctx)
		if err != nil {
			fmt.Fprintf(out, "❌ %v\n", err)
			return err
		}
		fmt.Fprintf(out, "✅ Token belongs to %s (%s)\n", u.Username, u.ID)
		return nil
	},
}

func init() {
	checkEnvCmd.Flags().BoolVar(&checkOnline, "online", false, "also verify the token against Discord")
}
