package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/EgorLis/chestbot/internal/bot"
	"github.com/EgorLis/chestbot/internal/config"
	"github.com/EgorLis/chestbot/internal/health"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot and the health endpoint",
	RunE:  runBot,
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger.Info("configuration validated",
		zap.Duration("respawn", cfg.Tracker().RespawnDuration),
		zap.Duration("notify_before", cfg.Tracker().NotificationLead),
		zap.Bool("legacy_text", cfg.LegacyText))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := bot.New(cfg, logger.Named("bot"))
	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("failed to start bot: %w", err)
	}
	defer b.Stop()

	g, gctx := errgroup.WithContext(ctx)
	if cfg.HealthAddr != "" {
		hs := health.New(cfg.HealthAddr, b, logger.Named("health"))
		g.Go(func() error { return hs.ListenAndServe(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down gracefully...")
		return nil
	})

	logger.Info("running, press Ctrl+C to stop")
	return g.Wait()
}
