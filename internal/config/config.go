// Package config собирает настройки бота: значения по умолчанию,
// затем YAML-файл (если есть), затем переменные окружения.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/EgorLis/chestbot/internal/discord"
	"github.com/EgorLis/chestbot/internal/tracker"
)

const DefaultPath = "conf/chestbot.yaml"

type Config struct {
	Token    string `yaml:"token" env:"DISCORD_TOKEN"`
	ClientID string `yaml:"client_id" env:"DISCORD_CLIENT_ID"`
	GuildID  string `yaml:"guild_id" env:"GUILD_ID"`

	// миллисекунды, как в переменных окружения
	RespawnMS      int64 `yaml:"respawn_ms" env:"CHEST_RESPAWN_TIME"`
	NotificationMS int64 `yaml:"notification_ms" env:"NOTIFICATION_TIME"`

	HealthAddr string `yaml:"health_addr" env:"HEALTH_ADDR"`
	LegacyText bool   `yaml:"legacy_text_matching" env:"LEGACY_TEXT_MATCHING"`
	GatewayURL string `yaml:"gateway_url" env:"DISCORD_GATEWAY_URL"`
	APIURL     string `yaml:"api_url" env:"DISCORD_API_URL"`

	// сундуки, которые регистрируются неактивными при старте
	Chests []string `yaml:"chests"`
}

func Default() Config {
	d := tracker.DefaultConfig()
	return Config{
		RespawnMS:      d.RespawnDuration.Milliseconds(),
		NotificationMS: d.NotificationLead.Milliseconds(),
		HealthAddr:     ":8080",
		GatewayURL:     discord.DefaultGatewayURL,
		APIURL:         discord.DefaultAPIURL,
	}
}

// Load: defaults -> YAML (path может отсутствовать) -> env.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	switch {
	case c.Token == "":
		return errors.New("DISCORD_TOKEN is required")
	case c.ClientID == "":
		return errors.New("DISCORD_CLIENT_ID is required")
	case c.GuildID == "":
		return errors.New("GUILD_ID is required")
	case c.RespawnMS <= 0:
		return fmt.Errorf("CHEST_RESPAWN_TIME must be positive, got %d", c.RespawnMS)
	case c.NotificationMS <= 0:
		return fmt.Errorf("NOTIFICATION_TIME must be positive, got %d", c.NotificationMS)
	}
	return nil
}

func (c Config) Tracker() tracker.Config {
	return tracker.Config{
		RespawnDuration:  time.Duration(c.RespawnMS) * time.Millisecond,
		NotificationLead: time.Duration(c.NotificationMS) * time.Millisecond,
	}
}

// Report - по строке на переменную, секреты не печатаются.
func (c Config) Report() []string {
	mark := func(ok bool) string {
		if ok {
			return "✅ Set"
		}
		return "❌ Missing"
	}
	return []string{
		"DISCORD_TOKEN: " + mark(c.Token != ""),
		"DISCORD_CLIENT_ID: " + mark(c.ClientID != ""),
		"GUILD_ID: " + mark(c.GuildID != ""),
		fmt.Sprintf("CHEST_RESPAWN_TIME: %d ms (%v)", c.RespawnMS, time.Duration(c.RespawnMS)*time.Millisecond),
		fmt.Sprintf("NOTIFICATION_TIME: %d ms (%v)", c.NotificationMS, time.Duration(c.NotificationMS)*time.Millisecond),
		"HEALTH_ADDR: " + c.HealthAddr,
		fmt.Sprintf("LEGACY_TEXT_MATCHING: %t", c.LegacyText),
		fmt.Sprintf("chests from file: %d", len(c.Chests)),
	}
}
