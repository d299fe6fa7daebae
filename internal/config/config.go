package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no config file is given explicitly.
const DefaultPath = "habits.yaml"

type LogConfig struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type TelegramConfig struct {
	Token        string `yaml:"token"`
	OwnerID      int64  `yaml:"owner_id"`
	ReminderTime string `yaml:"reminder_time"` // HH:MM
}

// Config keeps runtime settings for the tracker.
type Config struct {
	DatabaseURL string         `yaml:"database_url"`
	SeedSamples *bool          `yaml:"seed_samples"`
	Log         LogConfig      `yaml:"log"`
	Telegram    TelegramConfig `yaml:"telegram"`
}

// Load reads the YAML file at path, applies environment overrides and fills
// in defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	var cfg Config

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("decode %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	if err := overrideFromEnv(&cfg); err != nil {
		return cfg, err
	}
	applyDefaults(&cfg)
	return cfg, nil
}

// Seed reports whether an empty store gets the sample habits.
func (c Config) Seed() bool {
	return c.SeedSamples == nil || *c.SeedSamples
}

// ValidateTelegram checks the settings the bot command needs.
func (c Config) ValidateTelegram() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	if c.Telegram.OwnerID == 0 {
		return fmt.Errorf("TELEGRAM_OWNER_ID is required")
	}
	return nil
}

func overrideFromEnv(cfg *Config) error {
	if v := env("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := env("HABITS_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := env("HABITS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := env("HABITS_SEED_SAMPLES"); v != "" {
		seed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("HABITS_SEED_SAMPLES: %w", err)
		}
		cfg.SeedSamples = &seed
	}
	if v := env("TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := env("TELEGRAM_OWNER_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("TELEGRAM_OWNER_ID: %w", err)
		}
		cfg.Telegram.OwnerID = id
	}
	if v := env("REMINDER_TIME"); v != "" {
		cfg.Telegram.ReminderTime = v
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "habit_data.db"
	}
	if cfg.Log.File == "" {
		cfg.Log.File = "habits.log"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.MaxSizeMB <= 0 {
		cfg.Log.MaxSizeMB = 1
	}
	if cfg.Log.MaxBackups <= 0 {
		cfg.Log.MaxBackups = 5
	}
	if cfg.Log.MaxAgeDays <= 0 {
		cfg.Log.MaxAgeDays = 14
	}
	if cfg.Telegram.ReminderTime == "" {
		cfg.Telegram.ReminderTime = "20:00"
	}
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
