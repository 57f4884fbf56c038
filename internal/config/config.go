package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the CLI and the reminder daemon.
type Config struct {
	DataDir          string
	Storage          StorageConfig
	Telegram         TelegramConfig
	ReportInterval   time.Duration
	ReportAt         string
	RemindersEnabled bool
	Timezone         string
	Logger           LoggerConfig
}

type StorageConfig struct {
	Driver      string
	DatabaseURL string
	BoltPath    string
}

type TelegramConfig struct {
	Token  string
	ChatID int64
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

// Load reads configuration from environment variables (optionally .env)
// with defaults that keep all data under DATA_DIR.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	dataDir := getString("DATA_DIR", "./data")
	cfg := &Config{
		DataDir: dataDir,
		Storage: StorageConfig{
			Driver:      strings.ToLower(getString("STORAGE_DRIVER", "sqlite")),
			DatabaseURL: getString("DATABASE_URL", filepath.Join(dataDir, "study_reminder.db")),
			BoltPath:    getString("BOLTDB_PATH", filepath.Join(dataDir, "study_reminder.bolt")),
		},
		Telegram: TelegramConfig{
			Token: strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		},
		ReportInterval:   parseInterval(strings.TrimSpace(os.Getenv("REPORT_INTERVAL_HOURS"))),
		ReportAt:         getString("REPORT_AT", ""),
		RemindersEnabled: getBool("REMINDERS_ENABLED", true),
		Timezone:         getString("TIMEZONE", "Local"),
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "console"),
		},
	}

	if cfg.ReportInterval == 0 {
		cfg.ReportInterval = 5 * time.Hour
	}

	if raw := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); raw != "" {
		chatID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("TELEGRAM_CHAT_ID must be an integer: %w", err)
		}
		cfg.Telegram.ChatID = chatID
	}

	if _, err := cfg.Location(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// TelegramEnabled reports whether both the bot token and the target chat are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.Token != "" && c.Telegram.ChatID != 0
}

// Location resolves TIMEZONE; "Local" and "" mean the host zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func parseInterval(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}

func getString(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}
