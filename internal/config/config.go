// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"gitlab.com/yelinaung/finance-ledger/internal/models"
	"gitlab.com/yelinaung/finance-ledger/internal/telemetry"
)

// Defaults applied when the matching variable is unset.
const (
	DefaultTimezone       = "Asia/Singapore"
	DefaultSweepInterval  = time.Hour
	DefaultCommandTimeout = 15 * time.Second
	DefaultServiceName    = "finance-ledger"
)

// Config holds all configuration for the application.
type Config struct {
	TelegramBotToken     string
	DatabaseURL          string
	LogLevel             string
	LogFormat            string
	LogHashSalt          string
	WhitelistedUserIDs   []int64
	WhitelistedUsernames []string
	Timezone             string
	DefaultCurrency      string
	SweepEnabled         bool
	SweepInterval        time.Duration
	CommandTimeout       time.Duration
	TelemetryExporter    telemetry.Exporter
	ServiceName          string

	location *time.Location
	problems []string
}

// Load reads configuration from environment variables, after loading a .env
// file if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		LogFormat:        os.Getenv("LOG_FORMAT"),
		LogHashSalt:      os.Getenv("LOG_HASH_SALT"),
		Timezone:         envOr("TIMEZONE", DefaultTimezone),
		DefaultCurrency:  strings.ToUpper(envOr("DEFAULT_CURRENCY", models.DefaultCurrency)),
		SweepEnabled:     os.Getenv("SWEEP_ENABLED") != "false",
		ServiceName:      envOr("SERVICE_NAME", DefaultServiceName),
	}

	cfg.SweepInterval = cfg.duration("SWEEP_INTERVAL", DefaultSweepInterval)
	cfg.CommandTimeout = cfg.duration("COMMAND_TIMEOUT", DefaultCommandTimeout)

	exporter, err := telemetry.ParseExporter(os.Getenv("TELEMETRY_EXPORTER"))
	if err != nil {
		cfg.problems = append(cfg.problems, "TELEMETRY_EXPORTER: "+err.Error())
	}
	cfg.TelemetryExporter = exporter

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		cfg.problems = append(cfg.problems, fmt.Sprintf("TIMEZONE %q is not a valid IANA zone", cfg.Timezone))
		loc = time.UTC
	}
	cfg.location = loc

	for idStr := range strings.SplitSeq(os.Getenv("WHITELISTED_USER_IDS"), ",") {
		idStr = strings.TrimSpace(idStr)
		if idStr == "" {
			continue
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			continue
		}
		cfg.WhitelistedUserIDs = append(cfg.WhitelistedUserIDs, id)
	}

	for username := range strings.SplitSeq(os.Getenv("WHITELISTED_USERNAMES"), ",") {
		username = strings.TrimPrefix(strings.TrimSpace(username), "@")
		if username == "" {
			continue
		}
		cfg.WhitelistedUsernames = append(cfg.WhitelistedUsernames, username)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func (c *Config) duration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		c.problems = append(c.problems, fmt.Sprintf("%s must be a positive duration, got %q", key, raw))
		return fallback
	}
	return d
}

// validate checks that all required configuration is present.
func (c *Config) validate() error {
	errs := slices.Clone(c.problems)

	if c.TelegramBotToken == "" {
		errs = append(errs, "TELEGRAM_BOT_TOKEN is required")
	}

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	if len(c.WhitelistedUserIDs) == 0 && len(c.WhitelistedUsernames) == 0 {
		errs = append(errs, "at least one whitelisted user (WHITELISTED_USER_IDS or WHITELISTED_USERNAMES) is required")
	}

	if len(c.DefaultCurrency) != 3 {
		errs = append(errs, fmt.Sprintf("DEFAULT_CURRENCY must be a 3-letter code, got %q", c.DefaultCurrency))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Location returns the zone used to interpret dates typed by users.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// IsUserWhitelisted checks if a Telegram user ID or username is in the whitelist.
func (c *Config) IsUserWhitelisted(userID int64, username string) bool {
	if slices.Contains(c.WhitelistedUserIDs, userID) {
		return true
	}

	username = strings.TrimPrefix(username, "@")
	if username == "" {
		return false
	}
	return slices.ContainsFunc(c.WhitelistedUsernames, func(w string) bool {
		return strings.EqualFold(w, username)
	})
}
