// Package config resolves savezy's settings from defaults and the environment.
// Command-line flags are applied on top by the CLI.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/savezy/savezy/pkg/logging"
	"github.com/savezy/savezy/pkg/utils"
)

// Config holds every setting the CLI and MCP server need.
type Config struct {
	// Embedded store
	DBPath   string
	WAL      bool
	SyncMode string // OFF, NORMAL, FULL or EXTRA

	// Remote mirror
	RemoteURL   string
	SessionPath string

	LogLevel string
}

// LoadDefaults returns the built-in settings.
func LoadDefaults() *Config {
	return &Config{
		DBPath:      utils.GetDefaultDBPathOnly(),
		WAL:         true,
		SyncMode:    "FULL",
		RemoteURL:   "http://127.0.0.1:8090",
		SessionPath: utils.GetDefaultSessionPath(),
		LogLevel:    "info",
	}
}

// Load applies the SAVEZY_* environment variables over the defaults.
func Load() (*Config, error) {
	cfg := LoadDefaults()

	cfg.DBPath = envOrDefault("SAVEZY_DB", cfg.DBPath)
	cfg.SyncMode = strings.ToUpper(envOrDefault("SAVEZY_SYNC", cfg.SyncMode))
	cfg.RemoteURL = envOrDefault("SAVEZY_REMOTE_URL", cfg.RemoteURL)
	cfg.SessionPath = envOrDefault("SAVEZY_SESSION", cfg.SessionPath)
	cfg.LogLevel = envOrDefault("SAVEZY_LOG_LEVEL", cfg.LogLevel)

	if v := os.Getenv("SAVEZY_WAL"); v != "" {
		wal, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("SAVEZY_WAL must be a boolean, got %q", v)
		}
		cfg.WAL = wal
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late, deep inside a command.
func (c *Config) Validate() error {
	switch strings.ToUpper(c.SyncMode) {
	case "OFF", "NORMAL", "FULL", "EXTRA":
	default:
		return fmt.Errorf("invalid sync mode: %s. Must be one of OFF, NORMAL, FULL, EXTRA", c.SyncMode)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
