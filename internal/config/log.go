package config

import (
	"fmt"
	"log/slog"
	"strings"
)

const (
	EnvLogLevel  = "HARMONY_LOG_LEVEL"
	EnvLogFormat = "HARMONY_LOG_FORMAT"
)

// LogConfig selects the slog handler and minimum level.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// SlogLevel returns Level as a slog.Level.
func (c *LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *LogConfig) Finalize() error {
	defaultString(&c.Level, "info")
	defaultString(&c.Format, "text")
	envString(&c.Level, EnvLogLevel)
	envString(&c.Format, EnvLogFormat)

	c.Format = strings.ToLower(c.Format)
	if c.Format != "text" && c.Format != "json" {
		return fmt.Errorf("invalid format %q: expected text or json", c.Format)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return fmt.Errorf("invalid level %q: %w", c.Level, err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *LogConfig) Merge(overlay *LogConfig) {
	mergeString(&c.Level, overlay.Level)
	mergeString(&c.Format, overlay.Format)
}
