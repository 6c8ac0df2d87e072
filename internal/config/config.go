// Package config loads Harmony's configuration from TOML files, an optional
// secrets file, and HARMONY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"
	DefaultSecretsFile   = ".env"

	EnvHarmonyEnv             = "HARMONY_ENV"
	EnvHarmonyEnvFile         = "HARMONY_ENV_FILE"
	EnvHarmonyShutdownTimeout = "HARMONY_SHUTDOWN_TIMEOUT"
	EnvHarmonyVersion         = "HARMONY_VERSION"
	EnvHarmonyTimezone        = "HARMONY_TIMEZONE"
)

// Config is the root configuration for the Harmony service and CLI.
type Config struct {
	Server          ServerConfig `toml:"server"`
	API             APIConfig    `toml:"api"`
	LLM             LLMConfig    `toml:"llm"`
	OCR             OCRConfig    `toml:"ocr"`
	Models          ModelsConfig `toml:"models"`
	Log             LogConfig    `toml:"log"`
	Timezone        string       `toml:"timezone"`
	ShutdownTimeout string       `toml:"shutdown_timeout"`
	Version         string       `toml:"version"`
}

// Env returns the HARMONY_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvHarmonyEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Location returns the timezone assumed for the user when none is stated.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Load reads the secrets file and base config (if present), applies any
// environment overlay, and finalizes all values. Without a config.toml,
// defaults and environment variables provide all configuration.
func Load() (*Config, error) {
	if err := loadSecrets(); err != nil {
		return nil, err
	}

	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.Timezone != "" {
		c.Timezone = overlay.Timezone
	}
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.API.Merge(&overlay.API)
	c.LLM.Merge(&overlay.LLM)
	c.OCR.Merge(&overlay.OCR)
	c.Models.Merge(&overlay.Models)
	c.Log.Merge(&overlay.Log)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.LLM.Finalize(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if err := c.OCR.Finalize(); err != nil {
		return fmt.Errorf("ocr: %w", err)
	}
	if err := c.Models.Finalize(); err != nil {
		return fmt.Errorf("models: %w", err)
	}
	if err := c.Log.Finalize(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.Timezone == "" {
		c.Timezone = "America/New_York"
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvHarmonyTimezone); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv(EnvHarmonyShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvHarmonyVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// loadSecrets reads KEY=VALUE pairs from the secrets file into the process
// environment without overriding variables that are already set. A missing
// default file is not an error; a missing explicit HARMONY_ENV_FILE is.
func loadSecrets() error {
	path, explicit := os.LookupEnv(EnvHarmonyEnvFile)
	if !explicit || path == "" {
		path = DefaultSecretsFile
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("secrets file %s: %w", path, err)
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load secrets file %s: %w", path, err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvHarmonyEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
