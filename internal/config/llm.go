package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

const (
	EnvLLMBaseURL     = "HARMONY_LLM_BASE_URL"
	EnvLLMAPIKey      = "HARMONY_LLM_API_KEY"
	EnvLLMTimeout     = "HARMONY_LLM_TIMEOUT"
	EnvLLMJSONMode    = "HARMONY_LLM_JSON_MODE"
	EnvLLMTemperature = "HARMONY_LLM_TEMPERATURE"
	EnvLLMPromptFile  = "HARMONY_LLM_PROMPT_FILE"

	// Gateway variable names accepted as fallbacks for the key and URL.
	EnvGatewayAPIKey = "VERCEL_AI_GATEWAY_API_KEY"
	EnvGatewayURL    = "VERCEL_AI_GATEWAY_URL"
)

// LLMConfig configures the OpenAI-compatible chat completions endpoint.
// BaseURL and APIKey are required.
type LLMConfig struct {
	BaseURL     string   `toml:"base_url"`
	APIKey      string   `toml:"api_key"`
	Timeout     string   `toml:"timeout"`
	JSONMode    *bool    `toml:"json_mode"`
	Temperature *float32 `toml:"temperature"`
	PromptFile  string   `toml:"prompt_file"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *LLMConfig) TimeoutDuration() time.Duration {
	return mustDuration(c.Timeout)
}

// JSONModeEnabled reports whether requests ask for a JSON object reply.
func (c *LLMConfig) JSONModeEnabled() bool {
	return c.JSONMode == nil || *c.JSONMode
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *LLMConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *LLMConfig) Merge(overlay *LLMConfig) {
	mergeString(&c.BaseURL, overlay.BaseURL)
	mergeString(&c.APIKey, overlay.APIKey)
	mergeString(&c.Timeout, overlay.Timeout)
	mergeString(&c.PromptFile, overlay.PromptFile)
	if overlay.JSONMode != nil {
		c.JSONMode = overlay.JSONMode
	}
	if overlay.Temperature != nil {
		c.Temperature = overlay.Temperature
	}
}

func (c *LLMConfig) loadDefaults() {
	defaultString(&c.Timeout, "5m")
}

func (c *LLMConfig) loadEnv() {
	envString(&c.BaseURL, EnvLLMBaseURL, EnvGatewayURL)
	envString(&c.APIKey, EnvLLMAPIKey, EnvGatewayAPIKey)
	envString(&c.Timeout, EnvLLMTimeout)
	envString(&c.PromptFile, EnvLLMPromptFile)

	if v := os.Getenv(EnvLLMJSONMode); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.JSONMode = &enabled
		}
	}
	if v := os.Getenv(EnvLLMTemperature); v != "" {
		if t, err := strconv.ParseFloat(v, 32); err == nil {
			temp := float32(t)
			c.Temperature = &temp
		}
	}
}

func (c *LLMConfig) validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("api_key required (set %s)", EnvLLMAPIKey)
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base_url required (set %s)", EnvLLMBaseURL)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid base_url: %q", c.BaseURL)
	}
	if err := positiveDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return fmt.Errorf("temperature must be within [0, 2]: %v", *c.Temperature)
	}
	return nil
}
