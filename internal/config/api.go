package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/JaimeStill/harmony/pkg/formatting"
	"github.com/JaimeStill/harmony/pkg/middleware"
	"github.com/JaimeStill/harmony/pkg/openapi"
)

const (
	EnvAPIBasePath      = "HARMONY_API_BASE_PATH"
	EnvAPIMaxUploadSize = "HARMONY_API_MAX_UPLOAD_SIZE"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "HARMONY_CORS_ENABLED",
	Origins:          "HARMONY_CORS_ORIGINS",
	AllowedMethods:   "HARMONY_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "HARMONY_CORS_ALLOWED_HEADERS",
	AllowCredentials: "HARMONY_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "HARMONY_CORS_MAX_AGE",
}

var openapiEnv = &openapi.ConfigEnv{
	Title:       "HARMONY_OPENAPI_TITLE",
	Description: "HARMONY_OPENAPI_DESCRIPTION",
}

// APIConfig holds routing, upload limits, CORS and OpenAPI metadata for the
// HTTP surface. The parse endpoints always live under /parse; BasePath
// prefixes the auxiliary endpoints.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	OpenAPI       openapi.Config        `toml:"openapi"`
}

// MaxUploadSizeBytes returns MaxUploadSize in bytes.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return 20 * 1024 * 1024
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and OpenAPI configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.OpenAPI.Finalize(openapiEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "20MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv(EnvAPIBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvAPIMaxUploadSize); v != "" {
		c.MaxUploadSize = v
	}
}

func (c *APIConfig) validate() error {
	if !strings.HasPrefix(c.BasePath, "/") || strings.Count(c.BasePath, "/") != 1 {
		return fmt.Errorf("base_path must be a single-level path such as /api: %q", c.BasePath)
	}
	if c.BasePath == "/parse" {
		return fmt.Errorf("base_path /parse is reserved for the parse endpoints")
	}
	if _, err := formatting.ParseBytes(c.MaxUploadSize); err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	return nil
}
