package api

import (
	"github.com/JaimeStill/harmony/internal/config"
	"github.com/JaimeStill/harmony/internal/infrastructure"
	"github.com/JaimeStill/harmony/internal/ocr"
)

// Runtime extends Infrastructure with HTTP-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	MaxUploadSize int64
	DefaultMode   ocr.Mode
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &scoped,
		MaxUploadSize:  cfg.API.MaxUploadSizeBytes(),
		DefaultMode:    ocr.Mode(cfg.OCR.DefaultMode),
	}
}
