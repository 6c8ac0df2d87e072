// Package infrastructure assembles the core systems shared by the HTTP
// service and the CLI: logging, metrics, the model registry, the OCR
// engines, the LLM client and the system prompt.
package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/JaimeStill/harmony/internal/config"
	"github.com/JaimeStill/harmony/internal/llm"
	"github.com/JaimeStill/harmony/internal/metrics"
	"github.com/JaimeStill/harmony/internal/models"
	"github.com/JaimeStill/harmony/internal/ocr"
	"github.com/JaimeStill/harmony/internal/ocr/neural"
	"github.com/JaimeStill/harmony/internal/ocr/tesseract"
	"github.com/JaimeStill/harmony/internal/pipeline"
	"github.com/JaimeStill/harmony/internal/prompts"
	"github.com/JaimeStill/harmony/pkg/lifecycle"
)

const probeTimeout = 3 * time.Second

// Infrastructure holds the systems every entry point requires.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Registry  *models.Registry
	Tesseract *tesseract.Engine
	Neural    *neural.Engine
	OCR       *ocr.Combiner
	LLM       *llm.Client
	Prompt    prompts.Prompt
	Location  *time.Location
}

// New creates an Infrastructure from the application configuration. Logs
// are written to w. Systems are initialized but not started.
func New(cfg *config.Config, w io.Writer) (*Infrastructure, error) {
	logger := NewLogger(&cfg.Log, w)
	m := metrics.New()

	registry, err := models.Load(cfg.Models.File, cfg.Models.Default)
	if err != nil {
		return nil, fmt.Errorf("model registry init failed: %w", err)
	}

	prompt, err := prompts.Load(cfg.LLM.PromptFile)
	if err != nil {
		return nil, fmt.Errorf("prompt init failed: %w", err)
	}

	classical := tesseract.New(&cfg.OCR.Tesseract)
	neuralEngine := neural.New(&cfg.OCR.Neural)

	return &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		Metrics:   m,
		Registry:  registry,
		Tesseract: classical,
		Neural:    neuralEngine,
		OCR:       ocr.NewCombiner(classical, neuralEngine, logger, m),
		LLM:       llm.New(&cfg.LLM, logger, m),
		Prompt:    prompt,
		Location:  cfg.Location(),
	}, nil
}

// NewLogger builds the slog logger described by cfg.
func NewLogger(cfg *config.LogConfig, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Pipeline returns an intake pipeline wired to the infrastructure systems.
func (i *Infrastructure) Pipeline() *pipeline.Pipeline {
	return pipeline.New(pipeline.Deps{
		OCR:      i.OCR,
		Registry: i.Registry,
		LLM:      i.LLM,
		Prompt:   i.Prompt,
		Location: i.Location,
		Logger:   i.Logger,
		Metrics:  i.Metrics,
	})
}

// Start registers the OCR engine probes with the lifecycle coordinator.
// Unavailable engines are reported but never block startup.
func (i *Infrastructure) Start() error {
	logger := i.Logger.With("system", "ocr")

	i.Lifecycle.Track("ocr.classical", lifecycle.ReadinessFunc(func() bool {
		return i.Tesseract.Version() != ""
	}))
	i.Lifecycle.Track("ocr.neural", lifecycle.ReadinessFunc(func() bool {
		ctx, cancel := context.WithTimeout(i.Lifecycle.Context(), probeTimeout)
		defer cancel()
		return i.Neural.Ping(ctx) == nil
	}))

	i.Lifecycle.OnStartup(func() {
		logger.Info("classical ocr engine", "tesseract", i.Tesseract.Version())
	})

	i.Lifecycle.OnStartup(func() {
		ctx, cancel := context.WithTimeout(i.Lifecycle.Context(), probeTimeout)
		defer cancel()

		if err := i.Neural.Ping(ctx); err != nil {
			logger.Warn("neural ocr engine unavailable", "error", err)
			return
		}
		logger.Info("neural ocr engine reachable")
	})

	return nil
}
