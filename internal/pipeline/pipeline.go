// Package pipeline orchestrates one intake run: OCR for images, model
// resolution, the chat completion call and strict decoding of the reply
// into an event suggestion.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/harmony/internal/events"
	"github.com/JaimeStill/harmony/internal/metrics"
	"github.com/JaimeStill/harmony/internal/models"
	"github.com/JaimeStill/harmony/internal/ocr"
	"github.com/JaimeStill/harmony/internal/prompts"
)

// ErrEmptyInput is returned before any stage runs when the text is blank or
// the image has no bytes.
var ErrEmptyInput = errors.New("input is empty")

// Source tags the origin of the text sent to the model.
type Source string

const (
	SourceText      Source = "text"
	SourceClassical Source = "ocr-classical"
	SourceNeural    Source = "ocr-neural"
	SourceFusion    Source = "ocr-fusion"
)

// Input is either a TextInput or an ImageInput.
type Input interface {
	input()
}

// TextInput is text the user typed or pasted.
type TextInput struct {
	Text string
}

// ImageInput is an encoded screenshot or photo and the OCR mode to read it
// with. An empty Mode selects fusion.
type ImageInput struct {
	Data []byte
	Mode ocr.Mode
}

func (TextInput) input()  {}
func (ImageInput) input() {}

// Recognizer turns an image into text according to an OCR mode.
type Recognizer interface {
	Run(ctx context.Context, mode ocr.Mode, image []byte) (*ocr.Result, error)
}

// Completer sends one system and user message pair to a model.
type Completer interface {
	Complete(ctx context.Context, system, user, model string) (string, error)
}

// Result is a completed run.
type Result struct {
	RunID    uuid.UUID          `json:"run_id"`
	Event    *events.Suggestion `json:"event"`
	OCRText  string             `json:"ocr_text,omitempty"`
	Source   Source             `json:"source"`
	Model    string             `json:"model"`
	Warnings []string           `json:"warnings,omitempty"`
}

// Deps are the collaborators of a Pipeline. Metrics may be nil and Now
// defaults to time.Now.
type Deps struct {
	OCR      Recognizer
	Registry *models.Registry
	LLM      Completer
	Prompt   prompts.Prompt
	Location *time.Location
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

// Pipeline runs intake requests. It holds no per-run state and is safe for
// concurrent use.
type Pipeline struct {
	ocr      Recognizer
	registry *models.Registry
	llm      Completer
	prompt   prompts.Prompt
	location *time.Location
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func New(d Deps) *Pipeline {
	p := &Pipeline{
		ocr:      d.OCR,
		registry: d.Registry,
		llm:      d.LLM,
		prompt:   d.Prompt,
		location: d.Location,
		logger:   d.Logger.With("module", "pipeline"),
		metrics:  d.Metrics,
		now:      d.Now,
	}
	if p.location == nil {
		p.location = time.UTC
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// ParseText runs the pipeline over typed text.
func (p *Pipeline) ParseText(ctx context.Context, text string, sel models.Selector) (*Result, error) {
	return p.Run(ctx, TextInput{Text: text}, sel)
}

// ParseImage runs the pipeline over an image read with mode.
func (p *Pipeline) ParseImage(ctx context.Context, image []byte, mode ocr.Mode, sel models.Selector) (*Result, error) {
	return p.Run(ctx, ImageInput{Data: image, Mode: mode}, sel)
}

// Run executes every stage in order and stops at the first failure. No
// stage is retried and no partial suggestion is returned.
func (p *Pipeline) Run(ctx context.Context, in Input, sel models.Selector) (*Result, error) {
	start := p.now()
	result := &Result{RunID: uuid.New()}
	logger := p.logger.With("run_id", result.RunID)

	text, err := p.received(ctx, in, result)
	if err != nil {
		p.finish(logger, result, start, err)
		return nil, err
	}

	err = p.extract(ctx, logger, text, sel, result)
	p.finish(logger, result, start, err)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (p *Pipeline) received(ctx context.Context, in Input, result *Result) (string, error) {
	switch in := in.(type) {
	case TextInput:
		result.Source = SourceText
		if strings.TrimSpace(in.Text) == "" {
			return "", ErrEmptyInput
		}
		return in.Text, nil

	case ImageInput:
		mode := in.Mode
		if mode == "" {
			mode = ocr.ModeFusion
		}
		result.Source = modeSource(mode)
		if len(in.Data) == 0 {
			return "", ErrEmptyInput
		}

		began := time.Now()
		out, err := p.ocr.Run(ctx, mode, in.Data)
		p.metrics.Stage("ocr", began)
		if err != nil {
			return "", err
		}

		result.Source = ocrSource(out)
		result.OCRText = out.Text
		result.Warnings = out.Warnings
		return out.Text, nil

	default:
		return "", ErrEmptyInput
	}
}

func (p *Pipeline) extract(ctx context.Context, logger *slog.Logger, text string, sel models.Selector, result *Result) error {
	model, err := p.registry.Resolve(sel)
	if err != nil {
		return err
	}
	result.Model = model

	user := prompts.User(prompts.Message{
		Source:   string(result.Source),
		Text:     text,
		Now:      p.now(),
		Location: p.location,
	})

	logger.Debug("prompt ready",
		"source", result.Source,
		"model", model,
		"prompt_version", p.prompt.Version,
	)

	began := time.Now()
	raw, err := p.llm.Complete(ctx, p.prompt.Text, user, model)
	p.metrics.Stage("llm", began)
	if err != nil {
		return err
	}

	began = time.Now()
	event, err := events.Decode(raw)
	p.metrics.Stage("validate", began)
	if err != nil {
		return err
	}

	result.Event = event
	return nil
}

func (p *Pipeline) finish(logger *slog.Logger, result *Result, start time.Time, err error) {
	p.metrics.PipelineRun(string(result.Source), err)

	if err != nil {
		logger.Info("pipeline failed",
			"source", result.Source,
			"model", result.Model,
			"error", err,
		)
		return
	}

	logger.Info("pipeline finished",
		"source", result.Source,
		"model", result.Model,
		"has_event", result.Event.HasEvent(),
		"warnings", len(result.Warnings),
		"duration", p.now().Sub(start),
	)
}

func modeSource(mode ocr.Mode) Source {
	switch mode {
	case ocr.ModeTesseract:
		return SourceClassical
	case ocr.ModeEasyOCR:
		return SourceNeural
	default:
		return SourceFusion
	}
}

func ocrSource(r *ocr.Result) Source {
	if r.Fused {
		return SourceFusion
	}
	switch r.Engine {
	case ocr.Classical:
		return SourceClassical
	case ocr.Neural:
		return SourceNeural
	default:
		return modeSource(r.Mode)
	}
}
