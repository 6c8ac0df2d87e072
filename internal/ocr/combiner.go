package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/harmony/internal/metrics"
)

const emptyTranscript = "(no text found)"

var headers = map[Engine]string{
	Classical: "[Tesseract OCR Transcript]",
	Neural:    "[EasyOCR OCR Transcript]",
}

// Combiner runs the OCR engines selected by a Mode.
type Combiner struct {
	classical Extractor
	neural    Extractor
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewCombiner returns a Combiner over the classical and neural extractors.
// metrics may be nil.
func NewCombiner(classical, neural Extractor, logger *slog.Logger, m *metrics.Metrics) *Combiner {
	return &Combiner{
		classical: classical,
		neural:    neural,
		logger:    logger.With("module", "ocr"),
		metrics:   m,
	}
}

// Run extracts text from image according to mode. Single engine modes
// return that engine's failure unchanged. Fusion degrades to the surviving
// engine when exactly one fails.
func (c *Combiner) Run(ctx context.Context, mode Mode, image []byte) (*Result, error) {
	switch mode {
	case ModeTesseract:
		return c.single(ctx, mode, c.classical, image)
	case ModeEasyOCR:
		return c.single(ctx, mode, c.neural, image)
	case ModeFusion:
		return c.fuse(ctx, image)
	default:
		_, err := ParseMode(string(mode))
		return nil, err
	}
}

func (c *Combiner) single(ctx context.Context, mode Mode, x Extractor, image []byte) (*Result, error) {
	t, err := c.extract(ctx, x, image)
	if err != nil {
		return nil, err
	}

	return &Result{
		Mode:        mode,
		Engine:      t.Engine,
		Text:        t.Text,
		Transcripts: []Transcript{t},
	}, nil
}

type outcome struct {
	transcript Transcript
	err        error
}

func (c *Combiner) fuse(ctx context.Context, image []byte) (*Result, error) {
	extractors := []Extractor{c.classical, c.neural}
	outcomes := make([]outcome, len(extractors))

	var g errgroup.Group
	for i, x := range extractors {
		g.Go(func() error {
			t, err := c.extract(ctx, x, image)
			outcomes[i] = outcome{transcript: t, err: err}
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		survivors []Transcript
		causes    []error
	)
	for _, o := range outcomes {
		if o.err != nil {
			causes = append(causes, o.err)
			continue
		}
		survivors = append(survivors, o.transcript)
	}

	switch len(survivors) {
	case 0:
		return nil, &Error{Kind: ErrAllEnginesFailed, Causes: causes}
	case 1:
		t := survivors[0]
		warning := fmt.Sprintf("fusion degraded to %s engine: %v", t.Engine, causes[0])
		c.logger.Warn("ocr fusion degraded",
			"engine", t.Engine,
			"error", causes[0],
		)
		return &Result{
			Mode:        ModeFusion,
			Engine:      t.Engine,
			Text:        t.Text,
			Transcripts: survivors,
			Warnings:    []string{warning},
		}, nil
	default:
		return &Result{
			Mode:        ModeFusion,
			Fused:       true,
			Text:        Bundle(survivors...),
			Transcripts: survivors,
		}, nil
	}
}

func (c *Combiner) extract(ctx context.Context, x Extractor, image []byte) (Transcript, error) {
	start := time.Now()
	engine := x.Engine()

	text, err := x.Extract(ctx, image)
	c.metrics.EngineRun(string(engine), err)

	if err != nil {
		if !errors.Is(err, context.Canceled) {
			c.logger.Debug("ocr engine failed", "engine", engine, "error", err)
		}
		return Transcript{Engine: engine}, err
	}

	text = Clean(text)
	c.logger.Debug("ocr engine finished",
		"engine", engine,
		"chars", len(text),
		"duration", time.Since(start),
	)

	return Transcript{Engine: engine, Text: text}, nil
}

// Bundle joins transcripts under engine headers in the order given.
func Bundle(transcripts ...Transcript) string {
	sections := make([]string, len(transcripts))
	for i, t := range transcripts {
		header, ok := headers[t.Engine]
		if !ok {
			header = fmt.Sprintf("[%s OCR Transcript]", t.Engine)
		}

		body := t.Text
		if strings.TrimSpace(body) == "" {
			body = emptyTranscript
		}

		sections[i] = header + "\n" + strings.Repeat("-", len(header)) + "\n" + body
	}
	return strings.Join(sections, "\n\n")
}
