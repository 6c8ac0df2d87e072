package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JaimeStill/harmony/internal/config"
	"github.com/JaimeStill/harmony/internal/events"
	"github.com/JaimeStill/harmony/internal/llm"
	"github.com/JaimeStill/harmony/internal/metrics"
	"github.com/JaimeStill/harmony/internal/models"
	"github.com/JaimeStill/harmony/internal/ocr"
	"github.com/JaimeStill/harmony/internal/ocr/neural"
	"github.com/JaimeStill/harmony/internal/pipeline"
	"github.com/JaimeStill/harmony/internal/prompts"
)

const gardenCarver = `{
  "event_title": "Dinner at Garden Carver",
  "event_window": {
    "start": {
      "date_iso": "2026-10-20",
      "time_iso": "19:00",
      "time_text": "7",
      "datetime_text": "at 7 next Tuesday",
      "timezone": "America/New_York",
      "certainty": "high"
    },
    "end": null
  },
  "location": "Garden Carver",
  "participants": ["Tim"],
  "source_text": "Tim: Wanna do dinner at 7 next Tuesday at Garden Carver?",
  "notes": null,
  "confidence": 0.85,
  "follow_up_actions": [{"action": "Reply to Tim", "reason": "Confirm attendance"}],
  "context": {"today": "2026-10-18", "assumed_timezone": "America/New_York"}
}`

const noEvent = `{
  "event_title": null,
  "event_window": {
    "start": {
      "date_iso": null,
      "time_iso": null,
      "time_text": null,
      "datetime_text": null,
      "timezone": null,
      "certainty": "low"
    },
    "end": null
  },
  "location": null,
  "participants": [],
  "source_text": "",
  "notes": null,
  "confidence": 0.05,
  "follow_up_actions": [{"action": "Share a clearer screenshot", "reason": "No text was found in the image"}],
  "context": {"today": "2026-10-18", "assumed_timezone": "America/New_York"}
}`

type call struct {
	system string
	user   string
	model  string
}

type fakeCompleter struct {
	mu    sync.Mutex
	reply string
	err   error
	delay time.Duration
	calls []call
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user, model string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{system, user, model})
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func (f *fakeCompleter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeExtractor struct {
	engine ocr.Engine
	text   string
	err    error
}

func (f *fakeExtractor) Engine() ocr.Engine { return f.engine }

func (f *fakeExtractor) Extract(ctx context.Context, image []byte) (string, error) {
	return f.text, f.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPipeline(t *testing.T, completer *fakeCompleter, classical, neural *fakeExtractor) *pipeline.Pipeline {
	t.Helper()

	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}

	if classical == nil {
		classical = &fakeExtractor{engine: ocr.Classical}
	}
	if neural == nil {
		neural = &fakeExtractor{engine: ocr.Neural}
	}

	m := metrics.New()
	return pipeline.New(pipeline.Deps{
		OCR:      ocr.NewCombiner(classical, neural, discard(), m),
		Registry: models.Default(),
		LLM:      completer,
		Prompt:   prompts.Default(),
		Location: loc,
		Logger:   discard(),
		Metrics:  m,
		Now:      func() time.Time { return time.Date(2026, 10, 18, 16, 0, 0, 0, time.UTC) },
	})
}

func TestGardenCarver(t *testing.T) {
	completer := &fakeCompleter{reply: gardenCarver}
	p := newPipeline(t, completer, nil, nil)

	result, err := p.ParseText(
		context.Background(),
		"Tim: Wanna do dinner at 7 next Tuesday at Garden Carver?",
		models.Selector{},
	)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	ev := result.Event
	if ev.EventWindow.Start.Certainty != events.CertaintyHigh {
		t.Errorf("certainty: got %s", ev.EventWindow.Start.Certainty)
	}
	if ev.Location == nil || *ev.Location != "Garden Carver" {
		t.Errorf("location: got %v", ev.Location)
	}
	if len(ev.Participants) != 1 || ev.Participants[0] != "Tim" {
		t.Errorf("participants: got %v", ev.Participants)
	}

	if result.Source != pipeline.SourceText {
		t.Errorf("source: got %s", result.Source)
	}
	if result.Model != "openai/gpt-5-mini" {
		t.Errorf("model: got %s", result.Model)
	}

	c := completer.calls[0]
	if c.system != prompts.Default().Text {
		t.Error("system prompt should be sent verbatim")
	}
	if !strings.HasPrefix(c.user, "Source type: text\n") {
		t.Errorf("user message should start with the source tag: %q", c.user)
	}
	if !strings.Contains(c.user, "Garden Carver?") {
		t.Errorf("user message should carry the text: %q", c.user)
	}
	if !strings.Contains(c.user, "Today's date: 2026-10-18") {
		t.Errorf("user message should carry today's date: %q", c.user)
	}
}

func TestBlankImage(t *testing.T) {
	completer := &fakeCompleter{reply: noEvent}
	p := newPipeline(t, completer, nil, nil)

	result, err := p.ParseImage(context.Background(), []byte("png"), ocr.ModeFusion, models.Selector{})
	if err != nil {
		t.Fatalf("blank image should not fail: %v", err)
	}

	if result.Event.EventTitle != nil {
		t.Errorf("title should be null: %v", *result.Event.EventTitle)
	}
	if len(result.Event.FollowUpActions) == 0 {
		t.Error("follow_up_actions should not be empty")
	}
	if result.Source != pipeline.SourceFusion {
		t.Errorf("source: got %s", result.Source)
	}

	user := completer.calls[0].user
	if !strings.HasPrefix(user, "Source type: ocr-fusion\n") {
		t.Errorf("user message should be tagged ocr-fusion: %q", user)
	}
	if !strings.Contains(user, "(no text found)") {
		t.Errorf("user message should carry placeholders: %q", user)
	}
}

func TestImageSources(t *testing.T) {
	tests := []struct {
		name      string
		mode      ocr.Mode
		classical *fakeExtractor
		neural    *fakeExtractor
		source    pipeline.Source
		warnings  int
	}{
		{
			name:   "tesseract",
			mode:   ocr.ModeTesseract,
			source: pipeline.SourceClassical,
		},
		{
			name:   "easyocr",
			mode:   ocr.ModeEasyOCR,
			source: pipeline.SourceNeural,
		},
		{
			name:   "default mode is fusion",
			mode:   "",
			source: pipeline.SourceFusion,
		},
		{
			name:     "fusion degraded to classical",
			mode:     ocr.ModeFusion,
			neural:   &fakeExtractor{engine: ocr.Neural, err: ocr.Unavailable(ocr.Neural, errors.New("down"))},
			source:   pipeline.SourceClassical,
			warnings: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classical := tt.classical
			if classical == nil {
				classical = &fakeExtractor{engine: ocr.Classical, text: "T"}
			}
			neural := tt.neural
			if neural == nil {
				neural = &fakeExtractor{engine: ocr.Neural, text: "N"}
			}

			completer := &fakeCompleter{reply: noEvent}
			result, err := newPipeline(t, completer, classical, neural).
				ParseImage(context.Background(), []byte("png"), tt.mode, models.Selector{})
			if err != nil {
				t.Fatalf("run failed: %v", err)
			}

			if result.Source != tt.source {
				t.Errorf("source: got %s, want %s", result.Source, tt.source)
			}
			if len(result.Warnings) != tt.warnings {
				t.Errorf("warnings: got %v", result.Warnings)
			}

			prefix := "Source type: " + string(tt.source) + "\n"
			if !strings.HasPrefix(completer.calls[0].user, prefix) {
				t.Errorf("user message should start with %q", prefix)
			}
		})
	}
}

func TestRunFailures(t *testing.T) {
	tests := []struct {
		name      string
		input     pipeline.Input
		sel       models.Selector
		completer *fakeCompleter
		classical *fakeExtractor
		neural    *fakeExtractor
		target    error
		llmCalls  int
	}{
		{
			name:      "empty text",
			input:     pipeline.TextInput{Text: "  \n"},
			completer: &fakeCompleter{reply: gardenCarver},
			target:    pipeline.ErrEmptyInput,
		},
		{
			name:      "empty image",
			input:     pipeline.ImageInput{Mode: ocr.ModeFusion},
			completer: &fakeCompleter{reply: gardenCarver},
			target:    pipeline.ErrEmptyInput,
		},
		{
			name:      "all engines failed",
			input:     pipeline.ImageInput{Data: []byte("x"), Mode: ocr.ModeFusion},
			completer: &fakeCompleter{reply: gardenCarver},
			classical: &fakeExtractor{engine: ocr.Classical, err: ocr.Unavailable(ocr.Classical, errors.New("a"))},
			neural:    &fakeExtractor{engine: ocr.Neural, err: ocr.Unavailable(ocr.Neural, errors.New("b"))},
			target:    ocr.ErrAllEnginesFailed,
		},
		{
			name:      "conflicting selectors",
			input:     pipeline.TextInput{Text: "hi"},
			sel:       models.Selector{Alias: "gemini", ModelString: "openai/gpt-5-mini"},
			completer: &fakeCompleter{reply: gardenCarver},
			target:    models.ErrConflictingSelectors,
		},
		{
			name:      "unknown alias",
			input:     pipeline.TextInput{Text: "hi"},
			sel:       models.Selector{Alias: "not-a-model"},
			completer: &fakeCompleter{reply: gardenCarver},
			target:    models.ErrUnknownAlias,
		},
		{
			name:      "provider error",
			input:     pipeline.TextInput{Text: "hi"},
			completer: &fakeCompleter{err: &llm.ProviderError{Kind: llm.ErrRateLimited, Status: 429}},
			target:    llm.ErrRateLimited,
			llmCalls:  1,
		},
		{
			name:      "not json",
			input:     pipeline.TextInput{Text: "hi"},
			completer: &fakeCompleter{reply: "Sure! Here's your event."},
			target:    events.ErrNotJSON,
			llmCalls:  1,
		},
		{
			name:      "schema violation",
			input:     pipeline.TextInput{Text: "hi"},
			completer: &fakeCompleter{reply: strings.Replace(gardenCarver, `"follow_up_actions"`, `"followups"`, 1)},
			target:    events.ErrSchemaViolation,
			llmCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPipeline(t, tt.completer, tt.classical, tt.neural)

			result, err := p.Run(context.Background(), tt.input, tt.sel)
			if !errors.Is(err, tt.target) {
				t.Fatalf("expected %v, got %v", tt.target, err)
			}
			if result != nil {
				t.Error("failed run should not return a result")
			}
			if got := tt.completer.count(); got != tt.llmCalls {
				t.Errorf("llm calls: got %d, want %d", got, tt.llmCalls)
			}
		})
	}
}

func TestSchemaErrorKeepsRawOutput(t *testing.T) {
	raw := `{"event_title": "x"}`
	p := newPipeline(t, &fakeCompleter{reply: raw}, nil, nil)

	_, err := p.ParseText(context.Background(), "hi", models.Selector{})

	var se *events.SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if se.Raw != raw {
		t.Errorf("raw output: got %q", se.Raw)
	}
}

func TestExplicitModelString(t *testing.T) {
	completer := &fakeCompleter{reply: gardenCarver}
	p := newPipeline(t, completer, nil, nil)

	result, err := p.ParseText(context.Background(), "hi", models.Selector{ModelString: "anthropic/claude-haiku-4.5"})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.Model != "anthropic/claude-haiku-4.5" || completer.calls[0].model != result.Model {
		t.Errorf("model string should pass through verbatim: %s", result.Model)
	}
}

func TestCancellation(t *testing.T) {
	completer := &fakeCompleter{reply: gardenCarver, delay: 5 * time.Second}
	p := newPipeline(t, completer, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	result, err := p.ParseText(ctx, "hi", models.Selector{})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result != nil {
		t.Error("cancelled run should not return a result")
	}
	if time.Since(start) > time.Second {
		t.Error("cancellation was not prompt")
	}
}

func TestFusionWithoutSidecarRejectsNonImage(t *testing.T) {
	m := metrics.New()
	classical := &fakeExtractor{engine: ocr.Classical, err: ocr.DecodeFailure(ocr.Classical, errors.New("unknown format"))}
	p := pipeline.New(pipeline.Deps{
		OCR:      ocr.NewCombiner(classical, neural.New(&config.NeuralConfig{}), discard(), m),
		Registry: models.Default(),
		LLM:      &fakeCompleter{reply: gardenCarver},
		Prompt:   prompts.Default(),
		Location: time.UTC,
		Logger:   discard(),
		Metrics:  m,
	})

	_, err := p.ParseImage(context.Background(), []byte("not an image"), ocr.ModeFusion, models.Selector{})
	if !errors.Is(err, ocr.ErrAllEnginesFailed) {
		t.Fatalf("expected ErrAllEnginesFailed, got %v", err)
	}
	if got := pipeline.MapHTTPStatus(err); got != http.StatusUnsupportedMediaType {
		t.Errorf("status: got %d, want %d", got, http.StatusUnsupportedMediaType)
	}
}
