package prompts_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/harmony/internal/prompts"
)

func TestDefault(t *testing.T) {
	p := prompts.Default()

	if p.Version != prompts.Version {
		t.Errorf("version: got %s, want %s", p.Version, prompts.Version)
	}
	for _, field := range []string{"event_title", "date_iso", "time_iso", "certainty", "follow_up_actions", "assumed_timezone"} {
		if !strings.Contains(p.Text, field) {
			t.Errorf("system prompt should describe %s", field)
		}
	}
	for _, tag := range []string{"ocr-classical", "ocr-neural", "ocr-fusion"} {
		if !strings.Contains(p.Text, tag) {
			t.Errorf("system prompt should explain source type %s", tag)
		}
	}
}

func TestLoad(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		p, err := prompts.Load("")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if p.Version != prompts.Version {
			t.Errorf("version: got %s", p.Version)
		}
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prompt.md")
		os.WriteFile(path, []byte("Return JSON."), 0644)

		p, err := prompts.Load(path)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if p.Text != "Return JSON." {
			t.Errorf("text should be verbatim: got %q", p.Text)
		}
		if !strings.HasPrefix(p.Version, "file:") {
			t.Errorf("version: got %s", p.Version)
		}
	})

	t.Run("blank file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prompt.md")
		os.WriteFile(path, []byte("  \n"), 0644)

		if _, err := prompts.Load(path); err == nil {
			t.Error("expected error for blank prompt")
		}
	})
}

func TestUser(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}

	msg := prompts.User(prompts.Message{
		Source:   "ocr-fusion",
		Text:     "dinner at 7 next Tuesday",
		Now:      time.Date(2026, 10, 19, 2, 30, 0, 0, time.UTC),
		Location: loc,
	})

	if !strings.HasPrefix(msg, "Source type: ocr-fusion\n") {
		t.Errorf("message must start with the source tag line: %q", msg)
	}
	if !strings.Contains(msg, "\"\"\"\ndinner at 7 next Tuesday\n\"\"\"") {
		t.Errorf("message should quote the source text: %q", msg)
	}
	if !strings.Contains(msg, "Today's date: 2026-10-18") {
		t.Errorf("today should be computed in the user's timezone: %q", msg)
	}
	if !strings.Contains(msg, "timezone: America/New_York.") {
		t.Errorf("message should state the timezone: %q", msg)
	}
}
