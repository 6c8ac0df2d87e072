// Package prompts owns the system prompt artifact and the user message
// layout sent to the model.
package prompts

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"
)

// Version identifies the embedded system prompt revision. Bump it whenever
// system_prompt.md changes.
const Version = "2026.10.1"

//go:embed system_prompt.md
var systemPrompt string

// Prompt is a system prompt revision. Text is sent verbatim.
type Prompt struct {
	Version string
	Text    string
}

// Default returns the embedded system prompt.
func Default() Prompt {
	return Prompt{Version: Version, Text: systemPrompt}
}

// Load returns the system prompt stored at path, or the embedded prompt when
// path is empty. File prompts are versioned by their path.
func Load(path string) (Prompt, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Prompt{}, fmt.Errorf("read system prompt: %w", err)
	}

	text := string(data)
	if strings.TrimSpace(text) == "" {
		return Prompt{}, fmt.Errorf("system prompt %s is empty", path)
	}

	return Prompt{Version: "file:" + path, Text: text}, nil
}

// Message describes one user message.
type Message struct {
	Source   string
	Text     string
	Now      time.Time
	Location *time.Location
}

// User renders the user message. It always begins with "Source type: <tag>"
// on its own line, followed by the source text and the run context.
func User(m Message) string {
	loc := m.Location
	if loc == nil {
		loc = time.UTC
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Source type: %s\n", m.Source)
	b.WriteString("Source message:\n\"\"\"\n")
	b.WriteString(m.Text)
	b.WriteString("\n\"\"\"\n\n")
	fmt.Fprintf(&b, "Today's date: %s\n", m.Now.In(loc).Format(time.DateOnly))
	fmt.Fprintf(&b, "Assume the user is in the timezone: %s.\n\n", loc.String())
	b.WriteString("Please respond with the JSON object now, following the JSON structure exactly.")
	return b.String()
}
