// Package ocr defines the OCR engine contract and the combiner that runs one
// or both engines for an image.
package ocr

import (
	"context"
	"fmt"
	"strings"
)

// Engine identifies an OCR engine family.
type Engine string

const (
	Classical Engine = "classical"
	Neural    Engine = "neural"
)

// Extractor turns image bytes into text. Implementations must not mutate
// or retain the image, and return "" without error when the image holds no
// detectable text.
type Extractor interface {
	Engine() Engine
	Extract(ctx context.Context, image []byte) (string, error)
}

// Mode selects which engines run for an image.
type Mode string

const (
	ModeTesseract Mode = "ocr-tesseract"
	ModeEasyOCR   Mode = "ocr-easyocr"
	ModeFusion    Mode = "ocr-fusion"
)

// Modes lists every accepted Mode.
var Modes = []Mode{ModeTesseract, ModeEasyOCR, ModeFusion}

// ParseMode validates s as a Mode.
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes {
		if string(m) == s {
			return m, nil
		}
	}
	names := make([]string, len(Modes))
	for i, m := range Modes {
		names[i] = string(m)
	}
	return "", fmt.Errorf("unsupported ocr mode %q: choose one of %s", s, strings.Join(names, ", "))
}

// Transcript is the text one engine produced for an image.
type Transcript struct {
	Engine Engine `json:"engine"`
	Text   string `json:"text"`
}

// Result is the outcome of a Combiner run. Engine is set when the text came
// from a single engine, either by request or because fusion degraded.
type Result struct {
	Mode        Mode         `json:"mode"`
	Fused       bool         `json:"fused"`
	Engine      Engine       `json:"engine,omitempty"`
	Text        string       `json:"text"`
	Transcripts []Transcript `json:"transcripts"`
	Warnings    []string     `json:"warnings,omitempty"`
}
