// Package tesseract implements the classical OCR engine on top of the
// Tesseract library through gosseract.
package tesseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/JaimeStill/harmony/internal/config"
	"github.com/JaimeStill/harmony/internal/ocr"
)

// Engine extracts text with Tesseract. A new client is created per call so
// concurrent extractions never share Tesseract state.
type Engine struct {
	languages     []string
	tessdata      string
	pageSegMode   gosseract.PageSegMode
	clientFactory func() *gosseract.Client
}

// New returns an Engine configured from cfg.
func New(cfg *config.TesseractConfig) *Engine {
	return &Engine{
		languages:     cfg.Languages,
		tessdata:      cfg.TessdataPrefix,
		pageSegMode:   gosseract.PageSegMode(cfg.PageSegMode),
		clientFactory: gosseract.NewClient,
	}
}

func (e *Engine) Engine() ocr.Engine { return ocr.Classical }

// Version reports the linked Tesseract version.
func (e *Engine) Version() string {
	return gosseract.Version()
}

// Extract runs Tesseract over image. The cgo call cannot be interrupted, so
// on cancellation Extract returns immediately and the client is released
// once recognition finishes.
func (e *Engine) Extract(ctx context.Context, image []byte) (string, error) {
	if _, err := ocr.ValidateImage(image); err != nil {
		return "", ocr.DecodeFailure(ocr.Classical, err)
	}

	type reply struct {
		text string
		err  error
	}

	done := make(chan reply, 1)
	go func() {
		text, err := e.recognize(image)
		done <- reply{text, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", r.err
		}
		return ocr.Clean(r.text), nil
	}
}

func (e *Engine) recognize(image []byte) (string, error) {
	client := e.clientFactory()
	defer client.Close()

	if e.tessdata != "" {
		if err := client.SetTessdataPrefix(e.tessdata); err != nil {
			return "", ocr.Unavailable(ocr.Classical, fmt.Errorf("set tessdata prefix: %w", err))
		}
	}

	if len(e.languages) > 0 {
		if err := client.SetLanguage(e.languages...); err != nil {
			return "", ocr.Unavailable(ocr.Classical, fmt.Errorf("set languages: %w", err))
		}
	}

	if e.pageSegMode > 0 {
		if err := client.SetPageSegMode(e.pageSegMode); err != nil {
			return "", ocr.Unavailable(ocr.Classical, fmt.Errorf("set page segmentation mode %d: %w", e.pageSegMode, err))
		}
	}

	if err := client.SetImageFromBytes(image); err != nil {
		return "", ocr.DecodeFailure(ocr.Classical, fmt.Errorf("set image: %w", err))
	}

	text, err := client.Text()
	if err != nil {
		return "", ocr.Unavailable(ocr.Classical, fmt.Errorf("recognize text: %w", err))
	}

	return text, nil
}
