package tesseract_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os/exec"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/JaimeStill/harmony/internal/config"
	"github.com/JaimeStill/harmony/internal/ocr"
	"github.com/JaimeStill/harmony/internal/ocr/tesseract"
)

func ensureTesseract(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

func newEngine() *tesseract.Engine {
	return tesseract.New(&config.TesseractConfig{
		Languages:   []string{"eng"},
		PageSegMode: 6,
	})
}

func render(t *testing.T, text string) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 240, 60))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	if text != "" {
		d := &font.Drawer{
			Dst:  img,
			Src:  image.Black,
			Face: basicfont.Face7x13,
			Dot:  fixed.P(10, 35),
		}
		d.DrawString(text)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestEngine(t *testing.T) {
	if got := newEngine().Engine(); got != ocr.Classical {
		t.Errorf("engine: got %s", got)
	}
}

func TestExtractDecodeFailure(t *testing.T) {
	_, err := newEngine().Extract(context.Background(), []byte("not an image"))
	if !errors.Is(err, ocr.ErrDecodeFailure) {
		t.Errorf("expected ErrDecodeFailure, got %v", err)
	}
}

func TestExtract(t *testing.T) {
	ensureTesseract(t)

	text, err := newEngine().Extract(context.Background(), render(t, "HELLO HARMONY"))
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	if !strings.Contains(strings.ToUpper(text), "HARMONY") {
		t.Logf("low quality recognition: %q", text)
	}
}

func TestExtractBlankImage(t *testing.T) {
	ensureTesseract(t)

	text, err := newEngine().Extract(context.Background(), render(t, ""))
	if err != nil {
		t.Fatalf("blank image should not fail: %v", err)
	}
	if text != "" {
		t.Errorf("expected empty text, got %q", text)
	}
}

func TestExtractCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newEngine().Extract(ctx, render(t, "HELLO"))
	if err == nil {
		t.Skip("recognition finished before cancellation was observed")
	}
	if !errors.Is(err, context.Canceled) && !errors.Is(err, ocr.ErrEngineUnavailable) {
		t.Errorf("unexpected error: %v", err)
	}
}
