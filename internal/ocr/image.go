package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ValidateImage checks that data is an image in a supported format and
// returns the format name. Only the header is decoded.
func ValidateImage(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("image is empty")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image header: %w", err)
	}

	if cfg.Width == 0 || cfg.Height == 0 {
		return "", fmt.Errorf("%s image has no pixels", format)
	}

	return format, nil
}

// Clean trims every line of text and drops blank lines.
func Clean(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
