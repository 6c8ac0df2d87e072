// Package neural implements the neural OCR engine as a client of an
// EasyOCR-compatible HTTP sidecar.
package neural

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/JaimeStill/harmony/internal/config"
	"github.com/JaimeStill/harmony/internal/ocr"
)

// ErrNotConfigured is returned when no sidecar base URL is set.
var ErrNotConfigured = errors.New("neural ocr base url not configured")

const maxErrorBody = 4 << 10

type readRequest struct {
	ImageBase64 string   `json:"image_base64"`
	Languages   []string `json:"languages,omitempty"`
	Detail      int      `json:"detail"`
}

type readResponse struct {
	Lines []string `json:"lines"`
}

// Engine calls POST {base}/readtext on the sidecar.
type Engine struct {
	baseURL    string
	healthPath string
	languages  []string
	client     *http.Client
}

// New returns an Engine configured from cfg. An empty base URL yields an
// engine that always reports itself unavailable.
func New(cfg *config.NeuralConfig) *Engine {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 60 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	return &Engine{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		healthPath: cfg.HealthPath,
		languages:  cfg.Languages,
		client: &http.Client{
			Timeout:   cfg.TimeoutDuration(),
			Transport: tr,
		},
	}
}

func (e *Engine) Engine() ocr.Engine { return ocr.Neural }

// Extract posts image to the sidecar's readtext endpoint. Bytes that are not
// a supported image fail with a decode error before any request is made.
func (e *Engine) Extract(ctx context.Context, image []byte) (string, error) {
	if _, err := ocr.ValidateImage(image); err != nil {
		return "", ocr.DecodeFailure(ocr.Neural, err)
	}
	if e.baseURL == "" {
		return "", ocr.Unavailable(ocr.Neural, ErrNotConfigured)
	}

	body, err := json.Marshal(readRequest{
		ImageBase64: base64.StdEncoding.EncodeToString(image),
		Languages:   e.languages,
	})
	if err != nil {
		return "", fmt.Errorf("encode readtext request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/readtext", bytes.NewReader(body))
	if err != nil {
		return "", ocr.Unavailable(ocr.Neural, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", ocr.Unavailable(ocr.Neural, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnsupportedMediaType,
		resp.StatusCode == http.StatusUnprocessableEntity:
		return "", ocr.DecodeFailure(ocr.Neural, statusError(resp))
	case resp.StatusCode/100 != 2:
		return "", ocr.Unavailable(ocr.Neural, statusError(resp))
	}

	var data readResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", ocr.Unavailable(ocr.Neural, fmt.Errorf("decode readtext response: %w", err))
	}

	return ocr.Clean(strings.Join(data.Lines, "\n")), nil
}

// Ping checks the sidecar health endpoint.
func (e *Engine) Ping(ctx context.Context) error {
	if e.baseURL == "" {
		return ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+e.healthPath, nil)
	if err != nil {
		return err
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("neural ocr health: http %d", resp.StatusCode)
	}
	return nil
}

func statusError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if text := strings.TrimSpace(string(msg)); text != "" {
		return fmt.Errorf("http %d: %s", resp.StatusCode, text)
	}
	return fmt.Errorf("http %d", resp.StatusCode)
}
