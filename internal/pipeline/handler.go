package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/harmony/internal/events"
	"github.com/JaimeStill/harmony/internal/models"
	"github.com/JaimeStill/harmony/internal/ocr"
	"github.com/JaimeStill/harmony/pkg/formatting"
	"github.com/JaimeStill/harmony/pkg/handlers"
	"github.com/JaimeStill/harmony/pkg/openapi"
	"github.com/JaimeStill/harmony/pkg/routes"
)

// TextRequest is the body of the text endpoint.
type TextRequest struct {
	Text        string `json:"text"`
	Model       string `json:"model,omitempty"`
	ModelString string `json:"model_string,omitempty"`
}

// TextResponse is the body returned by the text endpoint.
type TextResponse struct {
	Event *events.Suggestion `json:"event"`
}

// ImageResponse is the body returned by the image endpoint.
type ImageResponse struct {
	OCRText  string             `json:"ocr_text"`
	Event    *events.Suggestion `json:"event"`
	Warnings []string           `json:"warnings,omitempty"`
}

// Handler exposes the pipeline over HTTP.
type Handler struct {
	pipeline    *Pipeline
	logger      *slog.Logger
	defaultMode ocr.Mode
	maxUpload   int64
}

// NewHandler creates a Handler. Images larger than maxUpload bytes are
// rejected and requests without ocr_mode use defaultMode.
func NewHandler(p *Pipeline, logger *slog.Logger, defaultMode ocr.Mode, maxUpload int64) *Handler {
	return &Handler{
		pipeline:    p,
		logger:      logger.With("handler", "parse"),
		defaultMode: defaultMode,
		maxUpload:   maxUpload,
	}
}

// Routes returns the route group for the parse endpoints.
func (h *Handler) Routes() routes.Group {
	modes := make([]any, len(ocr.Modes))
	for i, m := range ocr.Modes {
		modes[i] = string(m)
	}

	ocrMode := openapi.QueryParam("ocr_mode", "string", "OCR engines to run", false)
	ocrMode.Schema.Enum = modes
	ocrMode.Schema.Default = string(h.defaultMode)

	failures := map[int]*openapi.Response{
		400: openapi.ResponseRef("BadRequest"),
		422: openapi.ResponseRef("UnprocessableEntity"),
		429: openapi.ResponseRef("TooManyRequests"),
		502: openapi.ResponseRef("BadGateway"),
		504: openapi.ResponseRef("GatewayTimeout"),
	}

	textResponses := map[int]*openapi.Response{
		200: openapi.ResponseJSON("Event suggestion", "TextResponse"),
	}
	imageResponses := map[int]*openapi.Response{
		200: openapi.ResponseJSON("OCR text and event suggestion", "ImageResponse"),
		415: openapi.ResponseRef("UnsupportedMedia"),
		503: openapi.ResponseRef("ServiceUnavailable"),
	}
	for code, resp := range failures {
		textResponses[code] = resp
		imageResponses[code] = resp
	}

	return routes.Group{
		Prefix: "/parse",
		Tags:   []string{"Parse"},
		Routes: []routes.Route{
			{
				Method:  "POST",
				Pattern: "/text",
				Handler: h.Text,
				Operation: &openapi.Operation{
					Summary:     "Extract an event suggestion from text",
					RequestBody: openapi.RequestBodyJSON("TextRequest", true),
					Responses:   textResponses,
				},
			},
			{
				Method:  "POST",
				Pattern: "/image",
				Handler: h.Image,
				Operation: &openapi.Operation{
					Summary:     "Extract an event suggestion from a screenshot",
					Description: "Runs OCR over the uploaded image, then extracts an event suggestion from the transcript.",
					Parameters: []*openapi.Parameter{
						ocrMode,
						openapi.QueryParam("model", "string", "Model alias", false),
						openapi.QueryParam("model_string", "string", "Explicit provider model id", false),
					},
					RequestBody: openapi.RequestBodyMultipart("file", "Screenshot or photo"),
					Responses:   imageResponses,
				},
			},
		},
	}
}

// Text handles POST /parse/text.
func (h *Handler) Text(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxUpload)).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	sel := models.Selector{Alias: req.Model, ModelString: req.ModelString}

	result, err := h.pipeline.ParseText(r.Context(), req.Text, sel)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, TextResponse{Event: result.Event})
}

// Image handles POST /parse/image.
func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge,
				fmt.Errorf("upload exceeds %s", formatting.FormatBytes(h.maxUpload, 0)))
			return
		}
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid form: %w", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	mode := h.defaultMode
	if v := r.FormValue("ocr_mode"); v != "" {
		m, err := ocr.ParseMode(v)
		if err != nil {
			handlers.RespondErrorDetail(w, h.logger, http.StatusBadRequest, err, map[string]any{"kind": "input"})
			return
		}
		mode = m
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("file is required: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("read file: %w", err))
		return
	}

	sel := models.Selector{
		Alias:       r.FormValue("model"),
		ModelString: r.FormValue("model_string"),
	}

	result, err := h.pipeline.ParseImage(r.Context(), data, mode, sel)
	if err != nil {
		h.fail(w, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, ImageResponse{
		OCRText:  result.OCRText,
		Event:    result.Event,
		Warnings: result.Warnings,
	})
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	handlers.RespondErrorDetail(w, h.logger, MapHTTPStatus(err), err, ErrorDetail(err))
}

// Schemas returns the OpenAPI component schemas used by the handler.
func Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"TextRequest": {
			Type:     "object",
			Required: []string{"text"},
			Properties: map[string]*openapi.Schema{
				"text":         {Type: "string", Example: "Tim: Wanna do dinner at 7 next Tuesday at Garden Carver?"},
				"model":        {Type: "string", Description: "Model alias", Example: models.DefaultAlias},
				"model_string": {Type: "string", Description: "Explicit provider model id"},
			},
		},
		"TextResponse": {
			Type:     "object",
			Required: []string{"event"},
			Properties: map[string]*openapi.Schema{
				"event": openapi.SchemaRef("EventSuggestion"),
			},
		},
		"ImageResponse": {
			Type:     "object",
			Required: []string{"ocr_text", "event"},
			Properties: map[string]*openapi.Schema{
				"ocr_text": {Type: "string"},
				"event":    openapi.SchemaRef("EventSuggestion"),
				"warnings": {Type: "array", Items: &openapi.Schema{Type: "string"}},
			},
		},
	}
}
