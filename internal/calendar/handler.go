package calendar

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/JaimeStill/harmony/internal/events"
	"github.com/JaimeStill/harmony/pkg/handlers"
	"github.com/JaimeStill/harmony/pkg/openapi"
	"github.com/JaimeStill/harmony/pkg/routes"
)

// ExportRequest is the body of the export endpoint.
type ExportRequest struct {
	Event json.RawMessage `json:"event"`
}

// Handler exports suggestions as iCalendar files.
type Handler struct {
	logger   *slog.Logger
	location *time.Location
	maxBody  int64
	now      func() time.Time
}

// NewHandler creates a Handler. Times without a timezone are placed in loc.
func NewHandler(logger *slog.Logger, loc *time.Location, maxBody int64) *Handler {
	return &Handler{
		logger:   logger.With("handler", "calendar"),
		location: loc,
		maxBody:  maxBody,
		now:      time.Now,
	}
}

// Routes returns the route group for calendar export.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/calendar",
		Tags:   []string{"Calendar"},
		Routes: []routes.Route{
			{
				Method:  "POST",
				Pattern: "",
				Handler: h.Export,
				Operation: &openapi.Operation{
					Summary:     "Export an event suggestion as iCalendar",
					Description: "Validates the suggestion and renders it as a tentative VEVENT.",
					RequestBody: openapi.RequestBodyJSON("ExportRequest", true),
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseContent("iCalendar document", "text/calendar", &openapi.Schema{Type: "string"}),
						400: openapi.ResponseRef("BadRequest"),
						422: openapi.ResponseRef("UnprocessableEntity"),
					},
				},
			},
		},
	}
}

// Export renders the posted suggestion as text/calendar.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBody)).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if len(req.Event) == 0 {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errors.New("event is required"))
		return
	}

	s, err := events.Decode(string(req.Event))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusUnprocessableEntity, err)
		return
	}

	doc, err := Render(s, h.location, h.now())
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusUnprocessableEntity, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="event.ics"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(doc))
}

// Schemas returns the OpenAPI component schemas used by the handler.
func Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"ExportRequest": {
			Type:     "object",
			Required: []string{"event"},
			Properties: map[string]*openapi.Schema{
				"event": openapi.SchemaRef("EventSuggestion"),
			},
		},
	}
}
