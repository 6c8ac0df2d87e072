package models

import (
	"net/http"

	"github.com/JaimeStill/harmony/pkg/handlers"
	"github.com/JaimeStill/harmony/pkg/openapi"
	"github.com/JaimeStill/harmony/pkg/routes"
)

// Listing is the response body of the alias listing endpoint.
type Listing struct {
	Default string  `json:"default"`
	Models  []Entry `json:"models"`
}

// Handler exposes the alias table over HTTP.
type Handler struct {
	registry *Registry
}

// NewHandler creates a Handler over registry.
func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

// Routes returns the route group for model endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/models",
		Tags:   []string{"Models"},
		Routes: []routes.Route{
			{
				Method:  "GET",
				Pattern: "",
				Handler: h.List,
				Operation: &openapi.Operation{
					Summary: "List model aliases",
					Responses: map[int]*openapi.Response{
						200: openapi.ResponseJSON("Alias table", "ModelListing"),
					},
				},
			},
		},
	}
}

// List returns the alias table and default alias.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, Listing{
		Default: h.registry.DefaultAlias(),
		Models:  h.registry.Entries(),
	})
}

// Schemas returns the OpenAPI component schemas used by the handler.
func Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"ModelListing": {
			Type:     "object",
			Required: []string{"default", "models"},
			Properties: map[string]*openapi.Schema{
				"default": {Type: "string", Example: DefaultAlias},
				"models": {
					Type: "array",
					Items: &openapi.Schema{
						Type:     "object",
						Required: []string{"alias", "model"},
						Properties: map[string]*openapi.Schema{
							"alias":    {Type: "string"},
							"model":    {Type: "string"},
							"synonyms": {Type: "array", Items: &openapi.Schema{Type: "string"}},
						},
					},
				},
			},
		},
	}
}
