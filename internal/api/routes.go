package api

import (
	"net/http"

	"github.com/JaimeStill/harmony/internal/calendar"
	"github.com/JaimeStill/harmony/internal/config"
	"github.com/JaimeStill/harmony/internal/events"
	"github.com/JaimeStill/harmony/internal/models"
	"github.com/JaimeStill/harmony/internal/pipeline"
	"github.com/JaimeStill/harmony/pkg/openapi"
	"github.com/JaimeStill/harmony/pkg/routes"
)

func apiGroups(domain *Domain) []routes.Group {
	return []routes.Group{
		domain.Models.Routes(),
		domain.Calendar.Routes(),
	}
}

func registerRoutes(mux *http.ServeMux, domain *Domain, spec []byte) {
	routes.Register(mux, apiGroups(domain)...)
	mux.HandleFunc("GET /openapi.json", openapi.ServeSpec(spec))
}

// BuildSpec describes every parse and API route as an OpenAPI document.
func BuildSpec(cfg *config.Config, domain *Domain) ([]byte, error) {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)

	routes.Describe(spec, "", domain.Parse.Routes())
	routes.Describe(spec, cfg.API.BasePath, apiGroups(domain)...)

	spec.Components.AddSchemas(events.Schemas())
	spec.Components.AddSchemas(models.Schemas())
	spec.Components.AddSchemas(pipeline.Schemas())
	spec.Components.AddSchemas(calendar.Schemas())

	return openapi.MarshalJSON(spec)
}
