// Package api assembles the HTTP modules: the parse endpoints and the
// auxiliary API mounted at the configured base path.
package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/harmony/internal/config"
	"github.com/JaimeStill/harmony/internal/infrastructure"
	"github.com/JaimeStill/harmony/pkg/middleware"
	"github.com/JaimeStill/harmony/pkg/module"
	"github.com/JaimeStill/harmony/pkg/routes"
)

// Modules are the HTTP modules built from one Domain.
type Modules struct {
	Parse *module.Module
	API   *module.Module
}

// NewModules creates the parse and API modules with their middleware.
func NewModules(cfg *config.Config, infra *infrastructure.Infrastructure) (*Modules, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	spec, err := BuildSpec(cfg, domain)
	if err != nil {
		return nil, fmt.Errorf("openapi spec: %w", err)
	}

	parse := domain.Parse.Routes()
	prefix := parse.Prefix
	parse.Prefix = ""

	parseMux := http.NewServeMux()
	routes.Register(parseMux, parse)

	apiMux := http.NewServeMux()
	registerRoutes(apiMux, domain, spec)

	return &Modules{
		Parse: newModule(prefix, parseMux, cfg, runtime),
		API:   newModule(cfg.API.BasePath, apiMux, cfg, runtime),
	}, nil
}

// Mount registers every module with router.
func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.Parse)
	router.Mount(m.API)
}

func newModule(prefix string, mux *http.ServeMux, cfg *config.Config, runtime *Runtime) *module.Module {
	m := module.New(prefix, mux)
	m.Use(middleware.RequestID())
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))
	return m
}
