package api

import (
	"github.com/JaimeStill/harmony/internal/calendar"
	"github.com/JaimeStill/harmony/internal/models"
	"github.com/JaimeStill/harmony/internal/pipeline"
)

// Domain holds the handlers that make up the HTTP surface.
type Domain struct {
	Parse    *pipeline.Handler
	Models   *models.Handler
	Calendar *calendar.Handler
}

// NewDomain creates every handler from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	return &Domain{
		Parse: pipeline.NewHandler(
			runtime.Pipeline(),
			runtime.Logger,
			runtime.DefaultMode,
			runtime.MaxUploadSize,
		),
		Models: models.NewHandler(runtime.Registry),
		Calendar: calendar.NewHandler(
			runtime.Logger,
			runtime.Location,
			runtime.MaxUploadSize,
		),
	}
}
