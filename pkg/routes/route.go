// Package routes declares HTTP routes as data so they can be registered on a
// mux and described in an OpenAPI document from the same definition.
package routes

import (
	"net/http"

	"github.com/JaimeStill/harmony/pkg/openapi"
)

// Route binds an HTTP method and pattern to a handler. Operation is optional
// and only used when describing the route.
type Route struct {
	Method    string
	Pattern   string
	Handler   http.HandlerFunc
	Operation *openapi.Operation
}
