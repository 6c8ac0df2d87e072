package routes

import (
	"net/http"
	"strings"

	"github.com/JaimeStill/harmony/pkg/openapi"
)

// Group organizes routes under a common prefix with shared tags.
type Group struct {
	Prefix   string
	Tags     []string
	Routes   []Route
	Children []Group
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	walk("", groups, func(prefix string, _ []string, route Route) {
		mux.HandleFunc(route.Method+" "+prefix+route.Pattern, route.Handler)
	})
}

// Describe adds every route carrying an Operation to spec. base is the path
// the enclosing module is mounted at. Group tags apply to operations that
// declare none of their own.
func Describe(spec *openapi.Spec, base string, groups ...Group) {
	walk(base, groups, func(prefix string, tags []string, route Route) {
		if route.Operation == nil {
			return
		}
		op := *route.Operation
		if len(op.Tags) == 0 {
			op.Tags = tags
		}
		spec.AddOperation(route.Method, openAPIPath(prefix+route.Pattern), &op)
	})
}

func walk(parent string, groups []Group, fn func(prefix string, tags []string, route Route)) {
	for _, group := range groups {
		prefix := parent + group.Prefix
		for _, route := range group.Routes {
			fn(prefix, group.Tags, route)
		}
		walk(prefix, group.Children, fn)
	}
}

func openAPIPath(pattern string) string {
	path := strings.ReplaceAll(pattern, "...}", "}")
	if path == "" {
		return "/"
	}
	return path
}
