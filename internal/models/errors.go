package models

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Resolution failure kinds.
var (
	ErrUnknownAlias         = errors.New("unknown model alias")
	ErrConflictingSelectors = errors.New("specify either model or model_string, not both")
)

// ResolutionError reports why a Selector could not be resolved to a model id.
// Err is one of the package sentinels.
type ResolutionError struct {
	Err       error
	Alias     string
	Supported []string
}

func (e *ResolutionError) Error() string {
	if errors.Is(e.Err, ErrUnknownAlias) {
		return fmt.Sprintf(
			"unsupported model %q: choose one of %s",
			e.Alias, strings.Join(e.Supported, ", "),
		)
	}
	return e.Err.Error()
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// MapHTTPStatus maps resolution errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	var re *ResolutionError
	if errors.As(err, &re) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
