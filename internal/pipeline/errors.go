package pipeline

import (
	"context"
	"errors"
	"net/http"

	"github.com/JaimeStill/harmony/internal/events"
	"github.com/JaimeStill/harmony/internal/llm"
	"github.com/JaimeStill/harmony/internal/models"
	"github.com/JaimeStill/harmony/internal/ocr"
)

// MapHTTPStatus maps pipeline failures to HTTP status codes.
func MapHTTPStatus(err error) int {
	var (
		re *models.ResolutionError
		oe *ocr.Error
		pe *llm.ProviderError
		se *events.SchemaError
	)

	switch {
	case errors.Is(err, ErrEmptyInput), errors.As(err, &re):
		return http.StatusBadRequest
	case errors.As(err, &oe) && errors.Is(oe.Kind, ocr.ErrAllEnginesFailed):
		if undecodable(oe) {
			return http.StatusUnsupportedMediaType
		}
		return http.StatusInternalServerError
	case errors.Is(err, ocr.ErrDecodeFailure):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ocr.ErrEngineUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &pe):
		return llm.MapHTTPStatus(err)
	case errors.As(err, &se):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// undecodable reports whether every engine of a failed fusion run rejected
// the image bytes.
func undecodable(e *ocr.Error) bool {
	for _, c := range e.Causes {
		if !errors.Is(c, ocr.ErrDecodeFailure) {
			return false
		}
	}
	return len(e.Causes) > 0
}

// ErrorDetail returns extra response fields for err: the failure kind and,
// for schema failures, the raw model output.
func ErrorDetail(err error) map[string]any {
	detail := map[string]any{"kind": Kind(err)}

	var se *events.SchemaError
	if errors.As(err, &se) {
		if se.Path != "" {
			detail["path"] = se.Path
		}
		detail["raw_output"] = se.Raw
	}
	return detail
}

// Kind names the failure class of err.
func Kind(err error) string {
	var pe *llm.ProviderError
	var oe *ocr.Error
	var re *models.ResolutionError

	switch {
	case errors.Is(err, ErrEmptyInput):
		return "empty_input"
	case errors.As(err, &re):
		return "resolution"
	case errors.As(err, &oe):
		return "ocr"
	case errors.As(err, &pe):
		return "provider"
	case errors.Is(err, events.ErrNotJSON), errors.Is(err, events.ErrSchemaViolation):
		return "schema"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "internal"
	}
}
