package events

import (
	"errors"
	"fmt"
)

// Schema failure kinds.
var (
	ErrNotJSON         = errors.New("model reply is not valid JSON")
	ErrSchemaViolation = errors.New("model reply violates the event schema")
)

// SchemaError reports model output that could not become a Suggestion.
// Path names the offending field for violations ("$" for the root). Raw
// holds the unmodified model reply when available.
type SchemaError struct {
	Err    error
	Path   string
	Reason string
	Raw    string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: %s", e.Err, e.Reason)
	}
	return fmt.Sprintf("%v at %s: %s", e.Err, e.Path, e.Reason)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

func violation(path, format string, args ...any) *SchemaError {
	return &SchemaError{
		Err:    ErrSchemaViolation,
		Path:   path,
		Reason: fmt.Sprintf(format, args...),
	}
}
