package ocr

import (
	"errors"
	"fmt"
	"strings"
)

// OCR failure kinds.
var (
	ErrEngineUnavailable = errors.New("ocr engine unavailable")
	ErrDecodeFailure     = errors.New("image could not be decoded")
	ErrAllEnginesFailed  = errors.New("all ocr engines failed")
)

// Error reports an OCR failure. Kind is one of the package sentinels.
// Causes holds the per-engine errors of a failed fusion run.
type Error struct {
	Kind   error
	Engine Engine
	Err    error
	Causes []error
}

func (e *Error) Error() string {
	switch {
	case len(e.Causes) > 0:
		msgs := make([]string, len(e.Causes))
		for i, c := range e.Causes {
			msgs[i] = c.Error()
		}
		return fmt.Sprintf("%v: %s", e.Kind, strings.Join(msgs, "; "))
	case e.Err != nil && e.Engine != "":
		return fmt.Sprintf("%s: %v: %v", e.Engine, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	case e.Engine != "":
		return fmt.Sprintf("%s: %v", e.Engine, e.Kind)
	default:
		return e.Kind.Error()
	}
}

func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return append(errs, e.Causes...)
}

// Unavailable reports that engine is not installed or not reachable.
func Unavailable(engine Engine, err error) *Error {
	return &Error{Kind: ErrEngineUnavailable, Engine: engine, Err: err}
}

// DecodeFailure reports that engine could not read the image bytes.
func DecodeFailure(engine Engine, err error) *Error {
	return &Error{Kind: ErrDecodeFailure, Engine: engine, Err: err}
}
