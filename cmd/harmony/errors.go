package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/JaimeStill/harmony/internal/events"
	"github.com/JaimeStill/harmony/internal/llm"
	"github.com/JaimeStill/harmony/internal/models"
	"github.com/JaimeStill/harmony/internal/ocr"
	"github.com/JaimeStill/harmony/internal/pipeline"
)

// Exit codes.
const (
	exitOK         = 0
	exitFailure    = 1
	exitUsage      = 2
	exitResolution = 3
	exitOCR        = 4
	exitProvider   = 5
	exitSchema     = 6
	exitConfig     = 7
)

// usageError marks failures caused by the command line or its input.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var (
		ue usageError
		re *models.ResolutionError
		oe *ocr.Error
		pe *llm.ProviderError
		se *events.SchemaError
	)

	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &ue), errors.Is(err, pipeline.ErrEmptyInput):
		return exitUsage
	case errors.As(err, &re):
		return exitResolution
	case errors.As(err, &oe):
		return exitOCR
	case errors.As(err, &pe):
		return exitProvider
	case errors.As(err, &se):
		return exitSchema
	default:
		return exitFailure
	}
}

// fail reports err on w and returns its exit code. Schema failures also
// print the raw model reply.
func fail(w io.Writer, err error) int {
	fmt.Fprintf(w, "Error: %v\n", err)

	var se *events.SchemaError
	if errors.As(err, &se) && se.Raw != "" {
		fmt.Fprintf(w, "\nRaw model output:\n%s\n", se.Raw)
	}

	return exitCode(err)
}
