package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// Provider failure kinds.
var (
	ErrUnauthorized = errors.New("provider rejected credentials")
	ErrRateLimited  = errors.New("provider rate limit exceeded")
	ErrUnreachable  = errors.New("provider unreachable")
	ErrUnexpected   = errors.New("unexpected provider response")
)

// ProviderError reports a failed chat completion call. Kind is one of the
// package sentinels. Status is the HTTP status when a response arrived.
type ProviderError struct {
	Kind   error
	Status int
	Body   string
	Err    error
}

func (e *ProviderError) Error() string {
	msg := e.Kind.Error()
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (http %d)", msg, e.Status)
	}
	switch {
	case e.Body != "":
		return fmt.Sprintf("%s: %s", msg, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", msg, e.Err)
	default:
		return msg
	}
}

func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindForStatus classifies an HTTP status returned by the provider.
func KindForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusRequestTimeout,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return ErrUnreachable
	default:
		return ErrUnexpected
	}
}

// MapHTTPStatus maps provider errors to the status the API answers with.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrUnreachable):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrUnexpected):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
