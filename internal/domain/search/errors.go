package search

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorKind classifies a search failure so callers can decide whether to
// retry without inspecting error strings.
type ErrorKind string

const (
	// KindConfiguration covers broken setup that a retry cannot fix:
	// missing credentials, an unusable zone, a bad field-map file.
	KindConfiguration ErrorKind = "configuration"

	// KindAuthentication means the upstream rejected our credential
	// (HTTP 401/403). Retrying with the same key is pointless.
	KindAuthentication ErrorKind = "authentication"

	// KindRateLimit means the upstream throttled us (HTTP 429). The
	// request may succeed after the interval advertised in RetryAfter.
	KindRateLimit ErrorKind = "rate_limit"

	// KindTransient covers timeouts, connection failures and upstream
	// 5xx responses. A bounded retry with backoff is appropriate.
	KindTransient ErrorKind = "transient"

	// KindParse means the upstream answered 2xx but the body did not
	// match the expected shape. Retrying would fetch the same body.
	KindParse ErrorKind = "parse"

	// KindUnknownProvider means the caller named a provider that is not
	// registered.
	KindUnknownProvider ErrorKind = "unknown_provider"
)

// Error is the failure type returned by every search operation. Provider
// names the back end the failure belongs to, empty for registry-level
// failures.
type Error struct {
	Kind     ErrorKind
	Provider string
	Message  string

	// RetryAfter carries the upstream Retry-After hint for rate_limit
	// errors. Zero when the upstream did not send one.
	RetryAfter time.Duration

	Err error
}

func (e *Error) Error() string {
	prefix := string(e.Kind)
	if e.Provider != "" {
		prefix = e.Provider + ": " + prefix
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a search error with no wrapped cause.
func NewError(kind ErrorKind, provider, format string, args ...any) *Error {
	return &Error{Kind: kind, Provider: provider, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds a search error around an underlying cause.
func WrapError(kind ErrorKind, provider string, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Provider: provider, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from an error chain. Errors produced outside this
// package report an empty kind, which callers treat as non-retryable.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// RetryAfterOf extracts the upstream Retry-After hint, zero if absent.
func RetryAfterOf(err error) time.Duration {
	var se *Error
	if errors.As(err, &se) {
		return se.RetryAfter
	}
	return 0
}

// HTTPStatus maps an error to the status the REST surface should answer
// with. Upstream failures surface as gateway errors because the caller's
// request was well-formed.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindUnknownProvider:
		return http.StatusBadRequest
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindAuthentication, KindParse:
		return http.StatusBadGateway
	case KindTransient:
		return http.StatusGatewayTimeout
	case KindConfiguration:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
