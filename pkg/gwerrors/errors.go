// Package gwerrors defines the gateway's error taxonomy: a closed set of
// Kinds with a fixed HTTP status mapping and a JSON error body shape.
package gwerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed set of error categories the gateway surfaces.
type Kind string

const (
	BadRequest       Kind = "bad_request"
	Unauthorized     Kind = "unauthorized"
	TooManyRequests  Kind = "too_many_requests"
	Upstream         Kind = "upstream"
	DeadlineExceeded Kind = "deadline_exceeded"
	Internal         Kind = "internal"
	Serialization    Kind = "serialization"
)

// StatusCode maps a Kind to its HTTP status per the error handling design.
func (k Kind) StatusCode() int {
	switch k {
	case BadRequest:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case TooManyRequests:
		return http.StatusTooManyRequests
	case Upstream:
		return http.StatusBadGateway
	case DeadlineExceeded:
		return http.StatusGatewayTimeout
	case Internal:
		return http.StatusInternalServerError
	case Serialization:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// GatewayError is the single error type carried across the request path.
// Every component that can fail returns one of these (wrapped via Cause
// when the failure originates below the gateway boundary) rather than a
// bespoke error struct per concern.
type GatewayError struct {
	Kind Kind

	// Message is safe to return to the caller.
	Message string

	// RetryAfter, in seconds, is set for TooManyRequests and some
	// Upstream errors (propagated from an upstream Retry-After header).
	RetryAfter *int

	Cause error
}

func (e *GatewayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *GatewayError) Unwrap() error { return e.Cause }

// StatusCode returns the HTTP status for this error.
func (e *GatewayError) StatusCode() int { return e.Kind.StatusCode() }

// New builds a GatewayError with no cause.
func New(kind Kind, message string) *GatewayError {
	return &GatewayError{Kind: kind, Message: message}
}

// Wrap builds a GatewayError around an existing error.
func Wrap(kind Kind, message string, cause error) *GatewayError {
	return &GatewayError{Kind: kind, Message: message, Cause: cause}
}

// WithRetryAfter attaches a Retry-After duration (seconds) to the error.
func (e *GatewayError) WithRetryAfter(seconds int) *GatewayError {
	e.RetryAfter = &seconds
	return e
}

// Is reports whether err (or something it wraps) is a *GatewayError of kind k.
func Is(err error, k Kind) bool {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge.Kind == k
	}
	return false
}

// As is a thin convenience wrapper around errors.As for *GatewayError.
func As(err error) (*GatewayError, bool) {
	var ge *GatewayError
	ok := errors.As(err, &ge)
	return ge, ok
}

// ErrorBody is the wire shape of an error response:
// {"error":{"message","type","code":null}}.
type ErrorBody struct {
	Error ErrorBodyInner `json:"error"`
}

type ErrorBodyInner struct {
	Message string  `json:"message"`
	Type    Kind    `json:"type"`
	Code    *string `json:"code"`
}

// Body renders the gateway error body for the HTTP response.
func (e *GatewayError) Body() ErrorBody {
	return ErrorBody{Error: ErrorBodyInner{
		Message: e.Message,
		Type:    e.Kind,
		Code:    nil,
	}}
}

// Retryable reports whether a failure of this kind is eligible for local
// retry: network timeouts, connect errors and 5xx/429 upstream failures.
// 4xx other than 408/425/429, validation failures and tool-validation
// failures are not retried (spec error propagation policy).
func Retryable(kind Kind) bool {
	switch kind {
	case Upstream, DeadlineExceeded, TooManyRequests:
		return true
	default:
		return false
	}
}
