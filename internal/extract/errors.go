package extract

import (
	"errors"
	"fmt"
)

// Common extraction errors
var (
	// ErrMissingAPIKey is returned when no extraction API key is configured.
	ErrMissingAPIKey = errors.New("missing extraction API key: set EXTRACT_API_KEY or pass --api-key")

	// ErrAuthFailed is returned when the extraction service rejects the API key.
	ErrAuthFailed = errors.New("extraction service rejected the API credentials")

	// ErrRateLimited is returned when the extraction service reports a rate limit.
	// The call is not retried automatically; re-triggering is the caller's decision.
	ErrRateLimited = errors.New("extraction service rate limit exceeded")

	// ErrServiceUnavailable is returned for service-side failures (5xx, network).
	ErrServiceUnavailable = errors.New("extraction service request failed")

	// ErrEmptyResponse is returned when the service answers with no content.
	ErrEmptyResponse = errors.New("extraction service returned an empty response")

	// ErrParseFailed is returned when the response text is not valid JSON or
	// lacks the required top-level keys (header, items, totals).
	ErrParseFailed = errors.New("extraction response is not valid invoice JSON")

	// ErrContextCanceled is returned when the extraction call is canceled via context.
	ErrContextCanceled = errors.New("extraction was canceled")
)

// ServiceError wraps transport and service-side extraction failures.
type ServiceError struct {
	// Op is the operation that failed (e.g., "ExtractInvoice").
	Op string

	// Err is the underlying error.
	Err error

	// StatusCode is the HTTP status reported by the service, if available.
	StatusCode int

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("extract: %s failed (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	if e.Details != "" {
		return fmt.Sprintf("extract: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("extract: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// ParseError reports a response that could not be parsed as invoice JSON.
// Raw keeps the offending text so a user can inspect what the model actually
// said; this is a data problem, not a crash.
type ParseError struct {
	// Err is the underlying error (JSON syntax or schema violation).
	Err error

	// Raw is the response text after fence stripping, verbatim.
	Raw string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("extract: response parse failed: %v", e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is reports ErrParseFailed for any ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrParseFailed || errors.Is(e.Err, target)
}
