package fetcher

import (
	"context"
	"errors"
	"fmt"
)

// ErrorType represents the category of error that occurred during a fetch operation
type ErrorType string

const (
	// ErrorTypeNetwork indicates a network-level error (connection refused, DNS, etc.)
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeTimeout indicates the source did not answer before its deadline
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeRateLimit indicates the request was rejected due to rate limiting (HTTP 429)
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeServer indicates a server error (HTTP 5xx)
	ErrorTypeServer ErrorType = "server"
	// ErrorTypeClient indicates a client error (HTTP 4xx except 429)
	ErrorTypeClient ErrorType = "client"
	// ErrorTypeShape indicates the page was received but an expected heading,
	// table, row or labeled cell was missing
	ErrorTypeShape ErrorType = "shape"
	// ErrorTypePartial indicates some but not all required fields were extracted
	ErrorTypePartial ErrorType = "partial"
	// ErrorTypeNotFound indicates a full scan found no row matching the lookup
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeUnknown indicates an error of unknown type
	ErrorTypeUnknown ErrorType = "unknown"
)

// Transport reports whether the error type belongs to the transport class
// (the source could not be reached or answered with an HTTP failure).
func (t ErrorType) Transport() bool {
	switch t {
	case ErrorTypeNetwork, ErrorTypeTimeout, ErrorTypeRateLimit, ErrorTypeServer, ErrorTypeClient:
		return true
	}
	return false
}

// FetchError represents a structured error from a fetch operation
type FetchError struct {
	Type       ErrorType
	Retryable  bool
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// NewNetworkError creates a network error
func NewNetworkError(cause error) *FetchError {
	msg := "network request failed"
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &FetchError{
		Type:      ErrorTypeNetwork,
		Retryable: true,
		Message:   msg,
		Cause:     cause,
	}
}

// NewTimeoutError creates a timeout error
func NewTimeoutError(cause error) *FetchError {
	return &FetchError{
		Type:      ErrorTypeTimeout,
		Retryable: true,
		Message:   "request timed out",
		Cause:     cause,
	}
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError(statusCode int) *FetchError {
	return &FetchError{
		Type:       ErrorTypeRateLimit,
		Retryable:  true,
		StatusCode: statusCode,
		Message:    "rate limit exceeded",
	}
}

// NewServerError creates a server error
func NewServerError(statusCode int) *FetchError {
	return &FetchError{
		Type:       ErrorTypeServer,
		Retryable:  true,
		StatusCode: statusCode,
		Message:    "server returned an error",
	}
}

// NewClientError creates a client error
func NewClientError(statusCode int, message string) *FetchError {
	return &FetchError{
		Type:       ErrorTypeClient,
		Retryable:  false,
		StatusCode: statusCode,
		Message:    message,
	}
}

// NewShapeError creates an error for markup that is missing an expected element
func NewShapeError(format string, args ...any) *FetchError {
	return &FetchError{
		Type:    ErrorTypeShape,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewPartialDataError creates an error for a page that yielded only some required fields
func NewPartialDataError(format string, args ...any) *FetchError {
	return &FetchError{
		Type:    ErrorTypePartial,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewNotFoundError creates an error for a lookup that matched nothing after a full scan
func NewNotFoundError(what string) *FetchError {
	return &FetchError{
		Type:    ErrorTypeNotFound,
		Message: what + " not found",
	}
}

// ClassifyHTTPError classifies an HTTP status code into an appropriate FetchError
func ClassifyHTTPError(statusCode int) *FetchError {
	switch {
	case statusCode == 429:
		return NewRateLimitError(statusCode)
	case statusCode >= 500:
		return NewServerError(statusCode)
	case statusCode >= 400:
		return NewClientError(statusCode, fmt.Sprintf("client error: HTTP %d", statusCode))
	default:
		return &FetchError{
			Type:       ErrorTypeUnknown,
			Retryable:  false,
			StatusCode: statusCode,
			Message:    fmt.Sprintf("unexpected status code: %d", statusCode),
		}
	}
}

// Classify converts an arbitrary error returned by a source into a FetchError.
// Errors that already are FetchErrors are returned unchanged.
func Classify(err error) *FetchError {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(err)
	}
	if errors.Is(err, context.Canceled) {
		return &FetchError{Type: ErrorTypeTimeout, Message: "fetch canceled", Cause: err}
	}
	return &FetchError{Type: ErrorTypeUnknown, Message: err.Error(), Cause: err}
}
