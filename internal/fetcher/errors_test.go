package fetcher

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		status    int
		want      ErrorType
		retryable bool
	}{
		{429, ErrorTypeRateLimit, true},
		{500, ErrorTypeServer, true},
		{503, ErrorTypeServer, true},
		{404, ErrorTypeClient, false},
		{403, ErrorTypeClient, false},
		{302, ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			err := ClassifyHTTPError(tt.status)
			if err.Type != tt.want {
				t.Errorf("Type = %q, want %q", err.Type, tt.want)
			}
			if err.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", err.Retryable, tt.retryable)
			}
			if err.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", err.StatusCode, tt.status)
			}
		})
	}
}

func TestFetchError_Error(t *testing.T) {
	tests := []struct {
		err  *FetchError
		want string
	}{
		{NewServerError(502), "server error (status 502): server returned an error"},
		{NewShapeError("heading %q not found", "x"), `shape error: heading "x" not found`},
		{NewNotFoundError("大連焦煤"), "not_found error: 大連焦煤 not found"},
		{NewPartialDataError("row %s missing", "a"), "partial error: row a missing"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetchError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("wrapped: %w", NewNetworkError(cause))

	if !errors.Is(err, cause) {
		t.Error("errors.Is() did not find the cause through FetchError")
	}
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Type != ErrorTypeNetwork {
		t.Errorf("errors.As() = %+v, want network FetchError", fe)
	}
}

func TestErrorType_Transport(t *testing.T) {
	transport := []ErrorType{ErrorTypeNetwork, ErrorTypeTimeout, ErrorTypeRateLimit, ErrorTypeServer, ErrorTypeClient}
	other := []ErrorType{ErrorTypeShape, ErrorTypePartial, ErrorTypeNotFound, ErrorTypeUnknown}

	for _, et := range transport {
		if !et.Transport() {
			t.Errorf("%q.Transport() = false, want true", et)
		}
	}
	for _, et := range other {
		if et.Transport() {
			t.Errorf("%q.Transport() = true, want false", et)
		}
	}
}

func TestClassify(t *testing.T) {
	shape := NewShapeError("x")

	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"fetch error kept", shape, ErrorTypeShape},
		{"wrapped fetch error", fmt.Errorf("ctx: %w", shape), ErrorTypeShape},
		{"deadline", context.DeadlineExceeded, ErrorTypeTimeout},
		{"canceled", context.Canceled, ErrorTypeTimeout},
		{"plain", errors.New("boom"), ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err).Type; got != tt.want {
				t.Errorf("Classify().Type = %q, want %q", got, tt.want)
			}
		})
	}

	if Classify(nil) != nil {
		t.Error("Classify(nil) should be nil")
	}
}
