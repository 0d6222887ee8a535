package petfinder

import (
	"errors"
	"fmt"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *APIError
		expected string
	}{
		{
			name: "error with wrapped error",
			err: &APIError{
				StatusCode: 0,
				ErrorClass: ErrorClassNetwork,
				Message:    "request failed",
				Err:        errors.New("connection refused"),
			},
			expected: "petfinder network error (status 0): request failed: connection refused",
		},
		{
			name: "error without wrapped error",
			err: &APIError{
				StatusCode: 404,
				ErrorClass: ErrorClassClient,
				Message:    "404 Not Found",
			},
			expected: "petfinder client error (status 404): 404 Not Found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	err := fmt.Errorf("fetch page: %w", &APIError{
		ErrorClass: ErrorClassAuth,
		Err:        ErrNotAuthenticated,
	})

	if !errors.Is(err, ErrNotAuthenticated) {
		t.Error("errors.Is should find ErrNotAuthenticated through APIError")
	}
	if ClassOf(err) != ErrorClassAuth {
		t.Errorf("ClassOf() = %q, want auth", ClassOf(err))
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status   int
		expected ErrorClass
	}{
		{401, ErrorClassAuth},
		{403, ErrorClassClient},
		{404, ErrorClassClient},
		{429, ErrorClassRateLimit},
		{500, ErrorClassServer},
		{503, ErrorClassServer},
		{200, ""},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			if got := classifyStatus(tt.status); got != tt.expected {
				t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.expected)
			}
		})
	}
}

func TestClassOf_PlainError(t *testing.T) {
	if got := ClassOf(errors.New("plain")); got != "" {
		t.Errorf("ClassOf(plain) = %q, want empty", got)
	}
}
