package petfinder

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the client.
var (
	// ErrNotAuthenticated is returned when no valid bearer token could be obtained.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrUnknownFilter is returned by ParseFilters for unrecognised keys.
	ErrUnknownFilter = errors.New("unknown filter")

	// ErrInvalidFilter is returned when a filter value is out of range.
	ErrInvalidFilter = errors.New("invalid filter")
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassAuth represents missing tokens and 401 responses.
	ErrorClassAuth ErrorClass = "auth"

	// ErrorClassClient represents other 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 responses.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents transport and decode failures.
	ErrorClassNetwork ErrorClass = "network"
)

// APIError represents a failed Petfinder request.
type APIError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("petfinder %s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("petfinder %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to an error class.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusUnauthorized:
		return ErrorClassAuth
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// ClassOf returns the error class of err, or "" when err is not a request failure.
func ClassOf(err error) ErrorClass {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorClass
	}
	if errors.Is(err, ErrNotAuthenticated) {
		return ErrorClassAuth
	}
	return ""
}
