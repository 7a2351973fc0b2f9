package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorType is the category of a failed adapter call
type ErrorType string

const (
	// ErrorTypeNetwork indicates the provider could not be reached (connection refused, DNS, TLS)
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeRateLimit indicates the provider rejected the call with HTTP 429
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeServer indicates the provider failed with HTTP 5xx
	ErrorTypeServer ErrorType = "server"
	// ErrorTypeClient indicates the request was rejected with HTTP 4xx (bad key, unsupported chain)
	ErrorTypeClient ErrorType = "client"
	// ErrorTypeValidation indicates the payload was received but could not be mapped to records
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeTimeout indicates the call exceeded its deadline
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeNoQuote indicates the provider answered but offered no usable quote
	ErrorTypeNoQuote ErrorType = "no_quote"
	// ErrorTypePanic indicates the adapter panicked
	ErrorTypePanic ErrorType = "panic"
	// ErrorTypeUnknown indicates an error of unknown type
	ErrorTypeUnknown ErrorType = "unknown"
)

// FetchError is the structured error adapters return
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
	if e.Cause != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// NewNetworkError creates a network error
func NewNetworkError(cause error) *FetchError {
	return &FetchError{
		Type:      ErrorTypeNetwork,
		Retryable: true,
		Message:   "network request failed",
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

// NewValidationError creates a validation error
func NewValidationError(message string) *FetchError {
	return &FetchError{
		Type:      ErrorTypeValidation,
		Retryable: false,
		Message:   message,
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

// NewNoQuoteError records a provider answer that carried no usable quote
func NewNoQuoteError(message string) *FetchError {
	return &FetchError{
		Type:    ErrorTypeNoQuote,
		Message: message,
	}
}

// NewPanicError records a recovered adapter panic
func NewPanicError(recovered any) *FetchError {
	return &FetchError{
		Type:    ErrorTypePanic,
		Message: fmt.Sprintf("adapter panicked: %v", recovered),
	}
}

// ClassifyHTTPError classifies an HTTP status code into an appropriate FetchError
func ClassifyHTTPError(statusCode int) *FetchError {
	switch {
	case statusCode == http.StatusTooManyRequests:
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

// ClassifyRequestError wraps an error returned by the HTTP client before any
// response was received.
func ClassifyRequestError(err error) *FetchError {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(err)
	}
	return NewNetworkError(err)
}
