package generator

import (
	"fmt"
	"net/http"
	"time"
)

// APIError is a non-2xx response that is not an auth or rate-limit error.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("generator %q error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// Retryable reports whether the status is a server-side failure.
func (e *APIError) Retryable() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

// AuthError is returned when the API rejects the credentials.
type AuthError struct {
	Provider string
	Message  string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("generator %q authentication failed: %s", e.Provider, e.Message)
}

// Retryable is always false.
func (e *AuthError) Retryable() bool { return false }

// RateLimitError is returned on HTTP 429.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
	Message    string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("generator %q rate limit exceeded (retry after %s): %s",
			e.Provider, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("generator %q rate limit exceeded: %s", e.Provider, e.Message)
}

// Retryable is always true.
func (e *RateLimitError) Retryable() bool { return true }

// TimeoutError is returned when the request deadline passes.
type TimeoutError struct {
	Provider string
	Timeout  time.Duration
	Cause    error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("generator %q request timed out after %s", e.Provider, e.Timeout)
}

// Unwrap returns the context or transport error.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// Retryable is true for the client's own timeout and false when the
// caller's context ended.
func (e *TimeoutError) Retryable() bool { return e.Cause == nil }

// ParseError is returned when the response body cannot be decoded.
type ParseError struct {
	Provider    string
	RawResponse string
	Cause       error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("generator %q returned an unreadable response: %v", e.Provider, e.Cause)
}

// Unwrap returns the decoder error.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Retryable is always true.
func (e *ParseError) Retryable() bool { return true }

// ConfigError reports an unusable client configuration.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("generator config: %s: %s", e.Field, e.Message)
}
