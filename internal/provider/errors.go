package provider

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common provider failures.
var (
	// Context/Token errors
	ErrContextLengthExceeded = errors.New("context length exceeded")

	// Safety/Content errors
	ErrContentBlocked = errors.New("content blocked by safety filters")

	// Rate limiting errors
	ErrRateLimit = errors.New("rate limit exceeded")

	// Authentication errors
	ErrAuthentication = errors.New("authentication failed")

	// Network errors
	ErrNetwork            = errors.New("network error")
	ErrTimeout            = errors.New("request timeout")
	ErrServiceUnavailable = errors.New("service unavailable")

	// Request/response errors
	ErrInvalidRequest    = errors.New("invalid request")
	ErrMalformedResponse = errors.New("malformed response")
)

// ErrorCode represents a provider error code.
type ErrorCode string

const (
	ErrorCodeContextLength     ErrorCode = "context_length_exceeded"
	ErrorCodeContentBlocked    ErrorCode = "content_blocked"
	ErrorCodeRateLimit         ErrorCode = "rate_limit"
	ErrorCodeAuth              ErrorCode = "authentication_failed"
	ErrorCodeNetwork           ErrorCode = "network_error"
	ErrorCodeTimeout           ErrorCode = "timeout"
	ErrorCodeUnavailable       ErrorCode = "service_unavailable"
	ErrorCodeInvalidRequest    ErrorCode = "invalid_request"
	ErrorCodeMalformedResponse ErrorCode = "malformed_response"
)

var codeSentinels = map[ErrorCode]error{
	ErrorCodeContextLength:     ErrContextLengthExceeded,
	ErrorCodeContentBlocked:    ErrContentBlocked,
	ErrorCodeRateLimit:         ErrRateLimit,
	ErrorCodeAuth:              ErrAuthentication,
	ErrorCodeNetwork:           ErrNetwork,
	ErrorCodeTimeout:           ErrTimeout,
	ErrorCodeUnavailable:       ErrServiceUnavailable,
	ErrorCodeInvalidRequest:    ErrInvalidRequest,
	ErrorCodeMalformedResponse: ErrMalformedResponse,
}

// Error wraps provider failures with a code and retry hint.
type Error struct {
	Code       ErrorCode
	Message    string
	Underlying error
	Retryable  bool
	RetryAfter *time.Duration
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is matches the sentinel for the error's code.
func (e *Error) Is(target error) bool {
	s, ok := codeSentinels[e.Code]
	return ok && s == target
}

// IsRetryable returns true if the error is retryable.
func IsRetryable(err error) bool {
	var providerErr *Error
	if errors.As(err, &providerErr) {
		return providerErr.Retryable
	}
	return false
}

// GetRetryAfter returns the retry-after duration if present.
func GetRetryAfter(err error) *time.Duration {
	var providerErr *Error
	if errors.As(err, &providerErr) {
		return providerErr.RetryAfter
	}
	return nil
}

// FromHTTPStatus classifies an HTTP status code returned by a provider API.
func FromHTTPStatus(status int, message string, underlying error) *Error {
	switch {
	case status == 401 || status == 403:
		return &Error{Code: ErrorCodeAuth, Message: "authentication failed", Underlying: underlying}
	case status == 408:
		return &Error{Code: ErrorCodeTimeout, Message: "request timed out", Underlying: underlying, Retryable: true}
	case status == 429:
		return &Error{Code: ErrorCodeRateLimit, Message: "rate limit exceeded", Underlying: underlying, Retryable: true}
	case status == 400 || status == 404 || status == 422:
		return &Error{Code: ErrorCodeInvalidRequest, Message: fmt.Sprintf("invalid request: %s", message), Underlying: underlying}
	case status >= 500:
		return &Error{Code: ErrorCodeUnavailable, Message: "service unavailable", Underlying: underlying, Retryable: true}
	default:
		return &Error{Code: ErrorCodeNetwork, Message: fmt.Sprintf("API error: %s", message), Underlying: underlying, Retryable: true}
	}
}
