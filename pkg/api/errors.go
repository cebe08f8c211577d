package api

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrInvalidServiceKey is returned when the gateway answers with an XML
	// error page instead of JSON, which it does for bad or missing keys.
	ErrInvalidServiceKey = errors.New("api: invalid or missing service key")
)

// ErrorClass represents a classification of API failures.
type ErrorClass string

const (
	// ErrorClassAuth represents an invalid or missing service key.
	ErrorClassAuth ErrorClass = "auth"

	// ErrorClassTransport represents network, timeout, and HTTP-level errors.
	ErrorClassTransport ErrorClass = "transport"

	// ErrorClassProtocol represents an unexpected in-band result code.
	ErrorClassProtocol ErrorClass = "protocol"

	// ErrorClassRateLimit represents the in-band rate limit result code "22".
	ErrorClassRateLimit ErrorClass = "rate_limit"
)

// APIError represents a failed page fetch with additional context.
type APIError struct {
	Class      ErrorClass
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("api %s error: %s: %v", e.Class, e.Message, e.Err)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("api %s error (status %d): %s", e.Class, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api %s error: %s", e.Class, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// ClassOf returns the error class of err. Failures that carry no explicit
// class (decode errors, wrapped stdlib errors) count as transport errors so
// the download loop's generic retry path applies.
func ClassOf(err error) ErrorClass {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Class
	}
	return ErrorClassTransport
}
