package http

import (
	"errors"
	"fmt"
)

// ClientError represents the typed errors surfaced by this package.
type ClientError interface {
	error
	Type() ErrorType
}

// ErrorType defines the category of client error
type ErrorType string

const (
	// ConfigurationError marks invalid session or request configuration,
	// surfaced synchronously at creation time and never retried.
	ConfigurationError ErrorType = "configuration"
	// TransportError marks network-level failures, retryable per policy.
	TransportError ErrorType = "transport"
	// HTTPError marks a non-success status after retry exhaustion; it carries
	// the full final response.
	HTTPError ErrorType = "http"
	// NotFoundError marks an operation referencing an unregistered session.
	NotFoundError ErrorType = "not_found"
)

type configurationError struct {
	message string
	field   string
}

func (e *configurationError) Error() string {
	if e.field != "" {
		return fmt.Sprintf("configuration error: %s (field: %s)", e.message, e.field)
	}
	return fmt.Sprintf("configuration error: %s", e.message)
}

func (e *configurationError) Type() ErrorType {
	return ConfigurationError
}

type transportError struct {
	message string
	wrapped error
}

func (e *transportError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("transport error: %s: %v", e.message, e.wrapped)
	}
	return fmt.Sprintf("transport error: %s", e.message)
}

func (e *transportError) Type() ErrorType {
	return TransportError
}

func (e *transportError) Unwrap() error {
	return e.wrapped
}

type httpError struct {
	message  string
	response *Response
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP error: %s (status: %d)", e.message, e.response.StatusCode)
}

func (e *httpError) Type() ErrorType {
	return HTTPError
}

// Response returns the full final response so callers can inspect the body
// and headers of an error reply.
func (e *httpError) Response() *Response {
	return e.response
}

type notFoundError struct {
	kind string
	key  string
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.key)
}

func (e *notFoundError) Type() ErrorType {
	return NotFoundError
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(message, field string) ClientError {
	return &configurationError{message: message, field: field}
}

// NewTransportError creates a new transport error
func NewTransportError(message string, wrapped error) ClientError {
	return &transportError{message: message, wrapped: wrapped}
}

// NewHTTPError creates a new HTTP error carrying the final response
func NewHTTPError(message string, response *Response) ClientError {
	return &httpError{message: message, response: response}
}

// NewNotFoundError creates a new not-found error
func NewNotFoundError(kind, key string) ClientError {
	return &notFoundError{kind: kind, key: key}
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errorType ErrorType) bool {
	if err == nil {
		return false
	}
	var clientErr ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type() == errorType
	}
	return false
}

// ErrorResponse extracts the response carried by an HTTPError, or nil.
func ErrorResponse(err error) *Response {
	var httpErr *httpError
	if errors.As(err, &httpErr) {
		return httpErr.response
	}
	return nil
}

// IsSuccessStatus checks if a status code represents success (200-399):
// redirect statuses count as success once the final response is in hand.
func IsSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 400
}
