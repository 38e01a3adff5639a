package ws

import (
	"errors"
	"fmt"
)

// ClientError represents the typed errors surfaced by this package.
type ClientError interface {
	error
	Type() ErrorType
}

// ErrorType defines the category of WebSocket client error
type ErrorType string

const (
	// SendError marks a send attempted while the connection is not Open.
	// The connection state is unaffected.
	SendError ErrorType = "send"
	// NotFoundError marks an operation referencing an unknown URL key.
	NotFoundError ErrorType = "not_found"
	// ConfigurationError marks an invalid URL or dial configuration.
	ConfigurationError ErrorType = "configuration"
)

type sendError struct {
	state State
}

func (e *sendError) Error() string {
	return fmt.Sprintf("send is only valid while open (state: %s)", e.state)
}

func (e *sendError) Type() ErrorType {
	return SendError
}

// State returns the connection state at the time of the rejected send.
func (e *sendError) State() State {
	return e.state
}

type notFoundError struct {
	key string
}

func (e *notFoundError) Error() string {
	return fmt.Sprintf("websocket not found: %s", e.key)
}

func (e *notFoundError) Type() ErrorType {
	return NotFoundError
}

type configurationError struct {
	message string
}

func (e *configurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.message)
}

func (e *configurationError) Type() ErrorType {
	return ConfigurationError
}

// NewSendError creates a new send error for the given state
func NewSendError(state State) ClientError {
	return &sendError{state: state}
}

// NewNotFoundError creates a new not-found error
func NewNotFoundError(key string) ClientError {
	return &notFoundError{key: key}
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(message string) ClientError {
	return &configurationError{message: message}
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
