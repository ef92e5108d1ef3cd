// Package errors provides structured error handling with category-based
// recovery decisions and HTTP status mapping for the acceptor surface.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of error for metrics and recovery policy.
type ErrorType string

const (
	// TypeValidation indicates invalid input on the HTTP surface (HTTP 400)
	TypeValidation ErrorType = "validation"
	// TypeProtocol indicates a malformed or unknown wire frame; answered with
	// an error event, connection stays open
	TypeProtocol ErrorType = "protocol"
	// TypeTransport indicates a failed send or closed connection; recovered
	// by evicting that client only
	TypeTransport ErrorType = "transport"
	// TypeInternal indicates a server-side error (HTTP 500)
	TypeInternal ErrorType = "internal"
)

// Error represents a structured error with type, message, and context.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for this error type.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeValidation, TypeProtocol:
		return http.StatusBadRequest
	case TypeInternal, TypeTransport:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// ValidationError creates a new validation error (HTTP 400).
func ValidationError(message string) *Error {
	return &Error{
		Type:    TypeValidation,
		Message: message,
		Context: make(map[string]any),
	}
}

// ProtocolError creates an error for a bad inbound frame. The message is safe
// to echo back to the client in an error event.
func ProtocolError(message string, cause error) *Error {
	return &Error{
		Type:    TypeProtocol,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// TransportError creates an error for a failed send or closed connection.
func TransportError(message string, cause error) *Error {
	return &Error{
		Type:    TypeTransport,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// InternalError creates a new internal error (HTTP 500).
func InternalError(message string, cause error) *Error {
	return &Error{
		Type:    TypeInternal,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// WithContext adds context fields to the error (chainable).
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// AsStructuredError converts any error to a structured *Error, defaulting to
// the internal category.
func AsStructuredError(err error) *Error {
	var structured *Error
	if errors.As(err, &structured) {
		return structured
	}
	return InternalError(err.Error(), err)
}

// ErrorResponse represents the JSON structure sent to HTTP clients.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Type    ErrorType      `json:"type"`
	Context map[string]any `json:"context,omitempty"`
}

// ToResponse converts an Error to an ErrorResponse for JSON serialization.
func (e *Error) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error:   e.Message,
		Type:    e.Type,
		Context: e.Context,
	}
}
