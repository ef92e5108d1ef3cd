package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("connection reset")
	err := TransportError("send failed", cause)

	assert.Equal(t, "transport: send failed: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestErrorWithoutCause(t *testing.T) {
	err := ValidationError("missing field")
	assert.Equal(t, "validation: missing field", err.Error())
	assert.Nil(t, err.Unwrap())
}

func TestHTTPStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, ValidationError("bad").HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, ProtocolError("bad frame", nil).HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, TransportError("send", nil).HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, InternalError("boom", nil).HTTPStatus())
}

func TestWithContext(t *testing.T) {
	err := ProtocolError("unknown frame", nil).
		WithContext("frame_type", "frobnicate").
		WithContext("remote_addr", "10.0.0.1")

	assert.Equal(t, "frobnicate", err.Context["frame_type"])
	assert.Equal(t, "10.0.0.1", err.Context["remote_addr"])
}

func TestAsStructuredErrorPassesThrough(t *testing.T) {
	original := ProtocolError("bad frame", nil)
	wrapped := fmt.Errorf("while reading: %w", original)

	structured := AsStructuredError(wrapped)
	assert.Same(t, original, structured)
}

func TestAsStructuredErrorWrapsPlainErrors(t *testing.T) {
	plain := errors.New("something broke")

	structured := AsStructuredError(plain)
	require.NotNil(t, structured)
	assert.Equal(t, TypeInternal, structured.Type)
	assert.ErrorIs(t, structured, plain)
}

func TestToResponse(t *testing.T) {
	err := ValidationError("missing field").WithContext("field", "name")

	resp := err.ToResponse()
	assert.Equal(t, "missing field", resp.Error)
	assert.Equal(t, TypeValidation, resp.Type)
	assert.Equal(t, "name", resp.Context["field"])
}
