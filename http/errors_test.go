package http

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTypeFormatting(t *testing.T) {
	tests := []struct {
		name     string
		err      ClientError
		wantType ErrorType
		contains string
	}{
		{
			name:     "configuration with field",
			err:      NewConfigurationError("backoff base must be positive", "retryPolicyConfiguration"),
			wantType: ConfigurationError,
			contains: "field: retryPolicyConfiguration",
		},
		{
			name:     "transport wraps cause",
			err:      NewTransportError("request execution failed", assert.AnError),
			wantType: TransportError,
			contains: assert.AnError.Error(),
		},
		{
			name:     "http carries status",
			err:      NewHTTPError("request failed", &Response{StatusCode: 502}),
			wantType: HTTPError,
			contains: "status: 502",
		},
		{
			name:     "not found names the key",
			err:      NewNotFoundError("session", "https://example.com"),
			wantType: NotFoundError,
			contains: "https://example.com",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type())
			assert.Contains(t, tt.err.Error(), tt.contains)
			assert.True(t, IsErrorType(tt.err, tt.wantType))
		})
	}
}

func TestIsErrorTypeOnWrappedAndForeignErrors(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewTransportError("inner", nil))
	assert.True(t, IsErrorType(wrapped, TransportError))
	assert.False(t, IsErrorType(wrapped, HTTPError))

	assert.False(t, IsErrorType(assert.AnError, TransportError))
	assert.False(t, IsErrorType(nil, TransportError))
}

func TestErrorResponseExtraction(t *testing.T) {
	resp := &Response{StatusCode: 404, Body: []byte("missing")}
	err := NewHTTPError("request failed", resp)

	assert.Same(t, resp, ErrorResponse(err))
	assert.Nil(t, ErrorResponse(assert.AnError))
	assert.Nil(t, ErrorResponse(nil))
}

func TestIsSuccessStatus(t *testing.T) {
	assert.False(t, IsSuccessStatus(199))
	assert.True(t, IsSuccessStatus(200))
	assert.True(t, IsSuccessStatus(302))
	assert.True(t, IsSuccessStatus(399))
	assert.False(t, IsSuccessStatus(400))
	assert.False(t, IsSuccessStatus(503))
}
