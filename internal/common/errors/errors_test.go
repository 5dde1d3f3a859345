package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationFailed, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeIdentityMismatch, http.StatusConflict},
		{ErrCodeAmbiguousMatch, http.StatusConflict},
		{ErrCodeRemoteRejected, http.StatusUnprocessableEntity},
		{ErrCodeUpstreamError, http.StatusBadGateway},
		{ErrCodeSessionUnavailable, http.StatusServiceUnavailable},
		{ErrCodeInternal, http.StatusInternalServerError},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Run("standard error passes through", func(t *testing.T) {
		orig := NewValidationError("bad input", "full_name")
		got := Normalize(orig)
		assert.Same(t, orig, got)
	})

	t.Run("wrapped standard error is unwrapped", func(t *testing.T) {
		orig := NewNotFoundError("missing")
		got := Normalize(fmt.Errorf("lookup: %w", orig))
		assert.Same(t, orig, got)
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		got := Normalize(stderrors.New("boom"))
		assert.Equal(t, ErrCodeInternal, got.Code)
		assert.Equal(t, "boom", got.Details)
	})
}

func TestUpstreamErrorUnwraps(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewUpstreamError("salesforce", cause)

	require.ErrorIs(t, err, cause)
	assert.True(t, err.Retryable)
	assert.True(t, HasCode(err, ErrCodeUpstreamError))
	assert.False(t, HasCode(err, ErrCodeNotFound))
	assert.Contains(t, err.Error(), "salesforce")
}

func TestWithMetadata(t *testing.T) {
	err := NewValidationError("invalid picklist value", "CallType__c").
		WithMetadata(map[string]interface{}{"provided_value": "Outbound"})

	assert.Equal(t, "Outbound", err.Metadata["provided_value"])
}

func TestNewMismatchError(t *testing.T) {
	err := NewMismatchError("Contact found but dob did not match")

	assert.Equal(t, ErrCodeIdentityMismatch, err.Code)
	assert.Equal(t, http.StatusConflict, HTTPStatus(err.Code))
	assert.False(t, err.Retryable)
	assert.Empty(t, err.Details)
}
