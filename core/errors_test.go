package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	assert.False(t, IsNotFoundError(nil))
	assert.True(t, IsNotFoundError(ErrNotFound))
	assert.True(t, IsNotFoundError(fmt.Errorf("failed to get mapping: %w", ErrNotFound)))
	assert.True(t, IsNotFoundError(fmt.Errorf("wrapped: %w", &UserNotFoundError{Identifier: "a@b.c"})))
	assert.False(t, IsNotFoundError(errors.New("boom")))
}

func TestAPIError_StatusSentinel(t *testing.T) {
	assert.ErrorIs(t, (&APIError{Status: http.StatusNotFound}).StatusSentinel(), ErrProjectNotFound)
	assert.ErrorIs(t, (&APIError{Status: http.StatusForbidden}).StatusSentinel(), ErrPermissionDenied)
	assert.ErrorIs(t, (&APIError{Status: http.StatusUnauthorized}).StatusSentinel(), ErrAuthenticationFailed)
	assert.Nil(t, (&APIError{Status: http.StatusBadRequest}).StatusSentinel())
}

func TestAPIError_IsCustomFieldError(t *testing.T) {
	assert.True(t, (&APIError{Message: "customfield_10050: Field cannot be set"}).IsCustomFieldError())
	assert.False(t, (&APIError{Message: "summary: required"}).IsCustomFieldError())
}

func TestTransportError_Unwrap(t *testing.T) {
	inner := errors.New("dial tcp: no such host")
	err := fmt.Errorf("failed to search users: %w", &TransportError{Method: "GET", URL: "https://x", Err: inner})

	var transportErr *TransportError
	assert.True(t, errors.As(err, &transportErr))
	assert.ErrorIs(t, err, inner)
}
