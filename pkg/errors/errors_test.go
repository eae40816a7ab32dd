package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  *AppError
		want int
	}{
		{NotFound("provider", nil), http.StatusNotFound},
		{BadRequest("invalid service type", nil), http.StatusBadRequest},
		{Unauthorized("", nil), http.StatusUnauthorized},
		{Forbidden("not your patient", nil), http.StatusForbidden},
		{Conflict("username already taken", nil), http.StatusConflict},
		{Internal(errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.err.StatusCode(), tc.err.Message)
	}
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "provider not found", NotFound("provider", nil).Error())
	assert.Equal(t, "unauthorized", Unauthorized("", nil).Error())

	wrapped := BadRequest("invalid date", errors.New("parse failed"))
	assert.Equal(t, "invalid date: parse failed", wrapped.Error())
	assert.Equal(t, "parse failed", wrapped.Unwrap().Error())
}

func TestAsUnwrapsThroughWrapping(t *testing.T) {
	base := Conflict("username already taken", nil)
	wrapped := fmt.Errorf("booking failed: %w", base)

	appErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrConflict, appErr.Code)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
	_, ok = As(nil)
	assert.False(t, ok)
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("outer: %w", NotFound("user", nil))
	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrConflict))
	assert.False(t, Is(errors.New("plain"), ErrNotFound))
	assert.False(t, Is(nil, ErrNotFound))
}
