package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	err := NotFound("user", "u-1")

	assert.Contains(t, err.Error(), "NOT_FOUND")
	assert.Contains(t, err.Error(), "u-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConstructors_Status(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		status int
	}{
		{"not found", NotFound("user", "u-1"), http.StatusNotFound},
		{"already exists", AlreadyExists("user", "email", "a@b.c"), http.StatusConflict},
		{"invalid input", InvalidInput("bad"), http.StatusBadRequest},
		{"unauthorized", Unauthorized("nope"), http.StatusUnauthorized},
		{"forbidden", Forbidden("nope"), http.StatusForbidden},
		{"internal", Internal(errors.New("boom")), http.StatusInternalServerError},
		{"unavailable", Unavailable("down"), http.StatusServiceUnavailable},
		{"token expired", TokenExpired(), http.StatusUnauthorized},
		{"token invalid", TokenInvalid(), http.StatusUnauthorized},
		{"token revoked", TokenRevoked(), http.StatusUnauthorized},
		{"token blacklist", TokenBlacklist("cannot blacklist"), http.StatusBadRequest},
		{"session not found", SessionNotFound(), http.StatusUnauthorized},
		{"session create", SessionCreateError(errors.New("boom")), http.StatusBadRequest},
		{"session refresh", SessionRefreshError(errors.New("boom")), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestHTTPStatus_Sentinels(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrNotFound))
	assert.Equal(t, http.StatusConflict, HTTPStatus(ErrAlreadyExists))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrInvalidInput))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(ErrTokenExpired))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(ErrTokenRevoked))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(ErrServiceUnavail))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("unknown")))
}

func TestHTTPStatus_WrappedSentinel(t *testing.T) {
	err := fmt.Errorf("get user: %w", ErrNotFound)
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
}

func TestWrap(t *testing.T) {
	base := ErrInvalidInput
	wrapped := Wrap(base, "parsing request")

	assert.ErrorIs(t, wrapped, ErrInvalidInput)
	assert.Contains(t, wrapped.Error(), "parsing request")
}
