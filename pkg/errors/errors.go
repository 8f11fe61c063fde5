package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors for common cases.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrAlreadyExists  = errors.New("resource already exists")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInternal       = errors.New("internal error")
	ErrConflict       = errors.New("conflict")
	ErrServiceUnavail = errors.New("service unavailable")

	// Token lifecycle sentinels used by the auth and session services.
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenRevoked = errors.New("token revoked")
)

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// AlreadyExists creates a 409 error.
func AlreadyExists(resource, field, value string) *AppError {
	return &AppError{
		Code:    "ALREADY_EXISTS",
		Message: fmt.Sprintf("%s with %s %q already exists", resource, field, value),
		Status:  http.StatusConflict,
		Err:     ErrAlreadyExists,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     ErrForbidden,
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Unavailable creates a 503 error for an unreachable sibling service.
func Unavailable(message string) *AppError {
	return &AppError{
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
		Status:  http.StatusServiceUnavailable,
		Err:     ErrServiceUnavail,
	}
}

// TokenExpired creates a 401 error for a token past its expiry.
func TokenExpired() *AppError {
	return &AppError{
		Code:    "TOKEN_EXPIRED",
		Message: "token has expired",
		Status:  http.StatusUnauthorized,
		Err:     ErrTokenExpired,
	}
}

// TokenInvalid creates a 401 error for a malformed or badly signed token.
func TokenInvalid() *AppError {
	return &AppError{
		Code:    "TOKEN_INVALID",
		Message: "token is invalid",
		Status:  http.StatusUnauthorized,
		Err:     ErrTokenInvalid,
	}
}

// TokenRevoked creates a 401 error for a blacklisted token.
func TokenRevoked() *AppError {
	return &AppError{
		Code:    "TOKEN_REVOKED",
		Message: "token has been revoked",
		Status:  http.StatusUnauthorized,
		Err:     ErrTokenRevoked,
	}
}

// TokenBlacklist creates a 400 error for a refresh token that cannot be
// blacklisted during logout (invalid, expired, or already revoked).
func TokenBlacklist(message string) *AppError {
	return &AppError{
		Code:    "TOKEN_BLACKLIST_ERROR",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrTokenRevoked,
	}
}

// SessionNotFound creates a 401 error for a refresh request that presents a
// token with no matching live session. On the refresh path this is the replay
// signal, so it maps to 401 rather than 404.
func SessionNotFound() *AppError {
	return &AppError{
		Code:    "SESSION_NOT_FOUND",
		Message: "no matching session",
		Status:  http.StatusUnauthorized,
		Err:     ErrNotFound,
	}
}

// SessionCreateError creates a 400 error wrapping a session creation failure.
func SessionCreateError(err error) *AppError {
	return &AppError{
		Code:    "SESSION_CREATE_ERROR",
		Message: "could not create session",
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

// SessionRefreshError creates a 400 error wrapping a session rotation failure.
func SessionRefreshError(err error) *AppError {
	return &AppError{
		Code:    "SESSION_REFRESH_ERROR",
		Message: "could not refresh session",
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenInvalid), errors.Is(err, ErrTokenRevoked):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrServiceUnavail):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
