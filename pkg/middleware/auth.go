package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKeyType string

const userIDKey contextKeyType = "user_id"

// AccessTokenCookie is the cookie the auth middleware falls back to when no
// Authorization header is present. Browser clients authenticate with this
// cookie; service-to-service calls use bearer tokens.
const AccessTokenCookie = "access_token"

// Claims represents the token claims extracted by the auth middleware.
type Claims struct {
	UserID string `json:"user_id"`
}

// TokenValidator is a function that validates an access token and returns claims.
// This allows each service to inject its own validation logic.
type TokenValidator func(token string) (*Claims, error)

// Auth middleware validates access tokens and injects user claims into context.
// It reads the token from the Authorization header first and falls back to the
// access_token cookie.
func Auth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := extractToken(r)
			if err != "" {
				writeAuthError(w, err)
				return
			}

			claims, verr := validate(raw)
			if verr != nil {
				writeAuthError(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken returns the raw token string, or a non-empty error message.
func extractToken(r *http.Request) (string, string) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return "", "invalid authorization header format"
		}
		return parts[1], ""
	}

	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value, ""
	}

	return "", "missing credentials"
}

// UserIDFromContext extracts the user ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    "UNAUTHORIZED",
		"message": message,
	})
}
