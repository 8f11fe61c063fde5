package http

import (
	"net/http"

	"github.com/adatechschool/MBB/pkg/middleware"
	"github.com/adatechschool/MBB/pkg/token"
)

// refreshTokenCookie is the cookie carrying the refresh token.
const refreshTokenCookie = "refresh_token"

// cookieWriter sets the rotated auth cookie pair after a refresh.
type cookieWriter struct {
	secure bool
}

// newCookieWriter creates a cookie writer for the given environment.
func newCookieWriter(environment string) *cookieWriter {
	return &cookieWriter{secure: environment != "development"}
}

// set writes both token cookies, each expiring with its token.
func (c *cookieWriter) set(w http.ResponseWriter, pair *token.Pair) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    pair.Access,
		Path:     "/",
		Expires:  pair.AccessExpiresAt,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    pair.Refresh,
		Path:     "/",
		Expires:  pair.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
