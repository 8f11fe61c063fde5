package http

import (
	"net/http"

	"github.com/adatechschool/MBB/pkg/middleware"
	"github.com/adatechschool/MBB/pkg/token"
)

// refreshTokenCookie is the cookie carrying the refresh token. The access
// token cookie name is shared with the auth middleware.
const refreshTokenCookie = "refresh_token"

// cookieWriter sets and clears the auth cookie pair. Cookies are HttpOnly so
// scripts cannot read tokens; the Secure flag is dropped only in development
// where requests arrive over plain HTTP.
type cookieWriter struct {
	secure bool
}

// newCookieWriter creates a cookie writer for the given environment.
func newCookieWriter(environment string) *cookieWriter {
	return &cookieWriter{secure: environment != "development"}
}

// set writes both token cookies. Each cookie expires with its token so the
// browser stops sending stale credentials on its own.
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

// clear expires both token cookies.
func (c *cookieWriter) clear(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   c.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
