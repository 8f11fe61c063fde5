package domain

import "time"

// Session is a live login session. The refresh token itself is never stored;
// the row is keyed by the token's SHA-256 digest.
type Session struct {
	ID        string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	TokenHash string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the session's lifetime has passed at the given time.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
