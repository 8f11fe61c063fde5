package repository

import (
	"context"
	"time"

	"github.com/adatechschool/MBB/services/session/internal/domain"
)

// SessionRepository defines the interface for session persistence.
type SessionRepository interface {
	// Create inserts a new session row.
	Create(ctx context.Context, session *domain.Session) error

	// GetByTokenHash retrieves the session keyed by the given token hash.
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error)

	// ListByUserID retrieves the user's sessions still live at the given time.
	// Rotated-away and deleted rows are naturally absent because rotation
	// updates in place.
	ListByUserID(ctx context.Context, userID string, now time.Time) ([]domain.Session, error)

	// Rotate atomically re-keys a session from the old token hash to the new
	// one and extends its expiry. Exactly one concurrent caller can win; the
	// losers see a not-found error because the old hash no longer matches.
	Rotate(ctx context.Context, oldHash, newHash string, expiresAt time.Time) (*domain.Session, error)

	// DeleteByTokenHash removes the session keyed by the given token hash.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error

	// DeleteByID removes the session with the given ID if it belongs to the
	// given user.
	DeleteByID(ctx context.Context, sessionID, userID string) error

	// DeleteExpired removes all sessions past their expiry, returning the
	// number of rows deleted.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
