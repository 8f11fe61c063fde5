package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/adatechschool/MBB/pkg/database"
	apperrors "github.com/adatechschool/MBB/pkg/errors"
	"github.com/adatechschool/MBB/services/session/internal/domain"
)

// SessionRepository implements repository.SessionRepository using PostgreSQL.
type SessionRepository struct {
	pool database.DBTX
}

// NewSessionRepository creates a new PostgreSQL-backed session repository.
func NewSessionRepository(pool database.DBTX) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create inserts a new session row.
func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	query := `
		INSERT INTO sessions (session_id, user_id, token_hash, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)`

	ctx, done := database.TraceQuery(ctx, "CreateSession", query)
	_, err := r.pool.Exec(ctx, query, s.ID, s.UserID, s.TokenHash, s.CreatedAt, s.ExpiresAt)
	done(err)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("session", "token_hash", s.TokenHash)
		}
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// GetByTokenHash retrieves the session keyed by the given token hash.
func (r *SessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	query := `
		SELECT session_id, user_id, token_hash, created_at, expires_at
		FROM sessions
		WHERE token_hash = $1`

	var s domain.Session

	ctx, done := database.TraceQuery(ctx, "GetSession", query)
	err := r.pool.QueryRow(ctx, query, tokenHash).Scan(
		&s.ID,
		&s.UserID,
		&s.TokenHash,
		&s.CreatedAt,
		&s.ExpiresAt,
	)
	done(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	return &s, nil
}

// ListByUserID retrieves the user's sessions still live at the given time.
func (r *SessionRepository) ListByUserID(ctx context.Context, userID string, now time.Time) ([]domain.Session, error) {
	query := `
		SELECT session_id, user_id, token_hash, created_at, expires_at
		FROM sessions
		WHERE user_id = $1 AND expires_at > $2
		ORDER BY created_at`

	ctx, done := database.TraceQuery(ctx, "ListSessions", query)
	rows, err := r.pool.Query(ctx, query, userID, now)
	if err != nil {
		done(err)
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.TokenHash, &s.CreatedAt, &s.ExpiresAt); err != nil {
			done(err)
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	done(rows.Err())
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

// Rotate re-keys a session in a single UPDATE so that only one concurrent
// refresh with the same old token can succeed.
func (r *SessionRepository) Rotate(ctx context.Context, oldHash, newHash string, expiresAt time.Time) (*domain.Session, error) {
	query := `
		UPDATE sessions
		SET token_hash = $2, expires_at = $3
		WHERE token_hash = $1
		RETURNING session_id, user_id, token_hash, created_at, expires_at`

	var s domain.Session

	ctx, done := database.TraceQuery(ctx, "RotateSession", query)
	err := r.pool.QueryRow(ctx, query, oldHash, newHash, expiresAt).Scan(
		&s.ID,
		&s.UserID,
		&s.TokenHash,
		&s.CreatedAt,
		&s.ExpiresAt,
	)
	done(err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("rotate session: %w", err)
	}

	return &s, nil
}

// DeleteByTokenHash removes the session keyed by the given token hash.
func (r *SessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	query := `DELETE FROM sessions WHERE token_hash = $1`

	ctx, done := database.TraceQuery(ctx, "DeleteSession", query)
	ct, err := r.pool.Exec(ctx, query, tokenHash)
	done(err)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// DeleteByID removes the session with the given ID if it belongs to the user.
func (r *SessionRepository) DeleteByID(ctx context.Context, sessionID, userID string) error {
	query := `DELETE FROM sessions WHERE session_id = $1 AND user_id = $2`

	ctx, done := database.TraceQuery(ctx, "DeleteSessionByID", query)
	ct, err := r.pool.Exec(ctx, query, sessionID, userID)
	done(err)
	if err != nil {
		return fmt.Errorf("delete session by id: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

// DeleteExpired removes all sessions past their expiry.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at < $1`

	ctx, done := database.TraceQuery(ctx, "DeleteExpiredSessions", query)
	ct, err := r.pool.Exec(ctx, query, now)
	done(err)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}

	return ct.RowsAffected(), nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
