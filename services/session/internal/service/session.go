package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/adatechschool/MBB/pkg/errors"
	"github.com/adatechschool/MBB/pkg/token"
	"github.com/adatechschool/MBB/services/session/internal/domain"
	"github.com/adatechschool/MBB/services/session/internal/event"
	"github.com/adatechschool/MBB/services/session/internal/repository"
)

// SessionService implements session creation, lookup, rotation, and cleanup.
type SessionService struct {
	repo     repository.SessionRepository
	issuer   *token.Issuer
	producer *event.Producer
	logger   *slog.Logger
	now      func() time.Time
}

// NewSessionService creates a new session service.
func NewSessionService(
	repo repository.SessionRepository,
	issuer *token.Issuer,
	producer *event.Producer,
	logger *slog.Logger,
) *SessionService {
	return &SessionService{
		repo:     repo,
		issuer:   issuer,
		producer: producer,
		logger:   logger,
		now:      time.Now,
	}
}

// Create opens a new session for the presented refresh token. The session's
// owner and expiry come from the token's own claims, never from the caller,
// so a session cannot outlive the token it represents.
func (s *SessionService) Create(ctx context.Context, refreshRaw string) (*domain.Session, error) {
	claims, err := s.issuer.Verify(ctx, refreshRaw, token.KindRefresh)
	if err != nil {
		return nil, apperrors.SessionCreateError(err)
	}

	session := &domain.Session{
		ID:        uuid.New().String(),
		UserID:    claims.UserID,
		TokenHash: token.Hash(refreshRaw),
		CreatedAt: s.now().UTC(),
		ExpiresAt: claims.ExpiresAt.Time,
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, apperrors.SessionCreateError(err)
	}

	// Publish session event (non-blocking on failure).
	if err := s.producer.PublishSessionCreated(ctx, session); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish session.created event",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "session created",
		slog.String("session_id", session.ID),
		slog.String("user_id", session.UserID),
	)

	return session, nil
}

// List returns the user's live sessions. Expired rows are filtered at the
// query level and left for the sweeper to collect.
func (s *SessionService) List(ctx context.Context, userID string) ([]domain.Session, error) {
	sessions, err := s.repo.ListByUserID(ctx, userID, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return sessions, nil
}

// Refresh exchanges a valid refresh token for a new token pair and atomically
// re-keys the session to the new refresh token. The old token's jti is
// revoked so it cannot be replayed even before its natural expiry.
func (s *SessionService) Refresh(ctx context.Context, refreshRaw string) (*domain.Session, *token.Pair, error) {
	oldHash := token.Hash(refreshRaw)

	session, err := s.repo.GetByTokenHash(ctx, oldHash)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, apperrors.SessionNotFound()
		}
		return nil, nil, fmt.Errorf("get session: %w", err)
	}

	if session.Expired(s.now().UTC()) {
		s.expire(ctx, session)
		return nil, nil, apperrors.TokenExpired()
	}

	claims, err := s.issuer.Verify(ctx, refreshRaw, token.KindRefresh)
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.issuer.Issue(session.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("issue tokens: %w", err)
	}

	rotated, err := s.repo.Rotate(ctx, oldHash, token.Hash(pair.Refresh), pair.RefreshExpiresAt)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// A concurrent refresh won the rotation race.
			return nil, nil, apperrors.SessionNotFound()
		}
		return nil, nil, apperrors.SessionRefreshError(err)
	}

	if err := s.issuer.Revoke(ctx, claims); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke rotated refresh token",
			slog.String("session_id", rotated.ID),
			slog.String("error", err.Error()),
		)
	}

	// Publish session event (non-blocking on failure).
	if err := s.producer.PublishSessionRefreshed(ctx, rotated); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish session.refreshed event",
			slog.String("session_id", rotated.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "session refreshed",
		slog.String("session_id", rotated.ID),
		slog.String("user_id", rotated.UserID),
	)

	return rotated, pair, nil
}

// DeleteByHash removes the session keyed by the given token hash. Deleting a
// session that is already gone is not an error.
func (s *SessionService) DeleteByHash(ctx context.Context, tokenHash string) error {
	if tokenHash == "" {
		return apperrors.InvalidInput("token_hash is required")
	}

	if err := s.repo.DeleteByTokenHash(ctx, tokenHash); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("delete session: %w", err)
	}

	s.logger.InfoContext(ctx, "session deleted")

	return nil
}

// Delete removes one of the user's sessions by ID. Deleting a session that
// is already gone, or that belongs to someone else, is not an error.
func (s *SessionService) Delete(ctx context.Context, sessionID, userID string) error {
	if err := s.repo.DeleteByID(ctx, sessionID, userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("delete session by id: %w", err)
	}

	s.logger.InfoContext(ctx, "session deleted",
		slog.String("session_id", sessionID),
		slog.String("user_id", userID),
	)

	return nil
}

// SweepExpired removes all sessions past their expiry.
func (s *SessionService) SweepExpired(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("sweep expired sessions: %w", err)
	}

	if deleted > 0 {
		s.logger.InfoContext(ctx, "expired sessions swept",
			slog.Int64("deleted", deleted),
		)
	}

	return deleted, nil
}

// expire deletes a session found past its expiry.
func (s *SessionService) expire(ctx context.Context, session *domain.Session) {
	if err := s.repo.DeleteByTokenHash(ctx, session.TokenHash); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		s.logger.ErrorContext(ctx, "failed to delete expired session",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
	}
}
