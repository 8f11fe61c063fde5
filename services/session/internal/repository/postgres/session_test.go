package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/adatechschool/MBB/pkg/errors"
	"github.com/adatechschool/MBB/services/session/internal/domain"
)

func newSessionTestFixture(t *testing.T) (*SessionRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewSessionRepository(mock)
	return repo, mock
}

func sampleSession() *domain.Session {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Session{
		ID:        "7c9a4b2d-0f6e-4c1a-b5d8-3e2f1a0c9b8d",
		UserID:    "2f1b8c1e-7c64-4f45-a2a8-9f3a1d2b5c77",
		TokenHash: "aaaa1111bbbb2222cccc3333dddd4444aaaa1111bbbb2222cccc3333dddd4444",
		CreatedAt: now,
		ExpiresAt: now.Add(7 * 24 * time.Hour),
	}
}

func sessionRow(s *domain.Session) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"session_id", "user_id", "token_hash", "created_at", "expires_at",
	}).AddRow(
		s.ID, s.UserID, s.TokenHash, s.CreatedAt, s.ExpiresAt,
	)
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestSessionRepository_Create_Success(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	s := sampleSession()

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(s.ID, s.UserID, s.TokenHash, s.CreatedAt, s.ExpiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), s)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Create_DuplicateHash(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	s := sampleSession()

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(s.ID, s.UserID, s.TokenHash, s.CreatedAt, s.ExpiresAt).
		WillReturnError(fmt.Errorf(`ERROR: duplicate key value violates unique constraint "sessions_token_hash_key" (SQLSTATE 23505)`))

	err := repo.Create(context.Background(), s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists), "expected ErrAlreadyExists, got: %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// GetByTokenHash
// ---------------------------------------------------------------------------

func TestSessionRepository_GetByTokenHash_Success(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	s := sampleSession()

	mock.ExpectQuery("SELECT .+ FROM sessions WHERE token_hash =").
		WithArgs(s.TokenHash).
		WillReturnRows(sessionRow(s))

	got, err := repo.GetByTokenHash(context.Background(), s.TokenHash)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, s.UserID, got.UserID)
	assert.Equal(t, s.ExpiresAt, got.ExpiresAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_GetByTokenHash_NotFound(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM sessions WHERE token_hash =").
		WithArgs("unknown-hash").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetByTokenHash(context.Background(), "unknown-hash")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound), "expected ErrNotFound, got: %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// ListByUserID
// ---------------------------------------------------------------------------

func TestSessionRepository_ListByUserID_Success(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	s := sampleSession()
	other := *s
	other.ID = "0d3f6a9c-2b5e-4810-9c7f-1e4a7d0b3f6a"
	other.TokenHash = "bbbb2222cccc3333dddd4444eeee5555bbbb2222cccc3333dddd4444eeee5555"

	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM sessions WHERE user_id =").
		WithArgs(s.UserID, now).
		WillReturnRows(sessionRow(s).AddRow(
			other.ID, other.UserID, other.TokenHash, other.CreatedAt, other.ExpiresAt,
		))

	got, err := repo.ListByUserID(context.Background(), s.UserID, now)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, s.ID, got[0].ID)
	assert.Equal(t, other.ID, got[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_ListByUserID_Empty(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM sessions WHERE user_id =").
		WithArgs("no-sessions-user", now).
		WillReturnRows(pgxmock.NewRows([]string{
			"session_id", "user_id", "token_hash", "created_at", "expires_at",
		}))

	got, err := repo.ListByUserID(context.Background(), "no-sessions-user", now)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Rotate
// ---------------------------------------------------------------------------

func TestSessionRepository_Rotate_Success(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	s := sampleSession()
	oldHash := s.TokenHash
	newHash := "ffff5555eeee6666dddd7777cccc8888ffff5555eeee6666dddd7777cccc8888"
	newExpiry := s.ExpiresAt.Add(24 * time.Hour)

	rotated := *s
	rotated.TokenHash = newHash
	rotated.ExpiresAt = newExpiry

	mock.ExpectQuery("UPDATE sessions SET token_hash =").
		WithArgs(oldHash, newHash, newExpiry).
		WillReturnRows(sessionRow(&rotated))

	got, err := repo.Rotate(context.Background(), oldHash, newHash, newExpiry)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID, "rotation keeps the session identity")
	assert.Equal(t, newHash, got.TokenHash)
	assert.Equal(t, newExpiry, got.ExpiresAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Rotate_OldHashGone(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("UPDATE sessions SET token_hash =").
		WithArgs("stale-hash", "new-hash", pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.Rotate(context.Background(), "stale-hash", "new-hash", time.Now().UTC())
	assert.Nil(t, got)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound), "expected ErrNotFound, got: %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// DeleteByTokenHash
// ---------------------------------------------------------------------------

func TestSessionRepository_DeleteByTokenHash_Success(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM sessions WHERE token_hash =").
		WithArgs("some-hash").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := repo.DeleteByTokenHash(context.Background(), "some-hash")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_DeleteByTokenHash_NotFound(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM sessions WHERE token_hash =").
		WithArgs("unknown-hash").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.DeleteByTokenHash(context.Background(), "unknown-hash")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// DeleteByID
// ---------------------------------------------------------------------------

func TestSessionRepository_DeleteByID_Success(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	s := sampleSession()

	mock.ExpectExec("DELETE FROM sessions WHERE session_id =").
		WithArgs(s.ID, s.UserID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := repo.DeleteByID(context.Background(), s.ID, s.UserID)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_DeleteByID_WrongOwner(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	s := sampleSession()

	mock.ExpectExec("DELETE FROM sessions WHERE session_id =").
		WithArgs(s.ID, "someone-else").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.DeleteByID(context.Background(), s.ID, "someone-else")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// DeleteExpired
// ---------------------------------------------------------------------------

func TestSessionRepository_DeleteExpired(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	now := time.Now().UTC()

	mock.ExpectExec("DELETE FROM sessions WHERE expires_at <").
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	removed, err := repo.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
