package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/adatechschool/MBB/pkg/errors"
	"github.com/adatechschool/MBB/services/account/internal/domain"
)

func newAccountTestFixture(t *testing.T) (*AccountRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewAccountRepository(mock)
	return repo, mock
}

func sampleAccount() *domain.Account {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Account{
		UserID:    "2f1b8c1e-7c64-4f45-a2a8-9f3a1d2b5c77",
		Username:  "alice",
		Email:     "alice@example.com",
		AboutMe:   "Hello there.",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func accountRow(a *domain.Account) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"user_id", "username", "email", "about_me", "last_seen", "created_at", "updated_at",
	}).AddRow(
		a.UserID, a.Username, a.Email, a.AboutMe, a.LastSeen, a.CreatedAt, a.UpdatedAt,
	)
}

// ---------------------------------------------------------------------------
// CreateIfAbsent
// ---------------------------------------------------------------------------

func TestAccountRepository_CreateIfAbsent_Inserted(t *testing.T) {
	repo, mock := newAccountTestFixture(t)
	defer mock.Close()

	a := sampleAccount()

	mock.ExpectExec("INSERT INTO accounts").
		WithArgs(a.UserID, a.Username, a.Email, a.AboutMe, a.CreatedAt, a.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	created, err := repo.CreateIfAbsent(context.Background(), a)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_CreateIfAbsent_AlreadyPresent(t *testing.T) {
	repo, mock := newAccountTestFixture(t)
	defer mock.Close()

	a := sampleAccount()

	// ON CONFLICT DO NOTHING reports zero affected rows for an existing account.
	mock.ExpectExec("INSERT INTO accounts").
		WithArgs(a.UserID, a.Username, a.Email, a.AboutMe, a.CreatedAt, a.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	created, err := repo.CreateIfAbsent(context.Background(), a)
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// GetByUserID
// ---------------------------------------------------------------------------

func TestAccountRepository_GetByUserID_Success(t *testing.T) {
	repo, mock := newAccountTestFixture(t)
	defer mock.Close()

	a := sampleAccount()

	mock.ExpectQuery("SELECT .+ FROM accounts WHERE user_id =").
		WithArgs(a.UserID).
		WillReturnRows(accountRow(a))

	got, err := repo.GetByUserID(context.Background(), a.UserID)
	require.NoError(t, err)
	assert.Equal(t, a.Username, got.Username)
	assert.Equal(t, a.AboutMe, got.AboutMe)
	assert.Nil(t, got.LastSeen)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_GetByUserID_NotFound(t *testing.T) {
	repo, mock := newAccountTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM accounts WHERE user_id =").
		WithArgs("missing-id").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetByUserID(context.Background(), "missing-id")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestAccountRepository_Update_Success(t *testing.T) {
	repo, mock := newAccountTestFixture(t)
	defer mock.Close()

	a := sampleAccount()
	lastSeen := time.Now().UTC()
	a.LastSeen = &lastSeen

	mock.ExpectExec("UPDATE accounts").
		WithArgs(a.UserID, a.Username, a.Email, a.AboutMe, a.LastSeen, a.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.Update(context.Background(), a)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Update_NotFound(t *testing.T) {
	repo, mock := newAccountTestFixture(t)
	defer mock.Close()

	a := sampleAccount()

	mock.ExpectExec("UPDATE accounts").
		WithArgs(a.UserID, a.Username, a.Email, a.AboutMe, a.LastSeen, a.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), a)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestAccountRepository_Delete_Success(t *testing.T) {
	repo, mock := newAccountTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM accounts WHERE user_id =").
		WithArgs("2f1b8c1e-7c64-4f45-a2a8-9f3a1d2b5c77").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := repo.Delete(context.Background(), "2f1b8c1e-7c64-4f45-a2a8-9f3a1d2b5c77")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Delete_NotFound(t *testing.T) {
	repo, mock := newAccountTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM accounts WHERE user_id =").
		WithArgs("missing-id").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), "missing-id")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
