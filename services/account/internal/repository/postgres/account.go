package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/adatechschool/MBB/pkg/database"
	apperrors "github.com/adatechschool/MBB/pkg/errors"
	"github.com/adatechschool/MBB/services/account/internal/domain"
)

// AccountRepository implements repository.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool database.DBTX
}

// NewAccountRepository creates a new PostgreSQL-backed account repository.
func NewAccountRepository(pool database.DBTX) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// CreateIfAbsent inserts the account unless the user already has one.
func (r *AccountRepository) CreateIfAbsent(ctx context.Context, a *domain.Account) (bool, error) {
	query := `
		INSERT INTO accounts (user_id, username, email, about_me, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO NOTHING`

	ct, err := r.pool.Exec(ctx, query,
		a.UserID,
		a.Username,
		a.Email,
		a.AboutMe,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert account: %w", err)
	}

	return ct.RowsAffected() > 0, nil
}

// GetByUserID retrieves an account by its owning user ID.
func (r *AccountRepository) GetByUserID(ctx context.Context, userID string) (*domain.Account, error) {
	query := `
		SELECT user_id, username, email, about_me, last_seen, created_at, updated_at
		FROM accounts
		WHERE user_id = $1`

	var a domain.Account

	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&a.UserID,
		&a.Username,
		&a.Email,
		&a.AboutMe,
		&a.LastSeen,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	return &a, nil
}

// Update persists profile changes.
func (r *AccountRepository) Update(ctx context.Context, a *domain.Account) error {
	query := `
		UPDATE accounts
		SET username = $2, email = $3, about_me = $4, last_seen = $5, updated_at = $6
		WHERE user_id = $1`

	ct, err := r.pool.Exec(ctx, query,
		a.UserID,
		a.Username,
		a.Email,
		a.AboutMe,
		a.LastSeen,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("account", a.UserID)
	}

	return nil
}

// Delete removes the account for the given user ID.
func (r *AccountRepository) Delete(ctx context.Context, userID string) error {
	query := `DELETE FROM accounts WHERE user_id = $1`

	ct, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("account", userID)
	}

	return nil
}
