package repository

import (
	"context"

	"github.com/adatechschool/MBB/services/account/internal/domain"
)

// AccountRepository defines the interface for account persistence.
type AccountRepository interface {
	// CreateIfAbsent inserts the account unless one already exists for the
	// user. It reports whether a row was actually inserted, making event
	// replays and double provisioning harmless.
	CreateIfAbsent(ctx context.Context, account *domain.Account) (bool, error)

	// GetByUserID retrieves an account by its owning user ID.
	GetByUserID(ctx context.Context, userID string) (*domain.Account, error)

	// Update persists profile changes.
	Update(ctx context.Context, account *domain.Account) error

	// Delete removes the account for the given user ID.
	Delete(ctx context.Context, userID string) error
}
