package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/adatechschool/MBB/pkg/errors"
	"github.com/adatechschool/MBB/services/account/internal/domain"
	"github.com/adatechschool/MBB/services/account/internal/event"
	"github.com/adatechschool/MBB/services/account/internal/repository"
)

// AccountService implements account profile business logic.
type AccountService struct {
	repo     repository.AccountRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewAccountService creates a new account service.
func NewAccountService(repo repository.AccountRepository, producer *event.Producer, logger *slog.Logger) *AccountService {
	return &AccountService{
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

// ProvisionInput holds the parameters for provisioning an account.
type ProvisionInput struct {
	UserID   string
	Username string
	Email    string
}

// UpdateInput holds the parameters for updating a profile. Nil fields are
// left unchanged.
type UpdateInput struct {
	Username *string
	Email    *string
	AboutMe  *string
}

// Provision creates the account profile for a user if it does not exist yet.
// It is called both by the auth service during registration and by the event
// projector, so it reports whether this call actually created the row.
func (s *AccountService) Provision(ctx context.Context, input ProvisionInput) (*domain.Account, bool, error) {
	if input.UserID == "" {
		return nil, false, apperrors.InvalidInput("user_id is required")
	}
	if input.Username == "" {
		return nil, false, apperrors.InvalidInput("username is required")
	}
	if input.Email == "" {
		return nil, false, apperrors.InvalidInput("email is required")
	}

	now := time.Now().UTC()
	account := &domain.Account{
		UserID:    input.UserID,
		Username:  input.Username,
		Email:     input.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.repo.CreateIfAbsent(ctx, account)
	if err != nil {
		return nil, false, fmt.Errorf("provision account: %w", err)
	}

	if !created {
		existing, err := s.repo.GetByUserID(ctx, input.UserID)
		if err != nil {
			return nil, false, fmt.Errorf("get existing account: %w", err)
		}
		return existing, false, nil
	}

	s.logger.InfoContext(ctx, "account provisioned",
		slog.String("user_id", account.UserID),
		slog.String("username", account.Username),
	)

	return account, true, nil
}

// Get retrieves an account by user ID.
func (s *AccountService) Get(ctx context.Context, userID string) (*domain.Account, error) {
	account, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

// Update applies profile changes and publishes an account.updated event.
func (s *AccountService) Update(ctx context.Context, userID string, input UpdateInput) (*domain.Account, error) {
	account, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get account for update: %w", err)
	}

	if input.Username != nil {
		if *input.Username == "" {
			return nil, apperrors.InvalidInput("username must not be empty")
		}
		account.Username = *input.Username
	}
	if input.Email != nil {
		if *input.Email == "" {
			return nil, apperrors.InvalidInput("email must not be empty")
		}
		account.Email = *input.Email
	}
	if input.AboutMe != nil {
		account.AboutMe = *input.AboutMe
	}
	account.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}

	// Publish account event (non-blocking on failure).
	if err := s.producer.PublishAccountUpdated(ctx, account); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish account.updated event",
			slog.String("user_id", account.UserID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "account updated",
		slog.String("user_id", account.UserID),
	)

	return account, nil
}

// TouchLastSeen records profile activity.
func (s *AccountService) TouchLastSeen(ctx context.Context, userID string) error {
	account, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get account for last seen: %w", err)
	}

	now := time.Now().UTC()
	account.LastSeen = &now
	account.UpdatedAt = now

	if err := s.repo.Update(ctx, account); err != nil {
		return fmt.Errorf("touch last seen: %w", err)
	}

	return nil
}

// Delete removes the account and publishes an account.deleted event.
func (s *AccountService) Delete(ctx context.Context, userID string) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	// Publish account event (non-blocking on failure).
	if err := s.producer.PublishAccountDeleted(ctx, userID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish account.deleted event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "account deleted",
		slog.String("user_id", userID),
	)

	return nil
}
