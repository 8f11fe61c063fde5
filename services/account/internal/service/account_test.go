package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/adatechschool/MBB/pkg/errors"
	pkgkafka "github.com/adatechschool/MBB/pkg/kafka"
	"github.com/adatechschool/MBB/services/account/internal/domain"
	"github.com/adatechschool/MBB/services/account/internal/event"
)

// --- Mock Account Repository ---

type mockAccountRepository struct {
	mock.Mock
}

func (m *mockAccountRepository) CreateIfAbsent(ctx context.Context, account *domain.Account) (bool, error) {
	args := m.Called(ctx, account)
	return args.Bool(0), args.Error(1)
}

func (m *mockAccountRepository) GetByUserID(ctx context.Context, userID string) (*domain.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *mockAccountRepository) Update(ctx context.Context, account *domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *mockAccountRepository) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestService(repo *mockAccountRepository) *AccountService {
	logger := newTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	producer := event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
	return NewAccountService(repo, producer, logger)
}

func strPtr(s string) *string {
	return &s
}

func sampleAccount() *domain.Account {
	now := time.Now().UTC()
	return &domain.Account{
		UserID:    "2f1b8c1e-7c64-4f45-a2a8-9f3a1d2b5c77",
		Username:  "alice",
		Email:     "alice@example.com",
		AboutMe:   "",
		CreatedAt: now.Add(-time.Hour),
		UpdatedAt: now.Add(-time.Hour),
	}
}

// --- Provision Tests ---

func TestProvision_CreatesAccount(t *testing.T) {
	repo := new(mockAccountRepository)
	svc := newTestService(repo)
	ctx := context.Background()

	repo.On("CreateIfAbsent", ctx, mock.AnythingOfType("*domain.Account")).Return(true, nil)

	account, created, err := svc.Provision(ctx, ProvisionInput{
		UserID:   "user-1",
		Username: "alice",
		Email:    "alice@example.com",
	})

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "user-1", account.UserID)
	assert.Equal(t, "alice", account.Username)
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "GetByUserID")
}

func TestProvision_ExistingAccount(t *testing.T) {
	repo := new(mockAccountRepository)
	svc := newTestService(repo)
	ctx := context.Background()

	existing := sampleAccount()
	repo.On("CreateIfAbsent", ctx, mock.AnythingOfType("*domain.Account")).Return(false, nil)
	repo.On("GetByUserID", ctx, existing.UserID).Return(existing, nil)

	account, created, err := svc.Provision(ctx, ProvisionInput{
		UserID:   existing.UserID,
		Username: "alice-renamed",
		Email:    "other@example.com",
	})

	require.NoError(t, err)
	assert.False(t, created)
	// The existing profile wins over the provisioning payload.
	assert.Equal(t, existing.Username, account.Username)
	assert.Equal(t, existing.Email, account.Email)
	repo.AssertExpectations(t)
}

func TestProvision_Validation(t *testing.T) {
	repo := new(mockAccountRepository)
	svc := newTestService(repo)
	ctx := context.Background()

	tests := []struct {
		name  string
		input ProvisionInput
	}{
		{"missing user id", ProvisionInput{Username: "alice", Email: "a@b.c"}},
		{"missing username", ProvisionInput{UserID: "u-1", Email: "a@b.c"}},
		{"missing email", ProvisionInput{UserID: "u-1", Username: "alice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Provision(ctx, tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
		})
	}

	repo.AssertNotCalled(t, "CreateIfAbsent")
}

// --- Get Tests ---

func TestGet_NotFound(t *testing.T) {
	repo := new(mockAccountRepository)
	svc := newTestService(repo)
	ctx := context.Background()

	repo.On("GetByUserID", ctx, "missing-id").Return(nil, apperrors.ErrNotFound)

	account, err := svc.Get(ctx, "missing-id")
	assert.Nil(t, account)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

// --- Update Tests ---

func TestUpdate_Success(t *testing.T) {
	repo := new(mockAccountRepository)
	svc := newTestService(repo)
	ctx := context.Background()

	existing := sampleAccount()
	repo.On("GetByUserID", ctx, existing.UserID).Return(existing, nil)
	repo.On("Update", ctx, mock.AnythingOfType("*domain.Account")).Return(nil)

	account, err := svc.Update(ctx, existing.UserID, UpdateInput{
		AboutMe: strPtr("Hello, I write Go."),
	})

	require.NoError(t, err)
	assert.Equal(t, "Hello, I write Go.", account.AboutMe)
	// Unset fields are left alone.
	assert.Equal(t, "alice", account.Username)
	assert.True(t, account.UpdatedAt.After(account.CreatedAt))
	repo.AssertExpectations(t)
}

func TestUpdate_EmptyUsernameRejected(t *testing.T) {
	repo := new(mockAccountRepository)
	svc := newTestService(repo)
	ctx := context.Background()

	existing := sampleAccount()
	repo.On("GetByUserID", ctx, existing.UserID).Return(existing, nil)

	_, err := svc.Update(ctx, existing.UserID, UpdateInput{Username: strPtr("")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	repo.AssertNotCalled(t, "Update")
}

func TestUpdate_NotFound(t *testing.T) {
	repo := new(mockAccountRepository)
	svc := newTestService(repo)
	ctx := context.Background()

	repo.On("GetByUserID", ctx, "missing-id").Return(nil, apperrors.ErrNotFound)

	_, err := svc.Update(ctx, "missing-id", UpdateInput{AboutMe: strPtr("hi")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

// --- TouchLastSeen Tests ---

func TestTouchLastSeen(t *testing.T) {
	repo := new(mockAccountRepository)
	svc := newTestService(repo)
	ctx := context.Background()

	existing := sampleAccount()
	require.Nil(t, existing.LastSeen)

	repo.On("GetByUserID", ctx, existing.UserID).Return(existing, nil)
	repo.On("Update", ctx, mock.MatchedBy(func(a *domain.Account) bool {
		return a.LastSeen != nil && !a.LastSeen.IsZero()
	})).Return(nil)

	require.NoError(t, svc.TouchLastSeen(ctx, existing.UserID))
	repo.AssertExpectations(t)
}

// --- Delete Tests ---

func TestDelete_Success(t *testing.T) {
	repo := new(mockAccountRepository)
	svc := newTestService(repo)
	ctx := context.Background()

	repo.On("Delete", ctx, "user-1").Return(nil)

	assert.NoError(t, svc.Delete(ctx, "user-1"))
	repo.AssertExpectations(t)
}

func TestDelete_NotFound(t *testing.T) {
	repo := new(mockAccountRepository)
	svc := newTestService(repo)
	ctx := context.Background()

	repo.On("Delete", ctx, "missing-id").Return(apperrors.NotFound("account", "missing-id"))

	err := svc.Delete(ctx, "missing-id")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}
