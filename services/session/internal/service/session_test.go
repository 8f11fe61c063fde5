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
	"github.com/adatechschool/MBB/pkg/token"
	"github.com/adatechschool/MBB/services/session/internal/domain"
	"github.com/adatechschool/MBB/services/session/internal/event"
)

// --- Mock Session Repository ---

type mockSessionRepository struct {
	mock.Mock
}

func (m *mockSessionRepository) Create(ctx context.Context, s *domain.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *mockSessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	args := m.Called(ctx, tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *mockSessionRepository) ListByUserID(ctx context.Context, userID string, now time.Time) ([]domain.Session, error) {
	args := m.Called(ctx, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Session), args.Error(1)
}

func (m *mockSessionRepository) Rotate(ctx context.Context, oldHash, newHash string, expiresAt time.Time) (*domain.Session, error) {
	args := m.Called(ctx, oldHash, newHash, expiresAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *mockSessionRepository) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *mockSessionRepository) DeleteByID(ctx context.Context, sessionID, userID string) error {
	args := m.Called(ctx, sessionID, userID)
	return args.Error(0)
}

func (m *mockSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestIssuer() *token.Issuer {
	return token.NewIssuer("test-secret-key-for-testing", "session", 15*time.Minute, 7*24*time.Hour,
		token.WithBlacklist(token.NewMemoryBlacklist()))
}

func newTestEventProducer() *event.Producer {
	logger := newTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	return event.NewProducer(kafkaProducer, logger)
}

func newTestService(repo *mockSessionRepository) (*SessionService, *token.Issuer) {
	issuer := newTestIssuer()
	return NewSessionService(repo, issuer, newTestEventProducer(), newTestLogger()), issuer
}

func liveSession(tokenHash string) *domain.Session {
	now := time.Now().UTC()
	return &domain.Session{
		ID:        "7c9a4b2d-0f6e-4c1a-b5d8-3e2f1a0c9b8d",
		UserID:    "2f1b8c1e-7c64-4f45-a2a8-9f3a1d2b5c77",
		TokenHash: tokenHash,
		CreatedAt: now.Add(-time.Hour),
		ExpiresAt: now.Add(7 * 24 * time.Hour),
	}
}

// --- Create Tests ---

func TestCreate_Success(t *testing.T) {
	repo := new(mockSessionRepository)
	svc, issuer := newTestService(repo)
	ctx := context.Background()

	pair, err := issuer.Issue("user-1")
	require.NoError(t, err)

	repo.On("Create", ctx, mock.AnythingOfType("*domain.Session")).Return(nil)

	session, err := svc.Create(ctx, pair.Refresh)

	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	// Owner, key, and expiry all come from the token, not the caller.
	assert.Equal(t, "user-1", session.UserID)
	assert.Equal(t, token.Hash(pair.Refresh), session.TokenHash)
	assert.WithinDuration(t, pair.RefreshExpiresAt, session.ExpiresAt, time.Second)
	repo.AssertExpectations(t)
}

func TestCreate_RejectsAccessToken(t *testing.T) {
	repo := new(mockSessionRepository)
	svc, issuer := newTestService(repo)
	ctx := context.Background()

	pair, err := issuer.Issue("user-1")
	require.NoError(t, err)

	_, err = svc.Create(ctx, pair.Access)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 400, appErr.Status)
	repo.AssertNotCalled(t, "Create")
}

func TestCreate_RejectsGarbageToken(t *testing.T) {
	repo := new(mockSessionRepository)
	svc, _ := newTestService(repo)

	_, err := svc.Create(context.Background(), "not-a-token")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 400, appErr.Status)
	repo.AssertNotCalled(t, "Create")
}

func TestCreate_RejectsRevokedToken(t *testing.T) {
	repo := new(mockSessionRepository)
	svc, issuer := newTestService(repo)
	ctx := context.Background()

	pair, err := issuer.Issue("user-1")
	require.NoError(t, err)

	claims, err := issuer.Verify(ctx, pair.Refresh, token.KindRefresh)
	require.NoError(t, err)
	require.NoError(t, issuer.Revoke(ctx, claims))

	_, err = svc.Create(ctx, pair.Refresh)
	require.Error(t, err)
	repo.AssertNotCalled(t, "Create")
}

// --- List Tests ---

func TestList_Success(t *testing.T) {
	repo := new(mockSessionRepository)
	svc, _ := newTestService(repo)
	ctx := context.Background()

	s := liveSession("some-hash")
	repo.On("ListByUserID", ctx, s.UserID, mock.AnythingOfType("time.Time")).
		Return([]domain.Session{*s}, nil)

	got, err := svc.List(ctx, s.UserID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, s.ID, got[0].ID)
}

func TestList_Empty(t *testing.T) {
	repo := new(mockSessionRepository)
	svc, _ := newTestService(repo)
	ctx := context.Background()

	repo.On("ListByUserID", ctx, "user-1", mock.AnythingOfType("time.Time")).
		Return([]domain.Session(nil), nil)

	got, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

// --- Refresh Tests ---

func TestRefresh_Success(t *testing.T) {
	repo := new(mockSessionRepository)
	svc, issuer := newTestService(repo)
	ctx := context.Background()

	pair, err := issuer.Issue("user-1")
	require.NoError(t, err)

	s := liveSession(token.Hash(pair.Refresh))
	s.UserID = "user-1"

	repo.On("GetByTokenHash", ctx, s.TokenHash).Return(s, nil)
	repo.On("Rotate", ctx, s.TokenHash, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Return(s, nil)

	rotated, newPair, err := svc.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, s.ID, rotated.ID)
	require.NotNil(t, newPair)
	assert.NotEqual(t, pair.Refresh, newPair.Refresh)

	// The new pair verifies and belongs to the same user.
	claims, err := issuer.Verify(ctx, newPair.Access, token.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)

	// The old refresh token is revoked and cannot be replayed.
	_, err = issuer.Verify(ctx, pair.Refresh, token.KindRefresh)
	assert.True(t, errors.Is(err, apperrors.ErrTokenRevoked))

	repo.AssertCalled(t, "Rotate", ctx, s.TokenHash, token.Hash(newPair.Refresh), newPair.RefreshExpiresAt)
}

func TestRefresh_SessionNotFound(t *testing.T) {
	repo := new(mockSessionRepository)
	svc, issuer := newTestService(repo)
	ctx := context.Background()

	pair, err := issuer.Issue("user-1")
	require.NoError(t, err)

	repo.On("GetByTokenHash", ctx, token.Hash(pair.Refresh)).Return(nil, apperrors.ErrNotFound)

	_, _, err = svc.Refresh(ctx, pair.Refresh)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 401, appErr.Status)
	repo.AssertNotCalled(t, "Rotate")
}

func TestRefresh_ExpiredSession(t *testing.T) {
	repo := new(mockSessionRepository)
	svc, issuer := newTestService(repo)
	ctx := context.Background()

	pair, err := issuer.Issue("user-1")
	require.NoError(t, err)

	s := liveSession(token.Hash(pair.Refresh))
	s.ExpiresAt = time.Now().UTC().Add(-time.Minute)

	repo.On("GetByTokenHash", ctx, s.TokenHash).Return(s, nil)
	repo.On("DeleteByTokenHash", ctx, s.TokenHash).Return(nil)

	_, _, err = svc.Refresh(ctx, pair.Refresh)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTokenExpired))
	repo.AssertNotCalled(t, "Rotate")
	repo.AssertExpectations(t)
}

func TestRefresh_RevokedToken(t *testing.T) {
	repo := new(mockSessionRepository)
	svc, issuer := newTestService(repo)
	ctx := context.Background()

	pair, err := issuer.Issue("user-1")
	require.NoError(t, err)

	claims, err := issuer.Verify(ctx, pair.Refresh, token.KindRefresh)
	require.NoError(t, err)
	require.NoError(t, issuer.Revoke(ctx, claims))

	s := liveSession(token.Hash(pair.Refresh))
	repo.On("GetByTokenHash", ctx, s.TokenHash).Return(s, nil)

	_, _, err = svc.Refresh(ctx, pair.Refresh)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTokenRevoked))
	repo.AssertNotCalled(t, "Rotate")
}

func TestRefresh_RotationRaceLost(t *testing.T) {
	repo := new(mockSessionRepository)
	svc, issuer := newTestService(repo)
	ctx := context.Background()

	pair, err := issuer.Issue("user-1")
	require.NoError(t, err)

	s := liveSession(token.Hash(pair.Refresh))
	repo.On("GetByTokenHash", ctx, s.TokenHash).Return(s, nil)
	repo.On("Rotate", ctx, s.TokenHash, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Return(nil, apperrors.ErrNotFound)

	_, _, err = svc.Refresh(ctx, pair.Refresh)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, 401, appErr.Status)
}

// --- DeleteByHash Tests ---

func TestDeleteByHash_Success(t *testing.T) {
	repo := new(mockSessionRepository)
	svc, _ := newTestService(repo)
	ctx := context.Background()

	repo.On("DeleteByTokenHash", ctx, "some-hash").Return(nil)

	assert.NoError(t, svc.DeleteByHash(ctx, "some-hash"))
	repo.AssertExpectations(t)
}

func TestDeleteByHash_AlreadyGone(t *testing.T) {
	repo := new(mockSessionRepository)
	svc, _ := newTestService(repo)
	ctx := context.Background()

	repo.On("DeleteByTokenHash", ctx, "gone-hash").Return(apperrors.ErrNotFound)

	assert.NoError(t, svc.DeleteByHash(ctx, "gone-hash"), "deleting an absent session is not an error")
}

func TestDeleteByHash_MissingHash(t *testing.T) {
	repo := new(mockSessionRepository)
	svc, _ := newTestService(repo)

	err := svc.DeleteByHash(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	repo.AssertNotCalled(t, "DeleteByTokenHash")
}

// --- Delete Tests ---

func TestDelete_Success(t *testing.T) {
	repo := new(mockSessionRepository)
	svc, _ := newTestService(repo)
	ctx := context.Background()

	repo.On("DeleteByID", ctx, "sess-1", "user-1").Return(nil)

	assert.NoError(t, svc.Delete(ctx, "sess-1", "user-1"))
	repo.AssertExpectations(t)
}

func TestDelete_AlreadyGone(t *testing.T) {
	repo := new(mockSessionRepository)
	svc, _ := newTestService(repo)
	ctx := context.Background()

	repo.On("DeleteByID", ctx, "sess-1", "user-1").Return(apperrors.ErrNotFound)

	assert.NoError(t, svc.Delete(ctx, "sess-1", "user-1"), "deleting an absent session is not an error")
}

func TestDelete_OtherUsersSession(t *testing.T) {
	repo := new(mockSessionRepository)
	svc, _ := newTestService(repo)
	ctx := context.Background()

	// The repository scopes the delete by user, so a foreign session looks
	// exactly like a missing one.
	repo.On("DeleteByID", ctx, "sess-1", "intruder").Return(apperrors.ErrNotFound)

	assert.NoError(t, svc.Delete(ctx, "sess-1", "intruder"))
}

// --- SweepExpired Tests ---

func TestSweepExpired(t *testing.T) {
	repo := new(mockSessionRepository)
	svc, _ := newTestService(repo)
	ctx := context.Background()

	repo.On("DeleteExpired", ctx, mock.AnythingOfType("time.Time")).Return(int64(5), nil)

	deleted, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), deleted)
}
