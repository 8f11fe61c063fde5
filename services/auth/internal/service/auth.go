package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/adatechschool/MBB/pkg/errors"
	"github.com/adatechschool/MBB/pkg/token"
	"github.com/adatechschool/MBB/services/auth/internal/domain"
	"github.com/adatechschool/MBB/services/auth/internal/event"
	"github.com/adatechschool/MBB/services/auth/internal/repository"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// SessionGateway is the subset of the session service API used during login
// and logout. Satisfied by client.SessionClient.
type SessionGateway interface {
	Create(ctx context.Context, refreshToken string) (string, error)
	DeleteByHash(ctx context.Context, tokenHash string) error
}

// AccountGateway provisions account profiles for new users. Satisfied by
// client.AccountClient.
type AccountGateway interface {
	Provision(ctx context.Context, userID, username, email string) error
}

// AuthService implements registration, login, and logout flows.
type AuthService struct {
	userRepo repository.UserRepository
	issuer   *token.Issuer
	sessions SessionGateway
	accounts AccountGateway
	producer *event.Producer
	logger   *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	userRepo repository.UserRepository,
	issuer *token.Issuer,
	sessions SessionGateway,
	accounts AccountGateway,
	producer *event.Producer,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		issuer:   issuer,
		sessions: sessions,
		accounts: accounts,
		producer: producer,
		logger:   logger,
	}
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email    string
	Password string
}

// Register creates a new user with a hashed password and provisions the
// matching account profile. Registration does not log the user in; the client
// is expected to follow up with a login request.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if input.Username == "" {
		return nil, apperrors.InvalidInput("username is required")
	}
	if input.Email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	// Account provisioning must succeed before registration is reported as
	// complete. On failure, remove the credential row so the user can retry.
	if err := s.accounts.Provision(ctx, user.ID, user.Username, user.Email); err != nil {
		if delErr := s.userRepo.Delete(ctx, user.ID); delErr != nil {
			s.logger.ErrorContext(ctx, "failed to roll back user after account provisioning failure",
				slog.String("user_id", user.ID),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, fmt.Errorf("provision account: %w", err)
	}

	// Publish registration event (non-blocking on failure).
	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// Login authenticates a user with email and password, issues a token pair,
// and opens a session keyed by the refresh token hash. If the session cannot
// be created the login fails and no tokens are returned.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.User, *token.Pair, error) {
	if input.Email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, nil, apperrors.InvalidInput("password is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	pair, err := s.issuer.Issue(user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("issue tokens: %w", err)
	}

	sessionID, err := s.sessions.Create(ctx, pair.Refresh)
	if err != nil {
		return nil, nil, apperrors.SessionCreateError(err)
	}

	// Publish login event (non-blocking on failure).
	if err := s.producer.PublishUserLoggedIn(ctx, user.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.logged_in event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("session_id", sessionID),
	)

	return user, pair, nil
}

// Logout revokes the refresh token and removes its session. The access token,
// when present, is revoked too so it cannot outlive the session. A refresh
// token that fails verification cannot be blacklisted and is rejected.
func (s *AuthService) Logout(ctx context.Context, accessRaw, refreshRaw string) error {
	claims, err := s.issuer.Verify(ctx, refreshRaw, token.KindRefresh)
	if err != nil {
		return apperrors.TokenBlacklist("refresh token could not be blacklisted")
	}

	if err := s.sessions.DeleteByHash(ctx, token.Hash(refreshRaw)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if err := s.issuer.Revoke(ctx, claims); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	if accessRaw != "" {
		accessClaims, err := s.issuer.Verify(ctx, accessRaw, token.KindAccess)
		if err == nil {
			if err := s.issuer.Revoke(ctx, accessClaims); err != nil {
				s.logger.ErrorContext(ctx, "failed to revoke access token",
					slog.String("user_id", claims.UserID),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	// Publish logout event (non-blocking on failure).
	if err := s.producer.PublishUserLoggedOut(ctx, claims.UserID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.logged_out event",
			slog.String("user_id", claims.UserID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user logged out",
		slog.String("user_id", claims.UserID),
	)

	return nil
}

// Me retrieves the authenticated user's identity record.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// validatePassword checks that the password meets minimum complexity requirements.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit {
		return apperrors.InvalidInput("password must contain at least one uppercase letter, one lowercase letter, and one digit")
	}

	return nil
}
