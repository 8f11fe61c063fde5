package token

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/adatechschool/MBB/pkg/errors"
)

// Kind distinguishes access tokens from refresh tokens. A token of one kind
// is never accepted where the other is expected.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims represents the JWT claims carried by both token kinds. The jti
// (RegisteredClaims.ID) uniquely identifies the token and is the revocation key.
type Claims struct {
	UserID string `json:"user_id"`
	Kind   Kind   `json:"kind"`
	jwt.RegisteredClaims
}

// Pair is an access/refresh token pair issued together. The expiry fields are
// exposed so callers can derive cookie and session lifetimes without
// re-parsing the tokens.
type Pair struct {
	Access           string    `json:"access_token"`
	Refresh          string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"-"`
	RefreshExpiresAt time.Time `json:"-"`
}

// Issuer signs and verifies HS256 token pairs.
type Issuer struct {
	secret        []byte
	issuer        string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	blacklist     Blacklist
	now           func() time.Time
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock overrides the time source, used by tests to control expiry.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

// WithBlacklist attaches a revocation store checked on every Verify call.
func WithBlacklist(bl Blacklist) Option {
	return func(i *Issuer) {
		i.blacklist = bl
	}
}

// NewIssuer creates a token issuer. The issuer string names the signing
// service and is embedded in the iss claim.
func NewIssuer(secret, issuer string, accessExpiry, refreshExpiry time.Duration, opts ...Option) *Issuer {
	i := &Issuer{
		secret:        []byte(secret),
		issuer:        issuer,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// RefreshExpiry returns the configured refresh token lifetime. Revocation
// entries only need to outlive this window.
func (i *Issuer) RefreshExpiry() time.Duration {
	return i.refreshExpiry
}

// Issue creates a new access/refresh pair for the given user. Each token
// carries its own jti.
func (i *Issuer) Issue(userID string) (*Pair, error) {
	now := i.now().UTC()
	accessExp := now.Add(i.accessExpiry)
	refreshExp := now.Add(i.refreshExpiry)

	access, err := i.sign(userID, KindAccess, now, accessExp)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := i.sign(userID, KindRefresh, now, refreshExp)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &Pair{
		Access:           access,
		Refresh:          refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (i *Issuer) sign(userID string, kind Kind, issuedAt, expiresAt time.Time) (string, error) {
	claims := &Claims{
		UserID: userID,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    i.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Verify parses and validates a token of the expected kind. It checks the
// signature and expiry, rejects kind mismatches, and consults the blacklist
// when one is configured. All failures map to 401-class errors.
func (i *Issuer) Verify(ctx context.Context, raw string, kind Kind) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.TokenExpired()
		}
		return nil, apperrors.TokenInvalid()
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperrors.TokenInvalid()
	}

	if claims.Kind != kind {
		return nil, apperrors.TokenInvalid()
	}

	if i.blacklist != nil {
		revoked, err := i.blacklist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check token revocation: %w", err)
		}
		if revoked {
			return nil, apperrors.TokenRevoked()
		}
	}

	return claims, nil
}

// Revoke blacklists the token's jti until the refresh window has passed, after
// which the token would be rejected as expired anyway.
func (i *Issuer) Revoke(ctx context.Context, claims *Claims) error {
	if i.blacklist == nil {
		return fmt.Errorf("no blacklist configured")
	}

	ttl := i.refreshExpiry
	if claims.ExpiresAt != nil {
		if remaining := claims.ExpiresAt.Time.Sub(i.now().UTC()); remaining > 0 && remaining < ttl {
			ttl = remaining
		}
	}

	return i.blacklist.Revoke(ctx, claims.ID, ttl)
}

// Hash returns the hex-encoded SHA-256 digest of a raw token. Session storage
// keys refresh tokens by this digest so a database leak does not expose
// usable tokens.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
