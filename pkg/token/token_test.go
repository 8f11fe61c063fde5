package token

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/adatechschool/MBB/pkg/errors"
)

const testSecret = "test-secret-key-for-testing"

func newTestIssuer(opts ...Option) *Issuer {
	return NewIssuer(testSecret, "test", 15*time.Minute, 7*24*time.Hour, opts...)
}

func TestIssuer_IssueAndVerify(t *testing.T) {
	issuer := newTestIssuer()

	pair, err := issuer.Issue("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)
	assert.NotEqual(t, pair.Access, pair.Refresh)
	assert.True(t, pair.RefreshExpiresAt.After(pair.AccessExpiresAt))

	accessClaims, err := issuer.Verify(context.Background(), pair.Access, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", accessClaims.UserID)
	assert.Equal(t, KindAccess, accessClaims.Kind)
	assert.NotEmpty(t, accessClaims.ID)

	refreshClaims, err := issuer.Verify(context.Background(), pair.Refresh, KindRefresh)
	require.NoError(t, err)
	assert.Equal(t, "user-1", refreshClaims.UserID)
	assert.NotEqual(t, accessClaims.ID, refreshClaims.ID, "each token must carry its own jti")
}

func TestIssuer_Verify_KindMismatch(t *testing.T) {
	issuer := newTestIssuer()

	pair, err := issuer.Issue("user-1")
	require.NoError(t, err)

	_, err = issuer.Verify(context.Background(), pair.Refresh, KindAccess)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)

	_, err = issuer.Verify(context.Background(), pair.Access, KindRefresh)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestIssuer_Verify_Expired(t *testing.T) {
	now := time.Now().UTC()
	clock := now
	issuer := newTestIssuer(WithClock(func() time.Time { return clock }))

	pair, err := issuer.Issue("user-1")
	require.NoError(t, err)

	// Move past the access expiry but stay within the refresh window.
	clock = now.Add(16 * time.Minute)

	_, err = issuer.Verify(context.Background(), pair.Access, KindAccess)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)

	_, err = issuer.Verify(context.Background(), pair.Refresh, KindRefresh)
	assert.NoError(t, err)
}

func TestIssuer_Verify_BadSignature(t *testing.T) {
	issuer := newTestIssuer()
	other := NewIssuer("a-completely-different-secret", "test", 15*time.Minute, 7*24*time.Hour)

	pair, err := other.Issue("user-1")
	require.NoError(t, err)

	_, err = issuer.Verify(context.Background(), pair.Access, KindAccess)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestIssuer_Revoke(t *testing.T) {
	bl := NewMemoryBlacklist()
	issuer := newTestIssuer(WithBlacklist(bl))

	pair, err := issuer.Issue("user-1")
	require.NoError(t, err)

	claims, err := issuer.Verify(context.Background(), pair.Refresh, KindRefresh)
	require.NoError(t, err)

	require.NoError(t, issuer.Revoke(context.Background(), claims))

	_, err = issuer.Verify(context.Background(), pair.Refresh, KindRefresh)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)

	// Revoking the refresh token must not affect the access token.
	_, err = issuer.Verify(context.Background(), pair.Access, KindAccess)
	assert.NoError(t, err)
}

func TestIssuer_Revoke_NoBlacklist(t *testing.T) {
	issuer := newTestIssuer()

	pair, err := issuer.Issue("user-1")
	require.NoError(t, err)

	claims, err := issuer.Verify(context.Background(), pair.Refresh, KindRefresh)
	require.NoError(t, err)

	assert.Error(t, issuer.Revoke(context.Background(), claims))
}

func TestMemoryBlacklist_TTLExpiry(t *testing.T) {
	bl := NewMemoryBlacklist()

	require.NoError(t, bl.Revoke(context.Background(), "jti-1", 10*time.Millisecond))

	revoked, err := bl.IsRevoked(context.Background(), "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	time.Sleep(20 * time.Millisecond)

	revoked, err = bl.IsRevoked(context.Background(), "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "entry should lapse once the TTL passes")
}

func TestHash(t *testing.T) {
	h1 := Hash("some-token")
	h2 := Hash("some-token")
	h3 := Hash("another-token")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64, "hex-encoded SHA-256 digest")
}
