package utils_test

import (
	"testing"
	"time"

	"github.com/SscSPs/identity_service/internal/apperrors"
	"github.com/SscSPs/identity_service/internal/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestSigner(t *testing.T, clock *fakeClock) *utils.TokenSigner {
	t.Helper()
	s, err := utils.NewTokenSigner(utils.TokenSignerConfig{
		AccessSecret:  "access-secret",
		AccessTTL:     15 * time.Minute,
		RefreshSecret: "refresh-secret",
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "identity-test",
		Now:           clock.Now,
	})
	require.NoError(t, err)
	return s
}

func TestTokenSigner_AccessRoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := newTestSigner(t, clock)

	token, expiresAt, err := s.SignAccess("user-1", "alice@example.com", "admin")
	require.NoError(t, err)
	assert.WithinDuration(t, clock.t.Add(15*time.Minute), expiresAt, time.Second)

	claims, err := s.VerifyAccess(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
}

func TestTokenSigner_RefreshRoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := newTestSigner(t, clock)

	token, expiresAt, err := s.SignRefresh("user-1", "jti-1")
	require.NoError(t, err)
	assert.WithinDuration(t, clock.t.Add(7*24*time.Hour), expiresAt, time.Second)

	claims, err := s.VerifyRefresh(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "jti-1", claims.ID)
}

func TestTokenSigner_KindsAreNotInterchangeable(t *testing.T) {
	s := newTestSigner(t, &fakeClock{t: time.Now()})

	access, _, err := s.SignAccess("user-1", "a@example.com", "user")
	require.NoError(t, err)
	refresh, _, err := s.SignRefresh("user-1", "jti-1")
	require.NoError(t, err)

	_, err = s.VerifyRefresh(access)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)

	_, err = s.VerifyAccess(refresh)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestTokenSigner_MfaChallenge(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := newTestSigner(t, clock)

	challenge, expiresAt, err := s.SignMfaChallenge("user-1")
	require.NoError(t, err)
	assert.WithinDuration(t, clock.t.Add(utils.MfaChallengeTTL), expiresAt, time.Second)

	subject, err := s.VerifyMfaChallenge(challenge)
	require.NoError(t, err)
	assert.Equal(t, "user-1", subject)

	// Same secret as access tokens, but neither passes for the other.
	_, err = s.VerifyAccess(challenge)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
	access, _, err := s.SignAccess("user-1", "a@example.com", "user")
	require.NoError(t, err)
	_, err = s.VerifyMfaChallenge(access)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	clock.t = clock.t.Add(utils.MfaChallengeTTL + time.Second)
	_, err = s.VerifyMfaChallenge(challenge)
	assert.ErrorIs(t, err, apperrors.ErrExpired)
}

func TestTokenSigner_Expired(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := newTestSigner(t, clock)

	access, _, err := s.SignAccess("user-1", "a@example.com", "user")
	require.NoError(t, err)
	refresh, _, err := s.SignRefresh("user-1", "jti-1")
	require.NoError(t, err)

	clock.t = clock.t.Add(8 * 24 * time.Hour)

	_, err = s.VerifyAccess(access)
	assert.ErrorIs(t, err, apperrors.ErrExpired)
	_, err = s.VerifyRefresh(refresh)
	assert.ErrorIs(t, err, apperrors.ErrExpired)
}

func TestTokenSigner_RejectsForeignSignature(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := newTestSigner(t, clock)

	other, err := utils.NewTokenSigner(utils.TokenSignerConfig{
		AccessSecret: "other-access", AccessTTL: time.Minute,
		RefreshSecret: "other-refresh", RefreshTTL: time.Hour,
		Issuer: "identity-test", Now: clock.Now,
	})
	require.NoError(t, err)

	forged, _, err := other.SignRefresh("user-1", "jti-1")
	require.NoError(t, err)

	_, err = s.VerifyRefresh(forged)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)

	_, err = s.VerifyRefresh("not-a-jwt")
	assert.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
}

func TestTokenSigner_RejectsNoneAlgorithm(t *testing.T) {
	s := newTestSigner(t, &fakeClock{t: time.Now()})

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "user-1",
		ID:        "jti-1",
		Audience:  jwt.ClaimStrings{"refresh"},
		Issuer:    "identity-test",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = s.VerifyRefresh(token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
}

func TestNewTokenSigner_RejectsSharedSecret(t *testing.T) {
	_, err := utils.NewTokenSigner(utils.TokenSignerConfig{
		AccessSecret: "same", AccessTTL: time.Minute,
		RefreshSecret: "same", RefreshTTL: time.Hour,
	})
	assert.Error(t, err)
}
