package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/identity_service/internal/apperrors"
	"github.com/golang-jwt/jwt/v5"
)

// Audiences keep an access token from being accepted as a refresh token and
// the other way round, on top of the distinct secrets.
const (
	accessAudience       = "access"
	refreshAudience      = "refresh"
	mfaChallengeAudience = "mfa_challenge"
)

// MfaChallengeTTL bounds how long a sign-in may wait for its TOTP code.
const MfaChallengeTTL = 5 * time.Minute

// TokenSignerConfig configures a TokenSigner.
type TokenSignerConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
	Issuer        string
	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// AccessTokenClaims is the payload of an access token.
type AccessTokenClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// RefreshTokenClaims is the payload of a refresh token. The jti
// (RegisteredClaims.ID) keys the server-side record.
type RefreshTokenClaims struct {
	jwt.RegisteredClaims
}

// TokenSigner signs and verifies HS256 JWTs with one secret per token kind.
type TokenSigner struct {
	accessSecret  []byte
	accessTTL     time.Duration
	refreshSecret []byte
	refreshTTL    time.Duration
	issuer        string
	now           func() time.Time
}

// NewTokenSigner builds a TokenSigner. Secrets must be set and differ.
func NewTokenSigner(cfg TokenSignerConfig) (*TokenSigner, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token secrets must be set")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh token secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &TokenSigner{
		accessSecret:  []byte(cfg.AccessSecret),
		accessTTL:     cfg.AccessTTL,
		refreshSecret: []byte(cfg.RefreshSecret),
		refreshTTL:    cfg.RefreshTTL,
		issuer:        cfg.Issuer,
		now:           now,
	}, nil
}

func (s *TokenSigner) registered(subject, audience, id string, ttl time.Duration) (jwt.RegisteredClaims, time.Time) {
	now := s.now()
	expiresAt := now.Add(ttl)
	return jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   subject,
		Audience:  jwt.ClaimStrings{audience},
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        id,
	}, expiresAt
}

// SignAccess issues an access token for the given subject.
func (s *TokenSigner) SignAccess(userID, email, role string) (string, time.Time, error) {
	rc, expiresAt := s.registered(userID, accessAudience, "", s.accessTTL)
	claims := AccessTokenClaims{Email: email, Role: role, RegisteredClaims: rc}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return token, expiresAt, nil
}

// SignRefresh issues a refresh token carrying tokenID as its jti.
func (s *TokenSigner) SignRefresh(userID, tokenID string) (string, time.Time, error) {
	if tokenID == "" {
		return "", time.Time{}, errors.New("refresh token id is required")
	}
	rc, expiresAt := s.registered(userID, refreshAudience, tokenID, s.refreshTTL)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshTokenClaims{RegisteredClaims: rc}).SignedString(s.refreshSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return token, expiresAt, nil
}

// SignMfaChallenge issues a token proving userID passed a first factor and
// still owes a TOTP code. It is signed with the access secret under its own
// audience, so it authorizes nothing else.
func (s *TokenSigner) SignMfaChallenge(userID string) (string, time.Time, error) {
	rc, expiresAt := s.registered(userID, mfaChallengeAudience, "", MfaChallengeTTL)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, rc).SignedString(s.accessSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign mfa challenge: %w", err)
	}
	return token, expiresAt, nil
}

// VerifyMfaChallenge returns the subject of a valid challenge token. It fails
// with apperrors.ErrExpired or apperrors.ErrInvalidToken.
func (s *TokenSigner) VerifyMfaChallenge(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	if err := s.parse(tokenString, claims, s.accessSecret, mfaChallengeAudience); err != nil {
		return "", classify(err, apperrors.ErrInvalidToken)
	}
	if claims.Subject == "" {
		return "", apperrors.ErrInvalidToken
	}
	return claims.Subject, nil
}

// VerifyAccess validates signature, issuer, audience and expiry of an access
// token. It fails with apperrors.ErrExpired or apperrors.ErrInvalidToken.
func (s *TokenSigner) VerifyAccess(tokenString string) (*AccessTokenClaims, error) {
	claims := &AccessTokenClaims{}
	if err := s.parse(tokenString, claims, s.accessSecret, accessAudience); err != nil {
		return nil, classify(err, apperrors.ErrInvalidToken)
	}
	if claims.Subject == "" {
		return nil, apperrors.ErrInvalidToken
	}
	return claims, nil
}

// VerifyRefresh validates a refresh token. It fails with apperrors.ErrExpired
// or apperrors.ErrInvalidRefreshToken.
func (s *TokenSigner) VerifyRefresh(tokenString string) (*RefreshTokenClaims, error) {
	claims := &RefreshTokenClaims{}
	if err := s.parse(tokenString, claims, s.refreshSecret, refreshAudience); err != nil {
		return nil, classify(err, apperrors.ErrInvalidRefreshToken)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, apperrors.ErrInvalidRefreshToken
	}
	return claims, nil
}

func (s *TokenSigner) parse(tokenString string, claims jwt.Claims, secret []byte, audience string) error {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		return err
	}
	if !token.Valid {
		return jwt.ErrTokenSignatureInvalid
	}
	return nil
}

func classify(err error, invalid error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return apperrors.ErrExpired
	}
	return fmt.Errorf("%w: %v", invalid, err)
}
