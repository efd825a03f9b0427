package services

import (
	"context"
	"time"

	"github.com/SscSPs/identity_service/internal/core/domain"
)

// PasswordHasherSvc hashes and verifies primary credentials and the at-rest
// form of refresh tokens.
type PasswordHasherSvc interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	// Verify fails closed: a malformed digest reports false.
	Verify(ctx context.Context, digest string, plaintext string) bool
	NeedsRehash(digest string) bool
}

// TokenSvcFacade issues and verifies the signed token kinds.
type TokenSvcFacade interface {
	SignAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error)
	SignRefreshToken(ctx context.Context, userID string, tokenID string) (string, time.Time, error)
	// VerifyAccessToken fails with apperrors.ErrInvalidToken or apperrors.ErrExpired.
	VerifyAccessToken(ctx context.Context, token string) (*domain.AccessClaims, error)
	// VerifyRefreshToken fails with apperrors.ErrInvalidRefreshToken or apperrors.ErrExpired.
	VerifyRefreshToken(ctx context.Context, token string) (*domain.RefreshClaims, error)
	// SignMfaChallenge binds a pending second factor to userID.
	SignMfaChallenge(ctx context.Context, userID string) (string, time.Time, error)
	// VerifyMfaChallenge returns the challenged user ID.
	VerifyMfaChallenge(ctx context.Context, token string) (string, error)
}

// SessionSvcFacade owns login, refresh rotation, logout and revocation.
type SessionSvcFacade interface {
	// Register creates a password user. Fails with
	// apperrors.ErrDuplicateEmailOrUsername when either is taken.
	Register(ctx context.Context, email, username, password string) (*domain.User, error)

	// Login authenticates by email or username. mfaCode is required only when
	// the account has MFA enabled.
	Login(ctx context.Context, identifier, password, mfaCode string) (*domain.Session, error)

	// IssueForUser starts a new session lineage for a user authenticated
	// outside Login. It fails with apperrors.ErrMfaRequired when the account
	// has MFA enabled; ChallengeMfa and CompleteMfaChallenge finish such a
	// sign-in.
	IssueForUser(ctx context.Context, user *domain.User) (*domain.Session, error)

	// ChallengeMfa issues a short-lived challenge for a user who passed a
	// first factor but still owes a TOTP code.
	ChallengeMfa(ctx context.Context, user *domain.User) (string, time.Time, error)

	// CompleteMfaChallenge verifies the code against the challenged user and
	// starts the session.
	CompleteMfaChallenge(ctx context.Context, challenge, mfaCode string) (*domain.Session, error)

	// Refresh rotates a refresh token. A token that is unknown, revoked or
	// loses a concurrent rotation fails with apperrors.ErrTokenRevoked.
	Refresh(ctx context.Context, refreshToken string) (*domain.Session, error)

	// Logout revokes the token's record if it resolves. It never fails on a
	// bad token.
	Logout(ctx context.Context, refreshToken string) error

	// RevokeAll revokes every live refresh token of a user.
	RevokeAll(ctx context.Context, userID string) (int64, error)

	// SetPassword re-hashes the password and revokes every session in the
	// same transaction.
	SetPassword(ctx context.Context, userID string, newPassword string) (int64, error)
}
