package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/SscSPs/identity_service/internal/apperrors"
	"github.com/SscSPs/identity_service/internal/core/domain"
	portsrepo "github.com/SscSPs/identity_service/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/identity_service/internal/core/ports/services"
	"github.com/SscSPs/identity_service/internal/platform/logger"
	"github.com/SscSPs/identity_service/internal/utils"
	"github.com/google/uuid"
)

// sessionService drives the refresh-token lineage state machine:
// ISSUED -> ROTATED (revoked, superseded) or ISSUED -> REVOKED.
type sessionService struct {
	BaseService
	store  portsrepo.CredentialStore
	hasher portssvc.PasswordHasherSvc
	tokens portssvc.TokenSvcFacade
	mfa    portssvc.MfaSvcFacade

	revokeLineageOnReuse bool

	dummyOnce   sync.Once
	dummyDigest string
}

var _ portssvc.SessionSvcFacade = (*sessionService)(nil)

// SessionServiceOption configures optional dependencies for sessionService
type SessionServiceOption func(*sessionService)

// WithLineageRevocationOnReuse revokes every live token of a lineage when a
// revoked token from it is presented again.
func WithLineageRevocationOnReuse(enabled bool) SessionServiceOption {
	return func(s *sessionService) {
		s.revokeLineageOnReuse = enabled
	}
}

// WithSessionClock overrides the clock used for record timestamps.
func WithSessionClock(now func() time.Time) SessionServiceOption {
	return func(s *sessionService) {
		s.now = now
	}
}

// NewSessionService creates a new session service.
func NewSessionService(
	store portsrepo.CredentialStore,
	hasher portssvc.PasswordHasherSvc,
	tokens portssvc.TokenSvcFacade,
	mfa portssvc.MfaSvcFacade,
	options ...SessionServiceOption,
) portssvc.SessionSvcFacade {
	s := &sessionService{
		BaseService: newBaseService(),
		store:       store,
		hasher:      hasher,
		tokens:      tokens,
		mfa:         mfa,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// issuedRefresh is a signed refresh token and the record that will persist it.
type issuedRefresh struct {
	raw    string
	record domain.RefreshToken
}

func (s *sessionService) Register(ctx context.Context, email, username, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	if email == "" || username == "" || password == "" {
		return nil, apperrors.NewBadRequestError("email, username and password are required")
	}
	if domain.IsReservedIdentity(email, username) {
		return nil, apperrors.NewBadRequestError("username or email is reserved for linked accounts")
	}

	digest, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.Now()
	user := domain.User{
		UserID:       uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: &digest,
		Role:         domain.RoleUser,
		AuditFields:  domain.AuditFields{CreatedAt: now, LastUpdatedAt: now},
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, apperrors.ErrDuplicateEmailOrUsername
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.LogInfo(ctx, "User registered", slog.String("user_id", user.UserID))
	return &user, nil
}

func (s *sessionService) Login(ctx context.Context, identifier, password, mfaCode string) (*domain.Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	user, err := s.store.FindUserByEmailOrUsername(ctx, identifier)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Same cost as a real check so response time does not reveal
			// whether the account exists.
			s.hasher.Verify(ctx, s.dummy(ctx), password)
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !user.HasPassword() {
		s.hasher.Verify(ctx, s.dummy(ctx), password)
		return nil, apperrors.ErrInvalidCredentials
	}
	if !s.hasher.Verify(ctx, *user.PasswordHash, password) {
		s.LogDebug(ctx, "Password mismatch", slog.String("user_id", user.UserID))
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := s.verifySecondFactor(ctx, user, mfaCode); err != nil {
		return nil, err
	}

	s.upgradePasswordHash(ctx, user, password)
	return s.issue(ctx, user)
}

// verifySecondFactor passes users without MFA.
func (s *sessionService) verifySecondFactor(ctx context.Context, user *domain.User, mfaCode string) error {
	if !user.MfaEnabled {
		return nil
	}
	if strings.TrimSpace(mfaCode) == "" {
		return apperrors.ErrMfaRequired
	}
	ok, err := s.mfa.Verify(ctx, user.UserID, mfaCode)
	if err != nil {
		return err
	}
	if !ok {
		logger.SecurityEvent(ctx, "mfa_code_rejected", slog.String("user_id", user.UserID))
		return apperrors.ErrInvalidMfaCode
	}
	return nil
}

// upgradePasswordHash re-hashes legacy or weaker digests after a successful
// login. Failure only costs the upgrade.
func (s *sessionService) upgradePasswordHash(ctx context.Context, user *domain.User, password string) {
	if !s.hasher.NeedsRehash(*user.PasswordHash) {
		return
	}
	digest, err := s.hasher.Hash(ctx, password)
	if err != nil {
		s.LogError(ctx, err, "Failed to re-hash password", slog.String("user_id", user.UserID))
		return
	}
	// Only replaces the digest that was verified; a password set meanwhile wins.
	swapped, err := s.store.ReplacePasswordHash(ctx, user.UserID, *user.PasswordHash, digest, s.Now())
	if err != nil {
		s.LogError(ctx, err, "Failed to store upgraded password hash", slog.String("user_id", user.UserID))
		return
	}
	if !swapped {
		s.LogDebug(ctx, "Password changed during login, skipping hash upgrade", slog.String("user_id", user.UserID))
		return
	}
	user.PasswordHash = &digest
	s.LogInfo(ctx, "Password hash upgraded", slog.String("user_id", user.UserID))
}

func (s *sessionService) IssueForUser(ctx context.Context, user *domain.User) (*domain.Session, error) {
	if user.MfaEnabled {
		return nil, apperrors.ErrMfaRequired
	}
	return s.issue(ctx, user)
}

func (s *sessionService) ChallengeMfa(ctx context.Context, user *domain.User) (string, time.Time, error) {
	challenge, expiresAt, err := s.tokens.SignMfaChallenge(ctx, user.UserID)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign mfa challenge: %w", err)
	}
	return challenge, expiresAt, nil
}

func (s *sessionService) CompleteMfaChallenge(ctx context.Context, challenge, mfaCode string) (*domain.Session, error) {
	userID, err := s.tokens.VerifyMfaChallenge(ctx, challenge)
	if err != nil {
		return nil, err
	}
	// Re-read so the MFA state checked is the current one.
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.HasPassword() {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err := s.verifySecondFactor(ctx, user, mfaCode); err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

func (s *sessionService) issue(ctx context.Context, user *domain.User) (*domain.Session, error) {
	tokenID := uuid.NewString()
	refresh, err := s.mintRefresh(ctx, user.UserID, tokenID, tokenID)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateRefreshToken(ctx, refresh.record); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	return s.session(ctx, user, refresh)
}

func (s *sessionService) Refresh(ctx context.Context, refreshToken string) (*domain.Session, error) {
	claims, err := s.tokens.VerifyRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	attrs := []slog.Attr{slog.String("user_id", claims.UserID), slog.String("token_id", claims.TokenID)}

	record, err := s.store.FindRefreshToken(ctx, claims.TokenID, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.SecurityEvent(ctx, "refresh_token_unknown", attrs...)
			return nil, apperrors.ErrTokenRevoked
		}
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}

	if record.Revoked {
		s.handleReuse(ctx, record, attrs)
		return nil, apperrors.ErrTokenRevoked
	}
	if !s.hasher.Verify(ctx, record.TokenHash, refreshToken) {
		logger.SecurityEvent(ctx, "refresh_token_hash_mismatch", attrs...)
		return nil, apperrors.ErrTokenRevoked
	}
	if record.IsExpired(s.Now()) {
		return nil, apperrors.ErrExpired
	}

	user, err := s.store.FindUserByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrTokenRevoked
		}
		return nil, fmt.Errorf("failed to load user for refresh: %w", err)
	}

	// Hashing is slow, so the successor is prepared before the transaction.
	next, err := s.mintRefresh(ctx, user.UserID, uuid.NewString(), record.LineageID)
	if err != nil {
		return nil, err
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx portsrepo.CredentialStore) error {
		revoked, err := tx.RevokeRefreshToken(ctx, record.TokenID)
		if err != nil {
			return fmt.Errorf("failed to revoke rotated token: %w", err)
		}
		if !revoked {
			return apperrors.ErrTokenRevoked
		}
		if err := tx.CreateRefreshToken(ctx, next.record); err != nil {
			return fmt.Errorf("failed to store rotated token: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrTokenRevoked) {
			logger.SecurityEvent(ctx, "refresh_token_rotation_race", attrs...)
		}
		return nil, err
	}

	return s.session(ctx, user, next)
}

func (s *sessionService) handleReuse(ctx context.Context, record *domain.RefreshToken, attrs []slog.Attr) {
	attrs = append(attrs, slog.String("lineage_id", record.LineageID))
	logger.SecurityEvent(ctx, "refresh_token_reuse", attrs...)
	if !s.revokeLineageOnReuse {
		return
	}
	n, err := s.store.RevokeLineage(ctx, record.LineageID)
	if err != nil {
		s.LogError(ctx, err, "Failed to revoke lineage after reuse", slog.String("lineage_id", record.LineageID))
		return
	}
	logger.SecurityEvent(ctx, "lineage_revoked", slog.String("lineage_id", record.LineageID), slog.Int64("count", n))
}

func (s *sessionService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	claims, err := s.tokens.VerifyRefreshToken(ctx, refreshToken)
	if err != nil {
		s.LogDebug(ctx, "Logout with unverifiable refresh token", slog.String("error", err.Error()))
		return nil
	}
	record, err := s.store.FindRefreshToken(ctx, claims.TokenID, claims.UserID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to look up refresh token on logout")
		}
		return nil
	}
	if _, err := s.store.RevokeRefreshToken(ctx, record.TokenID); err != nil {
		s.LogError(ctx, err, "Failed to revoke refresh token on logout", slog.String("token_id", record.TokenID))
		return nil
	}
	s.LogInfo(ctx, "User logged out", slog.String("user_id", claims.UserID))
	return nil
}

func (s *sessionService) RevokeAll(ctx context.Context, userID string) (int64, error) {
	n, err := s.store.RevokeAllRefreshTokens(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke sessions: %w", err)
	}
	logger.SecurityEvent(ctx, "sessions_revoked", slog.String("user_id", userID), slog.Int64("count", n))
	return n, nil
}

func (s *sessionService) SetPassword(ctx context.Context, userID string, newPassword string) (int64, error) {
	if newPassword == "" {
		return 0, apperrors.NewBadRequestError("password is required")
	}
	if _, err := s.store.FindUserByID(ctx, userID); err != nil {
		return 0, err
	}
	digest, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	var revoked int64
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx portsrepo.CredentialStore) error {
		if err := tx.SetPasswordHash(ctx, userID, digest, s.Now()); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		n, err := tx.RevokeAllRefreshTokens(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to revoke sessions: %w", err)
		}
		revoked = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.SecurityEvent(ctx, "password_changed", slog.String("user_id", userID), slog.Int64("sessions_revoked", revoked))
	return revoked, nil
}

func (s *sessionService) mintRefresh(ctx context.Context, userID, tokenID, lineageID string) (*issuedRefresh, error) {
	raw, expiresAt, err := s.tokens.SignRefreshToken(ctx, userID, tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	digest, err := s.hasher.Hash(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to hash refresh token: %w", err)
	}
	return &issuedRefresh{
		raw: raw,
		record: domain.RefreshToken{
			TokenID:   tokenID,
			LineageID: lineageID,
			UserID:    userID,
			TokenHash: digest,
			ExpiresAt: expiresAt,
			CreatedAt: s.Now(),
		},
	}, nil
}

func (s *sessionService) session(ctx context.Context, user *domain.User, refresh *issuedRefresh) (*domain.Session, error) {
	access, accessExpiresAt, err := s.tokens.SignAccessToken(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	return &domain.Session{
		User:                  user,
		AccessToken:           access,
		AccessTokenExpiresAt:  accessExpiresAt,
		RefreshToken:          refresh.raw,
		RefreshTokenExpiresAt: refresh.record.ExpiresAt,
	}, nil
}

// dummy returns a digest used to spend verification time on unknown accounts.
func (s *sessionService) dummy(ctx context.Context) string {
	s.dummyOnce.Do(func() {
		secret, err := utils.GenerateSecureRandomString(16)
		if err != nil {
			return
		}
		s.dummyDigest, _ = s.hasher.Hash(ctx, secret)
	})
	return s.dummyDigest
}
