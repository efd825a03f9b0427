package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/identity_service/internal/apperrors"
	"github.com/SscSPs/identity_service/internal/core/domain"
	portsrepo "github.com/SscSPs/identity_service/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/identity_service/internal/core/ports/services"
	"github.com/SscSPs/identity_service/internal/platform/logger"
	"github.com/SscSPs/identity_service/internal/utils"
)

type mfaService struct {
	BaseService
	store           portsrepo.CredentialStore
	totp            *utils.TOTPEngine
	backupCodeCount int
}

var _ portssvc.MfaSvcFacade = (*mfaService)(nil)

// MfaServiceOption configures optional dependencies for mfaService
type MfaServiceOption func(*mfaService)

// WithMfaClock overrides the clock codes are checked against.
func WithMfaClock(now func() time.Time) MfaServiceOption {
	return func(s *mfaService) {
		s.now = now
	}
}

// NewMfaService creates a new MFA service.
func NewMfaService(store portsrepo.CredentialStore, totp *utils.TOTPEngine, backupCodeCount int, options ...MfaServiceOption) portssvc.MfaSvcFacade {
	s := &mfaService{
		BaseService:     newBaseService(),
		store:           store,
		totp:            totp,
		backupCodeCount: backupCodeCount,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *mfaService) Enroll(ctx context.Context, userID string) (*domain.MfaEnrollment, error) {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.MfaEnabled {
		return nil, apperrors.ErrAlreadyEnabled
	}

	secret, err := s.totp.GenerateSecret(user.Email)
	if err != nil {
		return nil, err
	}
	codes, err := utils.GenerateBackupCodes(s.backupCodeCount)
	if err != nil {
		return nil, fmt.Errorf("failed to generate backup codes: %w", err)
	}

	return &domain.MfaEnrollment{
		Secret:          secret.Secret,
		ProvisioningURI: secret.ProvisioningURI,
		BackupCodes:     codes,
	}, nil
}

func (s *mfaService) ConfirmEnroll(ctx context.Context, userID string, secret string, code string) error {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.MfaEnabled {
		return apperrors.ErrAlreadyEnabled
	}
	if !s.totp.Validate(secret, code, s.Now()) {
		logger.SecurityEvent(ctx, "mfa_enroll_code_rejected", slog.String("user_id", userID))
		return apperrors.ErrInvalidMfaCode
	}

	enabled, err := s.store.EnableMfa(ctx, userID, secret, s.Now())
	if err != nil {
		return fmt.Errorf("failed to enable mfa: %w", err)
	}
	if !enabled {
		return apperrors.ErrAlreadyEnabled
	}
	s.LogInfo(ctx, "MFA enabled", slog.String("user_id", userID))
	return nil
}

func (s *mfaService) Verify(ctx context.Context, userID string, code string) (bool, error) {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if !user.MfaEnabled || user.MfaSecret == nil {
		return false, apperrors.ErrMfaNotEnabled
	}
	return s.totp.Validate(*user.MfaSecret, code, s.Now()), nil
}

// Disable clears the secret and revokes every session of the user in the
// same transaction.
func (s *mfaService) Disable(ctx context.Context, userID string, code string) error {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.MfaEnabled || user.MfaSecret == nil {
		return apperrors.ErrMfaNotEnabled
	}
	if !s.totp.Validate(*user.MfaSecret, code, s.Now()) {
		logger.SecurityEvent(ctx, "mfa_disable_code_rejected", slog.String("user_id", userID))
		return apperrors.ErrInvalidMfaCode
	}

	var revoked int64
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx portsrepo.CredentialStore) error {
		// The code was checked against this secret; a re-enrolment in between
		// leaves the row untouched.
		disabled, err := tx.DisableMfa(ctx, userID, *user.MfaSecret, s.Now())
		if err != nil {
			return fmt.Errorf("failed to disable mfa: %w", err)
		}
		if !disabled {
			return apperrors.ErrMfaNotEnabled
		}
		n, err := tx.RevokeAllRefreshTokens(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to revoke sessions: %w", err)
		}
		revoked = n
		return nil
	})
	if err != nil {
		return err
	}

	logger.SecurityEvent(ctx, "mfa_disabled", slog.String("user_id", userID), slog.Int64("sessions_revoked", revoked))
	return nil
}
