package services

import (
	"context"

	"github.com/SscSPs/identity_service/internal/core/domain"
)

// MfaSvcFacade manages TOTP enrolment and verification.
type MfaSvcFacade interface {
	// Enroll generates a secret, provisioning URI and backup codes. Nothing is
	// persisted until ConfirmEnroll succeeds.
	Enroll(ctx context.Context, userID string) (*domain.MfaEnrollment, error)

	// ConfirmEnroll persists secret and enables MFA when code matches it.
	ConfirmEnroll(ctx context.Context, userID string, secret string, code string) error

	// Verify checks code against the stored secret. Fails with
	// apperrors.ErrMfaNotEnabled when MFA is off.
	Verify(ctx context.Context, userID string, code string) (bool, error)

	// Disable clears the secret after a valid code is presented.
	Disable(ctx context.Context, userID string, code string) error
}
