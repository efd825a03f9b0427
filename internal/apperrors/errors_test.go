package apperrors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/SscSPs/identity_service/internal/apperrors"
	"github.com/stretchr/testify/assert"
)

func TestToHTTP(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"invalid credentials", apperrors.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
		{"mfa required", apperrors.ErrMfaRequired, http.StatusUnauthorized, "MFA code required"},
		{"revoked is generic", fmt.Errorf("refresh: %w", apperrors.ErrTokenRevoked), http.StatusUnauthorized, "Unauthorized"},
		{"expired is generic", apperrors.ErrExpired, http.StatusUnauthorized, "Unauthorized"},
		{"invalid refresh is generic", apperrors.ErrInvalidRefreshToken, http.StatusUnauthorized, "Unauthorized"},
		{"csrf", apperrors.ErrCsrfMismatch, http.StatusForbidden, "CSRF check failed"},
		{"duplicate", apperrors.ErrDuplicateEmailOrUsername, http.StatusConflict, "Email or username already registered"},
		{"not found", apperrors.ErrNotFound, http.StatusNotFound, "Not found"},
		{"link failed", apperrors.ErrLinkFailed, http.StatusBadGateway, "OAuth authentication failed"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := apperrors.ToHTTP(tt.err)
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.message, got.Message)
		})
	}
}

func TestToHTTP_PassesAppErrorThrough(t *testing.T) {
	appErr := apperrors.NewBadRequestError("Invalid request body")
	wrapped := fmt.Errorf("handler: %w", appErr)

	got := apperrors.ToHTTP(wrapped)

	assert.Same(t, appErr, got)
	assert.ErrorIs(t, got, apperrors.ErrValidation)
}
