package dto

import (
	"time"

	"github.com/SscSPs/identity_service/internal/core/domain"
)

// RegisterRequest defines the body of a password registration.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Username string `json:"username" binding:"required,username"`
	Password string `json:"password" binding:"required,min=8,max=256"`
}

// LoginRequest defines the body of a password login. Identifier matches
// either the email or the username.
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required,max=254"`
	Password   string `json:"password" binding:"required,max=256"`
	MfaCode    string `json:"mfaCode" binding:"omitempty,numeric,len=6"`
}

// SessionResponse is returned by login, refresh and OAuth sign-in. The
// refresh token is never part of the body; it travels in an http-only cookie.
type SessionResponse struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	User        UserResponse `json:"user"`
}

// ToSessionResponse converts a domain.Session to its public shape.
func ToSessionResponse(s *domain.Session) SessionResponse {
	return SessionResponse{
		AccessToken: s.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   s.AccessTokenExpiresAt,
		User:        ToUserResponse(s.User),
	}
}

// CSRFTokenResponse mirrors the value of the CSRF cookie.
type CSRFTokenResponse struct {
	CSRFToken string `json:"csrfToken"`
}

// SuccessResponse is the body of operations with nothing else to report.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// SetPasswordRequest defines the body of a password change.
type SetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8,max=256"`
}

// SessionsRevokedResponse reports how many refresh tokens were revoked.
type SessionsRevokedResponse struct {
	Revoked int64 `json:"revoked"`
}
