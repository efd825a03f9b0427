package services

import (
	"context"
	"time"

	"github.com/SscSPs/identity_service/internal/core/domain"
	portssvc "github.com/SscSPs/identity_service/internal/core/ports/services"
	"github.com/SscSPs/identity_service/internal/platform/config"
	"github.com/SscSPs/identity_service/internal/utils"
)

// tokenService implements the TokenSvcFacade on top of utils.TokenSigner.
type tokenService struct {
	signer *utils.TokenSigner
}

var _ portssvc.TokenSvcFacade = (*tokenService)(nil)

// NewTokenService creates a token service from the configured secrets and
// lifetimes.
func NewTokenService(cfg *config.Config) (portssvc.TokenSvcFacade, error) {
	signer, err := utils.NewTokenSigner(utils.TokenSignerConfig{
		AccessSecret:  cfg.AccessTokenSecret,
		AccessTTL:     cfg.AccessTokenExpiryDuration,
		RefreshSecret: cfg.RefreshTokenSecret,
		RefreshTTL:    cfg.RefreshTokenExpiryDuration,
		Issuer:        cfg.JWTIssuer,
	})
	if err != nil {
		return nil, err
	}
	return NewTokenServiceWithSigner(signer), nil
}

// NewTokenServiceWithSigner wraps an existing signer.
func NewTokenServiceWithSigner(signer *utils.TokenSigner) portssvc.TokenSvcFacade {
	return &tokenService{signer: signer}
}

// SignAccessToken creates a new JWT access token for the given user.
func (s *tokenService) SignAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error) {
	return s.signer.SignAccess(user.UserID, user.Email, string(user.Role))
}

// SignRefreshToken creates a refresh token whose jti is tokenID.
func (s *tokenService) SignRefreshToken(ctx context.Context, userID string, tokenID string) (string, time.Time, error) {
	return s.signer.SignRefresh(userID, tokenID)
}

func (s *tokenService) VerifyAccessToken(ctx context.Context, token string) (*domain.AccessClaims, error) {
	claims, err := s.signer.VerifyAccess(token)
	if err != nil {
		return nil, err
	}
	out := &domain.AccessClaims{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   domain.Role(claims.Role),
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func (s *tokenService) VerifyRefreshToken(ctx context.Context, token string) (*domain.RefreshClaims, error) {
	claims, err := s.signer.VerifyRefresh(token)
	if err != nil {
		return nil, err
	}
	out := &domain.RefreshClaims{
		UserID:  claims.Subject,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

func (s *tokenService) SignMfaChallenge(ctx context.Context, userID string) (string, time.Time, error) {
	return s.signer.SignMfaChallenge(userID)
}

func (s *tokenService) VerifyMfaChallenge(ctx context.Context, token string) (string, error) {
	return s.signer.VerifyMfaChallenge(token)
}
