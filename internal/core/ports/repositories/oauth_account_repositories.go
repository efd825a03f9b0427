package repositories

import (
	"context"

	"github.com/SscSPs/identity_service/internal/core/domain"
)

// OAuthAccountRepositoryFacade defines persistence for provider links.
type OAuthAccountRepositoryFacade interface {
	// FindOAuthAccount looks a link up by (provider, providerUserID), or
	// returns apperrors.ErrNotFound.
	FindOAuthAccount(ctx context.Context, provider domain.Provider, providerUserID string) (*domain.OAuthAccount, error)

	// CreateOAuthAccount inserts a link. Returns apperrors.ErrDuplicate when
	// (provider, providerUserID) already exists.
	CreateOAuthAccount(ctx context.Context, account domain.OAuthAccount) error
}
