package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/SscSPs/identity_service/internal/apperrors"
	"github.com/SscSPs/identity_service/internal/core/domain"
)

// OAuthProvider adapts one identity provider's authorization-code flow into
// the normalised domain.OAuthProfile.
type OAuthProvider interface {
	Name() domain.Provider
	// AuthCodeURL is the consent page the browser is redirected to.
	AuthCodeURL(state string) string
	// FetchProfile exchanges code and loads the provider's profile.
	FetchProfile(ctx context.Context, code string) (*domain.OAuthProfile, error)
}

// OAuthProviders holds the configured providers by name.
type OAuthProviders map[domain.Provider]OAuthProvider

// Get returns the named provider or apperrors.ErrUnknownProvider.
func (p OAuthProviders) Get(name string) (OAuthProvider, error) {
	provider, ok := p[domain.Provider(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownProvider, name)
	}
	return provider, nil
}

// Names lists configured providers in a stable order.
func (p OAuthProviders) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}

// OAuthLinkerSvcFacade maps a provider profile to a local user.
type OAuthLinkerSvcFacade interface {
	// LinkProfile returns the user linked to (provider, profile.ExternalID),
	// linking by email or creating a user on first sight. Persistence failures
	// surface as apperrors.ErrLinkFailed.
	LinkProfile(ctx context.Context, provider domain.Provider, profile domain.OAuthProfile) (*domain.User, error)
}
