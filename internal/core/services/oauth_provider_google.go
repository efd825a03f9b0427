package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/identity_service/internal/core/domain"
	portssvc "github.com/SscSPs/identity_service/internal/core/ports/services"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

// idTokenValidator matches idtoken.Validate.
type idTokenValidator func(ctx context.Context, idToken string, audience string) (*idtoken.Payload, error)

// googleProvider signs users in with Google's authorization-code flow and
// reads the profile from the verified ID token returned by the exchange.
type googleProvider struct {
	oauth2Config *oauth2.Config
	validate     idTokenValidator
}

var _ portssvc.OAuthProvider = (*googleProvider)(nil)

// GoogleProviderOption configures optional dependencies for googleProvider
type GoogleProviderOption func(*googleProvider)

// WithGoogleEndpoint overrides Google's OAuth endpoints.
func WithGoogleEndpoint(endpoint oauth2.Endpoint) GoogleProviderOption {
	return func(p *googleProvider) {
		p.oauth2Config.Endpoint = endpoint
	}
}

// WithIDTokenValidator overrides ID token validation.
func WithIDTokenValidator(validate idTokenValidator) GoogleProviderOption {
	return func(p *googleProvider) {
		p.validate = validate
	}
}

// NewGoogleProvider creates the Google adapter. redirectURL is the callback
// registered with Google.
func NewGoogleProvider(clientID, clientSecret, redirectURL string, options ...GoogleProviderOption) portssvc.OAuthProvider {
	p := &googleProvider{
		oauth2Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
			Endpoint:     google.Endpoint,
		},
		validate: idtoken.Validate,
	}
	for _, option := range options {
		option(p)
	}
	return p
}

func (p *googleProvider) Name() domain.Provider {
	return domain.ProviderGoogle
}

func (p *googleProvider) AuthCodeURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state)
}

func (p *googleProvider) FetchProfile(ctx context.Context, code string) (*domain.OAuthProfile, error) {
	token, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code for token: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("google token response has no id_token")
	}

	payload, err := p.validate(ctx, rawIDToken, p.oauth2Config.ClientID)
	if err != nil {
		return nil, fmt.Errorf("google ID token validation failed: %w", err)
	}
	if payload.Subject == "" {
		return nil, errors.New("google ID token has no subject")
	}

	profile := &domain.OAuthProfile{
		ExternalID:  payload.Subject,
		DisplayName: stringClaim(payload.Claims, "name"),
		AvatarURL:   stringClaim(payload.Claims, "picture"),
	}
	// Only a verified address may be used to link into an existing account.
	if verified, _ := payload.Claims["email_verified"].(bool); verified {
		profile.Email = stringClaim(payload.Claims, "email")
	}
	return profile, nil
}

func stringClaim(claims map[string]interface{}, key string) string {
	v, _ := claims[key].(string)
	return v
}
