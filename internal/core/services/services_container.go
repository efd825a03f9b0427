package services

import (
	"fmt"
	"strings"

	portsrepo "github.com/SscSPs/identity_service/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/identity_service/internal/core/ports/services"
	"github.com/SscSPs/identity_service/internal/platform/config"
	"github.com/SscSPs/identity_service/internal/utils"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, store portsrepo.CredentialStore) (*portssvc.ServiceContainer, error) {
	hasher, err := NewPasswordHasher(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build password hasher: %w", err)
	}

	totp, err := utils.NewTOTPEngine(cfg.MFAIssuer, cfg.TOTPSkewSteps)
	if err != nil {
		return nil, fmt.Errorf("failed to build TOTP engine: %w", err)
	}

	container := &portssvc.ServiceContainer{}

	container.Token, err = NewTokenService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build token service: %w", err)
	}

	container.User = NewUserService(store)
	container.Mfa = NewMfaService(store, totp, cfg.BackupCodeCount)
	container.Session = NewSessionService(
		store,
		hasher,
		container.Token,
		container.Mfa,
		WithLineageRevocationOnReuse(cfg.RevokeLineageOnReuse),
	)
	container.OAuthLinker = NewOAuthLinkerService(store, hasher)
	container.OAuthProviders = NewOAuthProviders(cfg)

	return container, nil
}

// NewPasswordHasher builds the argon2id hasher from configuration.
func NewPasswordHasher(cfg *config.Config) (*utils.PasswordHasher, error) {
	params := utils.DefaultArgon2Params()
	params.MemoryKB = cfg.Argon2MemoryKB
	params.Time = cfg.Argon2Time
	params.Parallelism = cfg.Argon2Parallelism
	return utils.NewPasswordHasher(params, cfg.PasswordHashConcurrency)
}

// NewOAuthProviders registers every provider whose client credentials are
// configured.
func NewOAuthProviders(cfg *config.Config) portssvc.OAuthProviders {
	providers := portssvc.OAuthProviders{}
	base := strings.TrimRight(cfg.OAuthRedirectBaseURL, "/")

	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		p := NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, base+"/auth/oauth/google/callback")
		providers[p.Name()] = p
	}
	if cfg.GitHubClientID != "" && cfg.GitHubClientSecret != "" {
		p := NewGitHubProvider(cfg.GitHubClientID, cfg.GitHubClientSecret, base+"/auth/oauth/github/callback")
		providers[p.Name()] = p
	}
	return providers
}
