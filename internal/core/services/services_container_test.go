package services_test

import (
	"testing"
	"time"

	"github.com/SscSPs/identity_service/internal/core/domain"
	"github.com/SscSPs/identity_service/internal/core/services"
	"github.com/SscSPs/identity_service/internal/platform/config"
	"github.com/SscSPs/identity_service/internal/repositories/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		AccessTokenSecret:          "container-access-secret-0123456789",
		AccessTokenExpiryDuration:  15 * time.Minute,
		RefreshTokenSecret:         "container-refresh-secret-9876543210",
		RefreshTokenExpiryDuration: time.Hour,
		JWTIssuer:                  "identity-service-test",
		MFAIssuer:                  "Identity Test",
		TOTPSkewSteps:              2,
		BackupCodeCount:            8,
		Argon2MemoryKB:             1024,
		Argon2Time:                 1,
		Argon2Parallelism:          1,
		PasswordHashConcurrency:    4,
		OAuthRedirectBaseURL:       "http://localhost:8080/",
	}
}

func TestNewServiceContainer(t *testing.T) {
	cfg := testConfig()
	cfg.GitHubClientID = "gh-id"
	cfg.GitHubClientSecret = "gh-secret"

	container, err := services.NewServiceContainer(cfg, memory.NewStore())
	require.NoError(t, err)

	assert.NotNil(t, container.Token)
	assert.NotNil(t, container.Session)
	assert.NotNil(t, container.Mfa)
	assert.NotNil(t, container.User)
	assert.NotNil(t, container.OAuthLinker)
	assert.Equal(t, []string{"github"}, container.OAuthProviders.Names())

	p, err := container.OAuthProviders.Get("github")
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderGitHub, p.Name())
	assert.Contains(t, p.AuthCodeURL("s"), "redirect_uri=http%3A%2F%2Flocalhost%3A8080%2Fauth%2Foauth%2Fgithub%2Fcallback")

	_, err = container.OAuthProviders.Get("google")
	assert.Error(t, err)
}

func TestNewServiceContainer_RejectsWeakHasherConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Argon2MemoryKB = 16

	_, err := services.NewServiceContainer(cfg, memory.NewStore())
	assert.Error(t, err)
}
