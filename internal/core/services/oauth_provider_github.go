package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/SscSPs/identity_service/internal/core/domain"
	portssvc "github.com/SscSPs/identity_service/internal/core/ports/services"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const githubAPIBaseURL = "https://api.github.com"

// githubProvider signs users in with GitHub's OAuth app flow.
type githubProvider struct {
	oauth2Config *oauth2.Config
	apiBaseURL   string
}

var _ portssvc.OAuthProvider = (*githubProvider)(nil)

// GitHubProviderOption configures optional dependencies for githubProvider
type GitHubProviderOption func(*githubProvider)

// WithGitHubEndpoint overrides GitHub's OAuth endpoints.
func WithGitHubEndpoint(endpoint oauth2.Endpoint) GitHubProviderOption {
	return func(p *githubProvider) {
		p.oauth2Config.Endpoint = endpoint
	}
}

// WithGitHubAPIBaseURL overrides the REST API root.
func WithGitHubAPIBaseURL(baseURL string) GitHubProviderOption {
	return func(p *githubProvider) {
		p.apiBaseURL = strings.TrimRight(baseURL, "/")
	}
}

// NewGitHubProvider creates the GitHub adapter.
func NewGitHubProvider(clientID, clientSecret, redirectURL string, options ...GitHubProviderOption) portssvc.OAuthProvider {
	p := &githubProvider{
		oauth2Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		apiBaseURL: githubAPIBaseURL,
	}
	for _, option := range options {
		option(p)
	}
	return p
}

func (p *githubProvider) Name() domain.Provider {
	return domain.ProviderGitHub
}

func (p *githubProvider) AuthCodeURL(state string) string {
	return p.oauth2Config.AuthCodeURL(state)
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

func (p *githubProvider) FetchProfile(ctx context.Context, code string) (*domain.OAuthProfile, error) {
	token, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code for token: %w", err)
	}
	client := p.oauth2Config.Client(ctx, token)

	var user githubUser
	if err := p.getJSON(ctx, client, "/user", &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("github user response has no id")
	}

	var emails []githubEmail
	if err := p.getJSON(ctx, client, "/user/emails", &emails); err != nil {
		return nil, err
	}

	displayName := user.Name
	if displayName == "" {
		displayName = user.Login
	}
	return &domain.OAuthProfile{
		ExternalID:  strconv.FormatInt(user.ID, 10),
		Email:       primaryVerifiedEmail(emails),
		DisplayName: displayName,
		AvatarURL:   user.AvatarURL,
		Username:    user.Login,
	}, nil
}

func (p *githubProvider) getJSON(ctx context.Context, client *http.Client, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build github request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call github %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github api returned non-200 status for %s: %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode github %s: %w", path, err)
	}
	return nil
}

// primaryVerifiedEmail returns the primary address if verified, else any
// verified one.
func primaryVerifiedEmail(emails []githubEmail) string {
	fallback := ""
	for _, e := range emails {
		if !e.Verified {
			continue
		}
		if e.Primary {
			return e.Email
		}
		if fallback == "" {
			fallback = e.Email
		}
	}
	return fallback
}
