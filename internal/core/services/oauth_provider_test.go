package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/SscSPs/identity_service/internal/core/domain"
	"github.com/SscSPs/identity_service/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/idtoken"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func testEndpoint(srv *httptest.Server) oauth2.Endpoint {
	return oauth2.Endpoint{
		AuthURL:   srv.URL + "/authorize",
		TokenURL:  srv.URL + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

func TestGitHubProvider_FetchProfile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.Form.Get("code"))
		writeJSON(w, map[string]any{"access_token": "gh-token", "token_type": "bearer"})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer gh-token", r.Header.Get("Authorization"))
		writeJSON(w, map[string]any{"id": 4242, "login": "octocat", "name": "", "avatar_url": "https://avatars.example/octo"})
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{
			{"email": "unverified@example.com", "primary": false, "verified": false},
			{"email": "secondary@example.com", "primary": false, "verified": true},
			{"email": "octo@example.com", "primary": true, "verified": true},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := services.NewGitHubProvider("client", "secret", "http://localhost/cb",
		services.WithGitHubEndpoint(testEndpoint(srv)),
		services.WithGitHubAPIBaseURL(srv.URL))

	assert.Equal(t, domain.ProviderGitHub, p.Name())

	profile, err := p.FetchProfile(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "4242", profile.ExternalID)
	assert.Equal(t, "octo@example.com", profile.Email)
	assert.Equal(t, "octocat", profile.DisplayName)
	assert.Equal(t, "octocat", profile.Username)
	assert.Equal(t, "https://avatars.example/octo", profile.AvatarURL)
}

func TestGitHubProvider_NoVerifiedEmail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"access_token": "gh-token", "token_type": "bearer"})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"id": 7, "login": "ghost", "name": "Ghost"})
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{{"email": "ghost@example.com", "primary": true, "verified": false}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := services.NewGitHubProvider("client", "secret", "http://localhost/cb",
		services.WithGitHubEndpoint(testEndpoint(srv)),
		services.WithGitHubAPIBaseURL(srv.URL))

	profile, err := p.FetchProfile(context.Background(), "code")
	require.NoError(t, err)
	assert.Empty(t, profile.Email)
	assert.Equal(t, "Ghost", profile.DisplayName)
}

func TestGitHubProvider_APIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"access_token": "gh-token", "token_type": "bearer"})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := services.NewGitHubProvider("client", "secret", "http://localhost/cb",
		services.WithGitHubEndpoint(testEndpoint(srv)),
		services.WithGitHubAPIBaseURL(srv.URL))

	_, err := p.FetchProfile(context.Background(), "code")
	assert.Error(t, err)
}

func TestGitHubProvider_AuthCodeURL(t *testing.T) {
	p := services.NewGitHubProvider("client-id", "secret", "http://localhost/cb")

	u, err := url.Parse(p.AuthCodeURL("state-123"))
	require.NoError(t, err)
	assert.Equal(t, "github.com", u.Host)
	assert.Equal(t, "state-123", u.Query().Get("state"))
	assert.Equal(t, "client-id", u.Query().Get("client_id"))
	assert.Equal(t, "http://localhost/cb", u.Query().Get("redirect_uri"))
}

func googleTokenServer(t *testing.T, idToken string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"access_token": "g-token", "token_type": "Bearer", "expires_in": 3600}
		if idToken != "" {
			body["id_token"] = idToken
		}
		writeJSON(w, body)
	})
	return httptest.NewServer(mux)
}

func TestGoogleProvider_FetchProfile(t *testing.T) {
	srv := googleTokenServer(t, "raw-id-token")
	defer srv.Close()

	var gotToken, gotAudience string
	p := services.NewGoogleProvider("google-client", "secret", "http://localhost/cb",
		services.WithGoogleEndpoint(testEndpoint(srv)),
		services.WithIDTokenValidator(func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
			gotToken, gotAudience = token, audience
			return &idtoken.Payload{
				Subject: "1098",
				Claims: map[string]interface{}{
					"email":          "frank@example.com",
					"email_verified": true,
					"name":           "Frank",
					"picture":        "https://pics.example/frank",
				},
			}, nil
		}))

	assert.Equal(t, domain.ProviderGoogle, p.Name())

	profile, err := p.FetchProfile(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "raw-id-token", gotToken)
	assert.Equal(t, "google-client", gotAudience)
	assert.Equal(t, "1098", profile.ExternalID)
	assert.Equal(t, "frank@example.com", profile.Email)
	assert.Equal(t, "Frank", profile.DisplayName)
	assert.Equal(t, "https://pics.example/frank", profile.AvatarURL)
}

func TestGoogleProvider_UnverifiedEmailIsDropped(t *testing.T) {
	srv := googleTokenServer(t, "raw-id-token")
	defer srv.Close()

	p := services.NewGoogleProvider("google-client", "secret", "http://localhost/cb",
		services.WithGoogleEndpoint(testEndpoint(srv)),
		services.WithIDTokenValidator(func(context.Context, string, string) (*idtoken.Payload, error) {
			return &idtoken.Payload{
				Subject: "1099",
				Claims:  map[string]interface{}{"email": "spoof@example.com", "email_verified": false},
			}, nil
		}))

	profile, err := p.FetchProfile(context.Background(), "code")
	require.NoError(t, err)
	assert.Empty(t, profile.Email)
}

func TestGoogleProvider_Failures(t *testing.T) {
	t.Run("missing id token", func(t *testing.T) {
		srv := googleTokenServer(t, "")
		defer srv.Close()
		p := services.NewGoogleProvider("google-client", "secret", "http://localhost/cb", services.WithGoogleEndpoint(testEndpoint(srv)))

		_, err := p.FetchProfile(context.Background(), "code")
		assert.Error(t, err)
	})

	t.Run("invalid id token", func(t *testing.T) {
		srv := googleTokenServer(t, "raw-id-token")
		defer srv.Close()
		p := services.NewGoogleProvider("google-client", "secret", "http://localhost/cb",
			services.WithGoogleEndpoint(testEndpoint(srv)),
			services.WithIDTokenValidator(func(context.Context, string, string) (*idtoken.Payload, error) {
				return nil, errors.New("bad signature")
			}))

		_, err := p.FetchProfile(context.Background(), "code")
		assert.ErrorContains(t, err, "bad signature")
	})
}
