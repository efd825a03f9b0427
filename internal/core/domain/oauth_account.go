package domain

import (
	"strings"
	"time"
)

// Provider identifies an external OAuth identity provider.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderGitHub Provider = "github"
)

// PlaceholderEmailDomain backs the email of users created from a provider
// profile that carried none.
const PlaceholderEmailDomain = "oauth.local"

// Providers lists every supported provider.
var Providers = []Provider{ProviderGoogle, ProviderGitHub}

// IsReservedIdentity reports whether a self-chosen username or email falls in
// the namespace synthesized for provider-created users.
func IsReservedIdentity(email, username string) bool {
	if strings.HasSuffix(strings.ToLower(email), "@"+PlaceholderEmailDomain) {
		return true
	}
	username = strings.ToLower(username)
	for _, p := range Providers {
		if strings.HasPrefix(username, string(p)+"_") {
			return true
		}
	}
	return false
}

// OAuthAccount links a provider identity to a local user.
// It is unique on (Provider, ProviderUserID) and never mutated after creation.
type OAuthAccount struct {
	ID             string    `json:"id"`
	Provider       Provider  `json:"provider"`
	ProviderUserID string    `json:"providerUserID"`
	Email          *string   `json:"email,omitempty"`
	DisplayName    *string   `json:"displayName,omitempty"`
	AvatarURL      *string   `json:"avatarURL,omitempty"`
	UserID         string    `json:"userID"`
	CreatedAt      time.Time `json:"createdAt"`
}

// OAuthProfile is the provider-independent shape every provider adapter
// normalises its callback payload into.
type OAuthProfile struct {
	ExternalID  string
	Email       string
	DisplayName string
	AvatarURL   string
	// Username is a provider-supplied handle, if any (GitHub login).
	Username string
}
