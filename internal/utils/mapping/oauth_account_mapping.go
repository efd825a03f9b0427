package mapping

import (
	"github.com/SscSPs/identity_service/internal/core/domain"
	"github.com/SscSPs/identity_service/internal/models"
)

// ToModelOAuthAccount converts a domain OAuthAccount to a model OAuthAccount
func ToModelOAuthAccount(d domain.OAuthAccount) models.OAuthAccount {
	return models.OAuthAccount{
		ID:             d.ID,
		Provider:       string(d.Provider),
		ProviderUserID: d.ProviderUserID,
		Email:          toNullString(d.Email),
		DisplayName:    toNullString(d.DisplayName),
		AvatarURL:      toNullString(d.AvatarURL),
		UserID:         d.UserID,
		CreatedAt:      d.CreatedAt,
	}
}

// ToDomainOAuthAccount converts a model OAuthAccount to a domain OAuthAccount
func ToDomainOAuthAccount(m models.OAuthAccount) domain.OAuthAccount {
	return domain.OAuthAccount{
		ID:             m.ID,
		Provider:       domain.Provider(m.Provider),
		ProviderUserID: m.ProviderUserID,
		Email:          fromNullString(m.Email),
		DisplayName:    fromNullString(m.DisplayName),
		AvatarURL:      fromNullString(m.AvatarURL),
		UserID:         m.UserID,
		CreatedAt:      m.CreatedAt,
	}
}
