package mapping

import (
	"github.com/SscSPs/identity_service/internal/core/domain"
	"github.com/SscSPs/identity_service/internal/models"
)

// ToModelRefreshToken converts a domain RefreshToken to a model RefreshToken
func ToModelRefreshToken(d domain.RefreshToken) models.RefreshToken {
	return models.RefreshToken{
		TokenID:   d.TokenID,
		LineageID: d.LineageID,
		UserID:    d.UserID,
		TokenHash: d.TokenHash,
		Revoked:   d.Revoked,
		ExpiresAt: d.ExpiresAt,
		CreatedAt: d.CreatedAt,
		RevokedAt: toNullTime(d.RevokedAt),
	}
}

// ToDomainRefreshToken converts a model RefreshToken to a domain RefreshToken
func ToDomainRefreshToken(m models.RefreshToken) domain.RefreshToken {
	return domain.RefreshToken{
		TokenID:   m.TokenID,
		LineageID: m.LineageID,
		UserID:    m.UserID,
		TokenHash: m.TokenHash,
		Revoked:   m.Revoked,
		ExpiresAt: m.ExpiresAt,
		CreatedAt: m.CreatedAt,
		RevokedAt: fromNullTime(m.RevokedAt),
	}
}
