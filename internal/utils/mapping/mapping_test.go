package mapping

import (
	"testing"
	"time"

	"github.com/SscSPs/identity_service/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestUserMapping_NullableColumns(t *testing.T) {
	hash := "$argon2id$..."
	d := domain.User{UserID: "u1", Email: "a@example.com", Username: "a", PasswordHash: &hash, Role: domain.RoleAdmin}

	m := ToModelUser(d)
	assert.True(t, m.PasswordHash.Valid)
	assert.False(t, m.MfaSecret.Valid)
	assert.Equal(t, "admin", m.Role)

	back := ToDomainUser(m)
	assert.Equal(t, hash, *back.PasswordHash)
	assert.Nil(t, back.MfaSecret)
	assert.Equal(t, domain.RoleAdmin, back.Role)
}

func TestRefreshTokenMapping_RevokedAt(t *testing.T) {
	now := time.Now()
	m := ToModelRefreshToken(domain.RefreshToken{TokenID: "t1", Revoked: true, RevokedAt: &now})
	assert.True(t, m.RevokedAt.Valid)

	m = ToModelRefreshToken(domain.RefreshToken{TokenID: "t2"})
	assert.False(t, m.RevokedAt.Valid)
	assert.Nil(t, ToDomainRefreshToken(m).RevokedAt)
}
