package mapping

import (
	"github.com/SscSPs/identity_service/internal/core/domain"
	"github.com/SscSPs/identity_service/internal/models"
)

// ToModelUser converts a domain User to a model User
func ToModelUser(d domain.User) models.User {
	return models.User{
		UserID:       d.UserID,
		Email:        d.Email,
		Username:     d.Username,
		PasswordHash: toNullString(d.PasswordHash),
		Role:         string(d.Role),
		MfaEnabled:   d.MfaEnabled,
		MfaSecret:    toNullString(d.MfaSecret),
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainUser converts a model User to a domain User
func ToDomainUser(m models.User) domain.User {
	return domain.User{
		UserID:       m.UserID,
		Email:        m.Email,
		Username:     m.Username,
		PasswordHash: fromNullString(m.PasswordHash),
		Role:         domain.Role(m.Role),
		MfaEnabled:   m.MfaEnabled,
		MfaSecret:    fromNullString(m.MfaSecret),
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainUserSlice converts a slice of model Users to a slice of domain Users
func ToDomainUserSlice(ms []models.User) []domain.User {
	ds := make([]domain.User, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainUser(m)
	}
	return ds
}
