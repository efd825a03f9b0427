package services

import (
	"context"

	"github.com/SscSPs/identity_service/internal/core/domain"
)

// UserReaderSvc defines read operations for user data
type UserReaderSvc interface {
	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)

	// ListUsers retrieves a paginated list of users.
	ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error)
}

// UserAdminSvc defines administrative mutations of user data
type UserAdminSvc interface {
	// SetRole promotes or demotes a user.
	SetRole(ctx context.Context, userID string, role domain.Role) (*domain.User, error)
}

// UserSvcFacade combines all user-related service interfaces
type UserSvcFacade interface {
	UserReaderSvc
	UserAdminSvc
}
