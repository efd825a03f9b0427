package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/identity_service/internal/core/domain"
)

// UserReader defines read operations for user data
type UserReader interface {
	// FindUserByID retrieves a specific user by their ID.
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)

	// FindUserByEmailOrUsername matches identifier against both unique columns.
	FindUserByEmailOrUsername(ctx context.Context, identifier string) (*domain.User, error)

	// FindUserByEmail retrieves a user by exact email.
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// FindUsers retrieves a paginated list of users, newest first.
	FindUsers(ctx context.Context, limit int, offset int) ([]domain.User, error)
}

// UserWriter defines write operations for user data
type UserWriter interface {
	// CreateUser persists a new user. Returns apperrors.ErrDuplicate when the
	// email or username is taken.
	CreateUser(ctx context.Context, user domain.User) error

	// Each update below writes only its own columns, so concurrent changes to
	// the other credential fields of the same row survive.

	// SetPasswordHash overwrites the password hash. Returns
	// apperrors.ErrNotFound for an unknown user.
	SetPasswordHash(ctx context.Context, userID string, hash string, at time.Time) error

	// ReplacePasswordHash swaps oldHash for newHash and reports false when the
	// stored hash is no longer oldHash.
	ReplacePasswordHash(ctx context.Context, userID string, oldHash string, newHash string, at time.Time) (bool, error)

	// EnableMfa stores secret and turns MFA on, reporting false when MFA is
	// already on.
	EnableMfa(ctx context.Context, userID string, secret string, at time.Time) (bool, error)

	// DisableMfa clears the secret only while it still equals secret.
	DisableMfa(ctx context.Context, userID string, secret string, at time.Time) (bool, error)

	// UpdateRole changes the role. Returns apperrors.ErrNotFound for an
	// unknown user.
	UpdateRole(ctx context.Context, userID string, role domain.Role, at time.Time) error
}

// UserRepositoryFacade combines all user-related repository interfaces
type UserRepositoryFacade interface {
	UserReader
	UserWriter
}
