package repositories

import (
	"context"

	"github.com/SscSPs/identity_service/internal/core/domain"
)

// RefreshTokenReader defines read operations for refresh token records.
type RefreshTokenReader interface {
	// FindRefreshToken returns the record for tokenID owned by userID, or
	// apperrors.ErrNotFound.
	FindRefreshToken(ctx context.Context, tokenID string, userID string) (*domain.RefreshToken, error)
}

// RefreshTokenWriter defines write operations for refresh token records.
type RefreshTokenWriter interface {
	// CreateRefreshToken inserts a new non-revoked record.
	CreateRefreshToken(ctx context.Context, token domain.RefreshToken) error

	// RevokeRefreshToken flips a live record to revoked. It reports false when
	// the record was already revoked or missing, which makes it the
	// compare-and-set step of rotation.
	RevokeRefreshToken(ctx context.Context, tokenID string) (bool, error)

	// RevokeLineage revokes every live record of one lineage.
	RevokeLineage(ctx context.Context, lineageID string) (int64, error)

	// RevokeAllRefreshTokens revokes every live record of a user and returns
	// the number of records affected.
	RevokeAllRefreshTokens(ctx context.Context, userID string) (int64, error)
}

// RefreshTokenRepositoryFacade combines refresh token read and write operations.
type RefreshTokenRepositoryFacade interface {
	RefreshTokenReader
	RefreshTokenWriter
}
