package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/identity_service/internal/apperrors"
	"github.com/SscSPs/identity_service/internal/core/domain"
	portsrepo "github.com/SscSPs/identity_service/internal/core/ports/repositories"
	"github.com/SscSPs/identity_service/internal/models"
	"github.com/SscSPs/identity_service/internal/utils/mapping"
)

type PgsqlRefreshTokenRepository struct {
	BaseRepository
	now func() time.Time
}

func newPgsqlRefreshTokenRepository(db DBTX) *PgsqlRefreshTokenRepository {
	return &PgsqlRefreshTokenRepository{BaseRepository: BaseRepository{db: db}, now: time.Now}
}

var _ portsrepo.RefreshTokenRepositoryFacade = (*PgsqlRefreshTokenRepository)(nil)

func (r *PgsqlRefreshTokenRepository) CreateRefreshToken(ctx context.Context, token domain.RefreshToken) error {
	m := mapping.ToModelRefreshToken(token)
	query := `
        INSERT INTO refresh_tokens (token_id, lineage_id, user_id, token_hash, revoked, expires_at, created_at)
        VALUES ($1, $2, $3, $4, FALSE, $5, $6);
    `
	if _, err := r.db.ExecContext(ctx, query, m.TokenID, m.LineageID, m.UserID, m.TokenHash, m.ExpiresAt, m.CreatedAt); err != nil {
		return wrapWriteErr("failed to create refresh token", err)
	}
	return nil
}

func (r *PgsqlRefreshTokenRepository) FindRefreshToken(ctx context.Context, tokenID string, userID string) (*domain.RefreshToken, error) {
	query := `
        SELECT token_id, lineage_id, user_id, token_hash, revoked, expires_at, created_at, revoked_at
        FROM refresh_tokens
        WHERE token_id = $1 AND user_id = $2;
    `
	var m models.RefreshToken
	err := r.db.QueryRowContext(ctx, query, tokenID, userID).Scan(
		&m.TokenID,
		&m.LineageID,
		&m.UserID,
		&m.TokenHash,
		&m.Revoked,
		&m.ExpiresAt,
		&m.CreatedAt,
		&m.RevokedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find refresh token %s: %w", tokenID, err)
	}
	d := mapping.ToDomainRefreshToken(m)
	return &d, nil
}

// RevokeRefreshToken only matches a live row, so of two transactions racing
// on the same token the second blocks on the row lock and then updates
// nothing.
func (r *PgsqlRefreshTokenRepository) RevokeRefreshToken(ctx context.Context, tokenID string) (bool, error) {
	query := `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE token_id = $1 AND revoked = FALSE;`
	n, err := r.exec(ctx, "revoke refresh token", query, tokenID, r.now().UTC())
	return n == 1, err
}

func (r *PgsqlRefreshTokenRepository) RevokeLineage(ctx context.Context, lineageID string) (int64, error) {
	query := `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE lineage_id = $1 AND revoked = FALSE;`
	return r.exec(ctx, "revoke lineage", query, lineageID, r.now().UTC())
}

func (r *PgsqlRefreshTokenRepository) RevokeAllRefreshTokens(ctx context.Context, userID string) (int64, error) {
	query := `UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE user_id = $1 AND revoked = FALSE;`
	return r.exec(ctx, "revoke user refresh tokens", query, userID, r.now().UTC())
}

func (r *PgsqlRefreshTokenRepository) exec(ctx context.Context, op string, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to %s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to %s: %w", op, err)
	}
	return n, nil
}
