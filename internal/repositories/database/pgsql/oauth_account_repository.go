package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SscSPs/identity_service/internal/apperrors"
	"github.com/SscSPs/identity_service/internal/core/domain"
	portsrepo "github.com/SscSPs/identity_service/internal/core/ports/repositories"
	"github.com/SscSPs/identity_service/internal/models"
	"github.com/SscSPs/identity_service/internal/utils/mapping"
)

type PgsqlOAuthAccountRepository struct {
	BaseRepository
}

func newPgsqlOAuthAccountRepository(db DBTX) *PgsqlOAuthAccountRepository {
	return &PgsqlOAuthAccountRepository{BaseRepository{db: db}}
}

var _ portsrepo.OAuthAccountRepositoryFacade = (*PgsqlOAuthAccountRepository)(nil)

func (r *PgsqlOAuthAccountRepository) FindOAuthAccount(ctx context.Context, provider domain.Provider, providerUserID string) (*domain.OAuthAccount, error) {
	query := `
        SELECT id, provider, provider_user_id, email, display_name, avatar_url, user_id, created_at
        FROM oauth_accounts
        WHERE provider = $1 AND provider_user_id = $2;
    `
	var m models.OAuthAccount
	err := r.db.QueryRowContext(ctx, query, string(provider), providerUserID).Scan(
		&m.ID,
		&m.Provider,
		&m.ProviderUserID,
		&m.Email,
		&m.DisplayName,
		&m.AvatarURL,
		&m.UserID,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find oauth account: %w", err)
	}
	d := mapping.ToDomainOAuthAccount(m)
	return &d, nil
}

func (r *PgsqlOAuthAccountRepository) CreateOAuthAccount(ctx context.Context, account domain.OAuthAccount) error {
	m := mapping.ToModelOAuthAccount(account)
	query := `
        INSERT INTO oauth_accounts (id, provider, provider_user_id, email, display_name, avatar_url, user_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
    `
	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.Provider, m.ProviderUserID, m.Email, m.DisplayName, m.AvatarURL, m.UserID, m.CreatedAt)
	if err != nil {
		return wrapWriteErr("failed to create oauth account", err)
	}
	return nil
}
