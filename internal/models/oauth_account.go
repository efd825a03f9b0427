package models

import (
	"database/sql"
	"time"
)

// OAuthAccount is a row of the oauth_accounts table.
type OAuthAccount struct {
	ID             string         `db:"id"`
	Provider       string         `db:"provider"`
	ProviderUserID string         `db:"provider_user_id"`
	Email          sql.NullString `db:"email"`
	DisplayName    sql.NullString `db:"display_name"`
	AvatarURL      sql.NullString `db:"avatar_url"`
	UserID         string         `db:"user_id"`
	CreatedAt      time.Time      `db:"created_at"`
}
