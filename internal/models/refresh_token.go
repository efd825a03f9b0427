package models

import (
	"database/sql"
	"time"
)

// RefreshToken is a row of the refresh_tokens table.
type RefreshToken struct {
	TokenID   string       `db:"token_id"`
	LineageID string       `db:"lineage_id"`
	UserID    string       `db:"user_id"`
	TokenHash string       `db:"token_hash"`
	Revoked   bool         `db:"revoked"`
	ExpiresAt time.Time    `db:"expires_at"`
	CreatedAt time.Time    `db:"created_at"`
	RevokedAt sql.NullTime `db:"revoked_at"`
}

// TableName returns the backing table.
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}
