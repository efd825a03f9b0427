package models

import (
	"database/sql"
)

// User is a row of the users table.
type User struct {
	UserID       string         `db:"user_id"`
	Email        string         `db:"email"`
	Username     string         `db:"username"`
	PasswordHash sql.NullString `db:"password_hash"`
	Role         string         `db:"role"`
	MfaEnabled   bool           `db:"mfa_enabled"`
	MfaSecret    sql.NullString `db:"mfa_secret"`
	AuditFields
}
