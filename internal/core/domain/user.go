package domain

// Role is the authorization role carried in access tokens.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents an identity record in the domain.
type User struct {
	UserID       string  `json:"userID"` // Primary Key (UUID)
	Email        string  `json:"email"`
	Username     string  `json:"username"`
	PasswordHash *string `json:"-"` // nil when the account has no password-login path
	Role         Role    `json:"role"`
	MfaEnabled   bool    `json:"mfaEnabled"`
	MfaSecret    *string `json:"-"` // base32 TOTP secret, set only while MfaEnabled
	AuditFields
}

// HasPassword reports whether the user can log in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
