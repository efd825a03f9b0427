package domain

import "time"

// TokenKind distinguishes the two signed token types.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// AccessClaims are the verified claims of an access token.
type AccessClaims struct {
	UserID    string
	Email     string
	Role      Role
	ExpiresAt time.Time
}

// RefreshClaims are the verified claims of a refresh token.
type RefreshClaims struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

// Session is the result of a successful login, refresh or OAuth sign-in.
// AccessToken goes back in the response body; RefreshToken is delivered
// only through the http-only cookie.
type Session struct {
	User                  *User
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

// MfaEnrollment is returned by enrolment and is not persisted until confirmed.
type MfaEnrollment struct {
	Secret          string   `json:"secret"`
	ProvisioningURI string   `json:"otpauthUrl"`
	BackupCodes     []string `json:"backupCodes"`
}
