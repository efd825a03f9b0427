package domain

import "time"

// RefreshToken is the server-side record of one issued refresh token.
// Only the hash of the signed token is stored; the raw token never is.
// A record is mutated only to flip Revoked to true.
type RefreshToken struct {
	TokenID   string     `json:"tokenID"`   // jti claim of the signed token
	LineageID string     `json:"lineageID"` // TokenID of the first token issued at login
	UserID    string     `json:"userID"`
	TokenHash string     `json:"-"`
	Revoked   bool       `json:"revoked"`
	ExpiresAt time.Time  `json:"expiresAt"`
	CreatedAt time.Time  `json:"createdAt"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
}

// IsExpired checks if the token has expired at the given instant.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
