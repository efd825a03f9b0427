package middleware

import (
	"github.com/SscSPs/identity_service/internal/core/domain"
	"github.com/gin-gonic/gin"
)

// contextKey is the type of keys stored by this package in the Gin and
// request contexts. Using a custom type prevents collisions.
type contextKey string

const (
	userIDKey = contextKey("userID")
	roleKey   = contextKey("role")
)

// GetUserIDFromContext retrieves the authenticated user ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userIDVal, exists := c.Get(string(userIDKey))
	if !exists {
		// check in the request context as well
		if userID, ok := c.Request.Context().Value(userIDKey).(string); ok {
			return userID, true
		}
		return "", false
	}

	userID, ok := userIDVal.(string)
	return userID, ok && userID != ""
}

// GetRoleFromContext retrieves the role carried by the caller's access token.
func GetRoleFromContext(c *gin.Context) (domain.Role, bool) {
	roleVal, exists := c.Get(string(roleKey))
	if !exists {
		return "", false
	}
	role, ok := roleVal.(domain.Role)
	return role, ok
}
