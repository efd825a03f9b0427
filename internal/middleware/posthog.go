package middleware

import (
	"net/http"
	"strings"

	"github.com/SscSPs/identity_service/internal/utils"
	"github.com/gin-gonic/gin"
)

// pathsToSkip contains paths that should not be tracked by PostHog
var pathsToSkip = map[string]bool{
	"/health":    true,
	"/auth/csrf": true,
}

// PosthogMiddleware tracks successful calls made by authenticated users.
// Anonymous endpoints (login, refresh, OAuth) report their own events with
// PosthogEvent once the user is known.
func PosthogMiddleware(posthogClient *utils.PosthogClientWrapper) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !posthogClient.IsInitialized() || pathsToSkip[c.Request.URL.Path] {
			c.Next()
			return
		}

		c.Next()

		if len(c.Errors) > 0 || c.Writer.Status() >= http.StatusBadRequest {
			return
		}

		userID, exists := GetUserIDFromContext(c)
		if !exists {
			return
		}

		// "/auth/mfa/setup" -> "auth_mfa_setup"
		eventName := strings.TrimPrefix(c.FullPath(), "/")
		eventName = strings.ReplaceAll(eventName, "/", "_")
		eventName = strings.ReplaceAll(eventName, ":", "")
		if eventName == "" {
			return
		}

		posthogClient.Enqueue(userID, eventName, map[string]any{
			"method":      c.Request.Method,
			"route":       c.FullPath(),
			"status_code": c.Writer.Status(),
		})
	}
}

// PosthogEvent sends a custom event for userID from a handler.
func PosthogEvent(c *gin.Context, posthogClient *utils.PosthogClientWrapper, userID string, eventName string, properties map[string]any) {
	if !posthogClient.IsInitialized() || userID == "" {
		return
	}
	if properties == nil {
		properties = make(map[string]any)
	}
	properties["route"] = c.FullPath()
	posthogClient.Enqueue(userID, eventName, properties)
}
