package middleware

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/identity_service/internal/platform/logger"
	"github.com/SscSPs/identity_service/internal/utils"
	"github.com/gin-gonic/gin"
)

// CSRFGuard enforces the double-submit check on mutating requests: the
// header must echo the value of the CSRF cookie.
func CSRFGuard(cookieName, headerName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if utils.IsSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		cookie, _ := c.Cookie(cookieName)
		if err := utils.CheckDoubleSubmit(c.Request.Method, c.GetHeader(headerName), cookie); err != nil {
			logger.SecurityEvent(c.Request.Context(), "csrf_rejected",
				slog.String("path", c.Request.URL.Path),
				slog.Bool("cookie_present", cookie != ""))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "CSRF check failed"})
			return
		}
		c.Next()
	}
}
