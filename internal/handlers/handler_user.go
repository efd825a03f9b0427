package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/identity_service/internal/core/ports/services"
	"github.com/SscSPs/identity_service/internal/dto"
	"github.com/SscSPs/identity_service/internal/middleware"
	"github.com/SscSPs/identity_service/internal/platform/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// adminUserHandler handles the administrative user operations. Every route
// runs behind RequireRole(admin).
type adminUserHandler struct {
	userService    portssvc.UserSvcFacade
	sessionService portssvc.SessionSvcFacade
}

// targetUserID reads and validates the :userID path parameter.
func targetUserID(c *gin.Context) (string, bool) {
	userID := c.Param("userID")
	if err := uuid.Validate(userID); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid user ID"})
		return "", false
	}
	return userID, true
}

// listUsers godoc
// @Summary List users
// @Tags admin
// @Produce json
// @Param limit query int false "Limit number of results" default(20)
// @Param offset query int false "Offset for pagination" default(0)
// @Success 200 {object} dto.ListUsersResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /admin/users [get]
func (h *adminUserHandler) listUsers(c *gin.Context) {
	var params dto.ListUsersParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBindError(c, err)
		return
	}

	users, err := h.userService.ListUsers(c.Request.Context(), params.Limit, params.Offset)
	if err != nil {
		respondError(c, err, "Failed to list users")
		return
	}
	c.JSON(http.StatusOK, dto.ToListUserResponse(users, params))
}

// setRole godoc
// @Summary Promote or demote a user
// @Tags admin
// @Accept json
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token echoed from the csrf cookie"
// @Param userID path string true "User ID"
// @Param body body dto.SetRoleRequest true "New role"
// @Success 200 {object} dto.UserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{userID}/role [post]
func (h *adminUserHandler) setRole(c *gin.Context) {
	userID, ok := targetUserID(c)
	if !ok {
		return
	}
	var req dto.SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.userService.SetRole(c.Request.Context(), userID, req.Role)
	if err != nil {
		respondError(c, err, "Failed to change role")
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// revokeSessions godoc
// @Summary Revoke every session of a user
// @Tags admin
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token echoed from the csrf cookie"
// @Param userID path string true "User ID"
// @Success 200 {object} dto.SessionsRevokedResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{userID}/revoke-sessions [post]
func (h *adminUserHandler) revokeSessions(c *gin.Context) {
	userID, ok := targetUserID(c)
	if !ok {
		return
	}
	revoked, err := h.sessionService.RevokeAll(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to revoke sessions")
		return
	}
	c.JSON(http.StatusOK, dto.SessionsRevokedResponse{Revoked: revoked})
}

// disableUser godoc
// @Summary Disable a user
// @Description Users are never deleted; disabling revokes every session of the user.
// @Tags admin
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token echoed from the csrf cookie"
// @Param userID path string true "User ID"
// @Success 200 {object} dto.SessionsRevokedResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{userID}/disable [post]
func (h *adminUserHandler) disableUser(c *gin.Context) {
	userID, ok := targetUserID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := h.userService.GetUserByID(ctx, userID); err != nil {
		respondError(c, err, "Failed to find user to disable")
		return
	}
	revoked, err := h.sessionService.RevokeAll(ctx, userID)
	if err != nil {
		respondError(c, err, "Failed to disable user")
		return
	}

	adminID, _ := middleware.GetUserIDFromContext(c)
	logger.SecurityEvent(ctx, "user_disabled",
		slog.String("user_id", userID),
		slog.String("admin_id", adminID),
		slog.Int64("sessions_revoked", revoked))
	c.JSON(http.StatusOK, dto.SessionsRevokedResponse{Revoked: revoked})
}

// setPassword godoc
// @Summary Reset a user's password
// @Description Re-hashes the password and revokes every session of the user in one transaction.
// @Tags admin
// @Accept json
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token echoed from the csrf cookie"
// @Param userID path string true "User ID"
// @Param body body dto.SetPasswordRequest true "New password"
// @Success 200 {object} dto.SessionsRevokedResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{userID}/password [post]
func (h *adminUserHandler) setPassword(c *gin.Context) {
	userID, ok := targetUserID(c)
	if !ok {
		return
	}
	var req dto.SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	revoked, err := h.sessionService.SetPassword(c.Request.Context(), userID, req.Password)
	if err != nil {
		respondError(c, err, "Failed to reset password")
		return
	}
	c.JSON(http.StatusOK, dto.SessionsRevokedResponse{Revoked: revoked})
}
