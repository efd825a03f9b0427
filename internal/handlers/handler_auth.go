package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/identity_service/internal/apperrors"
	portssvc "github.com/SscSPs/identity_service/internal/core/ports/services"
	"github.com/SscSPs/identity_service/internal/dto"
	"github.com/SscSPs/identity_service/internal/middleware"
	"github.com/SscSPs/identity_service/internal/utils"
	"github.com/gin-gonic/gin"
)

// authHandler handles registration, login and the refresh-token lifecycle.
type authHandler struct {
	sessionService portssvc.SessionSvcFacade
	userService    portssvc.UserSvcFacade
	cookies        cookieJar
	analytics      *utils.PosthogClientWrapper
}

func newAuthHandler(ss portssvc.SessionSvcFacade, us portssvc.UserSvcFacade, cookies cookieJar, analytics *utils.PosthogClientWrapper) *authHandler {
	return &authHandler{
		sessionService: ss,
		userService:    us,
		cookies:        cookies,
		analytics:      analytics,
	}
}

// register godoc
// @Summary Register new user
// @Description Creates a password account. Email and username must both be unused.
// @Tags auth
// @Accept json
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token echoed from the csrf cookie"
// @Param register body dto.RegisterRequest true "User Registration Info"
// @Success 201 {object} dto.UserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Email or username already registered"
// @Failure 429 {object} ErrorResponse
// @Router /auth/register [post]
func (h *authHandler) register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.sessionService.Register(c.Request.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		respondError(c, err, "Failed to register user")
		return
	}

	middleware.PosthogEvent(c, h.analytics, user.UserID, "user_registered", map[string]any{"method": "password"})
	c.JSON(http.StatusCreated, dto.ToUserResponse(user))
}

// login godoc
// @Summary User login
// @Description Authenticates by email or username and password. Accounts with MFA need mfaCode.
// @Description The access token is returned in the body; the refresh token is set as an http-only cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token echoed from the csrf cookie"
// @Param login body dto.LoginRequest true "Login Credentials"
// @Success 200 {object} dto.SessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse "Invalid credentials, MFA code required or invalid MFA code"
// @Failure 429 {object} ErrorResponse
// @Router /auth/login [post]
func (h *authHandler) login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	session, err := h.sessionService.Login(c.Request.Context(), req.Identifier, req.Password, req.MfaCode)
	if err != nil {
		respondError(c, err, "Login failed")
		return
	}

	h.cookies.setRefresh(c, session.RefreshToken, session.RefreshTokenExpiresAt)
	middleware.PosthogEvent(c, h.analytics, session.User.UserID, "user_logged_in", map[string]any{"method": "password"})
	c.JSON(http.StatusOK, dto.ToSessionResponse(session))
}

// refresh godoc
// @Summary Rotate refresh token
// @Description Exchanges the refresh token cookie for a new access token and a new refresh token cookie.
// @Description The presented token is revoked; presenting it again fails.
// @Tags auth
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token echoed from the csrf cookie"
// @Success 200 {object} dto.SessionResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/refresh [post]
func (h *authHandler) refresh(c *gin.Context) {
	token := h.cookies.refresh(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "No refresh token"})
		return
	}

	session, err := h.sessionService.Refresh(c.Request.Context(), token)
	if err != nil {
		if apperrors.ToHTTP(err).Code == http.StatusUnauthorized {
			h.cookies.clearRefresh(c)
		}
		respondError(c, err, "Refresh failed")
		return
	}

	h.cookies.setRefresh(c, session.RefreshToken, session.RefreshTokenExpiresAt)
	c.JSON(http.StatusOK, dto.ToSessionResponse(session))
}

// logout godoc
// @Summary Log out
// @Description Revokes the refresh token cookie if it resolves and clears it. Always succeeds.
// @Tags auth
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token echoed from the csrf cookie"
// @Success 200 {object} dto.SuccessResponse
// @Router /auth/logout [post]
func (h *authHandler) logout(c *gin.Context) {
	if err := h.sessionService.Logout(c.Request.Context(), h.cookies.refresh(c)); err != nil {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Logout failed", slog.String("error", err.Error()))
	}
	h.cookies.clearRefresh(c)
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /auth/me [get]
func (h *authHandler) me(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to load current user")
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// setPassword godoc
// @Summary Change password
// @Description Sets a new password and revokes every session of the caller, including the current one.
// @Tags auth
// @Accept json
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token echoed from the csrf cookie"
// @Param body body dto.SetPasswordRequest true "New password"
// @Success 200 {object} dto.SessionsRevokedResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /auth/password [post]
func (h *authHandler) setPassword(c *gin.Context) {
	userID, ok := requireUserID(c)
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
		respondError(c, err, "Failed to change password")
		return
	}

	h.cookies.clearRefresh(c)
	c.JSON(http.StatusOK, dto.SessionsRevokedResponse{Revoked: revoked})
}
