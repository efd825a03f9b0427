package handlers

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/SscSPs/identity_service/internal/apperrors"
	"github.com/SscSPs/identity_service/internal/core/domain"
	portssvc "github.com/SscSPs/identity_service/internal/core/ports/services"
	"github.com/SscSPs/identity_service/internal/dto"
	"github.com/SscSPs/identity_service/internal/middleware"
	"github.com/SscSPs/identity_service/internal/platform/logger"
	"github.com/SscSPs/identity_service/internal/utils"
	"github.com/gin-gonic/gin"
)

const oauthStateBytes = 24

// oauthHandler drives the authorization-code flow for every configured
// provider and signs the resolved user in exactly like a password login.
type oauthHandler struct {
	providers      portssvc.OAuthProviders
	linker         portssvc.OAuthLinkerSvcFacade
	sessionService portssvc.SessionSvcFacade
	cookies        cookieJar
	analytics      *utils.PosthogClientWrapper
}

// start godoc
// @Summary Begin OAuth sign-in
// @Description Redirects to the provider's consent page. A state value is bound to the browser with a short-lived cookie.
// @Tags oauth
// @Param provider path string true "Provider name" Enums(google, github)
// @Success 302 "Redirect to the provider"
// @Failure 404 {object} ErrorResponse "Unknown provider"
// @Router /auth/oauth/{provider} [get]
func (h *oauthHandler) start(c *gin.Context) {
	provider, err := h.providers.Get(c.Param("provider"))
	if err != nil {
		respondError(c, err, "OAuth provider lookup failed")
		return
	}

	state, err := utils.GenerateURLSafeToken(oauthStateBytes)
	if err != nil {
		respondError(c, err, "Failed to generate OAuth state")
		return
	}
	h.cookies.setOAuthState(c, state)
	c.Redirect(http.StatusFound, provider.AuthCodeURL(state))
}

// callback godoc
// @Summary Complete OAuth sign-in
// @Description Verifies state, exchanges the code, links the provider identity to a local user and starts a session.
// @Description The refresh token is set as an http-only cookie.
// @Tags oauth
// @Produce json
// @Param provider path string true "Provider name" Enums(google, github)
// @Param code query string true "Authorization code"
// @Param state query string true "State issued by /auth/oauth/{provider}"
// @Success 200 {object} dto.SessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse "Bad state, or MFA code required (finish with POST /auth/oauth/mfa)"
// @Failure 404 {object} ErrorResponse "Unknown provider"
// @Failure 502 {object} ErrorResponse "OAuth authentication failed"
// @Router /auth/oauth/{provider}/callback [get]
func (h *oauthHandler) callback(c *gin.Context) {
	ctx := c.Request.Context()
	log := middleware.GetLoggerFromCtx(ctx)

	provider, err := h.providers.Get(c.Param("provider"))
	if err != nil {
		respondError(c, err, "OAuth provider lookup failed")
		return
	}

	expected := h.cookies.takeOAuthState(c)
	if providerErr := c.Query("error"); providerErr != "" {
		log.Warn("OAuth provider denied authorization", slog.String("provider", string(provider.Name())), slog.String("reason", providerErr))
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "OAuth authentication failed"})
		return
	}

	state := c.Query("state")
	if expected == "" || subtle.ConstantTimeCompare([]byte(state), []byte(expected)) != 1 {
		logger.SecurityEvent(ctx, "oauth_state_mismatch",
			slog.String("provider", string(provider.Name())),
			slog.Bool("cookie_present", expected != ""))
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "OAuth authentication failed"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "Authorization code is required"})
		return
	}

	profile, err := provider.FetchProfile(ctx, code)
	if err != nil {
		respondError(c, fmt.Errorf("%w: %v", apperrors.ErrLinkFailed, err), "Failed to fetch OAuth profile")
		return
	}

	user, err := h.linker.LinkProfile(ctx, provider.Name(), *profile)
	if err != nil {
		respondError(c, err, "Failed to link OAuth profile")
		return
	}

	if user.MfaEnabled {
		h.challengeMfa(c, user)
		return
	}

	session, err := h.sessionService.IssueForUser(ctx, user)
	if err != nil {
		respondError(c, err, "Failed to start OAuth session")
		return
	}

	log.Info("User signed in via OAuth", slog.String("user_id", user.UserID), slog.String("provider", string(provider.Name())))
	h.cookies.setRefresh(c, session.RefreshToken, session.RefreshTokenExpiresAt)
	middleware.PosthogEvent(c, h.analytics, user.UserID, "user_logged_in", map[string]any{"method": string(provider.Name())})
	c.JSON(http.StatusOK, dto.ToSessionResponse(session))
}

// challengeMfa holds back the session of an MFA-enabled account until
// completeMfa receives a code.
func (h *oauthHandler) challengeMfa(c *gin.Context, user *domain.User) {
	challenge, expiresAt, err := h.sessionService.ChallengeMfa(c.Request.Context(), user)
	if err != nil {
		respondError(c, err, "Failed to start MFA challenge")
		return
	}
	h.cookies.setMfaChallenge(c, challenge, expiresAt)
	respondError(c, apperrors.ErrMfaRequired, "OAuth sign-in awaits MFA code")
}

// completeMfa godoc
// @Summary Finish an OAuth sign-in with an MFA code
// @Description Exchanges the challenge cookie set by the OAuth callback and a current TOTP code for a session.
// @Tags oauth
// @Accept json
// @Produce json
// @Param body body dto.MfaCodeRequest true "Current code"
// @Success 200 {object} dto.SessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse "Missing or expired challenge, or invalid MFA code"
// @Router /auth/oauth/mfa [post]
func (h *oauthHandler) completeMfa(c *gin.Context) {
	ctx := c.Request.Context()

	challenge := h.cookies.mfaChallenge(c)
	if challenge == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "MFA challenge missing or expired"})
		return
	}
	var req dto.MfaCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	session, err := h.sessionService.CompleteMfaChallenge(ctx, challenge, req.Code)
	if err != nil {
		if !errors.Is(err, apperrors.ErrInvalidMfaCode) {
			h.cookies.clearMfaChallenge(c)
		}
		respondError(c, err, "Failed to complete OAuth MFA challenge")
		return
	}

	h.cookies.clearMfaChallenge(c)
	middleware.GetLoggerFromCtx(ctx).Info("User signed in via OAuth with MFA", slog.String("user_id", session.User.UserID))
	h.cookies.setRefresh(c, session.RefreshToken, session.RefreshTokenExpiresAt)
	middleware.PosthogEvent(c, h.analytics, session.User.UserID, "user_logged_in", map[string]any{"method": "oauth_mfa"})
	c.JSON(http.StatusOK, dto.ToSessionResponse(session))
}
