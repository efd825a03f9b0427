package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/identity_service/internal/apperrors"
	portssvc "github.com/SscSPs/identity_service/internal/core/ports/services"
	"github.com/SscSPs/identity_service/internal/dto"
	"github.com/SscSPs/identity_service/internal/middleware"
	"github.com/gin-gonic/gin"
)

// mfaHandler exposes TOTP enrolment for the authenticated caller.
type mfaHandler struct {
	mfaService portssvc.MfaSvcFacade
	cookies    cookieJar
}

// setup godoc
// @Summary Start MFA enrolment
// @Description Generates a TOTP secret, its otpauth:// provisioning URI and backup codes. Nothing is stored until /auth/mfa/enable succeeds.
// @Tags mfa
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token echoed from the csrf cookie"
// @Success 200 {object} domain.MfaEnrollment
// @Failure 400 {object} ErrorResponse "MFA is already enabled"
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /auth/mfa/setup [post]
func (h *mfaHandler) setup(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	enrollment, err := h.mfaService.Enroll(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to start MFA enrolment")
		return
	}
	c.JSON(http.StatusOK, enrollment)
}

// enable godoc
// @Summary Confirm MFA enrolment
// @Description Enables MFA when code matches secret. On failure the secret is discarded and setup must be repeated.
// @Tags mfa
// @Accept json
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token echoed from the csrf cookie"
// @Param body body dto.MfaEnableRequest true "Secret from setup and a current code"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse "Invalid MFA code"
// @Security BearerAuth
// @Router /auth/mfa/enable [post]
func (h *mfaHandler) enable(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req dto.MfaEnableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.mfaService.ConfirmEnroll(c.Request.Context(), userID, req.Secret, req.Code); err != nil {
		respondError(c, err, "Failed to enable MFA")
		return
	}
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// verify godoc
// @Summary Check a TOTP code
// @Tags mfa
// @Accept json
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token echoed from the csrf cookie"
// @Param body body dto.MfaCodeRequest true "Current code"
// @Success 200 {object} dto.MfaVerifyResponse
// @Failure 400 {object} ErrorResponse "MFA is not enabled"
// @Failure 401 {object} ErrorResponse "Invalid MFA code"
// @Security BearerAuth
// @Router /auth/mfa/verify [post]
func (h *mfaHandler) verify(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req dto.MfaCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	verified, err := h.mfaService.Verify(c.Request.Context(), userID, req.Code)
	if err != nil {
		respondError(c, err, "Failed to verify MFA code")
		return
	}
	if !verified {
		respondError(c, apperrors.ErrInvalidMfaCode, "MFA code rejected")
		return
	}
	c.JSON(http.StatusOK, dto.MfaVerifyResponse{Verified: true})
}

// disable godoc
// @Summary Disable MFA
// @Description Requires a current code. Every session of the caller is revoked.
// @Tags mfa
// @Accept json
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token echoed from the csrf cookie"
// @Param body body dto.MfaCodeRequest true "Current code"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} ErrorResponse "MFA is not enabled"
// @Failure 401 {object} ErrorResponse "Invalid MFA code"
// @Security BearerAuth
// @Router /auth/mfa/disable [post]
func (h *mfaHandler) disable(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var req dto.MfaCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	if err := h.mfaService.Disable(c.Request.Context(), userID, req.Code); err != nil {
		respondError(c, err, "Failed to disable MFA")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("MFA disabled by user", slog.String("user_id", userID))
	h.cookies.clearRefresh(c)
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}
