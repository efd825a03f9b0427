package handlers

import (
	"net/http"

	"github.com/SscSPs/identity_service/internal/dto"
	"github.com/SscSPs/identity_service/internal/utils"
	"github.com/gin-gonic/gin"
)

type csrfHandler struct {
	cookies cookieJar
}

// issueToken godoc
// @Summary Mint a CSRF token
// @Description Sets a script-readable csrf cookie and returns the same value. Mutating requests must echo it in the X-CSRF-Token header.
// @Tags auth
// @Produce json
// @Success 200 {object} dto.CSRFTokenResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/csrf [get]
func (h *csrfHandler) issueToken(c *gin.Context) {
	token, err := utils.NewCSRFToken()
	if err != nil {
		respondError(c, err, "Failed to mint CSRF token")
		return
	}
	h.cookies.setCSRF(c, token)
	c.JSON(http.StatusOK, dto.CSRFTokenResponse{CSRFToken: token})
}
