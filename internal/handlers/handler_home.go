package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// health godoc
// @Summary Show the status of server.
// @Description Liveness check. It does not touch the credential store.
// @Tags root
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
