package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health reports liveness. It does not touch the snapshot store.
// @Summary      Health check
// @Description  Returns the health status of the service
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
