package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"brandshot-backend/internal/models"
	"brandshot-backend/internal/session"
)

// HealthHandler godoc
// @Summary     Health check
// @Description Returns the health status of the API and the number of open editor sessions
// @Tags        health
// @Produce     json
// @Success     200 {object} models.HealthResponse
// @Router      /health [get]
func HealthHandler(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:   "ok",
			Sessions: sessions.Len(),
		})
	}
}
