package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"brandshot-backend/internal/models"
	"brandshot-backend/internal/style"
)

// PresetsHandler godoc
// @Summary     Style presets
// @Description Lists the preset backgrounds, paddings, roundings, shadows and fonts, with slider ranges
// @Tags        editor
// @Produce     json
// @Success     200 {object} models.PresetsResponse
// @Router      /presets [get]
func PresetsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, models.PresetsResponse{
		Backgrounds:  style.Backgrounds,
		Paddings:     style.Paddings,
		Roundings:    style.Roundings,
		Shadows:      style.ShadowPresets,
		FontFamilies: style.FontFamilies,
		Ranges:       style.Ranges,
		Defaults:     style.Default(),
	})
}
