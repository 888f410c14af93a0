package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"brandshot-backend/internal/entitlement"
	"brandshot-backend/internal/middleware"
	"brandshot-backend/internal/models"
)

type EntitlementHandler struct {
	store entitlement.Store
}

func NewEntitlementHandler(store entitlement.Store) *EntitlementHandler {
	return &EntitlementHandler{store: store}
}

// Get godoc
// @Summary     Current user's Pro status
// @Description Looks up the entitlement recorded for the authenticated email
// @Tags        billing
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.EntitlementResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /entitlement [get]
func (h *EntitlementHandler) Get(c *gin.Context) {
	email := middleware.Email(c)
	resp := models.EntitlementResponse{Email: entitlement.NormalizeEmail(email)}
	if email == "" {
		c.JSON(http.StatusOK, resp)
		return
	}

	e, err := h.store.Get(c.Request.Context(), email)
	switch {
	case errors.Is(err, entitlement.ErrNotFound):
	case err != nil:
		logrus.WithError(err).Error("failed to look up entitlement")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to look up entitlement"})
		return
	default:
		resp.Pro = true
		resp.Plan = e.Plan
		resp.GrantedAt = &e.GrantedAt
	}
	c.JSON(http.StatusOK, resp)
}
