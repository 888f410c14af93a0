package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"brandshot-backend/internal/billing"
	"brandshot-backend/internal/middleware"
	"brandshot-backend/internal/models"
)

type CheckoutHandler struct {
	service *billing.CheckoutService
	siteURL string
}

func NewCheckoutHandler(service *billing.CheckoutService, siteURL string) *CheckoutHandler {
	return &CheckoutHandler{service: service, siteURL: siteURL}
}

// Create godoc
// @Summary     Start a Pro checkout
// @Description Creates a hosted checkout session for the selected plan and returns its URL.
// @Description The browser comes back with ?payment=success or ?payment=canceled; Pro access
// @Description is only granted once the payment webhook arrives.
// @Tags        billing
// @Accept      json
// @Produce     json
// @Param       request body models.CheckoutRequest true "Plan selector"
// @Success     200 {object} models.CheckoutResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     405 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /checkout [post]
func (h *CheckoutHandler) Create(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	res, err := h.service.Create(c.Request.Context(), req.PlanType, h.baseURL(c), middleware.Email(c))
	if errors.Is(err, billing.ErrUnknownPlan) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid plan type provided."})
		return
	}
	if err != nil {
		logrus.WithError(err).WithField("plan", req.PlanType).Error("checkout session creation failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: billing.ProviderMessage(err)})
		return
	}

	c.JSON(http.StatusOK, models.CheckoutResponse{URL: res.URL, SessionID: res.SessionID})
}

func (h *CheckoutHandler) baseURL(c *gin.Context) string {
	if h.siteURL != "" {
		return strings.TrimRight(h.siteURL, "/")
	}
	return "https://" + c.Request.Host
}
