package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"brandshot-backend/internal/billing"
	"brandshot-backend/internal/models"
)

const maxWebhookBytes = int64(65536)

type StripeWebhookHandler struct {
	verifier  *billing.WebhookVerifier
	processor *billing.PaymentProcessor
}

func NewStripeWebhookHandler(verifier *billing.WebhookVerifier, processor *billing.PaymentProcessor) *StripeWebhookHandler {
	return &StripeWebhookHandler{verifier: verifier, processor: processor}
}

// HandleWebhook godoc
// @Summary     Payment provider webhook
// @Description Verifies the Stripe-Signature header against the raw body. Completed checkouts are
// @Description logged and recorded as entitlements. Every verified event is acknowledged with 200.
// @Tags        webhooks
// @Accept      json
// @Produce     json
// @Param       Stripe-Signature header string true "Provider signature"
// @Success     200 {object} models.WebhookResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /stripe-webhook [post]
func (h *StripeWebhookHandler) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to read request body",
			Message: err.Error(),
		})
		return
	}

	event, err := h.verifier.Verify(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		logrus.WithError(err).Warn("rejected webhook")
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid signature",
			Message: err.Error(),
		})
		return
	}

	if _, err := h.processor.Handle(c.Request.Context(), event); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
		}).Error("failed to process webhook event")
	}

	c.JSON(http.StatusOK, models.WebhookResponse{Received: true})
}
