package handlers_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"

	"brandshot-backend/internal/models"
)

const completedCheckout = `{
	"id": "evt_handlers_1",
	"object": "event",
	"api_version": "2025-03-31.basil",
	"type": "checkout.session.completed",
	"data": {"object": {
		"id": "cs_test_hook",
		"object": "checkout.session",
		"mode": "payment",
		"amount_total": 2900,
		"currency": "usd",
		"customer_details": {"email": "Lifetime@Example.com"},
		"metadata": {"plan": "lifetime"}
	}}
}`

func webhookRequest(payload []byte, signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/stripe-webhook", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	return req
}

func signPayload(payload []byte, secret string) string {
	return webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	}).Header
}

func TestStripeWebhook_CompletedCheckoutGrantsPro(t *testing.T) {
	env := newEnv(t)
	payload := []byte(completedCheckout)

	w := env.do(webhookRequest(payload, signPayload(payload, webhookSecret)))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[models.WebhookResponse](t, w).Received)

	ent, err := env.store.Get(context.Background(), "lifetime@example.com")
	require.NoError(t, err)
	assert.Equal(t, "lifetime", ent.Plan)
	assert.Equal(t, "cs_test_hook", ent.CheckoutSessionID)
	assert.Equal(t, int64(2900), ent.AmountTotal)
}

func TestStripeWebhook_OtherEventsAcknowledged(t *testing.T) {
	env := newEnv(t)
	payload := []byte(`{
		"id": "evt_handlers_2",
		"object": "event",
		"api_version": "2025-03-31.basil",
		"type": "customer.created",
		"data": {"object": {"id": "cus_1", "object": "customer"}}
	}`)

	w := env.do(webhookRequest(payload, signPayload(payload, webhookSecret)))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[models.WebhookResponse](t, w).Received)
}

func TestStripeWebhook_InvalidSignature(t *testing.T) {
	env := newEnv(t)
	payload := []byte(completedCheckout)

	tests := []struct {
		name      string
		signature string
	}{
		{"missing header", ""},
		{"wrong secret", signPayload(payload, "whsec_somebody_else")},
		{"garbage", "t=1,v1=deadbeef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(webhookRequest(payload, tt.signature))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "invalid signature", decode[models.ErrorResponse](t, w).Error)
		})
	}

	_, err := env.store.Get(context.Background(), "lifetime@example.com")
	assert.Error(t, err)
}
