package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v82"

	"brandshot-backend/internal/entitlement"
	"brandshot-backend/internal/notify"
)

// Payment is what a completed checkout tells us about the payer.
type Payment struct {
	EventID     string
	SessionID   string
	Email       string
	Plan        Plan
	Mode        string
	AmountTotal int64
	Currency    string
}

// Amount is the total in major currency units.
func (p Payment) Amount() float64 {
	return float64(p.AmountTotal) / 100
}

// PaymentProcessor acts on verified webhook events.
type PaymentProcessor struct {
	store    entitlement.Store
	notifier notify.Notifier
	now      func() time.Time
}

func NewPaymentProcessor(store entitlement.Store, notifier notify.Notifier) *PaymentProcessor {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &PaymentProcessor{store: store, notifier: notifier, now: time.Now}
}

// Handle processes one verified event. It returns the payment for completed
// checkouts and nil for every other event type. Failures after the payment
// has been recorded in the log are logged and swallowed: the provider must
// still get its acknowledgement.
func (p *PaymentProcessor) Handle(ctx context.Context, event stripe.Event) (*Payment, error) {
	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		logrus.WithFields(logrus.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
		}).Debug("unhandled webhook event")
		return nil, nil
	}

	payment, err := ParseCompletedCheckout(event)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"email":      payment.Email,
		"amount":     payment.Amount(),
		"currency":   payment.Currency,
		"session_id": payment.SessionID,
	}).Info("payment succeeded")

	p.grant(ctx, payment)
	p.notify(ctx, payment)
	return payment, nil
}

// ParseCompletedCheckout reads the checkout session out of a
// checkout.session.completed event.
func ParseCompletedCheckout(event stripe.Event) (*Payment, error) {
	if event.Data == nil {
		return nil, fmt.Errorf("event %s has no data", event.ID)
	}
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return nil, fmt.Errorf("failed to parse checkout session: %w", err)
	}

	email := cs.CustomerEmail
	if cs.CustomerDetails != nil && cs.CustomerDetails.Email != "" {
		email = cs.CustomerDetails.Email
	}
	plan := Plan(cs.Metadata[metadataPlan])
	if plan != PlanMonthly && plan != PlanLifetime {
		plan = PlanForMode(cs.Mode)
	}

	return &Payment{
		EventID:     event.ID,
		SessionID:   cs.ID,
		Email:       email,
		Plan:        plan,
		Mode:        string(cs.Mode),
		AmountTotal: cs.AmountTotal,
		Currency:    string(cs.Currency),
	}, nil
}

func (p *PaymentProcessor) grant(ctx context.Context, payment *Payment) {
	if p.store == nil {
		return
	}
	log := logrus.WithField("session_id", payment.SessionID)
	if payment.Email == "" {
		log.Warn("completed checkout has no payer email, entitlement not granted")
		return
	}

	err := p.store.Grant(ctx, entitlement.Entitlement{
		Email:             payment.Email,
		Plan:              string(payment.Plan),
		Mode:              payment.Mode,
		CheckoutSessionID: payment.SessionID,
		EventID:           payment.EventID,
		AmountTotal:       payment.AmountTotal,
		Currency:          payment.Currency,
		GrantedAt:         p.now().UTC(),
	})
	if err != nil {
		log.WithError(err).Error("failed to grant entitlement")
	}
}

func (p *PaymentProcessor) notify(ctx context.Context, payment *Payment) {
	err := p.notifier.PurchaseCompleted(ctx, notify.Purchase{
		Email:     payment.Email,
		Plan:      string(payment.Plan),
		Amount:    payment.Amount(),
		Currency:  payment.Currency,
		SessionID: payment.SessionID,
	})
	if err != nil {
		logrus.WithError(err).WithField("session_id", payment.SessionID).Warn("failed to send purchase notification")
	}
}
