package billing

import (
	"errors"

	"github.com/stripe/stripe-go/v82"
)

var ErrUnknownPlan = errors.New("invalid plan type provided")

type Plan string

const (
	PlanMonthly  Plan = "monthly"
	PlanLifetime Plan = "lifetime"
)

// Catalog maps plan selectors to provider price ids.
type Catalog struct {
	prices map[Plan]string
}

func NewCatalog(monthlyPrice, lifetimePrice string) Catalog {
	return Catalog{prices: map[Plan]string{
		PlanMonthly:  monthlyPrice,
		PlanLifetime: lifetimePrice,
	}}
}

// Lookup resolves a plan selector from client input.
func (c Catalog) Lookup(selector string) (Plan, string, error) {
	plan := Plan(selector)
	price, ok := c.prices[plan]
	if !ok || price == "" {
		return "", "", ErrUnknownPlan
	}
	return plan, price, nil
}

// ModeFor is subscription for the monthly plan and a one-off payment otherwise.
func ModeFor(plan Plan) stripe.CheckoutSessionMode {
	if plan == PlanMonthly {
		return stripe.CheckoutSessionModeSubscription
	}
	return stripe.CheckoutSessionModePayment
}

// PlanForMode recovers the plan from a completed session when metadata is missing.
func PlanForMode(mode stripe.CheckoutSessionMode) Plan {
	if mode == stripe.CheckoutSessionModeSubscription {
		return PlanMonthly
	}
	return PlanLifetime
}
