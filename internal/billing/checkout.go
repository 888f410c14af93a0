package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

const (
	metadataPlan = "plan"

	successQuery = "/?payment=success&session_id={CHECKOUT_SESSION_ID}"
	cancelQuery  = "/?payment=canceled"
)

// SessionCreator creates hosted checkout sessions at the payment provider.
type SessionCreator interface {
	CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type StripeSessionCreator struct {
	client session.Client
}

func NewStripeSessionCreator(secretKey string) *StripeSessionCreator {
	return &StripeSessionCreator{
		client: session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey},
	}
}

func (s *StripeSessionCreator) CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	params.Context = ctx
	return s.client.New(params)
}

type CheckoutResult struct {
	URL       string
	SessionID string
}

type CheckoutService struct {
	catalog Catalog
	creator SessionCreator
}

func NewCheckoutService(catalog Catalog, creator SessionCreator) *CheckoutService {
	return &CheckoutService{catalog: catalog, creator: creator}
}

// Create starts a checkout for plan. The browser returns to baseURL with a
// payment query flag; that flag is informational only, Pro access is granted
// from the webhook.
func (s *CheckoutService) Create(ctx context.Context, plan, baseURL, customerEmail string) (CheckoutResult, error) {
	p, price, err := s.catalog.Lookup(plan)
	if err != nil {
		return CheckoutResult{}, err
	}

	base := strings.TrimRight(baseURL, "/")
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(ModeFor(p))),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(price),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(base + successQuery),
		CancelURL:  stripe.String(base + cancelQuery),
		Metadata:   map[string]string{metadataPlan: string(p)},
	}
	if customerEmail != "" {
		params.CustomerEmail = stripe.String(customerEmail)
	}

	cs, err := s.creator.CreateSession(ctx, params)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return CheckoutResult{URL: cs.URL, SessionID: cs.ID}, nil
}

// ProviderMessage extracts the provider's own error message so it can be
// surfaced to the caller unchanged.
func ProviderMessage(err error) string {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return stripeErr.Msg
	}
	if inner := errors.Unwrap(err); inner != nil {
		return inner.Error()
	}
	return err.Error()
}
