package billing_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"brandshot-backend/internal/billing"
)

type fakeCreator struct {
	params *stripe.CheckoutSessionParams
	err    error
	calls  int
}

func (f *fakeCreator) CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.calls++
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.CheckoutSession{ID: "cs_test_123", URL: "https://checkout.stripe.com/c/pay/cs_test_123"}, nil
}

func newCheckout(creator billing.SessionCreator) *billing.CheckoutService {
	return billing.NewCheckoutService(billing.NewCatalog("price_monthly", "price_lifetime"), creator)
}

func TestCheckout_Monthly(t *testing.T) {
	creator := &fakeCreator{}
	res, err := newCheckout(creator).Create(context.Background(), "monthly", "https://brandshot.app/", "")
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_123", res.URL)
	assert.Equal(t, "cs_test_123", res.SessionID)

	p := creator.params
	require.NotNil(t, p)
	assert.Equal(t, "subscription", *p.Mode)
	require.Len(t, p.LineItems, 1)
	assert.Equal(t, "price_monthly", *p.LineItems[0].Price)
	assert.Equal(t, int64(1), *p.LineItems[0].Quantity)
	assert.Equal(t, "https://brandshot.app/?payment=success&session_id={CHECKOUT_SESSION_ID}", *p.SuccessURL)
	assert.Equal(t, "https://brandshot.app/?payment=canceled", *p.CancelURL)
	assert.Equal(t, "monthly", p.Metadata["plan"])
	assert.Nil(t, p.CustomerEmail)
}

func TestCheckout_LifetimeWithEmail(t *testing.T) {
	creator := &fakeCreator{}
	_, err := newCheckout(creator).Create(context.Background(), "lifetime", "https://example.com", "buyer@example.com")
	require.NoError(t, err)

	assert.Equal(t, "payment", *creator.params.Mode)
	assert.Equal(t, "price_lifetime", *creator.params.LineItems[0].Price)
	require.NotNil(t, creator.params.CustomerEmail)
	assert.Equal(t, "buyer@example.com", *creator.params.CustomerEmail)
}

func TestCheckout_UnknownPlan(t *testing.T) {
	creator := &fakeCreator{}
	_, err := newCheckout(creator).Create(context.Background(), "weekly", "https://example.com", "")
	assert.ErrorIs(t, err, billing.ErrUnknownPlan)
	assert.Zero(t, creator.calls)
}

func TestCheckout_ProviderError(t *testing.T) {
	creator := &fakeCreator{err: &stripe.Error{Msg: "No such price: 'price_lifetime'"}}
	_, err := newCheckout(creator).Create(context.Background(), "lifetime", "https://example.com", "")
	require.Error(t, err)

	assert.Equal(t, "No such price: 'price_lifetime'", billing.ProviderMessage(err))
}

func TestProviderMessage_PlainErrors(t *testing.T) {
	assert.Equal(t, "dial tcp: timeout", billing.ProviderMessage(fmt.Errorf("failed: %w", errors.New("dial tcp: timeout"))))
	assert.Equal(t, "boom", billing.ProviderMessage(errors.New("boom")))
}
