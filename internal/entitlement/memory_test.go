package entitlement_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brandshot-backend/internal/entitlement"
)

func TestMemoryStore_GrantAndGet(t *testing.T) {
	store := entitlement.NewMemoryStore()
	ctx := context.Background()

	granted := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Grant(ctx, entitlement.Entitlement{
		Email:             "  Buyer@Example.com ",
		Plan:              "lifetime",
		CheckoutSessionID: "cs_test_1",
		AmountTotal:       4900,
		Currency:          "usd",
		GrantedAt:         granted,
	}))

	got, err := store.Get(ctx, "buyer@example.COM")
	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", got.Email)
	assert.Equal(t, "lifetime", got.Plan)
	assert.Equal(t, granted, got.GrantedAt)
}

func TestMemoryStore_GrantIsUpsert(t *testing.T) {
	store := entitlement.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Grant(ctx, entitlement.Entitlement{Email: "a@b.c", Plan: "monthly", EventID: "evt_1"}))
	require.NoError(t, store.Grant(ctx, entitlement.Entitlement{Email: "A@B.C", Plan: "lifetime", EventID: "evt_2"}))

	got, err := store.Get(ctx, "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, "lifetime", got.Plan)
	assert.Equal(t, "evt_2", got.EventID)
}

func TestMemoryStore_NotFound(t *testing.T) {
	_, err := entitlement.NewMemoryStore().Get(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, entitlement.ErrNotFound)
}

func TestMemoryStore_RequiresEmail(t *testing.T) {
	err := entitlement.NewMemoryStore().Grant(context.Background(), entitlement.Entitlement{Email: "  "})
	assert.Error(t, err)
}
