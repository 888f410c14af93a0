package entitlement_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brandshot-backend/internal/entitlement"
)

var entitlementColumns = []string{
	"email", "plan", "mode", "checkout_session_id", "event_id", "amount_total", "currency", "granted_at",
}

func newMockedPostgresStore(t *testing.T) (*entitlement.PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return entitlement.NewPostgresStore(db), mock
}

func TestPostgresStore_GrantUpsertsOnEmail(t *testing.T) {
	store, mock := newMockedPostgresStore(t)
	granted := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO entitlements")+"(?s).*"+regexp.QuoteMeta("ON CONFLICT (email) DO UPDATE")).
		WithArgs("buyer@example.com", "lifetime", "payment", "cs_test_1", "evt_1", int64(4900), "usd", granted).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Grant(context.Background(), entitlement.Entitlement{
		Email:             "  Buyer@Example.COM ",
		Plan:              "lifetime",
		Mode:              "payment",
		CheckoutSessionID: "cs_test_1",
		EventID:           "evt_1",
		AmountTotal:       4900,
		Currency:          "usd",
		GrantedAt:         granted,
	}))
}

func TestPostgresStore_GrantRequiresEmail(t *testing.T) {
	store, _ := newMockedPostgresStore(t)

	err := store.Grant(context.Background(), entitlement.Entitlement{Email: " ", Plan: "monthly"})
	assert.Error(t, err)
}

func TestPostgresStore_GrantWrapsExecError(t *testing.T) {
	store, mock := newMockedPostgresStore(t)
	dbErr := errors.New("connection reset")

	mock.ExpectExec("INSERT INTO entitlements").WillReturnError(dbErr)

	err := store.Grant(context.Background(), entitlement.Entitlement{Email: "buyer@example.com", Plan: "monthly"})
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.Contains(t, err.Error(), "failed to grant entitlement")
}

func TestPostgresStore_Get(t *testing.T) {
	store, mock := newMockedPostgresStore(t)
	granted := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM entitlements")).
		WithArgs("buyer@example.com").
		WillReturnRows(sqlmock.NewRows(entitlementColumns).
			AddRow("buyer@example.com", "monthly", "subscription", "cs_test_2", "evt_2", int64(900), "usd", granted))

	got, err := store.Get(context.Background(), "Buyer@Example.com")
	require.NoError(t, err)
	assert.Equal(t, &entitlement.Entitlement{
		Email:             "buyer@example.com",
		Plan:              "monthly",
		Mode:              "subscription",
		CheckoutSessionID: "cs_test_2",
		EventID:           "evt_2",
		AmountTotal:       900,
		Currency:          "usd",
		GrantedAt:         granted,
	}, got)
}

func TestPostgresStore_GetMissingIsNotFound(t *testing.T) {
	store, mock := newMockedPostgresStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM entitlements")).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows(entitlementColumns))

	got, err := store.Get(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, entitlement.ErrNotFound)
	assert.Nil(t, got)
}

func TestPostgresStore_GetQueryError(t *testing.T) {
	store, mock := newMockedPostgresStore(t)
	dbErr := errors.New("relation \"entitlements\" does not exist")

	mock.ExpectQuery(regexp.QuoteMeta("FROM entitlements")).WillReturnError(dbErr)

	_, err := store.Get(context.Background(), "buyer@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, entitlement.ErrNotFound)
}
