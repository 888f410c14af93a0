package entitlement

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrNotFound = errors.New("entitlement not found")

// Entitlement records that a payer has Pro access. It is keyed by the
// lower-cased payer email and only ever written from a verified webhook.
type Entitlement struct {
	Email             string    `json:"email"`
	Plan              string    `json:"plan"`
	Mode              string    `json:"mode"`
	CheckoutSessionID string    `json:"checkout_session_id"`
	EventID           string    `json:"event_id"`
	AmountTotal       int64     `json:"amount_total"`
	Currency          string    `json:"currency"`
	GrantedAt         time.Time `json:"granted_at"`
}

// Store persists entitlements. Grant is an upsert on email so a re-delivered
// webhook never creates a second record.
type Store interface {
	Grant(ctx context.Context, e Entitlement) error
	Get(ctx context.Context, email string) (*Entitlement, error)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
