package entitlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore keeps entitlements in the entitlements table created by the
// database migrations.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) Grant(ctx context.Context, e Entitlement) error {
	e.Email = NormalizeEmail(e.Email)
	if e.Email == "" {
		return errors.New("entitlement email is required")
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO entitlements (email, plan, mode, checkout_session_id, event_id, amount_total, currency, granted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (email) DO UPDATE SET
			plan = EXCLUDED.plan,
			mode = EXCLUDED.mode,
			checkout_session_id = EXCLUDED.checkout_session_id,
			event_id = EXCLUDED.event_id,
			amount_total = EXCLUDED.amount_total,
			currency = EXCLUDED.currency,
			granted_at = EXCLUDED.granted_at
	`, e.Email, e.Plan, e.Mode, e.CheckoutSessionID, e.EventID, e.AmountTotal, e.Currency, e.GrantedAt)
	if err != nil {
		return fmt.Errorf("failed to grant entitlement: %w", err)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, email string) (*Entitlement, error) {
	var e Entitlement
	err := p.db.QueryRowContext(ctx, `
		SELECT email, plan, mode, checkout_session_id, event_id, amount_total, currency, granted_at
		FROM entitlements
		WHERE email = $1
	`, NormalizeEmail(email)).Scan(
		&e.Email, &e.Plan, &e.Mode, &e.CheckoutSessionID, &e.EventID,
		&e.AmountTotal, &e.Currency, &e.GrantedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entitlement: %w", err)
	}
	return &e, nil
}
