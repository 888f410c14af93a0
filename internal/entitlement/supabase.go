package entitlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/supabase-community/supabase-go"
)

const supabaseTable = "entitlements"

// SupabaseStore reads and writes the entitlements table through PostgREST,
// authenticated with the service-role key.
type SupabaseStore struct {
	client *supabase.Client
}

func NewSupabaseStore(url, serviceKey string) (*SupabaseStore, error) {
	client, err := supabase.NewClient(url, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return &SupabaseStore{client: client}, nil
}

func (s *SupabaseStore) Grant(ctx context.Context, e Entitlement) error {
	e.Email = NormalizeEmail(e.Email)
	if e.Email == "" {
		return errors.New("entitlement email is required")
	}

	var out []Entitlement
	if _, err := s.client.From(supabaseTable).
		Upsert(e, "email", "representation", "").
		ExecuteToWithContext(ctx, &out); err != nil {
		return fmt.Errorf("failed to grant entitlement: %w", err)
	}
	return nil
}

func (s *SupabaseStore) Get(ctx context.Context, email string) (*Entitlement, error) {
	var rows []Entitlement
	if _, err := s.client.From(supabaseTable).
		Select("*", "", false).
		Eq("email", NormalizeEmail(email)).
		ExecuteToWithContext(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to get entitlement: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}
