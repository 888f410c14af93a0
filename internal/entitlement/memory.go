package entitlement

import (
	"context"
	"errors"
	"sync"
)

type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Entitlement
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Entitlement)}
}

func (m *MemoryStore) Grant(ctx context.Context, e Entitlement) error {
	e.Email = NormalizeEmail(e.Email)
	if e.Email == "" {
		return errors.New("entitlement email is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[e.Email] = e
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, email string) (*Entitlement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.records[NormalizeEmail(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}
