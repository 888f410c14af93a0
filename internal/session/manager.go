package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"brandshot-backend/internal/render"
	"brandshot-backend/internal/style"
)

var ErrNotFound = errors.New("session not found")

// Manager keeps sessions in memory and expires the idle ones.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ttl        time.Duration
	rasterizer render.Rasterizer
	settle     time.Duration
	now        func() time.Time
}

func NewManager(ttl time.Duration, rasterizer render.Rasterizer, settle time.Duration) *Manager {
	return &Manager{
		sessions:   make(map[string]*Session),
		ttl:        ttl,
		rasterizer: rasterizer,
		settle:     settle,
		now:        time.Now,
	}
}

// WithClock overrides the time source used for expiry.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Create opens a session starting from the default style. pro comes from a
// server-side entitlement lookup, never from client input.
func (m *Manager) Create(pro bool) *Session {
	now := m.now()
	s := &Session{
		ID:        uuid.New().String(),
		CreatedAt: now,
		store:     style.NewStore(style.Default().WithPro(pro)),
		exporter:  render.NewExporter(m.rasterizer, m.settle),
		lastSeen:  now,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get returns a live session and marks it as active.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	now := m.now()
	if m.expired(s, now) {
		m.remove(id)
		return nil, ErrNotFound
	}
	s.touch(now)
	return s, nil
}

func (m *Manager) Delete(id string) error {
	if !m.remove(id) {
		return ErrNotFound
	}
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes every expired session and returns how many were dropped.
func (m *Manager) Sweep() int {
	now := m.now()

	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if m.expired(s, now) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.close()
	}
	return len(stale)
}

// Run sweeps expired sessions every interval until ctx is done, then closes
// whatever is left.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				logrus.WithField("count", n).Debug("expired sessions removed")
			}
		case <-ctx.Done():
			m.closeAll()
			return
		}
	}
}

func (m *Manager) expired(s *Session, now time.Time) bool {
	return m.ttl > 0 && now.Sub(s.LastSeen()) > m.ttl
}

func (m *Manager) remove(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.close()
	}
	return ok
}

func (m *Manager) closeAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		s.close()
	}
}
