package style

import "sync"

// Store owns the current State of one editing session. Updates are applied one
// at a time and the resulting State is republished to every subscriber.
type Store struct {
	mu          sync.Mutex
	state       State
	version     uint64
	nextID      int
	subscribers map[int]chan Snapshot
}

// Snapshot is a published State with a monotonically increasing version.
type Snapshot struct {
	Version uint64 `json:"version"`
	State   State  `json:"state"`
}

func NewStore(initial State) *Store {
	return &Store{
		state:       initial,
		subscribers: make(map[int]chan Snapshot),
	}
}

// Current returns the latest published snapshot.
func (s *Store) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Version: s.version, State: s.state}
}

// Apply overwrites one field. On error the store is left unchanged and nothing is published.
func (s *Store) Apply(field string, value any) (Snapshot, error) {
	return s.update(func(st State) (State, error) {
		return st.With(field, value)
	})
}

// ApplyAll overwrites several fields atomically: either all of them land or none do.
func (s *Store) ApplyAll(fields map[string]any, order []string) (Snapshot, error) {
	return s.update(func(st State) (State, error) {
		var err error
		for _, name := range order {
			st, err = st.With(name, fields[name])
			if err != nil {
				return st, err
			}
		}
		return st, nil
	})
}

// SetPro flips the feature gate from a server-side entitlement decision.
func (s *Store) SetPro(enabled bool) Snapshot {
	snap, _ := s.update(func(st State) (State, error) {
		return st.WithPro(enabled), nil
	})
	return snap
}

// Subscribe returns a channel that receives every subsequent snapshot. Slow
// subscribers only ever see the newest snapshot; intermediate ones are dropped.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan Snapshot, 1)
	s.subscribers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

// Close ends every subscription.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
}

func (s *Store) update(fn func(State) (State, error)) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.state)
	if err != nil {
		return Snapshot{Version: s.version, State: s.state}, err
	}
	s.state = next
	s.version++
	snap := Snapshot{Version: s.version, State: next}

	for _, ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// drop the stale value so the newest one always fits
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return snap, nil
}
