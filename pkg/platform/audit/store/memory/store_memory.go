package memory

import (
	"context"
	"sync"

	audit "arbor/pkg/platform/audit"
	"arbor/pkg/platform/tx"
)

// InMemoryStore keeps audit events for the memory and sqlite backends.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Append records event. If the surrounding in-memory transaction rolls back,
// the event is withdrawn again.
func (s *InMemoryStore) Append(ctx context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	if event.ID != "" {
		tx.OnRollback(ctx, func() { s.withdraw(event.ID) })
	}
	return nil
}

func (s *InMemoryStore) withdraw(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].ID == id {
			s.events = append(s.events[:i], s.events[i+1:]...)
			return
		}
	}
}

// ListBySubject returns events for one entity in emission order.
func (s *InMemoryStore) ListBySubject(_ context.Context, subject string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.Subject == subject {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events...), nil
}

// ListRecent returns the last limit events.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := max(len(s.events)-limit, 0)
	return append([]audit.Event{}, s.events[start:]...), nil
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
