package memory

import (
	"context"
	"sync"

	audit "caseflow/pkg/platform/audit"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events map[int64][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[int64][]audit.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[int64][]audit.Event)
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.PrincipalID] = append(s.events[event.PrincipalID], event)
	return nil
}

func (s *InMemoryStore) ListByPrincipal(_ context.Context, principal int64) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[principal]...), nil
}

// ListAll returns all audit events across all principals (admin-only operation)
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var allEvents []audit.Event
	for _, principalEvents := range s.events {
		allEvents = append(allEvents, principalEvents...)
	}

	return allEvents, nil
}
