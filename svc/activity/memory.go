package activity

import (
	"context"
	"maps"
	"sync"
)

// MemoryStorage keeps events per agency in insertion order.
type MemoryStorage struct {
	mu     sync.RWMutex
	events map[string][]Event
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{events: make(map[string][]Event)}
}

func (s *MemoryStorage) Append(_ context.Context, e Event) error {
	e.Payload = maps.Clone(e.Payload)
	s.mu.Lock()
	s.events[e.AgencyTenantID] = append(s.events[e.AgencyTenantID], e)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) List(_ context.Context, agencyTenantID string, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.events[agencyTenantID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return append([]Event(nil), all...), nil
}
