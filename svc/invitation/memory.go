package invitation

import (
	"context"
	"slices"
	"sync"
)

type MemoryStore struct {
	mu    sync.RWMutex
	items []Invitation
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Create(_ context.Context, inv Invitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.ContainsFunc(s.items, func(i Invitation) bool { return i.ID == inv.ID || i.TokenHash == inv.TokenHash }) {
		return ErrDuplicate
	}
	s.items = append(s.items, inv)
	return nil
}

func (s *MemoryStore) ListByTenant(_ context.Context, tenantID string) ([]Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Invitation, 0)
	for _, i := range s.items {
		if i.TenantID == tenantID {
			out = append(out, i)
		}
	}
	return out, nil
}
