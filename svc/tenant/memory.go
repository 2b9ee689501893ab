package tenant

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"
)

// MemoryStore implements Store, MembershipStore and ProjectStore in memory.
type MemoryStore struct {
	mu          sync.RWMutex
	tenants     map[string]Tenant
	memberships []Membership
	projects    map[string]Project
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tenants:  make(map[string]Tenant),
		projects: make(map[string]Project),
		now:      time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[id]
	if !ok {
		return Tenant{}, notFound(ErrTenantNotFound)
	}
	return t.Clone(), nil
}

func (s *MemoryStore) Create(_ context.Context, t Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tenants[t.ID]; ok {
		return ErrDuplicate
	}
	s.tenants[t.ID] = t.Clone()
	return nil
}

func (s *MemoryStore) CountSubTenants(_ context.Context, ownerTenantID string, statuses ...Status) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, t := range s.tenants {
		if t.OwnerTenantID == ownerTenantID && (len(statuses) == 0 || slices.Contains(statuses, t.Status)) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) update(id string, fn func(t *Tenant)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tenants[id]
	if !ok {
		return notFound(ErrTenantNotFound)
	}
	fn(&t)
	t.UpdatedAt = s.now()
	s.tenants[id] = t
	return nil
}

func (s *MemoryStore) UpdateAddons(_ context.Context, id string, addons map[string]int64, monthlyPrice int64) error {
	return s.update(id, func(t *Tenant) {
		t.Billing.Addons = maps.Clone(addons)
		t.Billing.AddonsMonthlyPrice = monthlyPrice
	})
}

func (s *MemoryStore) MarkBillingPending(_ context.Context, id string, monthlyPrice int64, paymentMethod string) error {
	return s.update(id, func(t *Tenant) {
		t.Billing.Status = BillingPending
		t.Billing.MonthlyPrice = monthlyPrice
		t.Billing.PaymentMethod = paymentMethod
	})
}

func (s *MemoryStore) SetUsage(_ context.Context, id string, r Resource, value int64) error {
	return s.update(id, func(t *Tenant) {
		if t.Usage == nil {
			t.Usage = Zero()
		}
		t.Usage[r] = value
	})
}

// AddMembership registers a membership. CreatedAt defaults to now.
func (s *MemoryStore) AddMembership(m Membership) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now()
	}
	s.memberships = append(s.memberships, m)
}

func (s *MemoryStore) Membership(_ context.Context, userID, tenantID string) (Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.memberships {
		if m.UserID == userID && m.TenantID == tenantID {
			return m, nil
		}
	}
	return Membership{}, notFound(ErrMembershipNotFound)
}

func (s *MemoryStore) MembershipsOf(_ context.Context, userID string) ([]Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Membership, 0)
	for _, m := range s.memberships {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	slices.SortStableFunc(out, func(a, b Membership) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out, nil
}

func (s *MemoryStore) CreateProject(_ context.Context, p Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[p.ID]; ok {
		return ErrDuplicate
	}
	s.projects[p.ID] = p
	return nil
}

// Projects returns the projects of a tenant in no particular order.
func (s *MemoryStore) Projects(_ context.Context, tenantID string) ([]Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Project, 0)
	for _, p := range s.projects {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	return out, nil
}
