package tenant

import (
	"context"
	"errors"

	"github.com/dmitrymomot/agencykit"
)

var (
	ErrTenantNotFound     = errors.New("tenant.not_found")
	ErrMembershipNotFound = errors.New("tenant.membership_not_found")
	ErrDuplicate          = errors.New("tenant.duplicate")
)

func notFound(err error) error {
	return errors.Join(agencykit.ErrNotFound, err)
}

// Store persists tenants. Every method is a single-document operation.
type Store interface {
	Get(ctx context.Context, id string) (Tenant, error)
	Create(ctx context.Context, t Tenant) error
	CountSubTenants(ctx context.Context, ownerTenantID string, statuses ...Status) (int64, error)
	UpdateAddons(ctx context.Context, id string, addons map[string]int64, monthlyPrice int64) error
	MarkBillingPending(ctx context.Context, id string, monthlyPrice int64, paymentMethod string) error
	SetUsage(ctx context.Context, id string, r Resource, value int64) error
}

// MembershipStore resolves a user's roles.
type MembershipStore interface {
	Membership(ctx context.Context, userID, tenantID string) (Membership, error)
	// MembershipsOf returns the user's memberships, oldest first.
	MembershipsOf(ctx context.Context, userID string) ([]Membership, error)
}

type ProjectStore interface {
	CreateProject(ctx context.Context, p Project) error
}
