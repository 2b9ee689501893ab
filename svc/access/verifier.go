package access

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/agencykit"
	"github.com/dmitrymomot/agencykit/pkg/logger"
	"github.com/dmitrymomot/agencykit/svc/tenant"
)

var (
	ErrNoActor        = errors.New("access.no_actor")
	ErrNotPermitted   = errors.New("access.not_permitted")
	ErrNotAgencyOwner = errors.New("access.not_agency_owner")
)

// TenantReader is the tenant lookup the verifier needs.
type TenantReader interface {
	Get(ctx context.Context, id string) (tenant.Tenant, error)
}

// Verifier decides whether an actor may act on a tenant.
type Verifier struct {
	tenants TenantReader
	members tenant.MembershipStore
	log     *slog.Logger
}

type Option func(*Verifier)

func WithLogger(l *slog.Logger) Option {
	return func(v *Verifier) { v.log = l }
}

func NewVerifier(tenants TenantReader, members tenant.MembershipStore, opts ...Option) *Verifier {
	if tenants == nil || members == nil {
		panic("access: tenant and membership stores are required")
	}
	v := &Verifier{tenants: tenants, members: members, log: slog.Default()}
	for _, opt := range opts {
		opt(v)
	}
	v.log = v.log.With(logger.Component("access"))
	return v
}

// AuthorizeTenant applies the broad rule used for billing administration:
// the tenant's owner or creator, or a member holding an administrative role.
// The loaded tenant is returned so callers do not fetch it again.
func (v *Verifier) AuthorizeTenant(ctx context.Context, actorID, tenantID string) (tenant.Tenant, error) {
	if actorID == "" {
		return tenant.Tenant{}, errors.Join(agencykit.ErrUnauthenticated, ErrNoActor)
	}

	t, err := v.tenants.Get(ctx, tenantID)
	if err != nil {
		return tenant.Tenant{}, classify(err)
	}
	if t.OwnedBy(actorID) {
		return t, nil
	}

	m, err := v.members.Membership(ctx, actorID, tenantID)
	switch {
	case errors.Is(err, agencykit.ErrNotFound):
	case err != nil:
		return tenant.Tenant{}, classify(err)
	case m.Role.CanAdministerTenant():
		return t, nil
	}

	v.log.InfoContext(ctx, "tenant access denied",
		logger.ActorID(actorID), logger.TenantID(tenantID), logger.Role(m.Role.String()))
	return tenant.Tenant{}, errors.Join(agencykit.ErrPermissionDenied, ErrNotPermitted)
}

// AuthorizeProvisioning applies the narrow rule for creating clients: the
// actor must be an agency_owner member. Ownership fields are not consulted.
// With an empty agencyTenantID the actor's oldest agency_owner membership
// decides the agency. The resolved agency id is returned.
func (v *Verifier) AuthorizeProvisioning(ctx context.Context, actorID, agencyTenantID string) (string, error) {
	if actorID == "" {
		return "", errors.Join(agencykit.ErrUnauthenticated, ErrNoActor)
	}
	denied := errors.Join(agencykit.ErrPermissionDenied, ErrNotAgencyOwner)

	if agencyTenantID != "" {
		m, err := v.members.Membership(ctx, actorID, agencyTenantID)
		if errors.Is(err, agencykit.ErrNotFound) {
			return "", denied
		}
		if err != nil {
			return "", classify(err)
		}
		if !m.Role.CanProvisionClients() {
			v.log.InfoContext(ctx, "provisioning denied",
				logger.ActorID(actorID), logger.AgencyID(agencyTenantID), logger.Role(m.Role.String()))
			return "", denied
		}
		return agencyTenantID, nil
	}

	memberships, err := v.members.MembershipsOf(ctx, actorID)
	if err != nil {
		return "", classify(err)
	}
	for _, m := range memberships {
		if m.Role.CanProvisionClients() {
			return m.TenantID, nil
		}
	}
	return "", denied
}

func classify(err error) error {
	if agencykit.KindOf(err) != agencykit.KindInternal {
		return err
	}
	return errors.Join(agencykit.ErrInternal, err)
}
