package quota

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/agencykit"
	"github.com/dmitrymomot/agencykit/pkg/logger"
	"github.com/dmitrymomot/agencykit/svc/catalog"
	"github.com/dmitrymomot/agencykit/svc/tenant"
)

const subTenantsResource = "sub_tenants"

var (
	ErrLockUnavailable = errors.New("quota.lock_unavailable")
	ErrCreateFailed    = errors.New("quota.create_failed")
)

// Decision is the outcome of a sub-tenant quota check.
type Decision struct {
	CanCreate bool  `json:"can_create"`
	Current   int64 `json:"current"`
	Limit     int64 `json:"limit"`
}

// TenantCounter is the storage the guard reads.
type TenantCounter interface {
	Get(ctx context.Context, id string) (tenant.Tenant, error)
	CountSubTenants(ctx context.Context, ownerTenantID string, statuses ...tenant.Status) (int64, error)
}

// Guard enforces the per-agency sub-tenant ceiling.
type Guard struct {
	tenants     TenantCounter
	catalog     *catalog.Catalog
	locker      Locker
	lockTimeout time.Duration
	log         *slog.Logger
}

type Option func(*Guard)

func WithLogger(l *slog.Logger) Option { return func(g *Guard) { g.log = l } }

// WithLockTimeout bounds how long Admit waits for the agency lock.
func WithLockTimeout(d time.Duration) Option { return func(g *Guard) { g.lockTimeout = d } }

func NewGuard(tenants TenantCounter, cat *catalog.Catalog, locker Locker, opts ...Option) *Guard {
	if tenants == nil || cat == nil || locker == nil {
		panic("quota: tenant store, catalog and locker are required")
	}
	g := &Guard{
		tenants:     tenants,
		catalog:     cat,
		locker:      locker,
		lockTimeout: 5 * time.Second,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.With(logger.Component("quota"))
	return g
}

// CheckSubTenantLimit computes the agency's sub-tenant usage and ceiling:
// the plan's base limit plus purchased extraSubClients, against the number
// of owned sub-tenants that are active or in trial.
func (g *Guard) CheckSubTenantLimit(ctx context.Context, agencyTenantID string) (Decision, error) {
	agency, err := g.tenants.Get(ctx, agencyTenantID)
	if err != nil {
		return Decision{}, classify(err)
	}

	limit := g.catalog.SubTenantLimit(agency.Plan, agency.Billing.Addons)

	current, err := g.tenants.CountSubTenants(ctx, agencyTenantID, tenant.QuotaStatuses...)
	if err != nil {
		return Decision{}, classify(err)
	}

	return Decision{CanCreate: current < limit, Current: current, Limit: limit}, nil
}

// Admit runs create only if the agency has room, holding the agency's
// admission lock across the check and create so concurrent calls cannot
// both take the last slot. A full agency yields *agencykit.QuotaError.
func (g *Guard) Admit(ctx context.Context, agencyTenantID string, create func(ctx context.Context) error) (Decision, error) {
	lockCtx, cancel := context.WithTimeout(ctx, g.lockTimeout)
	unlock, err := g.locker.Lock(lockCtx, lockKey(agencyTenantID))
	cancel()
	if err != nil {
		return Decision{}, errors.Join(agencykit.ErrInternal, ErrLockUnavailable, err)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			g.log.WarnContext(ctx, "release admission lock", logger.AgencyID(agencyTenantID), logger.Error(err))
		}
	}()

	d, err := g.CheckSubTenantLimit(ctx, agencyTenantID)
	if err != nil {
		return Decision{}, err
	}
	if !d.CanCreate {
		g.log.InfoContext(ctx, "sub-tenant quota reached",
			logger.AgencyID(agencyTenantID), slog.Int64("current", d.Current), slog.Int64("limit", d.Limit))
		return d, &agencykit.QuotaError{Resource: subTenantsResource, Current: d.Current, Limit: d.Limit}
	}

	if err := create(ctx); err != nil {
		return d, errors.Join(ErrCreateFailed, classify(err))
	}
	return d, nil
}

func lockKey(agencyTenantID string) string {
	return "quota:sub_tenants:" + agencyTenantID
}

func classify(err error) error {
	if agencykit.KindOf(err) != agencykit.KindInternal {
		return err
	}
	return errors.Join(agencykit.ErrInternal, err)
}
