package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/agencykit"
	"github.com/dmitrymomot/agencykit/pkg/logger"
	"github.com/dmitrymomot/agencykit/svc/activity"
	"github.com/dmitrymomot/agencykit/svc/addon"
	"github.com/dmitrymomot/agencykit/svc/catalog"
	"github.com/dmitrymomot/agencykit/svc/tenant"
)

var (
	ErrNotEligible   = errors.New("billing.not_eligible")
	ErrGatewayFailed = errors.New("billing.gateway_failed")
	ErrPersistFailed = errors.New("billing.persist_failed")
	ErrNoActor       = errors.New("billing.no_actor")
	ErrNoSelection   = errors.New("billing.no_selection")
)

// Authorizer applies the broad tenant access rule.
type Authorizer interface {
	AuthorizeTenant(ctx context.Context, actorID, tenantID string) (tenant.Tenant, error)
}

// TenantWriter persists add-on entitlements.
type TenantWriter interface {
	UpdateAddons(ctx context.Context, id string, addons map[string]int64, monthlyPrice int64) error
}

// ActivityRecorder appends audit events.
type ActivityRecorder interface {
	Record(ctx context.Context, agencyTenantID string, e activity.Event) error
}

// Reconciler keeps a tenant's stored add-ons and its payment subscription in
// step.
type Reconciler struct {
	auth     Authorizer
	tenants  TenantWriter
	pricer   *addon.Pricer
	catalog  *catalog.Catalog
	gateway  Gateway
	activity ActivityRecorder
	log      *slog.Logger
}

type Option func(*Reconciler)

func WithLogger(l *slog.Logger) Option { return func(r *Reconciler) { r.log = l } }

func NewReconciler(
	auth Authorizer,
	tenants TenantWriter,
	cat *catalog.Catalog,
	gateway Gateway,
	recorder ActivityRecorder,
	opts ...Option,
) *Reconciler {
	if auth == nil || tenants == nil || cat == nil || gateway == nil || recorder == nil {
		panic("billing: all reconciler dependencies are required")
	}
	r := &Reconciler{
		auth:     auth,
		tenants:  tenants,
		pricer:   addon.NewPricer(cat),
		catalog:  cat,
		gateway:  gateway,
		activity: recorder,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(logger.Component("billing"))
	return r
}

// AddonOffer is a catalog add-on as shown to a customer.
type AddonOffer struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	UnitPrice   int64  `json:"unit_price"`
	SaleUnit    int64  `json:"sale_unit"`
	MaxQuantity int64  `json:"max_quantity"`
}

// Pricing is the add-on state of a tenant. Limits are the tenant's stored
// limits with the current add-ons applied.
type Pricing struct {
	Available          []AddonOffer      `json:"available"`
	Current            addon.Selection   `json:"current"`
	AddonsMonthlyPrice int64             `json:"addons_monthly_price"`
	MonthlyPrice       int64             `json:"monthly_price"`
	Eligibility        addon.Eligibility `json:"eligibility"`
	Limits             tenant.Counters   `json:"limits"`
	SubTenantLimit     int64             `json:"sub_tenant_limit"`
}

// GetPricing returns the offer and the tenant's current add-ons.
func (r *Reconciler) GetPricing(ctx context.Context, actorID, tenantID string) (Pricing, error) {
	t, err := r.auth.AuthorizeTenant(ctx, actorID, tenantID)
	if err != nil {
		return Pricing{}, err
	}

	addons := r.catalog.Addons()
	offers := make([]AddonOffer, 0, len(addons))
	keys := make([]string, 0, len(addons))
	for _, a := range addons {
		offers = append(offers, AddonOffer{
			Key:         a.Key,
			Name:        a.Name,
			UnitPrice:   a.UnitPrice,
			SaleUnit:    a.SaleUnit,
			MaxQuantity: a.MaxQuantity,
		})
		keys = append(keys, a.Key)
	}

	return Pricing{
		Available:          offers,
		Current:            addon.FromMap(t.Billing.Addons, keys...),
		AddonsMonthlyPrice: t.Billing.AddonsMonthlyPrice,
		MonthlyPrice:       t.Billing.MonthlyPrice,
		Eligibility:        r.pricer.Eligibility(t.Plan),
		Limits:             r.catalog.EffectiveLimits(t.Limits, t.Billing.Addons),
		SubTenantLimit:     r.catalog.SubTenantLimit(t.Plan, t.Billing.Addons),
	}, nil
}

// Quote is a priced selection.
type Quote struct {
	Total     int64            `json:"total"`
	Breakdown []addon.LineItem `json:"breakdown"`
}

// CalculatePrice prices a selection without touching any tenant. Unknown
// keys are ignored.
func (r *Reconciler) CalculatePrice(_ context.Context, actorID string, s addon.Selection) (Quote, error) {
	if actorID == "" {
		return Quote{}, errors.Join(agencykit.ErrUnauthenticated, ErrNoActor)
	}
	if err := r.pricer.ValidateQuantities(s); err != nil {
		return Quote{}, err
	}
	return Quote{Total: r.pricer.TotalPrice(s), Breakdown: r.pricer.Breakdown(s)}, nil
}

// CheckEligibility reports whether the tenant's plan allows add-ons.
func (r *Reconciler) CheckEligibility(ctx context.Context, actorID, tenantID string) (addon.Eligibility, error) {
	t, err := r.auth.AuthorizeTenant(ctx, actorID, tenantID)
	if err != nil {
		return addon.Eligibility{}, err
	}
	return r.pricer.Eligibility(t.Plan), nil
}

// ApplyResult is the outcome of ApplyAddons.
type ApplyResult struct {
	Addons            addon.Selection  `json:"addons"`
	NewMonthlyPrice   int64            `json:"new_monthly_price"`
	TotalMonthlyPrice int64            `json:"total_monthly_price"`
	Breakdown         []addon.LineItem `json:"breakdown"`
}

// ApplyAddons replaces the tenant's add-ons with s.
//
// The payment subscription is updated first; the tenant record is written
// only once the provider accepted the change, and a provider failure leaves
// everything untouched. Applying the stored selection again is a no-op.
// A nil selection is rejected; an empty one clears every add-on.
func (r *Reconciler) ApplyAddons(ctx context.Context, actorID, tenantID string, s addon.Selection) (ApplyResult, error) {
	t, err := r.auth.AuthorizeTenant(ctx, actorID, tenantID)
	if err != nil {
		return ApplyResult{}, err
	}
	if s == nil {
		return ApplyResult{}, errors.Join(agencykit.ErrInvalidArgument, ErrNoSelection)
	}
	if err := r.pricer.Validate(s); err != nil {
		return ApplyResult{}, err
	}
	if e := r.pricer.Eligibility(t.Plan); !e.Eligible {
		return ApplyResult{}, errors.Join(agencykit.ErrPermissionDenied, ErrNotEligible, errors.New(e.Reason))
	}

	cost := r.pricer.TotalPrice(s)
	result := ApplyResult{
		Addons:            s,
		NewMonthlyPrice:   cost,
		TotalMonthlyPrice: t.Billing.MonthlyPrice + cost,
		Breakdown:         r.pricer.Breakdown(s),
	}

	log := r.log.With(logger.TenantID(t.ID), logger.ActorID(actorID), logger.SubscriptionID(t.Billing.SubscriptionID))

	if s.Equal(t.Billing.Addons) && t.Billing.AddonsMonthlyPrice == cost {
		log.DebugContext(ctx, "add-ons unchanged")
		return result, nil
	}

	if t.Billing.SubscriptionID != "" {
		if err := r.syncSubscription(ctx, t.Billing.SubscriptionID, s); err != nil {
			log.ErrorContext(ctx, "subscription update failed", logger.Error(err))
			return ApplyResult{}, errors.Join(agencykit.ErrInternal, ErrGatewayFailed, err)
		}
	}

	if err := r.tenants.UpdateAddons(ctx, t.ID, s.Map(), cost); err != nil {
		log.ErrorContext(ctx, "add-ons not persisted after subscription update",
			slog.String("reconcile", "manual"), logger.Error(err))
		return ApplyResult{}, errors.Join(agencykit.ErrInternal, ErrPersistFailed, err)
	}

	if err := r.activity.Record(ctx, t.AgencyID(), activity.Event{
		Type:            activity.EventAddonsUpdated,
		SubjectTenantID: t.ID,
		ActorID:         actorID,
		Payload: map[string]any{
			"addons":               s.Map(),
			"addons_monthly_price": cost,
			"previous_price":       t.Billing.AddonsMonthlyPrice,
		},
	}); err != nil {
		log.ErrorContext(ctx, "addons_updated event not recorded",
			slog.String("reconcile", "manual"), logger.Error(err))
		return ApplyResult{}, errors.Join(agencykit.ErrInternal, err)
	}

	log.InfoContext(ctx, "add-ons applied", slog.Int64("addons_monthly_price", cost))
	return result, nil
}

// syncSubscription keeps base items as they are and rebuilds the add-on
// items from s.
func (r *Reconciler) syncSubscription(ctx context.Context, subscriptionID string, s addon.Selection) error {
	current, err := r.gateway.SubscriptionItems(ctx, subscriptionID)
	if err != nil {
		return fmt.Errorf("read subscription %s: %w", subscriptionID, err)
	}

	items := make([]SubscriptionItem, 0, len(current)+len(s))
	existing := make(map[string]SubscriptionItem)
	for _, it := range current {
		if it.Addon == "" {
			items = append(items, it)
			continue
		}
		existing[it.Addon] = it
	}

	currency := r.catalog.Currency()
	for _, sel := range s {
		if sel.Quantity <= 0 {
			continue
		}
		a, _ := r.catalog.Addon(sel.Key)
		item := SubscriptionItem{
			Addon:       sel.Key,
			Quantity:    sel.Quantity,
			UnitAmount:  a.UnitPrice * 100,
			Currency:    currency,
			Description: a.Name,
			MaxQuantity: a.MaxQuantity,
		}
		if prev, ok := existing[sel.Key]; ok && prev.UnitAmount == item.UnitAmount && prev.Currency == currency {
			item.PriceID = prev.PriceID
		}
		items = append(items, item)
	}

	if err := r.gateway.ReplaceSubscriptionItems(ctx, subscriptionID, items); err != nil {
		return fmt.Errorf("update subscription %s: %w", subscriptionID, err)
	}
	return nil
}
