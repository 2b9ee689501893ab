package catalog

import (
	"maps"
	"math"
	"slices"
	"time"

	"github.com/dmitrymomot/agencykit/svc/tenant"
)

// Add-on keys. The set is closed.
const (
	AddonExtraSubClients = "extraSubClients"
	AddonExtraStorageGB  = "extraStorageGB"
	AddonExtraAiCredits  = "extraAiCredits"
)

// UnlimitedSubTenants is the ceiling used for plans without a sub-tenant cap.
const UnlimitedSubTenants int64 = math.MaxInt32

// DefaultMaxQuantity applies to add-ons whose MaxQuantity is zero.
const DefaultMaxQuantity int64 = 1000

// Addon describes one purchasable add-on. UnitPrice is charged per sale unit
// per month, in whole currency units. Each unit raises the Extends limit of
// the tenant by SaleUnit.
type Addon struct {
	Key         string          `json:"key" yaml:"key"`
	Name        string          `json:"name" yaml:"name"`
	UnitPrice   int64           `json:"unit_price" yaml:"unit_price"`
	SaleUnit    int64           `json:"sale_unit" yaml:"sale_unit"`
	MaxQuantity int64           `json:"max_quantity" yaml:"max_quantity"`
	Extends     tenant.Resource `json:"extends,omitempty" yaml:"extends"`
}

// Catalog is the immutable set of plan and price tables. Build one with
// Default, New or LoadFile at start-up and pass it to every service.
type Catalog struct {
	currency        string
	baseSubTenants  map[tenant.Plan]int64
	lowestTier      int64
	eligiblePlans   []tenant.Plan
	addons          []Addon
	clientPlan      tenant.Plan
	clientLimits    tenant.Counters
	defaultBranding tenant.Branding
	invitationTTL   time.Duration
}

func (c *Catalog) Currency() string { return c.currency }

// BaseSubTenantLimit returns the plan's sub-tenant ceiling. Plans missing
// from the table get the lowest tier's ceiling.
func (c *Catalog) BaseSubTenantLimit(p tenant.Plan) int64 {
	if n, ok := c.baseSubTenants[p]; ok {
		return n
	}
	return c.lowestTier
}

// Addon looks up an add-on by key.
func (c *Catalog) Addon(key string) (Addon, bool) {
	i := slices.IndexFunc(c.addons, func(a Addon) bool { return a.Key == key })
	if i < 0 {
		return Addon{}, false
	}
	return c.addons[i], true
}

// Addons returns every add-on in catalog order.
func (c *Catalog) Addons() []Addon { return slices.Clone(c.addons) }

// SubTenantLimit is the plan's base ceiling raised by the extra client
// add-on. The result never exceeds UnlimitedSubTenants.
func (c *Catalog) SubTenantLimit(p tenant.Plan, addons map[string]int64) int64 {
	limit := c.BaseSubTenantLimit(p)
	if a, ok := c.Addon(AddonExtraSubClients); ok {
		limit = saturatingAdd(limit, a.SaleUnit*clampQuantity(addons[a.Key], a.MaxQuantity))
	}
	return min(limit, UnlimitedSubTenants)
}

// EffectiveLimits returns a copy of limits with every add-on's extension
// applied. Unknown keys are ignored and quantities are clamped to the
// add-on's range.
func (c *Catalog) EffectiveLimits(limits tenant.Counters, addons map[string]int64) tenant.Counters {
	out := maps.Clone(limits)
	if out == nil {
		out = tenant.Counters{}
	}
	for _, a := range c.addons {
		qty := clampQuantity(addons[a.Key], a.MaxQuantity)
		if a.Extends == "" || qty == 0 {
			continue
		}
		if cur, ok := out[a.Extends]; ok && cur < 0 {
			continue // unlimited
		}
		out[a.Extends] = saturatingAdd(out[a.Extends], a.SaleUnit*qty)
	}
	return out
}

func (c *Catalog) AddonEligible(p tenant.Plan) bool { return slices.Contains(c.eligiblePlans, p) }

func (c *Catalog) EligiblePlans() []tenant.Plan { return slices.Clone(c.eligiblePlans) }

// ClientPlan is the plan assigned to every newly provisioned client.
func (c *Catalog) ClientPlan() tenant.Plan { return c.clientPlan }

func (c *Catalog) ClientLimits() tenant.Counters { return maps.Clone(c.clientLimits) }

// Branding fills empty colors with the defaults.
func (c *Catalog) Branding(b tenant.Branding) tenant.Branding {
	if b.PrimaryColor == "" {
		b.PrimaryColor = c.defaultBranding.PrimaryColor
	}
	if b.SecondaryColor == "" {
		b.SecondaryColor = c.defaultBranding.SecondaryColor
	}
	return b
}

func (c *Catalog) InvitationTTL() time.Duration { return c.invitationTTL }

func clampQuantity(q, maxQty int64) int64 {
	return max(0, min(q, maxQty))
}

func saturatingAdd(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}
