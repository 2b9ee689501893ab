package catalog

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/agencykit/svc/tenant"
)

// maxAddonsTotal bounds the monthly price of the largest possible selection,
// leaving headroom for the base price and the conversion to minor units.
const maxAddonsTotal = math.MaxInt64 / 1000

var (
	ErrInvalidCatalog = errors.New("catalog.invalid")
	ErrReadFile       = errors.New("catalog.read_file")
)

// Tables is the serializable form of a Catalog. In YAML a sub-tenant limit
// of -1 means unlimited.
type Tables struct {
	Currency        string                `yaml:"currency"`
	BaseSubTenants  map[tenant.Plan]int64 `yaml:"base_sub_tenants"`
	AddonPlans      []tenant.Plan         `yaml:"addon_plans"`
	Addons          []Addon               `yaml:"addons"`
	ClientPlan      tenant.Plan           `yaml:"client_plan"`
	ClientLimits    tenant.Counters       `yaml:"client_limits"`
	DefaultBranding tenant.Branding       `yaml:"default_branding"`
	InvitationTTL   time.Duration         `yaml:"invitation_ttl"`
}

// DefaultTables returns the compiled-in tables.
func DefaultTables() Tables {
	return Tables{
		Currency: "USD",
		BaseSubTenants: map[tenant.Plan]int64{
			tenant.PlanAgency:     10,
			tenant.PlanAgencyPlus: 25,
			tenant.PlanEnterprise: -1,
		},
		AddonPlans: []tenant.Plan{tenant.PlanAgency, tenant.PlanAgencyPlus, tenant.PlanEnterprise},
		Addons: []Addon{
			{Key: AddonExtraSubClients, Name: "Extra client accounts", UnitPrice: 15, SaleUnit: 1},
			{Key: AddonExtraStorageGB, Name: "Extra storage (100 GB)", UnitPrice: 10, SaleUnit: 100, Extends: tenant.ResourceStorage},
			{Key: AddonExtraAiCredits, Name: "Extra AI credits (1000)", UnitPrice: 20, SaleUnit: 1000, Extends: tenant.ResourceAICredits},
		},
		ClientPlan: tenant.PlanAgency,
		ClientLimits: tenant.Counters{
			tenant.ResourceProjects:  5,
			tenant.ResourceUsers:     3,
			tenant.ResourceStorage:   1000,
			tenant.ResourceAICredits: 1000,
			tenant.ResourceDomains:   1,
			tenant.ResourceLeads:     500,
			tenant.ResourceProducts:  50,
		},
		DefaultBranding: tenant.Branding{PrimaryColor: "#3B82F6", SecondaryColor: "#1E40AF"},
		InvitationTTL:   7 * 24 * time.Hour,
	}
}

// Default returns the catalog built from DefaultTables.
func Default() *Catalog {
	c, err := New(DefaultTables())
	if err != nil {
		panic(err)
	}
	return c
}

// New validates t and builds an immutable Catalog from a copy of it.
func New(t Tables) (*Catalog, error) {
	if t.Currency == "" {
		return nil, fmt.Errorf("%w: currency is required", ErrInvalidCatalog)
	}
	if len(t.BaseSubTenants) == 0 {
		return nil, fmt.Errorf("%w: at least one plan limit is required", ErrInvalidCatalog)
	}
	if t.InvitationTTL <= 0 {
		return nil, fmt.Errorf("%w: invitation ttl must be positive", ErrInvalidCatalog)
	}

	base := make(map[tenant.Plan]int64, len(t.BaseSubTenants))
	lowest := UnlimitedSubTenants
	for plan, n := range t.BaseSubTenants {
		switch {
		case n == -1:
			n = UnlimitedSubTenants
		case n < 0:
			return nil, fmt.Errorf("%w: plan %q has negative limit", ErrInvalidCatalog, plan)
		}
		base[plan] = n
		lowest = min(lowest, n)
	}

	addons := slices.Clone(t.Addons)
	seen := make(map[string]bool, len(addons))
	var worst int64
	for i := range addons {
		a := &addons[i]
		if a.Key == "" || seen[a.Key] {
			return nil, fmt.Errorf("%w: add-on key %q is empty or repeated", ErrInvalidCatalog, a.Key)
		}
		if a.UnitPrice < 0 || a.SaleUnit <= 0 {
			return nil, fmt.Errorf("%w: add-on %q needs a non-negative price and positive sale unit", ErrInvalidCatalog, a.Key)
		}
		if a.MaxQuantity == 0 {
			a.MaxQuantity = DefaultMaxQuantity
		}
		if a.MaxQuantity < 0 || a.MaxQuantity > math.MaxInt32 {
			return nil, fmt.Errorf("%w: add-on %q max quantity out of range", ErrInvalidCatalog, a.Key)
		}
		if a.SaleUnit > math.MaxInt64/a.MaxQuantity {
			return nil, fmt.Errorf("%w: add-on %q sale unit times max quantity is too large", ErrInvalidCatalog, a.Key)
		}
		// Every total, including the minor-unit amounts sent to the
		// payment provider, has to fit in an int64.
		if a.UnitPrice > 0 && a.MaxQuantity > (maxAddonsTotal-worst)/a.UnitPrice {
			return nil, fmt.Errorf("%w: add-on %q price times max quantity is too large", ErrInvalidCatalog, a.Key)
		}
		worst += a.UnitPrice * a.MaxQuantity
		seen[a.Key] = true
	}

	return &Catalog{
		currency:        t.Currency,
		baseSubTenants:  base,
		lowestTier:      lowest,
		eligiblePlans:   slices.Clone(t.AddonPlans),
		addons:          addons,
		clientPlan:      t.ClientPlan,
		clientLimits:    maps.Clone(t.ClientLimits),
		defaultBranding: t.DefaultBranding,
		invitationTTL:   t.InvitationTTL,
	}, nil
}

// LoadFile reads YAML from path over the defaults. Every section present in
// the file replaces the default section as a whole.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrReadFile, err)
	}
	var file Tables
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, errors.Join(ErrInvalidCatalog, err)
	}
	return New(file.over(DefaultTables()))
}

func (t Tables) over(base Tables) Tables {
	if t.Currency != "" {
		base.Currency = t.Currency
	}
	if t.BaseSubTenants != nil {
		base.BaseSubTenants = t.BaseSubTenants
	}
	if t.AddonPlans != nil {
		base.AddonPlans = t.AddonPlans
	}
	if t.Addons != nil {
		base.Addons = t.Addons
	}
	if t.ClientPlan != "" {
		base.ClientPlan = t.ClientPlan
	}
	if t.ClientLimits != nil {
		base.ClientLimits = t.ClientLimits
	}
	if t.DefaultBranding != (tenant.Branding{}) {
		base.DefaultBranding = t.DefaultBranding
	}
	if t.InvitationTTL > 0 {
		base.InvitationTTL = t.InvitationTTL
	}
	return base
}
