package tenant

import (
	"maps"
	"time"
)

// Kind separates top-level agencies from the client accounts they own.
type Kind string

const (
	KindAgency       Kind = "agency"
	KindAgencyClient Kind = "agency_client"
	KindStandalone   Kind = "standalone"
)

// Plan is a subscription tier.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanAgency     Plan = "agency"
	PlanAgencyPlus Plan = "agency_plus"
	PlanEnterprise Plan = "enterprise"
)

type Status string

const (
	StatusTrial     Status = "trial"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusCancelled Status = "cancelled"
)

// QuotaStatuses are the statuses that occupy a sub-tenant slot.
var QuotaStatuses = []Status{StatusActive, StatusTrial}

// Resource names a countable, limited resource.
type Resource string

const (
	ResourceProjects  Resource = "projects"
	ResourceUsers     Resource = "users"
	ResourceStorage   Resource = "storage"
	ResourceAICredits Resource = "ai_credits"
	ResourceDomains   Resource = "domains"
	ResourceLeads     Resource = "leads"
	ResourceProducts  Resource = "products"
)

// Resources lists every tracked resource in display order.
var Resources = []Resource{
	ResourceProjects,
	ResourceUsers,
	ResourceStorage,
	ResourceAICredits,
	ResourceDomains,
	ResourceLeads,
	ResourceProducts,
}

// Counters maps a resource to a ceiling or a usage count.
type Counters map[Resource]int64

// Zero returns a Counters value with every tracked resource set to 0.
func Zero() Counters {
	c := make(Counters, len(Resources))
	for _, r := range Resources {
		c[r] = 0
	}
	return c
}

type BillingStatus string

const (
	BillingNone    BillingStatus = "none"
	BillingPending BillingStatus = "pending"
	BillingActive  BillingStatus = "active"
)

// Billing is the tenant's entitlement and subscription state. Prices are in
// whole currency units.
type Billing struct {
	Addons             map[string]int64 `bson:"addons" json:"addons"`
	AddonsMonthlyPrice int64            `bson:"addons_monthly_price" json:"addons_monthly_price"`
	MonthlyPrice       int64            `bson:"monthly_price" json:"monthly_price"`
	SubscriptionID     string           `bson:"subscription_id,omitempty" json:"subscription_id,omitempty"`
	Status             BillingStatus    `bson:"status" json:"status"`
	PaymentMethod      string           `bson:"payment_method,omitempty" json:"payment_method,omitempty"`
}

type Branding struct {
	PrimaryColor   string `bson:"primary_color" json:"primary_color" yaml:"primary_color"`
	SecondaryColor string `bson:"secondary_color" json:"secondary_color" yaml:"secondary_color"`
	LogoURL        string `bson:"logo_url,omitempty" json:"logo_url,omitempty" yaml:"logo_url"`
}

// Tenant is an isolated account: an agency or one of its clients.
type Tenant struct {
	ID            string    `bson:"_id" json:"id"`
	Name          string    `bson:"name" json:"name"`
	Slug          string    `bson:"slug" json:"slug"`
	Kind          Kind      `bson:"kind" json:"kind"`
	OwnerTenantID string    `bson:"owner_tenant_id,omitempty" json:"owner_tenant_id,omitempty"`
	OwnerID       string    `bson:"owner_id,omitempty" json:"owner_id,omitempty"`
	CreatedBy     string    `bson:"created_by,omitempty" json:"created_by,omitempty"`
	Plan          Plan      `bson:"plan" json:"plan"`
	Status        Status    `bson:"status" json:"status"`
	Limits        Counters  `bson:"limits" json:"limits"`
	Usage         Counters  `bson:"usage" json:"usage"`
	Billing       Billing   `bson:"billing" json:"billing"`
	Branding      Branding  `bson:"branding" json:"branding"`
	Industry      string    `bson:"industry,omitempty" json:"industry,omitempty"`
	ContactEmail  string    `bson:"contact_email,omitempty" json:"contact_email,omitempty"`
	ContactPhone  string    `bson:"contact_phone,omitempty" json:"contact_phone,omitempty"`
	Website       string    `bson:"website,omitempty" json:"website,omitempty"`
	Features      []string  `bson:"features,omitempty" json:"features,omitempty"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

// AgencyID returns the id of the top-level agency this tenant belongs to:
// its owner for sub-tenants, itself otherwise.
func (t Tenant) AgencyID() string {
	if t.OwnerTenantID != "" {
		return t.OwnerTenantID
	}
	return t.ID
}

// OwnedBy reports whether userID owns or created the tenant.
func (t Tenant) OwnedBy(userID string) bool {
	if userID == "" {
		return false
	}
	return t.OwnerID == userID || t.CreatedBy == userID
}

// Clone returns a deep copy, so stores never share maps with callers.
func (t Tenant) Clone() Tenant {
	t.Limits = maps.Clone(t.Limits)
	t.Usage = maps.Clone(t.Usage)
	t.Billing.Addons = maps.Clone(t.Billing.Addons)
	if t.Features != nil {
		t.Features = append([]string(nil), t.Features...)
	}
	return t
}

// Membership grants a user a role on a tenant.
type Membership struct {
	TenantID  string    `json:"tenant_id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Project is a tenant-scoped workspace seeded at provisioning time.
type Project struct {
	ID        string    `bson:"_id" json:"id"`
	TenantID  string    `bson:"tenant_id" json:"tenant_id"`
	Name      string    `bson:"name" json:"name"`
	Slug      string    `bson:"slug" json:"slug"`
	Template  string    `bson:"template,omitempty" json:"template,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
