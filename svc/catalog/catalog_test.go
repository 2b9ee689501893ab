package catalog_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/agencykit/svc/catalog"
	"github.com/dmitrymomot/agencykit/svc/tenant"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	c := catalog.Default()
	assert.Equal(t, int64(10), c.BaseSubTenantLimit(tenant.PlanAgency))
	assert.Equal(t, int64(25), c.BaseSubTenantLimit(tenant.PlanAgencyPlus))
	assert.Equal(t, catalog.UnlimitedSubTenants, c.BaseSubTenantLimit(tenant.PlanEnterprise))
	assert.Equal(t, int64(10), c.BaseSubTenantLimit("platinum"), "unknown plans fall back to the lowest tier")

	a, ok := c.Addon(catalog.AddonExtraStorageGB)
	require.True(t, ok)
	assert.Equal(t, int64(10), a.UnitPrice)
	assert.Equal(t, int64(100), a.SaleUnit)
	assert.Equal(t, catalog.DefaultMaxQuantity, a.MaxQuantity)
	_, ok = c.Addon("extraSeats")
	assert.False(t, ok)

	assert.True(t, c.AddonEligible(tenant.PlanAgencyPlus))
	assert.False(t, c.AddonEligible(tenant.PlanPro))
	assert.Equal(t, 7*24*time.Hour, c.InvitationTTL())
	assert.Equal(t, tenant.PlanAgency, c.ClientPlan())
}

func TestCatalogIsImmutable(t *testing.T) {
	t.Parallel()

	c := catalog.Default()
	limits := c.ClientLimits()
	limits[tenant.ResourceProjects] = 999
	assert.Equal(t, int64(5), c.ClientLimits()[tenant.ResourceProjects])

	addons := c.Addons()
	addons[0].UnitPrice = 0
	first, _ := c.Addon(addons[0].Key)
	assert.Equal(t, int64(15), first.UnitPrice)
}

func TestBranding(t *testing.T) {
	t.Parallel()

	c := catalog.Default()
	assert.Equal(t, tenant.Branding{PrimaryColor: "#3B82F6", SecondaryColor: "#1E40AF"}, c.Branding(tenant.Branding{}))
	assert.Equal(t, "#000000", c.Branding(tenant.Branding{PrimaryColor: "#000000"}).PrimaryColor)
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	cases := map[string]func(*catalog.Tables){
		"no currency":     func(tb *catalog.Tables) { tb.Currency = "" },
		"no plans":        func(tb *catalog.Tables) { tb.BaseSubTenants = nil },
		"negative limit":  func(tb *catalog.Tables) { tb.BaseSubTenants[tenant.PlanAgency] = -5 },
		"duplicate addon": func(tb *catalog.Tables) { tb.Addons = append(tb.Addons, tb.Addons[0]) },
		"zero sale unit":  func(tb *catalog.Tables) { tb.Addons[1].SaleUnit = 0 },
		"no ttl":          func(tb *catalog.Tables) { tb.InvitationTTL = 0 },
		"negative max":    func(tb *catalog.Tables) { tb.Addons[0].MaxQuantity = -1 },
		"max above int32": func(tb *catalog.Tables) { tb.Addons[0].MaxQuantity = 1 << 40 },
		"sale unit overflows": func(tb *catalog.Tables) { tb.Addons[1].SaleUnit = 1 << 60 },
		"price overflows": func(tb *catalog.Tables) {
			tb.Addons[0].UnitPrice = 1 << 40
			tb.Addons[0].MaxQuantity = 1 << 30
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			tb := catalog.DefaultTables()
			mutate(&tb)
			_, err := catalog.New(tb)
			assert.ErrorIs(t, err, catalog.ErrInvalidCatalog)
		})
	}
}

func TestSubTenantLimit(t *testing.T) {
	t.Parallel()

	c := catalog.Default()
	assert.Equal(t, int64(10), c.SubTenantLimit(tenant.PlanAgency, nil))
	assert.Equal(t, int64(13), c.SubTenantLimit(tenant.PlanAgency, map[string]int64{catalog.AddonExtraSubClients: 3}))
	assert.Equal(t, int64(10), c.SubTenantLimit(tenant.PlanAgency, map[string]int64{catalog.AddonExtraSubClients: -4}))
	assert.Equal(t, int64(10)+catalog.DefaultMaxQuantity,
		c.SubTenantLimit(tenant.PlanAgency, map[string]int64{catalog.AddonExtraSubClients: 1 << 62}),
		"quantities are clamped to the add-on maximum")
	assert.Equal(t, catalog.UnlimitedSubTenants,
		c.SubTenantLimit(tenant.PlanEnterprise, map[string]int64{catalog.AddonExtraSubClients: 5}))
}

func TestEffectiveLimits(t *testing.T) {
	t.Parallel()

	c := catalog.Default()
	base := c.ClientLimits()

	t.Run("extends storage and ai credits", func(t *testing.T) {
		t.Parallel()
		got := c.EffectiveLimits(base, map[string]int64{
			catalog.AddonExtraStorageGB:  2,
			catalog.AddonExtraAiCredits:  3,
			catalog.AddonExtraSubClients: 4,
			"extraSeats":                 9,
		})
		assert.Equal(t, int64(1200), got[tenant.ResourceStorage])
		assert.Equal(t, int64(4000), got[tenant.ResourceAICredits])
		assert.Equal(t, int64(5), got[tenant.ResourceProjects])
		assert.Equal(t, int64(1000), base[tenant.ResourceStorage], "input is not modified")
	})

	t.Run("no add-ons", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, base, c.EffectiveLimits(base, nil))
	})

	t.Run("unlimited stays unlimited", func(t *testing.T) {
		t.Parallel()
		got := c.EffectiveLimits(tenant.Counters{tenant.ResourceStorage: -1}, map[string]int64{catalog.AddonExtraStorageGB: 1})
		assert.Equal(t, int64(-1), got[tenant.ResourceStorage])
	})

	t.Run("huge quantity is clamped", func(t *testing.T) {
		t.Parallel()
		got := c.EffectiveLimits(base, map[string]int64{catalog.AddonExtraStorageGB: 1 << 62})
		assert.Equal(t, int64(1000)+100*catalog.DefaultMaxQuantity, got[tenant.ResourceStorage])
	})
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
currency: EUR
base_sub_tenants:
  agency: 5
  enterprise: -1
invitation_ttl: 72h
`), 0o600))

	c, err := catalog.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "EUR", c.Currency())
	assert.Equal(t, int64(5), c.BaseSubTenantLimit(tenant.PlanAgency))
	assert.Equal(t, int64(5), c.BaseSubTenantLimit(tenant.PlanAgencyPlus))
	assert.Equal(t, 72*time.Hour, c.InvitationTTL())

	a, ok := c.Addon(catalog.AddonExtraSubClients)
	require.True(t, ok, "sections absent from the file keep their defaults")
	assert.Equal(t, int64(15), a.UnitPrice)

	_, err = catalog.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, catalog.ErrReadFile)
}
