package billing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/agencykit"
	"github.com/dmitrymomot/agencykit/pkg/logger"
	"github.com/dmitrymomot/agencykit/svc/access"
	"github.com/dmitrymomot/agencykit/svc/activity"
	"github.com/dmitrymomot/agencykit/svc/addon"
	"github.com/dmitrymomot/agencykit/svc/billing"
	"github.com/dmitrymomot/agencykit/svc/catalog"
	"github.com/dmitrymomot/agencykit/svc/tenant"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) SubscriptionItems(ctx context.Context, subscriptionID string) ([]billing.SubscriptionItem, error) {
	args := m.Called(ctx, subscriptionID)
	items, _ := args.Get(0).([]billing.SubscriptionItem)
	return items, args.Error(1)
}

func (m *mockGateway) ReplaceSubscriptionItems(ctx context.Context, subscriptionID string, items []billing.SubscriptionItem) error {
	return m.Called(ctx, subscriptionID, items).Error(0)
}

type fixture struct {
	store    *tenant.MemoryStore
	gateway  *mockGateway
	events   *activity.Recorder
	rec      *billing.Reconciler
	verifier *access.Verifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := tenant.NewMemoryStore()
	require.NoError(t, store.Create(ctx, tenant.Tenant{
		ID: "agency", Kind: tenant.KindAgency, Plan: tenant.PlanAgency, OwnerID: "owner",
		Billing: tenant.Billing{MonthlyPrice: 99},
		Limits:  tenant.Counters{tenant.ResourceAICredits: 1000, tenant.ResourceStorage: 1000},
	}))
	require.NoError(t, store.Create(ctx, tenant.Tenant{
		ID: "client", Kind: tenant.KindAgencyClient, OwnerTenantID: "agency", Plan: tenant.PlanAgency, CreatedBy: "owner",
	}))
	require.NoError(t, store.Create(ctx, tenant.Tenant{
		ID: "subscribed", Kind: tenant.KindAgency, Plan: tenant.PlanAgencyPlus, OwnerID: "owner",
		Billing: tenant.Billing{SubscriptionID: "sub_123", MonthlyPrice: 199},
	}))
	require.NoError(t, store.Create(ctx, tenant.Tenant{
		ID: "solo", Kind: tenant.KindStandalone, Plan: tenant.PlanPro, OwnerID: "owner",
	}))
	store.AddMembership(tenant.Membership{TenantID: "agency", UserID: "admin", Role: tenant.ParseRole("Agency_Admin")})

	gw := &mockGateway{}
	events := activity.NewRecorder(activity.NewMemoryStorage(), activity.WithLogger(logger.Nop()))
	verifier := access.NewVerifier(store, store, access.WithLogger(logger.Nop()))
	rec := billing.NewReconciler(verifier, store, catalog.Default(), gw, events, billing.WithLogger(logger.Nop()))

	t.Cleanup(func() { gw.AssertExpectations(t) })
	return &fixture{store: store, gateway: gw, events: events, rec: rec, verifier: verifier}
}

func (f *fixture) eventCount(t *testing.T, agencyID string) int {
	t.Helper()
	events, err := f.events.List(context.Background(), agencyID, 500)
	require.NoError(t, err)
	return len(events)
}

func TestApplyAddonsWithoutSubscription(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	sel := addon.Selection{{Key: "extraStorageGB", Quantity: 2}, {Key: "extraAiCredits", Quantity: 0}}
	res, err := f.rec.ApplyAddons(ctx, "owner", "client", sel)
	require.NoError(t, err)

	assert.Equal(t, int64(20), res.NewMonthlyPrice)
	assert.Equal(t, int64(20), res.TotalMonthlyPrice)
	require.Len(t, res.Breakdown, 2)
	assert.Equal(t, "extraStorageGB", res.Breakdown[0].Addon)
	assert.Equal(t, "extraAiCredits", res.Breakdown[1].Addon)

	stored, err := f.store.Get(ctx, "client")
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"extraStorageGB": 2, "extraAiCredits": 0}, stored.Billing.Addons)
	assert.Equal(t, int64(20), stored.Billing.AddonsMonthlyPrice)

	events, err := f.events.List(ctx, "agency", 10)
	require.NoError(t, err)
	require.Len(t, events, 1, "event is recorded under the agency ancestor")
	assert.Equal(t, activity.EventAddonsUpdated, events[0].Type)
	assert.Equal(t, "client", events[0].SubjectTenantID)
	assert.Equal(t, "owner", events[0].ActorID)
}

func TestApplyAddonsIncludesBasePrice(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res, err := f.rec.ApplyAddons(context.Background(), "admin", "agency", addon.Selection{{Key: "extraSubClients", Quantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, int64(30), res.NewMonthlyPrice)
	assert.Equal(t, int64(129), res.TotalMonthlyPrice)
	assert.Equal(t, 1, f.eventCount(t, "agency"), "top-level tenants record under their own id")
}

func TestApplyAddonsUpdatesSubscription(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.gateway.On("SubscriptionItems", mock.Anything, "sub_123").Return([]billing.SubscriptionItem{
		{PriceID: "pri_base", Quantity: 1, UnitAmount: 19900, Currency: "USD"},
		{PriceID: "pri_storage", Quantity: 1, Addon: "extraStorageGB", UnitAmount: 1000, Currency: "USD"},
		{PriceID: "pri_ai_old", Quantity: 1, Addon: "extraAiCredits", UnitAmount: 1500, Currency: "USD"},
		{PriceID: "pri_clients", Quantity: 4, Addon: "extraSubClients", UnitAmount: 1500, Currency: "USD"},
	}, nil).Once()

	want := []billing.SubscriptionItem{
		{PriceID: "pri_base", Quantity: 1, UnitAmount: 19900, Currency: "USD"},
		{
			PriceID: "pri_storage", Quantity: 3, Addon: "extraStorageGB", UnitAmount: 1000, Currency: "USD",
			Description: "Extra storage (100 GB)", MaxQuantity: catalog.DefaultMaxQuantity,
		},
		{
			Quantity: 2, Addon: "extraAiCredits", UnitAmount: 2000, Currency: "USD",
			Description: "Extra AI credits (1000)", MaxQuantity: catalog.DefaultMaxQuantity,
		},
	}
	f.gateway.On("ReplaceSubscriptionItems", mock.Anything, "sub_123", want).Return(nil).Once()

	sel := addon.Selection{
		{Key: "extraStorageGB", Quantity: 3},
		{Key: "extraAiCredits", Quantity: 2},
		{Key: "extraSubClients", Quantity: 0},
	}
	res, err := f.rec.ApplyAddons(ctx, "owner", "subscribed", sel)
	require.NoError(t, err)
	assert.Equal(t, int64(70), res.NewMonthlyPrice)
	assert.Equal(t, int64(269), res.TotalMonthlyPrice)

	stored, err := f.store.Get(ctx, "subscribed")
	require.NoError(t, err)
	assert.Equal(t, int64(70), stored.Billing.AddonsMonthlyPrice)
}

func TestApplyAddonsGatewayFailureChangesNothing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.gateway.On("SubscriptionItems", mock.Anything, "sub_123").Return([]billing.SubscriptionItem{
		{PriceID: "pri_base", Quantity: 1, UnitAmount: 19900, Currency: "USD"},
	}, nil).Once()
	f.gateway.On("ReplaceSubscriptionItems", mock.Anything, "sub_123", mock.Anything).
		Return(errors.New("paddle: card declined")).Once()

	_, err := f.rec.ApplyAddons(ctx, "owner", "subscribed", addon.Selection{{Key: "extraSubClients", Quantity: 5}})
	require.Error(t, err)
	assert.ErrorIs(t, err, agencykit.ErrInternal)
	assert.ErrorIs(t, err, billing.ErrGatewayFailed)
	assert.Contains(t, err.Error(), "card declined")

	stored, err := f.store.Get(ctx, "subscribed")
	require.NoError(t, err)
	assert.Empty(t, stored.Billing.Addons)
	assert.Zero(t, stored.Billing.AddonsMonthlyPrice)
	assert.Zero(t, f.eventCount(t, "subscribed"))
}

func TestApplyAddonsGatewayReadFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.gateway.On("SubscriptionItems", mock.Anything, "sub_123").Return(nil, errors.New("timeout")).Once()

	_, err := f.rec.ApplyAddons(context.Background(), "owner", "subscribed", addon.Selection{{Key: "extraSubClients", Quantity: 1}})
	assert.ErrorIs(t, err, billing.ErrGatewayFailed)
	assert.Zero(t, f.eventCount(t, "subscribed"))
}

func TestApplyAddonsIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	f.gateway.On("SubscriptionItems", mock.Anything, "sub_123").Return([]billing.SubscriptionItem{
		{PriceID: "pri_base", Quantity: 1, UnitAmount: 19900, Currency: "USD"},
	}, nil).Once()
	f.gateway.On("ReplaceSubscriptionItems", mock.Anything, "sub_123", mock.Anything).Return(nil).Once()

	sel := addon.Selection{{Key: "extraSubClients", Quantity: 2}}
	first, err := f.rec.ApplyAddons(ctx, "owner", "subscribed", sel)
	require.NoError(t, err)

	second, err := f.rec.ApplyAddons(ctx, "owner", "subscribed", sel)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	stored, err := f.store.Get(ctx, "subscribed")
	require.NoError(t, err)
	assert.Equal(t, int64(30), stored.Billing.AddonsMonthlyPrice)
	assert.Equal(t, 1, f.eventCount(t, "subscribed"))
}

func TestApplyAddonsRejections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	cases := []struct {
		name   string
		actor  string
		tenant string
		sel    addon.Selection
		want   error
	}{
		{"unauthenticated", "", "agency", addon.Selection{{Key: "extraSubClients", Quantity: 1}}, agencykit.ErrUnauthenticated},
		{"stranger", "nobody", "agency", addon.Selection{{Key: "extraSubClients", Quantity: 1}}, agencykit.ErrPermissionDenied},
		{"missing tenant", "owner", "ghost", addon.Selection{{Key: "extraSubClients", Quantity: 1}}, agencykit.ErrNotFound},
		{"unknown key", "owner", "agency", addon.Selection{{Key: "extraSeats", Quantity: 1}}, agencykit.ErrInvalidArgument},
		{"negative quantity", "owner", "agency", addon.Selection{{Key: "extraSubClients", Quantity: -1}}, agencykit.ErrInvalidArgument},
		{"huge quantity", "owner", "agency", addon.Selection{{Key: "extraSubClients", Quantity: 1 << 62}}, addon.ErrQuantityTooLarge},
		{"nil selection", "owner", "agency", nil, billing.ErrNoSelection},
		{"nil selection stranger", "nobody", "agency", nil, agencykit.ErrPermissionDenied},
		{"ineligible plan", "owner", "solo", addon.Selection{{Key: "extraSubClients", Quantity: 1}}, billing.ErrNotEligible},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := f.rec.ApplyAddons(ctx, tc.actor, tc.tenant, tc.sel)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestApplyAddonsRejectedQuantityPersistsNothing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.rec.ApplyAddons(ctx, "owner", "subscribed", addon.Selection{{Key: "extraSubClients", Quantity: 1 << 62}})
	require.ErrorIs(t, err, agencykit.ErrInvalidArgument)

	stored, err := f.store.Get(ctx, "subscribed")
	require.NoError(t, err)
	assert.Empty(t, stored.Billing.Addons)
	assert.Zero(t, stored.Billing.AddonsMonthlyPrice)
	assert.Zero(t, f.eventCount(t, "subscribed"))
	f.gateway.AssertNotCalled(t, "ReplaceSubscriptionItems", mock.Anything, mock.Anything, mock.Anything)
}

func TestApplyAddonsEmptySelectionClears(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.rec.ApplyAddons(ctx, "owner", "agency", addon.Selection{{Key: "extraSubClients", Quantity: 2}})
	require.NoError(t, err)

	res, err := f.rec.ApplyAddons(ctx, "owner", "agency", addon.Selection{})
	require.NoError(t, err)
	assert.Zero(t, res.NewMonthlyPrice)

	stored, err := f.store.Get(ctx, "agency")
	require.NoError(t, err)
	assert.Empty(t, stored.Billing.Addons)
	assert.Zero(t, stored.Billing.AddonsMonthlyPrice)
}

type failingWriter struct{}

func (failingWriter) UpdateAddons(context.Context, string, map[string]int64, int64) error {
	return errors.New("write conflict")
}

func TestApplyAddonsPersistFailureAfterGateway(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.gateway.On("SubscriptionItems", mock.Anything, "sub_123").Return([]billing.SubscriptionItem{}, nil).Once()
	f.gateway.On("ReplaceSubscriptionItems", mock.Anything, "sub_123", mock.Anything).Return(nil).Once()

	rec := billing.NewReconciler(f.verifier, failingWriter{}, catalog.Default(), f.gateway, f.events, billing.WithLogger(logger.Nop()))
	_, err := rec.ApplyAddons(context.Background(), "owner", "subscribed", addon.Selection{{Key: "extraSubClients", Quantity: 1}})
	assert.ErrorIs(t, err, billing.ErrPersistFailed)
	assert.ErrorIs(t, err, agencykit.ErrInternal)
	assert.Zero(t, f.eventCount(t, "subscribed"))
}

func TestGetPricing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.store.UpdateAddons(ctx, "agency", map[string]int64{"extraAiCredits": 1, "extraSubClients": 2}, 50))

	p, err := f.rec.GetPricing(ctx, "owner", "agency")
	require.NoError(t, err)
	require.Len(t, p.Available, 3)
	assert.Equal(t, "extraSubClients", p.Available[0].Key)
	assert.Equal(t, addon.Selection{{Key: "extraSubClients", Quantity: 2}, {Key: "extraAiCredits", Quantity: 1}}, p.Current)
	assert.Equal(t, int64(50), p.AddonsMonthlyPrice)
	assert.Equal(t, int64(99), p.MonthlyPrice)
	assert.True(t, p.Eligibility.Eligible)
	assert.Equal(t, int64(2000), p.Limits[tenant.ResourceAICredits], "ai credit add-on extends the limit")
	assert.Equal(t, int64(1000), p.Limits[tenant.ResourceStorage])
	assert.Equal(t, int64(12), p.SubTenantLimit)
	assert.Equal(t, catalog.DefaultMaxQuantity, p.Available[0].MaxQuantity)

	_, err = f.rec.GetPricing(ctx, "nobody", "agency")
	assert.ErrorIs(t, err, agencykit.ErrPermissionDenied)
}

func TestCalculatePrice(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	q, err := f.rec.CalculatePrice(context.Background(), "anyone", addon.Selection{
		{Key: "extraSubClients", Quantity: 1},
		{Key: "future", Quantity: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(15), q.Total)
	assert.Len(t, q.Breakdown, 1)

	_, err = f.rec.CalculatePrice(context.Background(), "", nil)
	assert.ErrorIs(t, err, agencykit.ErrUnauthenticated)

	_, err = f.rec.CalculatePrice(context.Background(), "anyone", addon.Selection{{Key: "extraAiCredits", Quantity: 1 << 62}})
	assert.ErrorIs(t, err, agencykit.ErrInvalidArgument)
	assert.ErrorIs(t, err, addon.ErrQuantityTooLarge)
}

func TestCheckEligibility(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	e, err := f.rec.CheckEligibility(context.Background(), "owner", "solo")
	require.NoError(t, err)
	assert.False(t, e.Eligible)
	assert.NotEmpty(t, e.Reason)

	e, err = f.rec.CheckEligibility(context.Background(), "admin", "agency")
	require.NoError(t, err)
	assert.True(t, e.Eligible)
}
