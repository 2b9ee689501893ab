package access_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/agencykit"
	"github.com/dmitrymomot/agencykit/pkg/logger"
	"github.com/dmitrymomot/agencykit/svc/access"
	"github.com/dmitrymomot/agencykit/svc/tenant"
)

func setup(t *testing.T) *access.Verifier {
	t.Helper()
	ctx := context.Background()
	store := tenant.NewMemoryStore()

	require.NoError(t, store.Create(ctx, tenant.Tenant{ID: "agency-1", Kind: tenant.KindAgency, OwnerID: "owner"}))
	require.NoError(t, store.Create(ctx, tenant.Tenant{ID: "agency-2", Kind: tenant.KindAgency, CreatedBy: "creator"}))

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	store.AddMembership(tenant.Membership{TenantID: "agency-1", UserID: "admin", Role: tenant.ParseRole("Agency_Admin")})
	store.AddMembership(tenant.Membership{TenantID: "agency-1", UserID: "boss", Role: tenant.ParseRole("agency_owner"), CreatedAt: base.Add(time.Hour)})
	store.AddMembership(tenant.Membership{TenantID: "agency-2", UserID: "boss", Role: tenant.RoleAgencyOwner, CreatedAt: base})
	store.AddMembership(tenant.Membership{TenantID: "agency-1", UserID: "root", Role: tenant.ParseRole("superadmin")})
	store.AddMembership(tenant.Membership{TenantID: "agency-1", UserID: "member", Role: tenant.RoleMember})
	store.AddMembership(tenant.Membership{TenantID: "agency-1", UserID: "typo", Role: tenant.ParseRole("agency-owner")})

	return access.NewVerifier(store, store, access.WithLogger(logger.Nop()))
}

func TestAuthorizeTenant(t *testing.T) {
	t.Parallel()
	v := setup(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		actor  string
		tenant string
		want   error
	}{
		{"unauthenticated", "", "agency-1", agencykit.ErrUnauthenticated},
		{"owner", "owner", "agency-1", nil},
		{"creator", "creator", "agency-2", nil},
		{"mixed case admin role", "admin", "agency-1", nil},
		{"agency owner member", "boss", "agency-1", nil},
		{"superadmin alias", "root", "agency-1", nil},
		{"plain member", "member", "agency-1", agencykit.ErrPermissionDenied},
		{"unknown role", "typo", "agency-1", agencykit.ErrPermissionDenied},
		{"stranger", "nobody", "agency-1", agencykit.ErrPermissionDenied},
		{"owner of another tenant", "owner", "agency-2", agencykit.ErrPermissionDenied},
		{"missing tenant", "owner", "ghost", agencykit.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := v.AuthorizeTenant(ctx, tc.actor, tc.tenant)
			if tc.want == nil {
				require.NoError(t, err)
				assert.Equal(t, tc.tenant, got.ID)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestAuthorizeProvisioning(t *testing.T) {
	t.Parallel()
	v := setup(t)
	ctx := context.Background()

	t.Run("agency owner on given agency", func(t *testing.T) {
		t.Parallel()
		id, err := v.AuthorizeProvisioning(ctx, "boss", "agency-1")
		require.NoError(t, err)
		assert.Equal(t, "agency-1", id)
	})

	t.Run("resolves oldest agency owner membership", func(t *testing.T) {
		t.Parallel()
		id, err := v.AuthorizeProvisioning(ctx, "boss", "")
		require.NoError(t, err)
		assert.Equal(t, "agency-2", id)
	})

	t.Run("admin passes broad rule but not narrow", func(t *testing.T) {
		t.Parallel()
		_, err := v.AuthorizeTenant(ctx, "admin", "agency-1")
		require.NoError(t, err)

		_, err = v.AuthorizeProvisioning(ctx, "admin", "agency-1")
		assert.ErrorIs(t, err, agencykit.ErrPermissionDenied)
		assert.ErrorIs(t, err, access.ErrNotAgencyOwner)
	})

	t.Run("ownership field is not enough", func(t *testing.T) {
		t.Parallel()
		_, err := v.AuthorizeProvisioning(ctx, "owner", "agency-1")
		assert.ErrorIs(t, err, agencykit.ErrPermissionDenied)

		_, err = v.AuthorizeProvisioning(ctx, "owner", "")
		assert.ErrorIs(t, err, agencykit.ErrPermissionDenied)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		t.Parallel()
		_, err := v.AuthorizeProvisioning(ctx, "", "agency-1")
		assert.ErrorIs(t, err, agencykit.ErrUnauthenticated)
	})
}

type failingMembers struct{}

func (failingMembers) Membership(context.Context, string, string) (tenant.Membership, error) {
	return tenant.Membership{}, errors.New("connection reset")
}

func (failingMembers) MembershipsOf(context.Context, string) ([]tenant.Membership, error) {
	return nil, errors.New("connection reset")
}

func TestStorageFailureIsInternal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := tenant.NewMemoryStore()
	require.NoError(t, store.Create(ctx, tenant.Tenant{ID: "agency-1"}))
	v := access.NewVerifier(store, failingMembers{}, access.WithLogger(logger.Nop()))

	_, err := v.AuthorizeTenant(ctx, "someone", "agency-1")
	assert.ErrorIs(t, err, agencykit.ErrInternal)

	_, err = v.AuthorizeProvisioning(ctx, "someone", "")
	assert.ErrorIs(t, err, agencykit.ErrInternal)
}

func TestActorContext(t *testing.T) {
	t.Parallel()

	ctx := access.WithActor(context.Background(), "u1")
	assert.Equal(t, "u1", access.ActorFromContext(ctx))
	assert.Empty(t, access.ActorFromContext(context.Background()))

	attr, ok := access.Extractor()(ctx)
	require.True(t, ok)
	assert.Equal(t, "actor_id", attr.Key)
}
