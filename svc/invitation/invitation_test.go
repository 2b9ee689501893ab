package invitation_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/agencykit/pkg/email"
	"github.com/dmitrymomot/agencykit/pkg/logger"
	"github.com/dmitrymomot/agencykit/pkg/token"
	"github.com/dmitrymomot/agencykit/svc/invitation"
	"github.com/dmitrymomot/agencykit/svc/tenant"
)

type outbox struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (o *outbox) Send(_ context.Context, msg email.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.sent = append(o.sent, msg)
	return nil
}

var fixedNow = time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)

func newIssuer(store invitation.Store, sender email.Sender) *invitation.Issuer {
	return invitation.NewIssuer(store, sender, "secret", "https://app.example.com/invite", 7*24*time.Hour,
		invitation.WithLogger(logger.Nop()),
		invitation.WithClock(func() time.Time { return fixedNow }))
}

func TestIssue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := invitation.NewMemoryStore()
	box := &outbox{}
	iss := newIssuer(store, box)

	inv, raw, err := iss.Issue(ctx, invitation.Request{
		TenantID:   "client-1",
		TenantName: "Café <Müller>",
		Email:      "ana@cafe.test",
		Name:       "Ana",
		Role:       tenant.ParseRole("Owner"),
		InvitedBy:  "boss",
	})
	require.NoError(t, err)

	assert.Equal(t, invitation.StatusPending, inv.Status)
	assert.Equal(t, tenant.RoleOwner, inv.Role)
	assert.Equal(t, fixedNow.Add(7*24*time.Hour), inv.ExpiresAt)
	assert.Equal(t, token.Hash(raw), inv.TokenHash)
	assert.NotContains(t, inv.TokenHash, raw)

	stored, err := store.ListByTenant(ctx, "client-1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, inv, stored[0])

	require.Len(t, box.sent, 1)
	msg := box.sent[0]
	assert.Equal(t, "ana@cafe.test", msg.To)
	assert.Equal(t, "client-invite", msg.Tag)
	assert.Contains(t, msg.BodyHTML, "Café &lt;Müller&gt;")
	assert.Contains(t, msg.BodyHTML, "Hello Ana,")
	assert.Contains(t, msg.BodyHTML, "https://app.example.com/invite?token="+url.QueryEscape(raw))
	assert.True(t, strings.HasPrefix(msg.BodyHTML, "<!doctype html>"))
	assert.Contains(t, msg.BodyHTML, "<strong>Café &lt;Müller&gt;</strong> as owner.")
	assert.Contains(t, msg.BodyHTML, "This link expires on "+fixedNow.Add(7*24*time.Hour).UTC().Format("January 2, 2006"))

	claims, err := iss.Claims(raw)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, claims.InvitationID)
	assert.Equal(t, "client-1", claims.TenantID)
	assert.Equal(t, fixedNow.Unix(), claims.IssuedAt)
	assert.NotEmpty(t, claims.Nonce)

	_, err = iss.Claims(raw + "x")
	assert.Error(t, err)
}

func TestIssueDefaultsRoleAndTokensAreUnique(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := invitation.NewMemoryStore()
	iss := newIssuer(store, &outbox{})

	seen := make(map[string]bool)
	for range 20 {
		inv, raw, err := iss.Issue(ctx, invitation.Request{TenantID: "t", TenantName: "T", Email: "x@y.test"})
		require.NoError(t, err)
		assert.Equal(t, tenant.RoleMember, inv.Role)
		assert.False(t, seen[raw])
		seen[raw] = true
	}
}

func TestIssueSendFailureKeepsInvitation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := invitation.NewMemoryStore()
	iss := newIssuer(store, &outbox{err: errors.New("smtp down")})

	inv, _, err := iss.Issue(ctx, invitation.Request{TenantID: "t", TenantName: "T", Email: "x@y.test"})
	assert.ErrorIs(t, err, invitation.ErrSendFailed)
	assert.NotEmpty(t, inv.ID)

	list, err := store.ListByTenant(ctx, "t")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

type failingStore struct{}

func (failingStore) Create(context.Context, invitation.Invitation) error { return errors.New("db down") }
func (failingStore) ListByTenant(context.Context, string) ([]invitation.Invitation, error) {
	return nil, nil
}

func TestIssueStoreFailureSendsNothing(t *testing.T) {
	t.Parallel()

	box := &outbox{}
	_, _, err := newIssuer(failingStore{}, box).Issue(context.Background(),
		invitation.Request{TenantID: "t", TenantName: "T", Email: "x@y.test"})
	assert.ErrorIs(t, err, invitation.ErrStoreFailed)
	assert.Empty(t, box.sent)
}

func TestStatusAt(t *testing.T) {
	t.Parallel()

	inv := invitation.Invitation{Status: invitation.StatusPending, ExpiresAt: fixedNow}
	assert.Equal(t, invitation.StatusPending, inv.StatusAt(fixedNow.Add(-time.Second)))
	assert.Equal(t, invitation.StatusExpired, inv.StatusAt(fixedNow))

	inv.Status = invitation.StatusAccepted
	assert.Equal(t, invitation.StatusAccepted, inv.StatusAt(fixedNow.Add(time.Hour)))
}

func TestMemoryStoreRejectsDuplicates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := invitation.NewMemoryStore()
	require.NoError(t, s.Create(ctx, invitation.Invitation{ID: "1", TokenHash: "h1"}))
	assert.ErrorIs(t, s.Create(ctx, invitation.Invitation{ID: "1", TokenHash: "h2"}), invitation.ErrDuplicate)
	assert.ErrorIs(t, s.Create(ctx, invitation.Invitation{ID: "2", TokenHash: "h1"}), invitation.ErrDuplicate)
}

func TestAcceptURLWithoutBase(t *testing.T) {
	t.Parallel()

	box := &outbox{}
	iss := invitation.NewIssuer(invitation.NewMemoryStore(), box, "secret", "", time.Hour, invitation.WithLogger(logger.Nop()))
	_, raw, err := iss.Issue(context.Background(), invitation.Request{TenantID: "t", TenantName: "T", Email: "x@y.test"})
	require.NoError(t, err)
	require.Len(t, box.sent, 1)
	assert.True(t, strings.Contains(box.sent[0].BodyHTML, "/invitations/accept?token="+url.QueryEscape(raw)))
}
