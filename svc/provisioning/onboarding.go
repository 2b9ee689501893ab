package provisioning

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/agencykit"
	"github.com/dmitrymomot/agencykit/svc/invitation"
	"github.com/dmitrymomot/agencykit/svc/tenant"
)

// Checklist item keys.
const (
	ChecklistProfile           = "profile"
	ChecklistProject           = "project"
	ChecklistTeamInvited       = "team_invited"
	ChecklistBillingConfigured = "billing_configured"
)

// InvitationCounts summarizes a tenant's invitations by effective status.
type InvitationCounts struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Accepted int `json:"accepted"`
	Expired  int `json:"expired"`
}

type ChecklistItem struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Done  bool   `json:"done"`
}

// OnboardingStatus reports how far a client tenant is through setup. Limits
// include any purchased add-ons.
type OnboardingStatus struct {
	ClientTenantID    string               `json:"client_tenant_id"`
	Name              string               `json:"name"`
	TenantStatus      tenant.Status        `json:"tenant_status"`
	BillingStatus     tenant.BillingStatus `json:"billing_status"`
	ProjectSeeded     bool                 `json:"project_seeded"`
	Invitations       InvitationCounts     `json:"invitations"`
	Limits            tenant.Counters      `json:"limits"`
	Checklist         []ChecklistItem      `json:"checklist"`
	CompletionPercent int                  `json:"completion_percent"`
}

// GetOnboardingStatus is readable by anyone passing the broad rule on the
// client tenant or on the agency that owns it.
func (w *Workflow) GetOnboardingStatus(ctx context.Context, actorID, clientTenantID string) (OnboardingStatus, error) {
	t, err := w.authorizeClient(ctx, actorID, clientTenantID)
	if err != nil {
		return OnboardingStatus{}, err
	}

	invites, err := w.deps.Invitations.ListByTenant(ctx, t.ID)
	if err != nil {
		return OnboardingStatus{}, errors.Join(agencykit.ErrInternal, err)
	}
	counts := countInvitations(invites, w.now())

	st := OnboardingStatus{
		ClientTenantID: t.ID,
		Name:           t.Name,
		TenantStatus:   t.Status,
		BillingStatus:  t.Billing.Status,
		ProjectSeeded:  t.Usage[tenant.ResourceProjects] > 0,
		Invitations:    counts,
		Limits:         w.deps.Catalog.EffectiveLimits(t.Limits, t.Billing.Addons),
	}
	if st.BillingStatus == "" {
		st.BillingStatus = tenant.BillingNone
	}
	st.Checklist = []ChecklistItem{
		{Key: ChecklistProfile, Label: "Complete business profile", Done: profileComplete(t)},
		{Key: ChecklistProject, Label: "Create first project", Done: st.ProjectSeeded},
		{Key: ChecklistTeamInvited, Label: "Invite team members", Done: counts.Total > 0},
		{Key: ChecklistBillingConfigured, Label: "Configure billing", Done: st.BillingStatus != tenant.BillingNone},
	}
	done := 0
	for _, item := range st.Checklist {
		if item.Done {
			done++
		}
	}
	st.CompletionPercent = done * 100 / len(st.Checklist)
	return st, nil
}

func (w *Workflow) authorizeClient(ctx context.Context, actorID, clientTenantID string) (tenant.Tenant, error) {
	t, err := w.deps.Auth.AuthorizeTenant(ctx, actorID, clientTenantID)
	if err == nil || !errors.Is(err, agencykit.ErrPermissionDenied) {
		return t, err
	}

	client, gerr := w.deps.Tenants.Get(ctx, clientTenantID)
	if gerr != nil || client.OwnerTenantID == "" {
		return tenant.Tenant{}, err
	}
	if _, aerr := w.deps.Auth.AuthorizeTenant(ctx, actorID, client.OwnerTenantID); aerr != nil {
		return tenant.Tenant{}, err
	}
	return client, nil
}

func countInvitations(invites []invitation.Invitation, now time.Time) InvitationCounts {
	c := InvitationCounts{Total: len(invites)}
	for _, inv := range invites {
		switch inv.StatusAt(now) {
		case invitation.StatusPending:
			c.Pending++
		case invitation.StatusAccepted:
			c.Accepted++
		case invitation.StatusExpired:
			c.Expired++
		}
	}
	return c
}

func profileComplete(t tenant.Tenant) bool {
	return t.Industry != "" && t.ContactEmail != "" && t.Branding.LogoURL != ""
}
