package provisioning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/agencykit"
	"github.com/dmitrymomot/agencykit/pkg/async"
	"github.com/dmitrymomot/agencykit/pkg/logger"
	"github.com/dmitrymomot/agencykit/pkg/slug"
	"github.com/dmitrymomot/agencykit/pkg/statemachine"
	"github.com/dmitrymomot/agencykit/pkg/validator"
	"github.com/dmitrymomot/agencykit/svc/activity"
	"github.com/dmitrymomot/agencykit/svc/catalog"
	"github.com/dmitrymomot/agencykit/svc/invitation"
	"github.com/dmitrymomot/agencykit/svc/quota"
	"github.com/dmitrymomot/agencykit/svc/tenant"
)

var (
	ErrEmptySlug      = errors.New("provisioning.empty_slug")
	ErrCreateFailed   = errors.New("provisioning.create_failed")
	ErrStateMachine   = errors.New("provisioning.state_machine")
	ErrInviteFailed   = errors.New("provisioning.invite_failed")
	ErrProjectFailed  = errors.New("provisioning.project_failed")
	ErrBillingFailed  = errors.New("provisioning.billing_failed")
	ErrActivityFailed = errors.New("provisioning.activity_failed")
	ErrNoActor        = errors.New("provisioning.no_actor")
)

// invitableRoles are the roles an intake may grant its initial users.
var invitableRoles = []tenant.Role{tenant.RoleMember, tenant.RoleOwner}

const slugMaxLength = 63

// Authorizer applies both tenant access rules.
type Authorizer interface {
	AuthorizeTenant(ctx context.Context, actorID, tenantID string) (tenant.Tenant, error)
	AuthorizeProvisioning(ctx context.Context, actorID, agencyTenantID string) (string, error)
}

// Admitter runs creation under the agency's sub-tenant quota.
type Admitter interface {
	Admit(ctx context.Context, agencyTenantID string, create func(ctx context.Context) error) (quota.Decision, error)
}

// TenantStore is the tenant persistence the workflow writes to.
type TenantStore interface {
	Get(ctx context.Context, id string) (tenant.Tenant, error)
	Create(ctx context.Context, t tenant.Tenant) error
	SetUsage(ctx context.Context, id string, r tenant.Resource, value int64) error
	MarkBillingPending(ctx context.Context, id string, monthlyPrice int64, paymentMethod string) error
}

// Inviter issues invitations.
type Inviter interface {
	Issue(ctx context.Context, req invitation.Request) (invitation.Invitation, string, error)
}

// InvitationLister reads a tenant's invitations.
type InvitationLister interface {
	ListByTenant(ctx context.Context, tenantID string) ([]invitation.Invitation, error)
}

// ActivityRecorder appends audit events.
type ActivityRecorder interface {
	Record(ctx context.Context, agencyTenantID string, e activity.Event) error
}

// Deps are the collaborators of a Workflow. All are required.
type Deps struct {
	Auth        Authorizer
	Quota       Admitter
	Tenants     TenantStore
	Projects    tenant.ProjectStore
	Inviter     Inviter
	Invitations InvitationLister
	Activity    ActivityRecorder
	Catalog     *catalog.Catalog
}

// Workflow provisions client tenants for agencies.
type Workflow struct {
	deps Deps
	now  func() time.Time
	log  *slog.Logger
}

type Option func(*Workflow)

func WithLogger(l *slog.Logger) Option { return func(w *Workflow) { w.log = l } }

func WithClock(now func() time.Time) Option { return func(w *Workflow) { w.now = now } }

func New(deps Deps, opts ...Option) *Workflow {
	if deps.Auth == nil || deps.Quota == nil || deps.Tenants == nil || deps.Projects == nil ||
		deps.Inviter == nil || deps.Invitations == nil || deps.Activity == nil || deps.Catalog == nil {
		panic("provisioning: all dependencies are required")
	}
	w := &Workflow{deps: deps, now: time.Now, log: slog.Default()}
	for _, opt := range opts {
		opt(w)
	}
	w.log = w.log.With(logger.Component("provisioning"))
	return w
}

// InitialUser is a person to invite into the new client tenant.
type InitialUser struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Intake is the client onboarding form.
type Intake struct {
	// AgencyTenantID selects the agency when the actor owns several.
	AgencyTenantID  string          `json:"agency_tenant_id,omitempty"`
	BusinessName    string          `json:"business_name"`
	Industry        string          `json:"industry"`
	ContactEmail    string          `json:"contact_email"`
	ContactPhone    string          `json:"contact_phone,omitempty"`
	Website         string          `json:"website,omitempty"`
	Features        []string        `json:"features"`
	Branding        tenant.Branding `json:"branding"`
	ProjectTemplate string          `json:"project_template,omitempty"`
	InitialUsers    []InitialUser   `json:"initial_users,omitempty"`
	MonthlyPrice    int64           `json:"monthly_price,omitempty"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
}

// Result is returned by ProvisionClient once the client tenant exists.
type Result struct {
	ClientTenantID string       `json:"client_tenant_id"`
	Slug           string       `json:"slug"`
	ProjectID      *string      `json:"project_id"`
	InvitesSent    int          `json:"invites_sent"`
	Message        string       `json:"message"`
	Steps          []StepResult `json:"steps"`
}

// run is the mutable state of one ProvisionClient call.
type run struct {
	actorID  string
	agencyID string
	intake   Intake
	slug     string
	client   tenant.Tenant
	result   Result
	fsm      *statemachine.Machine[State, State]
}

// advance records res and moves the machine into res.Step. Aborted steps
// leave the machine where it is and return their error.
func (r *run) advance(res StepResult) error {
	r.result.Steps = append(r.result.Steps, res)
	if res.Outcome == FailedAbort {
		return res.Err
	}
	if r.fsm.Current() == res.Step {
		return nil
	}
	if err := r.fsm.Fire(res.Step); err != nil {
		return errors.Join(agencykit.ErrInternal, ErrStateMachine, err)
	}
	return nil
}

// ProvisionClient creates a client tenant under the actor's agency, then
// seeds it. Failures before the tenant exists abort with no side effects;
// later failures are logged and reported in Result.Steps.
func (w *Workflow) ProvisionClient(ctx context.Context, actorID string, in Intake) (Result, error) {
	if actorID == "" {
		return Result{}, errors.Join(agencykit.ErrUnauthenticated, ErrNoActor)
	}
	start := w.now()
	in = normalize(in)

	s, err := validate(in)
	if err != nil {
		return Result{}, err
	}
	r := &run{actorID: actorID, intake: in, slug: s, fsm: newMachine()}

	if err := r.advance(w.authorize(ctx, r)); err != nil {
		return Result{}, err
	}
	if err := w.admit(ctx, r); err != nil {
		return Result{}, err
	}

	log := w.log.With(logger.AgencyID(r.agencyID), logger.TenantID(r.client.ID))
	for _, step := range []func(context.Context, *run) StepResult{
		w.seedProject,
		w.sendInvites,
		w.flagBilling,
		w.recordActivity,
	} {
		res := step(ctx, r)
		if res.Outcome == FailedContinue {
			log.WarnContext(ctx, "provisioning step failed, continuing",
				logger.Step(string(res.Step)), logger.Error(res.Err))
		}
		if err := r.advance(res); err != nil {
			return r.result, err
		}
	}
	if err := r.fsm.Fire(StateDone); err != nil {
		return r.result, errors.Join(agencykit.ErrInternal, ErrStateMachine, err)
	}

	r.result.ClientTenantID = r.client.ID
	r.result.Slug = r.client.Slug
	r.result.Message = fmt.Sprintf("Client %q created successfully. %d invitation(s) sent.",
		r.client.Name, r.result.InvitesSent)

	log.InfoContext(ctx, "client provisioned",
		logger.ActorID(actorID), slog.Int("invites_sent", r.result.InvitesSent), logger.Duration(w.now().Sub(start)))
	return r.result, nil
}

func (w *Workflow) authorize(ctx context.Context, r *run) StepResult {
	agencyID, err := w.deps.Auth.AuthorizeProvisioning(ctx, r.actorID, r.intake.AgencyTenantID)
	if err != nil {
		return StepResult{Step: StateAuthorizing, Outcome: FailedAbort, Err: err}
	}
	r.agencyID = agencyID
	return StepResult{Step: StateAuthorizing, Outcome: Completed}
}

// admit checks the quota and creates the tenant under one admission lock.
// Both states are entered from inside the create callback.
func (w *Workflow) admit(ctx context.Context, r *run) error {
	_, err := w.deps.Quota.Admit(ctx, r.agencyID, func(ctx context.Context) error {
		if err := r.advance(StepResult{Step: StateQuotaChecked, Outcome: Completed}); err != nil {
			return err
		}
		t := w.newClient(r)
		if err := w.deps.Tenants.Create(ctx, t); err != nil {
			return errors.Join(ErrCreateFailed, err)
		}
		r.client = t
		return nil
	})
	if err != nil {
		step := StateQuotaChecked
		if r.fsm.Current() == StateQuotaChecked {
			step = StateTenantCreated
		}
		_ = r.advance(StepResult{Step: step, Outcome: FailedAbort, Err: err})
		return err
	}
	return r.advance(StepResult{Step: StateTenantCreated, Outcome: Completed})
}

func (w *Workflow) newClient(r *run) tenant.Tenant {
	in := r.intake
	now := w.now().UTC()
	return tenant.Tenant{
		ID:            uuid.NewString(),
		Name:          in.BusinessName,
		Slug:          r.slug,
		Kind:          tenant.KindAgencyClient,
		OwnerTenantID: r.agencyID,
		CreatedBy:     r.actorID,
		Plan:          w.deps.Catalog.ClientPlan(),
		Status:        tenant.StatusTrial,
		Limits:        w.deps.Catalog.ClientLimits(),
		Usage:         tenant.Zero(),
		Billing:       tenant.Billing{Addons: map[string]int64{}, Status: tenant.BillingNone},
		Branding:      w.deps.Catalog.Branding(in.Branding),
		Industry:      in.Industry,
		ContactEmail:  in.ContactEmail,
		ContactPhone:  in.ContactPhone,
		Website:       in.Website,
		Features:      in.Features,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (w *Workflow) seedProject(ctx context.Context, r *run) StepResult {
	if r.intake.ProjectTemplate == "" {
		return StepResult{Step: StateProjectSeeded, Outcome: Skipped}
	}
	p := tenant.Project{
		ID:        uuid.NewString(),
		TenantID:  r.client.ID,
		Name:      r.client.Name,
		Slug:      r.client.Slug,
		Template:  r.intake.ProjectTemplate,
		CreatedAt: w.now().UTC(),
	}
	if err := w.deps.Projects.CreateProject(ctx, p); err != nil {
		return StepResult{Step: StateProjectSeeded, Outcome: FailedContinue, Err: errors.Join(ErrProjectFailed, err)}
	}
	r.result.ProjectID = &p.ID
	if err := w.deps.Tenants.SetUsage(ctx, r.client.ID, tenant.ResourceProjects, 1); err != nil {
		return StepResult{Step: StateProjectSeeded, Outcome: FailedContinue, Err: errors.Join(ErrProjectFailed, err)}
	}
	return StepResult{Step: StateProjectSeeded, Outcome: Completed}
}

// sendInvites issues every invitation concurrently and waits for all of them.
func (w *Workflow) sendInvites(ctx context.Context, r *run) StepResult {
	if len(r.intake.InitialUsers) == 0 {
		return StepResult{Step: StateInvitesCreated, Outcome: Skipped}
	}
	results := async.Map(ctx, r.intake.InitialUsers, func(ctx context.Context, u InitialUser) (invitation.Invitation, error) {
		inv, _, err := w.deps.Inviter.Issue(ctx, invitation.Request{
			TenantID:   r.client.ID,
			TenantName: r.client.Name,
			Email:      u.Email,
			Name:       u.Name,
			Role:       tenant.ParseRole(u.Role),
			InvitedBy:  r.actorID,
		})
		return inv, err
	})

	var errs []error
	for i, res := range results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("invite %s: %w", r.intake.InitialUsers[i].Email, res.Err))
			continue
		}
		r.result.InvitesSent++
	}
	if len(errs) > 0 {
		return StepResult{Step: StateInvitesCreated, Outcome: FailedContinue, Err: errors.Join(ErrInviteFailed, errors.Join(errs...))}
	}
	return StepResult{Step: StateInvitesCreated, Outcome: Completed}
}

func (w *Workflow) flagBilling(ctx context.Context, r *run) StepResult {
	if r.intake.MonthlyPrice <= 0 || r.intake.PaymentMethod == "" {
		return StepResult{Step: StateBillingFlagged, Outcome: Skipped}
	}
	err := w.deps.Tenants.MarkBillingPending(ctx, r.client.ID, r.intake.MonthlyPrice, r.intake.PaymentMethod)
	if err != nil {
		return StepResult{Step: StateBillingFlagged, Outcome: FailedContinue, Err: errors.Join(ErrBillingFailed, err)}
	}
	return StepResult{Step: StateBillingFlagged, Outcome: Completed}
}

func (w *Workflow) recordActivity(ctx context.Context, r *run) StepResult {
	payload := map[string]any{
		"client_name":  r.client.Name,
		"slug":         r.client.Slug,
		"invites_sent": r.result.InvitesSent,
		"features":     r.client.Features,
		"project_id":   nil,
	}
	if r.result.ProjectID != nil {
		payload["project_id"] = *r.result.ProjectID
	}
	err := w.deps.Activity.Record(ctx, r.agencyID, activity.Event{
		Type:            activity.EventClientCreated,
		SubjectTenantID: r.client.ID,
		ActorID:         r.actorID,
		Payload:         payload,
	})
	if err != nil {
		return StepResult{Step: StateRecorded, Outcome: FailedContinue, Err: errors.Join(ErrActivityFailed, err)}
	}
	return StepResult{Step: StateRecorded, Outcome: Completed}
}

func normalize(in Intake) Intake {
	in.BusinessName = strings.TrimSpace(in.BusinessName)
	in.Industry = strings.TrimSpace(in.Industry)
	in.ContactEmail = strings.TrimSpace(in.ContactEmail)
	in.ContactPhone = strings.TrimSpace(in.ContactPhone)
	in.Website = strings.TrimSpace(in.Website)
	in.ProjectTemplate = strings.TrimSpace(in.ProjectTemplate)
	in.PaymentMethod = strings.TrimSpace(in.PaymentMethod)
	users := make([]InitialUser, 0, len(in.InitialUsers))
	for _, u := range in.InitialUsers {
		u.Email = strings.TrimSpace(u.Email)
		u.Name = strings.TrimSpace(u.Name)
		users = append(users, u)
	}
	in.InitialUsers = users
	return in
}

// validate checks the intake and derives the client slug.
func validate(in Intake) (string, error) {
	rules := []validator.Rule{
		validator.RequiredString("business_name", in.BusinessName),
		validator.MaxLenString("business_name", in.BusinessName, 200),
		validator.RequiredString("industry", in.Industry),
		validator.RequiredString("contact_email", in.ContactEmail),
		validator.When(in.ContactEmail != "", validator.ValidEmail("contact_email", in.ContactEmail)),
		validator.RequiredSlice("features", in.Features),
		validator.NoBlankItems("features", in.Features),
		validator.When(in.Website != "", validator.ValidURL("website", in.Website)),
		validator.When(in.Branding.PrimaryColor != "", validator.ValidHexColor("branding.primary_color", in.Branding.PrimaryColor)),
		validator.When(in.Branding.SecondaryColor != "", validator.ValidHexColor("branding.secondary_color", in.Branding.SecondaryColor)),
		validator.When(in.Branding.LogoURL != "", validator.ValidURL("branding.logo_url", in.Branding.LogoURL)),
		validator.NonNegative("monthly_price", in.MonthlyPrice),
	}
	for i, u := range in.InitialUsers {
		rules = append(rules,
			validator.ValidEmail(fmt.Sprintf("initial_users[%d].email", i), u.Email),
			validator.When(u.Role != "",
				validator.InList(fmt.Sprintf("initial_users[%d].role", i), tenant.ParseRole(u.Role), invitableRoles)),
		)
	}
	if err := validator.Apply(rules...); err != nil {
		return "", errors.Join(agencykit.ErrInvalidArgument, err)
	}

	s := slug.Make(in.BusinessName, slug.MaxLength(slugMaxLength))
	if s == "" {
		return "", errors.Join(agencykit.ErrInvalidArgument, ErrEmptySlug, validator.ValidationErrors{{
			Field:          "business_name",
			Message:        "must contain at least one letter or digit",
			TranslationKey: "validation.slug_empty",
			Values:         map[string]any{"field": "business_name"},
		}})
	}
	return s, nil
}
