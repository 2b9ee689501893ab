package agency

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/agencykit/handler"
	"github.com/dmitrymomot/agencykit/pkg/binder"
	"github.com/dmitrymomot/agencykit/pkg/logger"
	"github.com/dmitrymomot/agencykit/svc/access"
	"github.com/dmitrymomot/agencykit/svc/activity"
	"github.com/dmitrymomot/agencykit/svc/addon"
	"github.com/dmitrymomot/agencykit/svc/billing"
	"github.com/dmitrymomot/agencykit/svc/provisioning"
	"github.com/dmitrymomot/agencykit/svc/quota"
	"github.com/dmitrymomot/agencykit/svc/tenant"
)

// Provisioner creates client tenants and reports their onboarding.
type Provisioner interface {
	ProvisionClient(ctx context.Context, actorID string, in provisioning.Intake) (provisioning.Result, error)
	GetOnboardingStatus(ctx context.Context, actorID, clientTenantID string) (provisioning.OnboardingStatus, error)
}

// Billing manages add-ons.
type Billing interface {
	GetPricing(ctx context.Context, actorID, tenantID string) (billing.Pricing, error)
	CalculatePrice(ctx context.Context, actorID string, s addon.Selection) (billing.Quote, error)
	CheckEligibility(ctx context.Context, actorID, tenantID string) (addon.Eligibility, error)
	ApplyAddons(ctx context.Context, actorID, tenantID string, s addon.Selection) (billing.ApplyResult, error)
}

type QuotaChecker interface {
	CheckSubTenantLimit(ctx context.Context, agencyTenantID string) (quota.Decision, error)
}

type ActivityLister interface {
	List(ctx context.Context, agencyTenantID string, limit int) ([]activity.Event, error)
}

type Authorizer interface {
	AuthorizeTenant(ctx context.Context, actorID, tenantID string) (tenant.Tenant, error)
}

// Service exposes the agency operations over JSON.
type Service struct {
	auth        Authorizer
	provisioner Provisioner
	billing     Billing
	quota       QuotaChecker
	activity    ActivityLister
	onError     handler.ErrorHandler
	log         *slog.Logger
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.log = l } }

func NewService(auth Authorizer, p Provisioner, b Billing, q QuotaChecker, a ActivityLister, opts ...Option) *Service {
	if auth == nil || p == nil || b == nil || q == nil || a == nil {
		panic("agency: all services are required")
	}
	s := &Service{auth: auth, provisioner: p, billing: b, quota: q, activity: a, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("agency_http"))
	s.onError = handler.NewErrorHandler(s.log)
	return s
}

// Handle returns the routes, relative to the mount point. Every route
// requires an actor.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()
	r.Use(RequireActor(s.onError))

	path := binder.Path(chi.URLParam)
	withErr := handler.WithErrorHandler(s.onError)

	r.Post("/clients", handler.Wrap(s.provisionClient, handler.WithBinders(binder.JSON()), withErr))
	r.Route("/clients/{tenantID}", func(r chi.Router) {
		r.Use(TenantScope)
		r.Get("/onboarding", handler.Wrap(s.onboardingStatus, handler.WithBinders(path), withErr))
	})

	r.Post("/addons/quote", handler.Wrap(s.quote, handler.WithBinders(binder.JSON()), withErr))
	r.Route("/tenants/{tenantID}", func(r chi.Router) {
		r.Use(TenantScope)
		r.Get("/addons", handler.Wrap(s.pricing, handler.WithBinders(path), withErr))
		r.Put("/addons", handler.Wrap(s.applyAddons, handler.WithBinders(path, binder.JSON()), withErr))
		r.Get("/addons/eligibility", handler.Wrap(s.eligibility, handler.WithBinders(path), withErr))
		r.Get("/quota", handler.Wrap(s.subTenantQuota, handler.WithBinders(path), withErr))
		r.Get("/activity", handler.Wrap(s.activityFeed, handler.WithBinders(path, binder.Query()), withErr))
	})
	return r
}

type tenantRequest struct {
	TenantID string `path:"tenantID"`
}

type quoteRequest struct {
	Addons addon.Selection `json:"addons"`
}

type applyAddonsRequest struct {
	TenantID string          `path:"tenantID" json:"-"`
	Addons   addon.Selection `json:"addons"`
}

type activityRequest struct {
	TenantID string `path:"tenantID"`
	Limit    int    `query:"limit"`
}

func (s *Service) provisionClient(ctx handler.Context, in provisioning.Intake) handler.Response {
	res, err := s.provisioner.ProvisionClient(ctx, access.ActorFromContext(ctx), in)
	if err != nil {
		return handler.Error(err)
	}
	return handler.Created(res)
}

func (s *Service) onboardingStatus(ctx handler.Context, req tenantRequest) handler.Response {
	st, err := s.provisioner.GetOnboardingStatus(ctx, access.ActorFromContext(ctx), req.TenantID)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(st)
}

func (s *Service) pricing(ctx handler.Context, req tenantRequest) handler.Response {
	p, err := s.billing.GetPricing(ctx, access.ActorFromContext(ctx), req.TenantID)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(p)
}

func (s *Service) quote(ctx handler.Context, req quoteRequest) handler.Response {
	q, err := s.billing.CalculatePrice(ctx, access.ActorFromContext(ctx), req.Addons)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(q)
}

func (s *Service) eligibility(ctx handler.Context, req tenantRequest) handler.Response {
	e, err := s.billing.CheckEligibility(ctx, access.ActorFromContext(ctx), req.TenantID)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(e)
}

func (s *Service) applyAddons(ctx handler.Context, req applyAddonsRequest) handler.Response {
	res, err := s.billing.ApplyAddons(ctx, access.ActorFromContext(ctx), req.TenantID, req.Addons)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(res)
}

func (s *Service) subTenantQuota(ctx handler.Context, req tenantRequest) handler.Response {
	if _, err := s.auth.AuthorizeTenant(ctx, access.ActorFromContext(ctx), req.TenantID); err != nil {
		return handler.Error(err)
	}
	d, err := s.quota.CheckSubTenantLimit(ctx, req.TenantID)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(d)
}

func (s *Service) activityFeed(ctx handler.Context, req activityRequest) handler.Response {
	if _, err := s.auth.AuthorizeTenant(ctx, access.ActorFromContext(ctx), req.TenantID); err != nil {
		return handler.Error(err)
	}
	events, err := s.activity.List(ctx, req.TenantID, req.Limit)
	if err != nil {
		return handler.Error(err)
	}
	if events == nil {
		events = []activity.Event{}
	}
	return handler.JSON(events)
}
