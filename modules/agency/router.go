package agency

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/agencykit"
	"github.com/dmitrymomot/agencykit/handler"
	"github.com/dmitrymomot/agencykit/pkg/requestid"
	"github.com/dmitrymomot/agencykit/svc/access"
	"github.com/dmitrymomot/agencykit/svc/tenant"
)

// ActorHeader carries the authenticated user id set by the upstream gateway.
const ActorHeader = "X-Actor-ID"

var ErrMissingActor = errors.New("agency.missing_actor")

type Mountable interface {
	Handle() http.Handler
}

// RouterOptions lists what to mount under /v1.
type RouterOptions struct {
	Agency Mountable
	// Health routes are mounted at the root, outside the actor check.
	Liveness  http.Handler
	Readiness http.Handler
}

// Router builds the public HTTP surface.
//
//	r := agency.Router(agency.RouterOptions{
//		Agency:    agency.NewService(verifier, workflow, reconciler, guard, recorder),
//		Liveness:  httpserver.Liveness(),
//		Readiness: httpserver.Readiness(log, 2*time.Second, checks...),
//	})
func Router(opts RouterOptions) chi.Router {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.Recoverer)

	if opts.Liveness != nil {
		r.Method(http.MethodGet, "/healthz", opts.Liveness)
	}
	if opts.Readiness != nil {
		r.Method(http.MethodGet, "/readyz", opts.Readiness)
	}
	if opts.Agency != nil {
		r.Mount("/v1", opts.Agency.Handle())
	}
	return r
}

// RequireActor rejects requests without an actor header and stores the
// actor id in the request context.
func RequireActor(onError handler.ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actorID := strings.TrimSpace(r.Header.Get(ActorHeader))
			if actorID == "" {
				onError(handler.NewContext(w, r), errors.Join(agencykit.ErrUnauthenticated, ErrMissingActor))
				return
			}
			next.ServeHTTP(w, r.WithContext(access.WithActor(r.Context(), actorID)))
		})
	}
}

// TenantScope stores the {tenantID} route parameter in the request context
// so log records carry the subject tenant.
func TenantScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := chi.URLParam(r, "tenantID"); id != "" {
			r = r.WithContext(tenant.WithID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}
