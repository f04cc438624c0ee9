package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/econest/web/internal/web/content"
	"github.com/econest/web/internal/web/domain"
	"github.com/econest/web/internal/web/guard"
	"github.com/econest/web/internal/web/metrics"
	"github.com/econest/web/internal/web/service"
	"github.com/econest/web/internal/web/session"
	"github.com/econest/web/internal/web/store"
	"github.com/econest/web/pkg/httpx"
	"github.com/econest/web/pkg/jwtx"
	"github.com/econest/web/pkg/slogx"
	"github.com/econest/web/pkg/supabase"

	_ "github.com/econest/web/api/web" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// AuthClient is the part of Supabase Auth the handlers call directly;
// *supabase.Client implements it.
type AuthClient interface {
	SignInWithPassword(ctx context.Context, email, password string) (*supabase.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Site         *content.Site
	Store        store.Store
	Auth         AuthClient
	Oracle       *session.Oracle
	Hub          *session.Hub
	Roles        *service.RoleResolver
	RolesService *service.RolesService
	Profiles     *service.ProfileService
	Provisioner  *service.ProfileProvisioner
	Metrics      *metrics.Metrics
	Logger       *slog.Logger

	// Keys is nil when tokens are verified with the shared secret only.
	Keys          *jwtx.KeySet
	Version       string
	PendingBudget time.Duration
	SecureCookies bool
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	deps      Deps
	renderer  *Renderer
	startTime time.Time
}

func NewRouter(d Deps) (*Router, error) {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	rd, err := NewRenderer(d.Site, d.Oracle.Cookies)
	if err != nil {
		return nil, err
	}

	r := &Router{
		Mux:       http.NewServeMux(),
		deps:      d,
		renderer:  rd,
		startTime: time.Now(),
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(d.Logger),
		session.DeviceMiddleware(d.SecureCookies),
	}
	return r, nil
}

func (r *Router) ApplyRoutes() {
	r.registerPages()
	r.registerAuth()
	r.registerAccount()
	r.registerSessionAPI()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			EcoNest Web API
//	@version		0.1.0
//	@description	Session endpoints backing the EcoNest web front-end. Authentication is cookie based;
//	@description	sign in through the HTML form at /signin.
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@BasePath		/
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// guarded wraps h in the access guard for c.
func (r *Router) guarded(c domain.Capability, h http.Handler) http.Handler {
	return guard.Middleware(guard.Options{
		Capability:    c,
		Sessions:      r.deps.Oracle,
		Roles:         r.deps.Roles,
		Renderer:      r.renderer,
		PendingBudget: r.deps.PendingBudget,
		Metrics:       r.deps.Metrics,
	})(h)
}

func (r *Router) registerPages() {
	h := &PagesHandler{Renderer: r.renderer, Oracle: r.deps.Oracle}

	// Marketing pages - public rate limit
	r.Mux.Handle("GET /{$}", httpx.Chain(http.HandlerFunc(h.HandleHome), httpx.RateLimitByIP(httpx.Public)))
	r.Mux.Handle("GET /pricing", httpx.Chain(http.HandlerFunc(h.HandlePricing), httpx.RateLimitByIP(httpx.Public)))
	r.Mux.Handle("GET /integrations", httpx.Chain(http.HandlerFunc(h.HandleIntegrations), httpx.RateLimitByIP(httpx.Public)))
	r.Mux.Handle("GET /static/", staticHandler())
}

func (r *Router) registerAuth() {
	h := &SignInHandler{
		Auth:        r.deps.Auth,
		Oracle:      r.deps.Oracle,
		Hub:         r.deps.Hub,
		Provisioner: r.deps.Provisioner,
		Renderer:    r.renderer,
		Metrics:     r.deps.Metrics,
	}

	r.Mux.Handle("GET /signin", httpx.Chain(http.HandlerFunc(h.HandleForm), httpx.RateLimitByIP(httpx.Lenient)))

	// Credential submission - strict, keyed by IP + email to slow brute force
	r.Mux.Handle("POST /signin", httpx.Chain(http.HandlerFunc(h.HandleSignIn),
		httpx.RateLimitByIPAndField(httpx.Strict, "email"),
	))
	r.Mux.Handle("POST /signout", httpx.Chain(http.HandlerFunc(h.HandleSignOut), httpx.RateLimitByIP(httpx.Lenient)))
}

func (r *Router) registerAccount() {
	dash := &DashboardHandler{Roles: r.deps.Roles, Profiles: r.deps.Profiles, Renderer: r.renderer}
	admin := &AdminHandler{
		Profiles:     r.deps.Profiles,
		RolesService: r.deps.RolesService,
		Renderer:     r.renderer,
	}

	r.Mux.Handle("GET /dashboard", httpx.Chain(
		r.guarded(domain.CapAuthenticated, dash),
		httpx.RateLimitByIP(httpx.Lenient),
	))
	r.Mux.Handle("GET /admin", httpx.Chain(
		r.guarded(domain.CapAdmin, http.HandlerFunc(admin.HandleList)),
		httpx.RateLimitByIP(httpx.Lenient),
	))
	r.Mux.Handle("POST /admin/roles", httpx.Chain(
		r.guarded(domain.CapManageRoles, http.HandlerFunc(admin.HandleAssign)),
		httpx.RateLimitByIP(httpx.Lenient),
	))
}

func (r *Router) registerSessionAPI() {
	h := &SessionHandler{
		Oracle:      r.deps.Oracle,
		Roles:       r.deps.Roles,
		Hub:         r.deps.Hub,
		Provisioner: r.deps.Provisioner,
		Metrics:     r.deps.Metrics,
	}

	r.Mux.Handle("GET /v1/session", httpx.Chain(http.HandlerFunc(h.HandleGet), httpx.RateLimitByIP(httpx.Lenient)))
	r.Mux.Handle("GET /v1/session/stream", httpx.Chain(http.HandlerFunc(h.HandleStream), httpx.RateLimitByIP(httpx.Lenient)))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.deps.Version),
			httpx.RateLimitByIP(httpx.Lenient),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.deps.Version, r.deps.Store, r.deps.Keys),
			httpx.RateLimitByIP(httpx.Lenient),
		),
	)
	r.Mux.Handle("GET /metrics", r.deps.Metrics.Handler())
}
