package guard

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/econest/web/internal/web/domain"
	"github.com/econest/web/internal/web/metrics"
	"github.com/econest/web/internal/web/session"
	"github.com/econest/web/pkg/httpx"
	"github.com/econest/web/pkg/slogx"
)

// DefaultPendingBudget bounds how long a page request waits for the session
// and role before the loading placeholder is served instead.
const DefaultPendingBudget = 2 * time.Second

// SignInPath is where identity guards send unauthenticated viewers.
const SignInPath = "/signin"

// Loader resolves a request's session; *session.Oracle implements it.
type Loader interface {
	Load(ctx context.Context, r *http.Request) (session.Result, error)
}

// Renderer draws the two non-content outcomes.
type Renderer interface {
	Loading(w http.ResponseWriter, r *http.Request)
	Denied(w http.ResponseWriter, r *http.Request, v Verdict)
	// Unavailable answers a pending non-GET request, which a reloading
	// placeholder would turn into a GET.
	Unavailable(w http.ResponseWriter, r *http.Request)
}

// PendingRetryAfter is sent with Unavailable, in seconds.
const PendingRetryAfter = "1"

type Options struct {
	Capability    domain.Capability
	Sessions      Loader
	Roles         RoleResolver
	Renderer      Renderer
	PendingBudget time.Duration
	Metrics       *metrics.Metrics
}

type resolution struct {
	result session.Result
	state  State
}

// Middleware guards a page. Each request yields exactly one of: the wrapped
// handler (Allow), a redirect to sign-in, the inline denial, or the loading
// placeholder when resolution outlives the pending budget.
func Middleware(opts Options) httpx.Middleware {
	budget := opts.PendingBudget
	if budget <= 0 {
		budget = DefaultPendingBudget
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), budget)
			defer cancel()

			done := make(chan resolution, 1)
			go func() {
				res, ok := resolve(ctx, r, opts)
				if ok {
					done <- res
				}
			}()

			var res resolution
			select {
			case res = <-done:
			case <-ctx.Done():
			}

			v := Evaluate(res.state, opts.Capability)
			opts.Metrics.Decision(string(opts.Capability), v.Decision.String())
			slogx.LogAttrs(r.Context(), slog.LevelDebug, "guard verdict",
				slog.String("capability", opts.Capability.String()),
				slog.String("decision", v.Decision.String()),
				slog.String("role", v.Role.String()),
			)

			for _, c := range res.result.Cookies {
				http.SetCookie(w, c)
			}
			httpx.NoCache(w)

			switch {
			case v.Decision == Pending && (r.Method == http.MethodGet || r.Method == http.MethodHead):
				opts.Renderer.Loading(w, r)
			case v.Decision == Pending:
				w.Header().Set("Retry-After", PendingRetryAfter)
				opts.Renderer.Unavailable(w, r)
			case v.Decision == Deny && v.Redirect:
				target := SignInPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusSeeOther)
			case v.Decision == Deny:
				opts.Renderer.Denied(w, r, v)
			default:
				rctx := httpx.WithSession(r.Context(), v.Session, v.Role)
				rctx = slogx.WithUser(rctx, v.Session.UserID)
				next.ServeHTTP(w, r.WithContext(rctx))
			}
		})
	}
}

// resolve reports false when ctx ended first; a half-finished resolution
// must never be mistaken for a denial.
func resolve(ctx context.Context, r *http.Request, opts Options) (resolution, bool) {
	res, err := opts.Sessions.Load(ctx, r)
	if ctx.Err() != nil {
		return resolution{}, false
	}
	if err != nil {
		slogx.FromContext(ctx).Warn("guard: session unavailable", "error", err)
		res = session.Result{}
	}

	st := State{Resolved: true, Session: res.Session, Role: domain.RoleNone}
	if res.Session != nil && opts.Capability.RequiresRole() && opts.Roles != nil {
		role, err := opts.Roles.Resolve(ctx, res.Session)
		if ctx.Err() != nil {
			return resolution{}, false
		}
		if err != nil {
			slogx.FromContext(ctx).Warn("guard: role lookup failed", "user_id", res.Session.UserID, "error", err)
		}
		st.Role = role
	}
	return resolution{result: res, state: st}, true
}
