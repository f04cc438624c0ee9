package guard_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/econest/web/internal/web/domain"
	"github.com/econest/web/internal/web/guard"
	"github.com/econest/web/internal/web/metrics"
	"github.com/econest/web/internal/web/session"
	"github.com/econest/web/pkg/httpx"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct {
	result session.Result
	err    error
	delay  time.Duration
}

func (f *fakeLoader) Load(ctx context.Context, r *http.Request) (session.Result, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return session.Result{}, ctx.Err()
		}
	}
	return f.result, f.err
}

type stubRenderer struct{}

func (stubRenderer) Loading(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte("loading"))
}

func (stubRenderer) Unavailable(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("unavailable"))
}

func (stubRenderer) Denied(w http.ResponseWriter, r *http.Request, v guard.Verdict) {
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte("denied:" + v.Role.String()))
}

var content = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	s, ok := httpx.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "no session in context", http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte("hello " + s.Email + " " + httpx.RoleFromContext(r.Context()).String()))
})

func serve(opts guard.Options, target string) *httptest.ResponseRecorder {
	if opts.Renderer == nil {
		opts.Renderer = stubRenderer{}
	}
	h := guard.Middleware(opts)(content)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestMiddlewareAllowIdentity(t *testing.T) {
	rec := serve(guard.Options{
		Capability: domain.CapAuthenticated,
		Sessions:   &fakeLoader{result: session.Result{Session: alice}},
	}, "/dashboard")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "hello alice@example.com none", rec.Body.String())
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestMiddlewareRedirectsWithoutSession(t *testing.T) {
	rec := serve(guard.Options{
		Capability: domain.CapAuthenticated,
		Sessions:   &fakeLoader{},
	}, "/dashboard?tab=usage")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/signin?next=%2Fdashboard%3Ftab%3Dusage", rec.Header().Get("Location"))
}

func TestMiddlewareFetchErrorRedirects(t *testing.T) {
	rec := serve(guard.Options{
		Capability: domain.CapAuthenticated,
		Sessions:   &fakeLoader{err: session.ErrSessionFetch},
	}, "/dashboard")

	require.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestMiddlewareCapability(t *testing.T) {
	roles := &fakeRoles{roles: map[string]domain.Role{alice.UserID: domain.RoleAdmin}}

	rec := serve(guard.Options{
		Capability: domain.CapAdmin,
		Sessions:   &fakeLoader{result: session.Result{Session: alice}},
		Roles:      roles,
	}, "/admin")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "hello alice@example.com admin", rec.Body.String())

	rec = serve(guard.Options{
		Capability: domain.CapManageRoles,
		Sessions:   &fakeLoader{result: session.Result{Session: alice}},
		Roles:      roles,
	}, "/admin/roles")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "denied:admin", rec.Body.String())
}

func TestMiddlewareCapabilityWithoutSessionDeniesInline(t *testing.T) {
	roles := &fakeRoles{roles: map[string]domain.Role{}}
	rec := serve(guard.Options{
		Capability: domain.CapAdmin,
		Sessions:   &fakeLoader{},
		Roles:      roles,
	}, "/admin")

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "denied:none", rec.Body.String())
	require.Zero(t, roles.calls.Load())
}

func TestMiddlewareRoleErrorDenies(t *testing.T) {
	roles := &fakeRoles{err: errors.New("db down")}
	rec := serve(guard.Options{
		Capability: domain.CapAdmin,
		Sessions:   &fakeLoader{result: session.Result{Session: alice}},
		Roles:      roles,
	}, "/admin")

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "denied:none", rec.Body.String())
}

func TestMiddlewarePendingBudget(t *testing.T) {
	m := metrics.New()
	rec := serve(guard.Options{
		Capability:    domain.CapAuthenticated,
		Sessions:      &fakeLoader{result: session.Result{Session: alice}, delay: time.Second},
		PendingBudget: 20 * time.Millisecond,
		Metrics:       m,
	}, "/dashboard")

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, "loading", rec.Body.String())
	require.Empty(t, rec.Header().Get("Location"))
	require.Equal(t, 1.0, testutil.ToFloat64(m.GuardDecisions.WithLabelValues("authenticated", "pending")))
}

func TestMiddlewarePendingBudgetOnPost(t *testing.T) {
	called := false
	h := guard.Middleware(guard.Options{
		Capability:    domain.CapManageRoles,
		Sessions:      &fakeLoader{result: session.Result{Session: alice}, delay: time.Second},
		Renderer:      stubRenderer{},
		PendingBudget: 20 * time.Millisecond,
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/roles", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "unavailable", rec.Body.String())
	require.Equal(t, guard.PendingRetryAfter, rec.Header().Get("Retry-After"))
	require.Empty(t, rec.Header().Get("Location"))
	require.False(t, called)
}

func TestMiddlewareWritesRefreshedCookies(t *testing.T) {
	cookie := &http.Cookie{Name: session.AccessCookie, Value: "fresh", Path: "/"}
	rec := serve(guard.Options{
		Capability: domain.CapAuthenticated,
		Sessions:   &fakeLoader{result: session.Result{Session: alice, Cookies: []*http.Cookie{cookie}, Refreshed: true}},
	}, "/dashboard")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Values("Set-Cookie")[0], session.AccessCookie+"=fresh")
}

func TestMiddlewareClearsCookiesOnRedirect(t *testing.T) {
	cleared := &http.Cookie{Name: session.AccessCookie, Value: "", Path: "/", MaxAge: -1}
	rec := serve(guard.Options{
		Capability: domain.CapAuthenticated,
		Sessions:   &fakeLoader{result: session.Result{Cookies: []*http.Cookie{cleared}}},
	}, "/dashboard")

	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Contains(t, rec.Header().Values("Set-Cookie")[0], "Max-Age=0")
}
