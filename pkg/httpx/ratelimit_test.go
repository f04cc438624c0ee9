package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/econest/web/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{name: "remote addr", remote: "192.168.1.1:12345", want: "192.168.1.1"},
		{name: "forwarded for wins", remote: "192.168.1.1:12345", headers: map[string]string{"X-Forwarded-For": "203.0.113.1, 192.168.1.1"}, want: "203.0.113.1"},
		{name: "real ip", remote: "192.168.1.1:12345", headers: map[string]string{"X-Real-IP": " 203.0.113.2 "}, want: "203.0.113.2"},
		{name: "bare remote", remote: "pipe", want: "pipe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tt.want, httpx.ClientIP(req))
		})
	}
}

func TestFormFieldAndCompose(t *testing.T) {
	form := url.Values{"email": {" Alice@Example.com "}}
	req := httptest.NewRequest(http.MethodPost, "/signin", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "10.0.0.1:80"

	require.Equal(t, "alice@example.com", httpx.FormField("email")(req))
	require.Equal(t, "10.0.0.1|alice@example.com", httpx.Compose("|", httpx.ClientIP, httpx.FormField("email"))(req))

	empty := httptest.NewRequest(http.MethodGet, "/", nil)
	empty.RemoteAddr = "10.0.0.1:80"
	require.Equal(t, "10.0.0.1", httpx.Compose("|", httpx.ClientIP, httpx.FormField("email"))(empty))
}

func TestLimiterMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	t.Run("allows burst then rejects", func(t *testing.T) {
		h := httpx.RateLimitByIP(httpx.RateLimit{Requests: 3, Window: time.Hour, Burst: 3})(ok)

		for range 3 {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "198.51.100.7:1"
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, http.StatusNoContent, rec.Code)
		}

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "198.51.100.7:1"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
		require.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
		require.Contains(t, rec.Body.String(), "rate_limit_exceeded")
	})

	t.Run("keys are independent", func(t *testing.T) {
		h := httpx.RateLimitByIP(httpx.RateLimit{Requests: 1, Window: time.Hour, Burst: 1})(ok)
		for _, ip := range []string{"198.51.100.1:1", "198.51.100.2:1"} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = ip
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, http.StatusNoContent, rec.Code)
		}
	})

	t.Run("empty key passes through", func(t *testing.T) {
		l := httpx.NewLimiter(httpx.RateLimit{Requests: 1, Window: time.Hour, Burst: 1})
		h := l.Middleware(func(*http.Request) string { return "" })(ok)
		for range 3 {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			require.Equal(t, http.StatusNoContent, rec.Code)
		}
		require.Zero(t, l.Len())
	})
}

func TestRateLimitFromEnv(t *testing.T) {
	def := httpx.RateLimit{Requests: 5, Window: time.Minute, Burst: 5}

	t.Setenv("RATELIMIT_TEST_REQUESTS", "50")
	t.Setenv("RATELIMIT_TEST_WINDOW_SEC", "10")
	t.Setenv("RATELIMIT_TEST_BURST", "-1")

	got := httpx.RateLimitFromEnv("TEST", def)
	require.Equal(t, 50, got.Requests)
	require.Equal(t, 10*time.Second, got.Window)
	require.Equal(t, 5, got.Burst)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := httpx.Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "handler") }), mw("a"), mw("b"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"a", "b", "handler"}, order)
}

func TestSafeRedirectTarget(t *testing.T) {
	require.Equal(t, "/admin?tab=roles", httpx.SafeRedirectTarget("/admin?tab=roles", "/dashboard"))
	require.Equal(t, "/dashboard", httpx.SafeRedirectTarget("", "/dashboard"))
	require.Equal(t, "/dashboard", httpx.SafeRedirectTarget("//evil.example", "/dashboard"))
	require.Equal(t, "/dashboard", httpx.SafeRedirectTarget("/\\evil.example", "/dashboard"))
	require.Equal(t, "/dashboard", httpx.SafeRedirectTarget("https://evil.example", "/dashboard"))
}
