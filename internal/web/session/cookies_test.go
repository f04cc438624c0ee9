package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/econest/web/internal/web/domain"
	"github.com/econest/web/internal/web/session"
	"github.com/econest/web/pkg/httpx"
	"github.com/econest/web/pkg/idx"
	"github.com/stretchr/testify/require"
)

func TestCookieJarRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.jar.Secure = true

	cookies, err := f.jar.Issue(&domain.Session{AccessToken: "at", RefreshToken: "rt"})
	require.NoError(t, err)
	require.Len(t, cookies, 2)
	for _, c := range cookies {
		require.True(t, c.HttpOnly)
		require.True(t, c.Secure)
		require.Equal(t, http.SameSiteLaxMode, c.SameSite)
	}
	require.NotEqual(t, "rt", cookies[1].Value, "refresh token is sealed")

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	require.True(t, f.jar.HasSessionCookies(r))
	require.Equal(t, "at", f.jar.AccessToken(r))
	rt, err := f.jar.RefreshToken(r)
	require.NoError(t, err)
	require.Equal(t, "rt", rt)

	_, err = f.jar.RefreshToken(httptest.NewRequest(http.MethodGet, "/", nil))
	require.ErrorIs(t, err, session.ErrNoRefreshToken)
}

func TestDeviceMiddleware(t *testing.T) {
	var seen string
	h := session.DeviceMiddleware(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = httpx.DeviceIDFromContext(r.Context())
	}))

	t.Run("assigns a device id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.True(t, idx.Valid(seen))

		res := rec.Result()
		require.Len(t, res.Cookies(), 1)
		require.Equal(t, session.DeviceCookie, res.Cookies()[0].Name)
		require.Equal(t, seen, res.Cookies()[0].Value)
	})

	t.Run("keeps an existing id", func(t *testing.T) {
		id := idx.New().String()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: session.DeviceCookie, Value: id})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, id, seen)
		require.Empty(t, rec.Result().Cookies())
	})

	t.Run("replaces garbage", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: session.DeviceCookie, Value: "<script>"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.NotEqual(t, "<script>", seen)
		require.Len(t, rec.Result().Cookies(), 1)
	})
}
