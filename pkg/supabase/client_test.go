package supabase_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/econest/web/pkg/supabase"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, h http.HandlerFunc) *supabase.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return supabase.NewClient(srv.URL+"/", "anon-key")
}

func TestSignInWithPassword(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/v1/token", r.URL.Path)
		require.Equal(t, "password", r.URL.Query().Get("grant_type"))
		require.Equal(t, "anon-key", r.Header.Get("apikey"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		if body["password"] != "correct horse" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":400,"error_code":"invalid_credentials","msg":"Invalid login credentials"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "at",
			"token_type":    "bearer",
			"expires_in":    3600,
			"expires_at":    1767225600,
			"refresh_token": "rt",
			"user":          map[string]any{"id": "u-1", "email": body["email"]},
		})
	})

	t.Run("success", func(t *testing.T) {
		sess, err := client.SignInWithPassword(context.Background(), "ada@example.com", "correct horse")
		require.NoError(t, err)
		require.Equal(t, "at", sess.AccessToken)
		require.Equal(t, "rt", sess.RefreshToken)
		require.Equal(t, "u-1", sess.User.ID)
		require.Equal(t, "ada@example.com", sess.User.Email)
		require.Equal(t, time.Unix(1767225600, 0).UTC(), sess.Expiry(time.Now()))
	})

	t.Run("bad credentials", func(t *testing.T) {
		_, err := client.SignInWithPassword(context.Background(), "ada@example.com", "nope")
		var apiErr *supabase.APIError
		require.True(t, errors.As(err, &apiErr))
		require.Equal(t, http.StatusBadRequest, apiErr.Status)
		require.True(t, apiErr.IsInvalidCredentials())
		require.Equal(t, "Invalid login credentials", apiErr.Message)
	})

	t.Run("missing input", func(t *testing.T) {
		_, err := client.SignInWithPassword(context.Background(), "", "x")
		require.Error(t, err)
	})
}

func TestRefreshSession(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "refresh_token", r.URL.Query().Get("grant_type"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["refresh_token"] != "rt-1" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid Refresh Token: Already Used","error_code":"refresh_token_already_used"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"at-2","expires_in":60,"refresh_token":"rt-2","user":{"id":"u-1"}}`))
	})

	sess, err := client.RefreshSession(context.Background(), "rt-1")
	require.NoError(t, err)
	require.Equal(t, "rt-2", sess.RefreshToken)
	now := time.Now()
	require.WithinDuration(t, now.Add(time.Minute), sess.Expiry(now), time.Second)

	_, err = client.RefreshSession(context.Background(), "rt-0")
	var apiErr *supabase.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, supabase.CodeRefreshTokenReused, apiErr.Code)
	require.True(t, apiErr.IsSessionGone())

	_, err = client.RefreshSession(context.Background(), "")
	require.ErrorAs(t, err, &apiErr)
	require.True(t, apiErr.IsSessionGone())
}

func TestSignOutAndGetUser(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"invalid JWT"}`))
			return
		}
		switch r.URL.Path {
		case "/auth/v1/logout":
			w.WriteHeader(http.StatusNoContent)
		case "/auth/v1/user":
			_, _ = w.Write([]byte(`{"id":"u-1","email":"ada@example.com","created_at":"2026-01-01T00:00:00Z"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	require.NoError(t, client.SignOut(context.Background(), "at"))

	u, err := client.GetUser(context.Background(), "at")
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", u.Email)

	_, err = client.GetUser(context.Background(), "expired")
	var apiErr *supabase.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "invalid JWT", apiErr.Message)
	require.True(t, apiErr.IsSessionGone())
}

func TestFetchJWKSAndHealth(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/.well-known/jwks.json":
			_, _ = w.Write([]byte(`{"keys":[{"kty":"EC","crv":"P-256","kid":"k1","alg":"ES256","x":"a","y":"b"}]}`))
		case "/auth/v1/health":
			_, _ = w.Write([]byte(`{"version":"v2.170.0","name":"GoTrue"}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	})

	jwks, err := client.FetchJWKS(context.Background())
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "k1", jwks.Keys[0].Kid)

	h, err := client.Health(context.Background())
	require.NoError(t, err)
	require.Equal(t, "GoTrue", h.Name)
	require.Equal(t, client.BaseURL+"/auth/v1", client.Issuer())
}

func TestAPIErrorFallback(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("upstream down"))
	})
	_, err := client.Health(context.Background())
	var apiErr *supabase.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusServiceUnavailable, apiErr.Status)
	require.Equal(t, "Service Unavailable", apiErr.Message)
}
