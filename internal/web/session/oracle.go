package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/econest/web/internal/web/domain"
	"github.com/econest/web/internal/web/metrics"
	"github.com/econest/web/pkg/httpx"
	"github.com/econest/web/pkg/jwtx"
	"github.com/econest/web/pkg/slogx"
	"github.com/econest/web/pkg/supabase"
	"golang.org/x/sync/singleflight"
)

// ErrSessionFetch means the session could not be determined because a backend
// call failed. Callers treat it as "not authenticated".
var ErrSessionFetch = errors.New("session: fetch failed")

// Verifier checks access tokens.
type Verifier interface {
	Verify(token string) (*jwtx.Claims, error)
}

// Refresher rotates refresh tokens; *supabase.Client implements it.
type Refresher interface {
	RefreshSession(ctx context.Context, refreshToken string) (*supabase.Session, error)
}

// Result is what Load found. Cookies must be written to the response by the
// caller when the session was refreshed or invalidated.
type Result struct {
	Session   *domain.Session
	Cookies   []*http.Cookie
	Refreshed bool
}

// Oracle answers "who is signed in on this request".
type Oracle struct {
	Verifier Verifier
	Auth     Refresher
	Cookies  *CookieJar
	Hub      *Hub
	Metrics  *metrics.Metrics
	Now      func() time.Time

	refreshes singleflight.Group
}

func (o *Oracle) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Load resolves the request's session, refreshing an expired access token
// when a refresh cookie is present. It never writes to the response.
func (o *Oracle) Load(ctx context.Context, r *http.Request) (Result, error) {
	if !o.Cookies.HasSessionCookies(r) {
		return Result{}, nil
	}

	if access := o.Cookies.AccessToken(r); access != "" {
		claims, err := o.Verifier.Verify(access)
		switch {
		case err == nil:
			s := FromClaims(claims, access)
			s.RefreshToken, _ = o.Cookies.RefreshToken(r)
			return Result{Session: s}, nil
		case errors.Is(err, jwtx.ErrExpired):
			// fall through to refresh
		default:
			slogx.FromContext(ctx).Warn("session: rejecting access token", "error", err)
			return Result{Cookies: o.Cookies.Clear()}, nil
		}
	}

	refresh, err := o.Cookies.RefreshToken(r)
	if err != nil {
		return Result{Cookies: o.Cookies.Clear()}, nil
	}
	return o.refresh(ctx, refresh, httpx.DeviceIDFromContext(ctx))
}

func (o *Oracle) refresh(ctx context.Context, refreshToken, deviceID string) (Result, error) {
	// Concurrent requests from one browser share a single rotation.
	v, err, _ := o.refreshes.Do(refreshToken, func() (any, error) {
		return o.Auth.RefreshSession(context.WithoutCancel(ctx), refreshToken)
	})
	if err != nil {
		var apiErr *supabase.APIError
		if errors.As(err, &apiErr) && apiErr.IsSessionGone() {
			o.Metrics.Refresh("rejected")
			slogx.FromContext(ctx).Info("session: refresh token no longer valid", "code", apiErr.Code)
			return Result{Cookies: o.Cookies.Clear()}, nil
		}
		o.Metrics.Refresh("error")
		return Result{}, fmt.Errorf("%w: refresh: %v", ErrSessionFetch, err)
	}

	s := FromSupabase(v.(*supabase.Session), o.now())
	cookies, err := o.Cookies.Issue(s)
	if err != nil {
		o.Metrics.Refresh("error")
		return Result{}, fmt.Errorf("%w: issue cookies: %v", ErrSessionFetch, err)
	}

	o.Metrics.Refresh("ok")
	if o.Hub != nil {
		o.Hub.Publish(Event{Kind: EventTokenRefreshed, UserID: s.UserID, DeviceID: deviceID, Session: s})
	}
	return Result{Session: s, Cookies: cookies, Refreshed: true}, nil
}

// Peek verifies the access-token cookie without refreshing. Marketing pages and
// sign-out use it where a missed refresh only changes navigation links.
func (o *Oracle) Peek(r *http.Request) *domain.Session {
	access := o.Cookies.AccessToken(r)
	if access == "" {
		return nil
	}
	claims, err := o.Verifier.Verify(access)
	if err != nil {
		return nil
	}
	return FromClaims(claims, access)
}

// FromClaims builds a session from verified access-token claims.
func FromClaims(c *jwtx.Claims, accessToken string) *domain.Session {
	return &domain.Session{
		UserID:      c.Subject,
		Email:       c.Email,
		SessionID:   c.SessionID,
		AccessToken: accessToken,
		ExpiresAt:   c.Expiry(),
	}
}

// FromSupabase builds a session from a token response.
func FromSupabase(s *supabase.Session, now time.Time) *domain.Session {
	return &domain.Session{
		UserID:       s.User.ID,
		Email:        s.User.Email,
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    s.Expiry(now),
	}
}
