package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/econest/web/internal/web/domain"
	"github.com/econest/web/pkg/cryptox"
	"github.com/econest/web/pkg/httpx"
	"github.com/econest/web/pkg/idx"
)

const (
	AccessCookie  = "econest-access-token"
	RefreshCookie = "econest-refresh-token"
	DeviceCookie  = "econest-device"
	CSRFCookie    = "econest-csrf"
)

// DefaultCookieTTL bounds how long a browser keeps the session cookies.
const DefaultCookieTTL = 30 * 24 * time.Hour

var ErrNoRefreshToken = errors.New("session: no refresh token")

// CookieJar reads and writes the session cookies. The refresh token is sealed;
// the access token is a JWT and is verified rather than trusted.
type CookieJar struct {
	Sealer *cryptox.Sealer
	Secure bool
	TTL    time.Duration
}

func (j *CookieJar) ttl() time.Duration {
	if j.TTL <= 0 {
		return DefaultCookieTTL
	}
	return j.TTL
}

func (j *CookieJar) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   j.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Issue returns the cookies that persist s in the browser.
func (j *CookieJar) Issue(s *domain.Session) ([]*http.Cookie, error) {
	sealed, err := j.Sealer.Seal([]byte(s.RefreshToken))
	if err != nil {
		return nil, err
	}
	maxAge := int(j.ttl() / time.Second)
	return []*http.Cookie{
		j.cookie(AccessCookie, s.AccessToken, maxAge),
		j.cookie(RefreshCookie, sealed, maxAge),
	}, nil
}

// Clear returns cookies that delete the session.
func (j *CookieJar) Clear() []*http.Cookie {
	return []*http.Cookie{
		j.cookie(AccessCookie, "", -1),
		j.cookie(RefreshCookie, "", -1),
	}
}

// AccessToken returns the raw access-token cookie, or "".
func (j *CookieJar) AccessToken(r *http.Request) string {
	c, err := r.Cookie(AccessCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// RefreshToken opens the sealed refresh-token cookie.
func (j *CookieJar) RefreshToken(r *http.Request) (string, error) {
	c, err := r.Cookie(RefreshCookie)
	if err != nil || c.Value == "" {
		return "", ErrNoRefreshToken
	}
	pt, err := j.Sealer.Open(c.Value)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}

// HasSessionCookies is true when either session cookie is present.
func (j *CookieJar) HasSessionCookies(r *http.Request) bool {
	for _, name := range []string{AccessCookie, RefreshCookie} {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			return true
		}
	}
	return false
}

// CSRFCookieFor builds the double-submit cookie. It must be readable by forms only
// through the rendered hidden field, so it stays HttpOnly.
func (j *CookieJar) CSRFCookieFor(token string) *http.Cookie {
	c := j.cookie(CSRFCookie, token, int(2 * time.Hour / time.Second))
	c.SameSite = http.SameSiteStrictMode
	return c
}

// DeviceMiddleware tags every browser with a stable ULID so session events
// can be scoped to the browser that caused them.
func DeviceMiddleware(secure bool) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(DeviceCookie); err == nil && idx.Valid(c.Value) {
				id = c.Value
			}
			if id == "" {
				id = idx.New().String()
				http.SetCookie(w, &http.Cookie{
					Name:     DeviceCookie,
					Value:    id,
					Path:     "/",
					MaxAge:   int((365 * 24 * time.Hour) / time.Second),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(httpx.WithDeviceID(r.Context(), id)))
		})
	}
}
