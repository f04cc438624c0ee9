package httpx

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/econest/web/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimit describes a token bucket: Requests per Window, with Burst headroom.
type RateLimit struct {
	Requests int
	Window   time.Duration
	Burst    int
}

// Profiles used by the router. Override with RATELIMIT_{STRICT,LENIENT,PUBLIC}_{REQUESTS,WINDOW_SEC,BURST}.
var (
	// Strict guards credential submission.
	Strict = RateLimit{Requests: 5, Window: time.Minute, Burst: 5}
	// Lenient covers session-bound JSON and stream endpoints.
	Lenient = RateLimit{Requests: 120, Window: time.Minute, Burst: 60}
	// Public covers marketing pages.
	Public = RateLimit{Requests: 1000, Window: time.Minute, Burst: 1000}
)

// LoadRateLimits applies environment overrides to the package profiles.
func LoadRateLimits() {
	Strict = RateLimitFromEnv("STRICT", Strict)
	Lenient = RateLimitFromEnv("LENIENT", Lenient)
	Public = RateLimitFromEnv("PUBLIC", Public)
}

// RateLimitFromEnv reads RATELIMIT_{prefix}_* variables over def.
// Non-positive or unparsable values are ignored.
func RateLimitFromEnv(prefix string, def RateLimit) RateLimit {
	out := def
	if n, ok := positiveEnv("RATELIMIT_" + prefix + "_REQUESTS"); ok {
		out.Requests = n
	}
	if n, ok := positiveEnv("RATELIMIT_" + prefix + "_WINDOW_SEC"); ok {
		out.Window = time.Duration(n) * time.Second
	}
	if n, ok := positiveEnv("RATELIMIT_" + prefix + "_BURST"); ok {
		out.Burst = n
	}
	return out
}

func positiveEnv(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// KeyFunc groups requests into buckets. An empty key bypasses limiting.
type KeyFunc func(*http.Request) string

// ClientIP returns the first X-Forwarded-For hop, X-Real-IP, or the remote host.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// FormField keys on a form value, lowercased so "Alice@x" and "alice@x" share a bucket.
func FormField(name string) KeyFunc {
	return func(r *http.Request) string {
		if err := r.ParseForm(); err != nil {
			return ""
		}
		return strings.ToLower(strings.TrimSpace(r.FormValue(name)))
	}
}

// Compose joins the non-empty keys of fns with sep.
func Compose(sep string, fns ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(fns))
		for _, fn := range fns {
			if k := fn(r); k != "" {
				parts = append(parts, k)
			}
		}
		return strings.Join(parts, sep)
	}
}

// Limiter holds one token bucket per key.
type Limiter struct {
	limit rate.Limit
	burst int
	cfg   RateLimit

	mu        sync.Mutex
	buckets   map[string]*rate.Limiter
	lastSweep time.Time
	sweepInt  time.Duration
}

// NewLimiter builds a Limiter from cfg.
func NewLimiter(cfg RateLimit) *Limiter {
	return &Limiter{
		limit:     rate.Limit(float64(cfg.Requests) / cfg.Window.Seconds()),
		burst:     cfg.Burst,
		cfg:       cfg,
		buckets:   make(map[string]*rate.Limiter),
		lastSweep: time.Now(),
		sweepInt:  5 * time.Minute,
	}
}

// Allow reports whether one more request for key fits, and if not, how long to wait.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.limit, l.burst)
		l.buckets[key] = b
	}
	l.sweepLocked()
	l.mu.Unlock()

	now := time.Now()
	if b.AllowN(now, 1) {
		return true, 0
	}
	res := b.ReserveN(now, 1)
	delay := res.DelayFrom(now)
	res.CancelAt(now)
	return false, delay
}

// Len is the number of live buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// sweepLocked drops full buckets; a full bucket has been idle long enough to forget.
func (l *Limiter) sweepLocked() {
	if time.Since(l.lastSweep) < l.sweepInt {
		return
	}
	l.lastSweep = time.Now()
	for k, b := range l.buckets {
		if b.Tokens() >= float64(l.burst) {
			delete(l.buckets, k)
		}
	}
}

// Middleware rejects requests over the limit with 429 and a Retry-After header.
func (l *Limiter) Middleware(key KeyFunc) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				slogx.FromContext(r.Context()).Warn("rate limit: no key, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			ok, delay := l.Allow(k)
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			retry := max(int(delay.Round(time.Second)/time.Second), 1)
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Requests))
			w.Header().Set("X-RateLimit-Window", l.cfg.Window.String())

			slogx.FromContext(r.Context()).Warn("rate limit exceeded",
				"endpoint", r.URL.Path,
				"retry_after", retry,
			)
			WriteError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests. Please try again later.")
		})
	}
}

// RateLimitByIP limits by client address.
func RateLimitByIP(cfg RateLimit) Middleware {
	return NewLimiter(cfg).Middleware(ClientIP)
}

// RateLimitByIPAndField limits by client address plus a form field, e.g. the sign-in email.
func RateLimitByIPAndField(cfg RateLimit, field string) Middleware {
	return NewLimiter(cfg).Middleware(Compose("|", ClientIP, FormField(field)))
}
