package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/econest/web/internal/web/content"
	"github.com/econest/web/internal/web/domain"
	"github.com/econest/web/internal/web/guard"
	"github.com/econest/web/internal/web/session"
	"github.com/econest/web/pkg/cryptox"
	"github.com/econest/web/pkg/httpx"
	"github.com/econest/web/pkg/slogx"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pageNames = []string{
	"home", "pricing", "integrations", "signin",
	"dashboard", "admin", "loading", "denied", "error",
}

// page is the data every template receives. Data carries page-specific values.
type page struct {
	Site       *content.Site
	Title      string
	Session    *domain.Session
	Role       domain.Role
	Capability domain.Capability
	CSRF       string
	Next       string
	Email      string
	Error      string
	Data       any
}

// Renderer draws server-side pages. It also serves as the guard's renderer
// for the loading placeholder and the inline denial.
type Renderer struct {
	site  *content.Site
	jar   *session.CookieJar
	pages map[string]*template.Template
}

var _ guard.Renderer = (*Renderer)(nil)

func NewRenderer(site *content.Site, jar *session.CookieJar) (*Renderer, error) {
	rd := &Renderer{site: site, jar: jar, pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New(name).ParseFS(templateFS,
			"templates/layout.html",
			"templates/partials.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		rd.pages[name] = t
	}
	return rd, nil
}

// Render executes the named page into a buffer first so a template error
// becomes a clean 500 rather than half a page.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, p page) {
	t, ok := rd.pages[name]
	if !ok {
		http.Error(w, "unknown page", http.StatusInternalServerError)
		return
	}

	p.Site = rd.site
	if p.Session == nil {
		if s, ok := httpx.SessionFromContext(r.Context()); ok {
			p.Session = s
			p.Role = httpx.RoleFromContext(r.Context())
		}
	}
	if p.CSRF == "" {
		p.CSRF = rd.csrfToken(w, r)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		slogx.FromContext(r.Context()).Error("failed to render page", "page", name, "error", err)
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (rd *Renderer) Loading(w http.ResponseWriter, r *http.Request) {
	rd.Render(w, r, http.StatusOK, "loading", page{Title: "Loading"})
}

// Unavailable keeps the submitted form from being replayed as a GET.
func (rd *Renderer) Unavailable(w http.ResponseWriter, r *http.Request) {
	rd.Render(w, r, http.StatusServiceUnavailable, "error", page{
		Title: "Try again",
		Error: "We could not confirm your session in time. Please go back and submit again.",
	})
}

func (rd *Renderer) Denied(w http.ResponseWriter, r *http.Request, v guard.Verdict) {
	rd.Render(w, r, http.StatusForbidden, "denied", page{
		Title:      "No access",
		Session:    v.Session,
		Role:       v.Role,
		Capability: v.Capability,
	})
}

// Fail shows generic fallback text; err is logged, never displayed.
func (rd *Renderer) Fail(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	if err != nil {
		slogx.FromContext(r.Context()).Error(msg, "error", err)
	}
	rd.Render(w, r, status, "error", page{Title: "Error", Error: msg})
}

// csrfToken reuses the double-submit cookie or mints one.
func (rd *Renderer) csrfToken(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(session.CSRFCookie); err == nil && c.Value != "" {
		return c.Value
	}
	tok, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		slogx.FromContext(r.Context()).Error("failed to generate csrf token", "error", err)
		return ""
	}
	http.SetCookie(w, rd.jar.CSRFCookieFor(tok))
	return tok
}

// validCSRF checks the posted token against the cookie.
func validCSRF(r *http.Request) bool {
	c, err := r.Cookie(session.CSRFCookie)
	if err != nil {
		return false
	}
	return cryptox.EqualTokens(c.Value, r.PostFormValue("csrf_token"))
}

func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
