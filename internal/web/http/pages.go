package http

import (
	"net/http"
	"slices"

	"github.com/econest/web/internal/web/content"
	"github.com/econest/web/internal/web/session"
)

// PagesHandler serves the marketing pages. They are public; the session is
// only peeked at so the navigation can show the right links.
type PagesHandler struct {
	Renderer *Renderer
	Oracle   *session.Oracle
}

func (h *PagesHandler) render(w http.ResponseWriter, r *http.Request, name, title string, data any) {
	h.Renderer.Render(w, r, http.StatusOK, name, page{Title: title, Session: h.Oracle.Peek(r), Data: data})
}

func (h *PagesHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "home", "", nil)
}

func (h *PagesHandler) HandlePricing(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pricing", "Pricing", nil)
}

type integrationsData struct {
	Categories   []string
	Selected     string
	Integrations []content.Integration
}

// HandleIntegrations lists integrations, optionally narrowed by ?category=.
// An unknown category shows the full list.
func (h *PagesHandler) HandleIntegrations(w http.ResponseWriter, r *http.Request) {
	site := h.Renderer.site
	data := integrationsData{Categories: site.Categories(), Integrations: site.Integrations}
	if c := r.URL.Query().Get("category"); slices.Contains(data.Categories, c) {
		data.Selected = c
		data.Integrations = site.InCategory(c)
	}
	h.render(w, r, "integrations", "Integrations", data)
}
