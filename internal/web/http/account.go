package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/econest/web/internal/web/domain"
	"github.com/econest/web/internal/web/service"
	"github.com/econest/web/internal/web/store"
	"github.com/econest/web/pkg/httpx"
	"github.com/econest/web/pkg/slogx"
)

// DashboardHandler renders the signed-in account page. It runs behind the
// identity guard, so the session is always in the context.
type DashboardHandler struct {
	Roles    *service.RoleResolver
	Profiles *service.ProfileService
	Renderer *Renderer
}

type dashboardData struct {
	Profile *domain.Profile
	IsAdmin bool
}

func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s, _ := httpx.SessionFromContext(ctx)

	// The identity guard skips role resolution; the page still shows it.
	role, err := h.Roles.Resolve(ctx, s)
	if err != nil {
		slogx.FromContext(ctx).Warn("role lookup failed", "error", err)
	}

	var data dashboardData
	data.IsAdmin = domain.Satisfies(role, domain.CapAdmin)
	p, err := h.Profiles.Get(ctx, s.UserID)
	switch {
	case err == nil:
		data.Profile = &p
	case !errors.Is(err, store.ErrNotFound):
		slogx.FromContext(ctx).Warn("profile lookup failed", "error", err)
	}

	h.Renderer.Render(w, r, http.StatusOK, "dashboard", page{
		Title:      "Dashboard",
		Session:    s,
		Role:       role,
		Capability: domain.CapAuthenticated,
		Data:       data,
	})
}

// AdminHandler lists profiles and role assignments, and assigns roles.
type AdminHandler struct {
	Profiles     *service.ProfileService
	RolesService *service.RolesService
	Renderer     *Renderer
}

type adminData struct {
	Page           service.ProfilePage
	NextOffset     int
	Assignments    []domain.RoleAssignment
	CanManageRoles bool
	Roles          []domain.Role
}

func (h *AdminHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, http.StatusOK, "")
}

func (h *AdminHandler) list(w http.ResponseWriter, r *http.Request, status int, notice string) {
	ctx := r.Context()
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	pg, err := h.Profiles.List(ctx, service.DefaultPageSize, offset)
	if err != nil {
		h.Renderer.Fail(w, r, http.StatusInternalServerError, "Profiles are unavailable right now.", err)
		return
	}
	assignments, err := h.RolesService.List(ctx)
	if err != nil {
		h.Renderer.Fail(w, r, http.StatusInternalServerError, "Roles are unavailable right now.", err)
		return
	}

	data := adminData{
		Page:           pg,
		Assignments:    assignments,
		CanManageRoles: domain.Satisfies(httpx.RoleFromContext(ctx), domain.CapManageRoles),
		Roles:          domain.Roles,
	}
	if next := pg.Offset + len(pg.Profiles); int64(next) < pg.Total {
		data.NextOffset = next
	}

	h.Renderer.Render(w, r, status, "admin", page{
		Title:      "Admin",
		Capability: domain.CapAdmin,
		Error:      notice,
		Data:       data,
	})
}

// HandleAssign runs behind the manage_roles guard.
func (h *AdminHandler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil || !validCSRF(r) {
		h.list(w, r, http.StatusForbidden, "Your form expired. Please try again.")
		return
	}

	role, err := domain.ParseRole(r.PostFormValue("role"))
	if err != nil {
		h.list(w, r, http.StatusBadRequest, "Choose one of the listed roles.")
		return
	}
	err = h.RolesService.Assign(ctx, r.PostFormValue("user_id"), role)
	switch {
	case errors.Is(err, domain.ErrInvalidUserID):
		h.list(w, r, http.StatusBadRequest, "That user id is not valid.")
		return
	case err != nil:
		h.Renderer.Fail(w, r, http.StatusInternalServerError, "The role could not be saved.", err)
		return
	}

	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}
