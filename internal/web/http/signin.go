package http

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/econest/web/internal/web/metrics"
	"github.com/econest/web/internal/web/service"
	"github.com/econest/web/internal/web/session"
	"github.com/econest/web/pkg/httpx"
	"github.com/econest/web/pkg/slogx"
	"github.com/econest/web/pkg/supabase"
)

// DefaultAfterSignIn is where sign-in lands when next is missing or unsafe.
const DefaultAfterSignIn = "/dashboard"

// SignInHandler runs the password sign-in form and sign-out.
type SignInHandler struct {
	Auth        AuthClient
	Oracle      *session.Oracle
	Hub         *session.Hub
	Provisioner *service.ProfileProvisioner
	Renderer    *Renderer
	Metrics     *metrics.Metrics
	Now         func() time.Time
}

func (h *SignInHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// HandleForm shows the sign-in form, or skips it for viewers already signed in.
func (h *SignInHandler) HandleForm(w http.ResponseWriter, r *http.Request) {
	next := httpx.SafeRedirectTarget(r.URL.Query().Get("next"), DefaultAfterSignIn)
	res, err := h.Oracle.Load(r.Context(), r)
	if err != nil {
		slogx.FromContext(r.Context()).Warn("session unavailable for sign-in form", "error", err)
	}
	for _, c := range res.Cookies {
		http.SetCookie(w, c)
	}
	if res.Session != nil {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	h.Renderer.Render(w, r, http.StatusOK, "signin", page{Title: "Sign in", Next: next})
}

func (h *SignInHandler) formError(w http.ResponseWriter, r *http.Request, status int, next, email, msg string) {
	h.Renderer.Render(w, r, status, "signin", page{Title: "Sign in", Next: next, Email: email, Error: msg})
}

// HandleSignIn exchanges credentials for a Supabase session.
func (h *SignInHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := r.ParseForm(); err != nil {
		h.formError(w, r, http.StatusBadRequest, DefaultAfterSignIn, "", "Please fill in the form and try again.")
		return
	}
	next := httpx.SafeRedirectTarget(r.PostFormValue("next"), DefaultAfterSignIn)
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")

	if !validCSRF(r) {
		log.Warn("sign-in rejected: csrf token mismatch")
		h.formError(w, r, http.StatusForbidden, next, email, "Your form expired. Please try again.")
		return
	}
	if _, err := mail.ParseAddress(email); err != nil || password == "" {
		h.formError(w, r, http.StatusBadRequest, next, email, "Enter your email address and password.")
		return
	}

	sup, err := h.Auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		var apiErr *supabase.APIError
		if errors.As(err, &apiErr) && apiErr.IsInvalidCredentials() {
			h.Metrics.SignIn("invalid")
			log.Info("sign-in failed: invalid credentials")
			h.formError(w, r, http.StatusUnauthorized, next, email, "Invalid email or password.")
			return
		}
		h.Metrics.SignIn("error")
		log.Error("sign-in failed", "error", err)
		h.formError(w, r, http.StatusBadGateway, next, email, "Sign-in is temporarily unavailable. Please try again shortly.")
		return
	}

	s := session.FromSupabase(sup, h.now())
	cookies, err := h.Oracle.Cookies.Issue(s)
	if err != nil {
		h.Metrics.SignIn("error")
		h.Renderer.Fail(w, r, http.StatusInternalServerError, "Sign-in could not be completed.", err)
		return
	}
	for _, c := range cookies {
		http.SetCookie(w, c)
	}

	h.Metrics.SignIn("ok")
	ctx = slogx.WithUser(ctx, s.UserID)
	slogx.FromContext(ctx).Info("signed in")

	h.Hub.Publish(session.Event{
		Kind:     session.EventSignedIn,
		UserID:   s.UserID,
		DeviceID: httpx.DeviceIDFromContext(ctx),
		Session:  s,
	})
	h.Provisioner.Start(ctx, s.Identity())

	http.Redirect(w, r, next, http.StatusSeeOther)
}

// HandleSignOut revokes the Supabase session best-effort and always clears cookies.
func (h *SignInHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if !validCSRF(r) {
		log.Warn("sign-out rejected: csrf token mismatch")
		h.Renderer.Fail(w, r, http.StatusForbidden, "Your form expired. Please try again.", nil)
		return
	}

	s := h.Oracle.Peek(r)
	if s != nil {
		if err := h.Auth.SignOut(ctx, s.AccessToken); err != nil {
			log.Warn("supabase logout failed", "user_id", s.UserID, "error", err)
		}
	}

	for _, c := range h.Oracle.Cookies.Clear() {
		http.SetCookie(w, c)
	}

	ev := session.Event{Kind: session.EventSignedOut, DeviceID: httpx.DeviceIDFromContext(ctx)}
	if s != nil {
		ev.UserID = s.UserID
	}
	h.Hub.Publish(ev)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
