package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/econest/web/internal/web/domain"
	"github.com/econest/web/internal/web/guard"
	"github.com/econest/web/internal/web/metrics"
	"github.com/econest/web/internal/web/service"
	"github.com/econest/web/internal/web/session"
	"github.com/econest/web/pkg/httpx"
	"github.com/econest/web/pkg/slogx"
)

// streamHeartbeat keeps idle proxies from closing the event stream.
const streamHeartbeat = 25 * time.Second

// SessionHandler exposes the caller's session as JSON and as a stream of
// guard verdicts.
type SessionHandler struct {
	Oracle      *session.Oracle
	Roles       *service.RoleResolver
	Hub         *session.Hub
	Provisioner *service.ProfileProvisioner
	Metrics     *metrics.Metrics
}

// HandleGet godoc
//
//	@Summary		Current session
//	@Description	Returns the caller's session summary. An expired access token is refreshed and new cookies are set.
//	@Description	Backend failures are reported as unauthenticated.
//	@Tags			Session
//	@Produce		json
//	@Success		200	{object}	SessionResponse
//	@Router			/v1/session [get]
func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	res, err := h.Oracle.Load(ctx, r)
	if err != nil {
		log.Warn("session unavailable", "error", err)
		res = session.Result{}
	}
	for _, c := range res.Cookies {
		http.SetCookie(w, c)
	}

	resp := SessionResponse{Role: domain.RoleNone.String()}
	if s := res.Session; s != nil {
		role, err := h.Roles.Resolve(ctx, s)
		if err != nil {
			log.Warn("role lookup failed", "user_id", s.UserID, "error", err)
		}
		resp.Authenticated = true
		resp.UserID = s.UserID
		resp.Email = s.Email
		resp.Role = role.String()
		if !s.ExpiresAt.IsZero() {
			exp := s.ExpiresAt.UTC()
			resp.ExpiresAt = &exp
		}
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleStream godoc
//
//	@Summary		Guard verdict stream
//	@Description	Server-sent events carrying access-guard verdicts for the requested capability.
//	@Description	The first event is always "pending"; a new event follows every relevant session change.
//	@Description	An expired access token is refreshed once on connect and new cookies are set.
//	@Description	While the stream is open and the viewer is allowed, their profile is provisioned.
//	@Tags			Session
//	@Produce		text/event-stream
//	@Param			capability	query		string	false	"Required capability"	Enums(authenticated, admin, manage_roles)	default(authenticated)
//	@Success		200			{object}	VerdictEvent	"event: verdict"
//	@Failure		400			{object}	httpx.ErrorResponse
//	@Router			/v1/session/stream [get]
func (h *SessionHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	capability := domain.CapAuthenticated
	if q := r.URL.Query().Get("capability"); q != "" {
		c, err := domain.ParseCapability(q)
		if err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "unknown capability")
			return
		}
		capability = c
	}

	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		log.Warn("could not lift write deadline for stream", "error", err)
	}

	// Resolve once, refreshing if needed, while cookies can still be set.
	// Re-evaluations after that come from hub events and never rotate tokens.
	res, err := h.Oracle.Load(ctx, r)
	if err != nil {
		log.Warn("session unavailable for stream", "error", err)
	}
	for _, c := range res.Cookies {
		http.SetCookie(w, c)
	}

	g := &guard.Guard{
		Capability: capability,
		Sessions:   func(_ context.Context) (*domain.Session, error) { return res.Session, nil },
		Roles:      h.Roles,
		Hub:        h.Hub,
		DeviceID:   httpx.DeviceIDFromContext(ctx),
		Logger:     log,
		Observe: func(v guard.Verdict) {
			h.Metrics.Decision(capability.String(), v.Decision.String())
		},
	}
	m := g.Mount(ctx)
	defer m.Unmount()

	var task *service.Task
	var provisioned string
	defer func() {
		if task != nil {
			task.Cancel()
		}
	}()

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	location := guard.SignInPath + "?next=" + url.QueryEscape(referrerPath(r))

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		case v, ok := <-m.Verdicts():
			if !ok {
				return
			}
			// One provisioning attempt per allowed identity per mount.
			if v.Decision == guard.Allow && v.Session != nil && v.Session.UserID != provisioned {
				if task != nil {
					task.Cancel()
				}
				provisioned = v.Session.UserID
				task = h.Provisioner.Start(ctx, v.Session.Identity())
			}
			if err := writeVerdict(w, v, location); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}

func writeVerdict(w http.ResponseWriter, v guard.Verdict, location string) error {
	ev := VerdictEvent{
		Decision:   v.Decision.String(),
		Redirect:   v.Redirect,
		Capability: v.Capability.String(),
		Role:       v.Role.String(),
	}
	if v.Role == "" {
		ev.Role = domain.RoleNone.String()
	}
	if v.Redirect {
		ev.Location = location
	}
	if v.Session != nil {
		ev.UserID = v.Session.UserID
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: verdict\ndata: %s\n\n", data)
	return err
}

// referrerPath is the page that opened the stream, used as the sign-in "next".
func referrerPath(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || (ref.Host != "" && ref.Host != r.Host) {
		return DefaultAfterSignIn
	}
	p := ref.Path
	if ref.RawQuery != "" {
		p += "?" + ref.RawQuery
	}
	return httpx.SafeRedirectTarget(p, DefaultAfterSignIn)
}
