package guard

import (
	"context"
	"log/slog"
	"sync"

	"github.com/econest/web/internal/web/domain"
	"github.com/econest/web/internal/web/session"
)

// SessionFunc fetches the current session. An error counts as no session.
type SessionFunc func(ctx context.Context) (*domain.Session, error)

// RoleResolver classifies a session. On error it must still return a role (none).
type RoleResolver interface {
	Resolve(ctx context.Context, s *domain.Session) (domain.Role, error)
}

// Guard is a mountable access check for one capability.
type Guard struct {
	Capability domain.Capability
	Sessions   SessionFunc
	Roles      RoleResolver
	Hub        *session.Hub
	// DeviceID scopes sign-in events to the browser that owns this view.
	DeviceID string
	Logger   *slog.Logger
	// Observe is called with every verdict emitted.
	Observe func(Verdict)
}

// Mounted is a live guard. Read verdicts until the channel closes.
type Mounted struct {
	verdicts chan Verdict
	sub      *session.Subscription
	cancel   context.CancelFunc
	done     chan struct{}

	mu        sync.Mutex
	unmounted bool
	once      sync.Once
}

const verdictBuffer = 4

// Mount subscribes to session changes, emits Pending, and resolves in the
// background. The subscription is live before Mount returns, so no event
// published afterwards is missed.
func (g *Guard) Mount(ctx context.Context) *Mounted {
	ctx, cancel := context.WithCancel(ctx)
	m := &Mounted{
		verdicts: make(chan Verdict, verdictBuffer),
		sub:      g.Hub.Subscribe(),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	m.emit(Evaluate(State{}, g.Capability), g.Observe)

	go g.run(ctx, m)
	return m
}

// Verdicts delivers Pending first, then a fresh verdict per relevant change.
// It is closed by Unmount.
func (m *Mounted) Verdicts() <-chan Verdict { return m.verdicts }

// Done closes once the background worker has exited: after Unmount, when
// ctx ends, or when the hub is closed.
func (m *Mounted) Done() <-chan struct{} { return m.done }

// Unmount cancels in-flight work and unsubscribes. It does not wait for a
// backend call to return; whatever that call yields is discarded.
func (m *Mounted) Unmount() {
	m.once.Do(func() {
		m.cancel()
		m.sub.Unsubscribe()

		m.mu.Lock()
		defer m.mu.Unlock()
		m.unmounted = true
		for len(m.verdicts) > 0 {
			<-m.verdicts
		}
		close(m.verdicts)
	})
}

// emit never blocks: when the reader lags, the oldest queued verdict is dropped.
func (m *Mounted) emit(v Verdict, observe func(Verdict)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unmounted {
		return false
	}
	for {
		select {
		case m.verdicts <- v:
			if observe != nil {
				observe(v)
			}
			return true
		default:
		}
		select {
		case <-m.verdicts:
		default:
		}
	}
}

func (g *Guard) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

func (g *Guard) run(ctx context.Context, m *Mounted) {
	defer close(m.done)

	sess, err := g.Sessions(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		g.logger().Warn("guard: session fetch failed", "error", err)
		sess = nil
	}

	st := State{Session: sess}
	st.Role = g.resolveRole(ctx, sess)
	if ctx.Err() != nil {
		return
	}
	st.Resolved = true
	if !m.emit(Evaluate(st, g.Capability), g.Observe) {
		return
	}

	events := m.sub.C()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				// Hub closed: the process is shutting down.
				return
			}
			if !ev.Concerns(userID(st.Session), g.DeviceID) {
				continue
			}

			switch ev.Kind {
			case session.EventSignedOut:
				st.Session = nil
			case session.EventRoleChanged:
			default:
				if ev.Session != nil {
					st.Session = ev.Session
				}
			}

			st.Role = g.resolveRole(ctx, st.Session)
			if ctx.Err() != nil {
				return
			}
			if !m.emit(Evaluate(st, g.Capability), g.Observe) {
				return
			}
		}
	}
}

func (g *Guard) resolveRole(ctx context.Context, s *domain.Session) domain.Role {
	if s == nil || !g.Capability.RequiresRole() || g.Roles == nil {
		return domain.RoleNone
	}
	role, err := g.Roles.Resolve(ctx, s)
	if err != nil && ctx.Err() == nil {
		g.logger().Warn("guard: role lookup failed", "user_id", s.UserID, "error", err)
	}
	return role
}

func userID(s *domain.Session) string {
	if s == nil {
		return ""
	}
	return s.UserID
}
