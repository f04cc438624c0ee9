package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/econest/web/internal/web/domain"
	"github.com/econest/web/internal/web/metrics"
)

// EventKind mirrors the Supabase auth state change names.
type EventKind string

const (
	EventSignedIn       EventKind = "SIGNED_IN"
	EventSignedOut      EventKind = "SIGNED_OUT"
	EventTokenRefreshed EventKind = "TOKEN_REFRESHED"
	EventRoleChanged    EventKind = "ROLE_CHANGED"
)

// Event is a session change. Session is nil for EventSignedOut and EventRoleChanged.
type Event struct {
	Kind     EventKind
	UserID   string
	DeviceID string
	Session  *domain.Session
	At       time.Time
}

// Concerns reports whether a guard watching userID on deviceID should react.
// Empty identifiers never match.
func (e Event) Concerns(userID, deviceID string) bool {
	return (userID != "" && e.UserID == userID) || (deviceID != "" && e.DeviceID == deviceID)
}

// Hub is the single process-wide session-change channel. Guards subscribe
// when mounted and unsubscribe when unmounted.
type Hub struct {
	buffer  int
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool
}

// NewHub creates a hub whose subscribers buffer up to buffer events.
func NewHub(buffer int, logger *slog.Logger, m *metrics.Metrics) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		buffer:  buffer,
		logger:  logger,
		metrics: m,
		subs:    make(map[uint64]*Subscription),
	}
}

// Subscription is one listener. Receive from C until it is closed.
type Subscription struct {
	id   uint64
	hub  *Hub
	ch   chan Event
	once sync.Once
}

// Subscribe registers a listener. On a closed hub the returned channel is already closed.
func (h *Hub) Subscribe() *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &Subscription{hub: h, ch: make(chan Event, h.buffer)}
	if h.closed {
		sub.once.Do(func() { close(sub.ch) })
		return sub
	}

	h.nextID++
	sub.id = h.nextID
	h.subs[sub.id] = sub
	h.metrics.SubscriptionOpened()
	return sub
}

func (s *Subscription) C() <-chan Event { return s.ch }

// Unsubscribe removes the listener and closes C. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	s.closeLocked()
}

func (s *Subscription) closeLocked() {
	s.once.Do(func() {
		if _, ok := s.hub.subs[s.id]; ok {
			delete(s.hub.subs, s.id)
			s.hub.metrics.SubscriptionClosed()
		}
		close(s.ch)
	})
}

// Publish delivers ev to every subscriber without blocking and returns how
// many received it. A subscriber whose buffer is full misses the event.
func (h *Hub) Publish(ev Event) int {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for id, sub := range h.subs {
		select {
		case sub.ch <- ev:
			delivered++
		default:
			h.logger.Warn("session hub: subscriber full, dropping event",
				"subscription", id,
				"kind", ev.Kind,
				"user_id", ev.UserID,
			)
		}
	}
	return delivered
}

// Len is the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close unsubscribes everyone; later Subscribe calls get closed channels.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for _, sub := range h.subs {
		sub.closeLocked()
	}
}
