package session_test

import (
	"sync"
	"testing"
	"time"

	"github.com/econest/web/internal/web/metrics"
	"github.com/econest/web/internal/web/session"
	"github.com/econest/web/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestHubSubscribePublishUnsubscribe(t *testing.T) {
	m := metrics.New()
	hub := session.NewHub(4, slogx.Discard(), m)

	a := hub.Subscribe()
	b := hub.Subscribe()
	require.Equal(t, 2, hub.Len())
	require.Equal(t, 2.0, testutil.ToFloat64(m.Subscriptions))

	n := hub.Publish(session.Event{Kind: session.EventSignedIn, UserID: "u1"})
	require.Equal(t, 2, n)

	ev := <-a.C()
	require.Equal(t, session.EventSignedIn, ev.Kind)
	require.False(t, ev.At.IsZero(), "publish stamps the event")
	<-b.C()

	a.Unsubscribe()
	a.Unsubscribe()
	require.Equal(t, 1, hub.Len())
	require.Equal(t, 1.0, testutil.ToFloat64(m.Subscriptions))

	_, open := <-a.C()
	require.False(t, open, "channel closed on unsubscribe")

	require.Equal(t, 1, hub.Publish(session.Event{Kind: session.EventSignedOut}))
}

func TestHubDropsForFullSubscriber(t *testing.T) {
	hub := session.NewHub(1, slogx.Discard(), nil)
	sub := hub.Subscribe()
	defer sub.Unsubscribe()

	require.Equal(t, 1, hub.Publish(session.Event{Kind: session.EventSignedIn}))
	require.Equal(t, 0, hub.Publish(session.Event{Kind: session.EventSignedOut}), "publish never blocks")

	ev := <-sub.C()
	require.Equal(t, session.EventSignedIn, ev.Kind)
}

func TestHubClose(t *testing.T) {
	hub := session.NewHub(1, slogx.Discard(), nil)
	sub := hub.Subscribe()
	hub.Close()

	_, open := <-sub.C()
	require.False(t, open)
	require.Zero(t, hub.Len())
	sub.Unsubscribe()

	late := hub.Subscribe()
	_, open = <-late.C()
	require.False(t, open)
	require.Zero(t, hub.Publish(session.Event{Kind: session.EventSignedIn}))
}

func TestHubConcurrentPublishAndUnsubscribe(t *testing.T) {
	hub := session.NewHub(2, slogx.Discard(), nil)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(2)
		sub := hub.Subscribe()
		go func() {
			defer wg.Done()
			hub.Publish(session.Event{Kind: session.EventTokenRefreshed, UserID: "u"})
		}()
		go func() {
			defer wg.Done()
			time.Sleep(time.Microsecond)
			sub.Unsubscribe()
		}()
	}
	wg.Wait()
	require.Zero(t, hub.Len(), "no leaked subscriptions")
}

func TestEventConcerns(t *testing.T) {
	ev := session.Event{UserID: "u1", DeviceID: "d1"}
	require.True(t, ev.Concerns("u1", ""))
	require.True(t, ev.Concerns("", "d1"))
	require.True(t, ev.Concerns("u2", "d1"))
	require.False(t, ev.Concerns("u2", "d2"))
	require.False(t, session.Event{}.Concerns("", ""))
}
