package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the site's Prometheus collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	GuardDecisions *prometheus.CounterVec
	Provisions     *prometheus.CounterVec
	Refreshes      *prometheus.CounterVec
	SignIns        *prometheus.CounterVec
	Subscriptions  prometheus.Gauge
}

// New registers every collector on a fresh registry, plus Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		GuardDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "econest_guard_decisions_total",
				Help: "Access guard verdicts by required capability and decision",
			},
			[]string{"capability", "decision"},
		),
		Provisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "econest_profile_provision_total",
				Help: "Profile provisioning runs by outcome",
			},
			[]string{"outcome"},
		),
		Refreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "econest_session_refresh_total",
				Help: "Access token refresh attempts by result",
			},
			[]string{"result"},
		),
		SignIns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "econest_signin_total",
				Help: "Password sign-in attempts by result",
			},
			[]string{"result"},
		),
		Subscriptions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "econest_session_subscriptions",
				Help: "Live session-change subscriptions (mounted guards)",
			},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Decision(capability, decision string) {
	if m == nil {
		return
	}
	m.GuardDecisions.WithLabelValues(capability, decision).Inc()
}

func (m *Metrics) Provision(outcome string) {
	if m == nil {
		return
	}
	m.Provisions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Refresh(result string) {
	if m == nil {
		return
	}
	m.Refreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) SignIn(result string) {
	if m == nil {
		return
	}
	m.SignIns.WithLabelValues(result).Inc()
}

// SubscriptionOpened and SubscriptionClosed track the session hub.
func (m *Metrics) SubscriptionOpened() {
	if m != nil {
		m.Subscriptions.Inc()
	}
}

func (m *Metrics) SubscriptionClosed() {
	if m != nil {
		m.Subscriptions.Dec()
	}
}
