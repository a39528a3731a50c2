// Package metrics exposes Prometheus counters for the session and cart flows.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Logins         prometheus.Counter
	AuthRejections *prometheus.CounterVec
	Rotations      prometheus.Counter
	Logouts        prometheus.Counter
	CartUpdates    *prometheus.CounterVec
	TokensSwept    prometheus.Counter
}

// New builds the collectors and registers them with reg. A nil reg skips registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Logins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "logins_total",
			Help:      "Successful password logins.",
		}),
		AuthRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "auth_rejections_total",
			Help:      "Rejected authentication attempts by reason.",
		}, []string{"reason"}),
		Rotations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "token_rotations_total",
			Help:      "Tokens replaced in place by session rotation.",
		}),
		Logouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "logouts_total",
			Help:      "Tokens removed by logout.",
		}),
		CartUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "cart_updates_total",
			Help:      "Cart delta applications by outcome.",
		}, []string{"outcome"}),
		TokensSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "tokens_swept_total",
			Help:      "Stale tokens removed by the session sweeper.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Logins, m.AuthRejections, m.Rotations, m.Logouts, m.CartUpdates, m.TokensSwept)
	}
	return m
}

func (m *Metrics) Login() {
	if m != nil {
		m.Logins.Inc()
	}
}

func (m *Metrics) Rejected(reason string) {
	if m != nil {
		m.AuthRejections.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) Rotated() {
	if m != nil {
		m.Rotations.Inc()
	}
}

func (m *Metrics) LoggedOut() {
	if m != nil {
		m.Logouts.Inc()
	}
}

func (m *Metrics) CartUpdated(outcome string) {
	if m != nil {
		m.CartUpdates.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) Swept(n int) {
	if m != nil && n > 0 {
		m.TokensSwept.Add(float64(n))
	}
}
