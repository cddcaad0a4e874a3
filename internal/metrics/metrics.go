// Package metrics collects and exposes Prometheus metrics for the auth
// service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector is what the service and reconciler record against.
type Collector interface {
	RecordSignIn()
	RecordSignUp()
	RecordReconciliation(outcome string)
	RecordStaleResultDiscarded()
}

// Reconciliation outcomes.
const (
	OutcomeMerged    = "merged"
	OutcomeFallback  = "fallback"
	OutcomeSignedOut = "signed_out"
)

type PromCollector struct {
	signIns    prometheus.Counter
	signUps    prometheus.Counter
	reconciles *prometheus.CounterVec
	stale      prometheus.Counter
}

func NewCollector(reg prometheus.Registerer) *PromCollector {
	c := &PromCollector{
		signIns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfolio_auth_signin_total",
			Help: "Total successful sign-ins.",
		}),
		signUps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfolio_auth_signup_total",
			Help: "Total successful sign-ups.",
		}),
		reconciles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "portfolio_auth_reconcile_total",
			Help: "Session reconciliations by outcome.",
		}, []string{"outcome"}),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfolio_auth_stale_result_discarded_total",
			Help: "Profile lookups that settled after their identity was superseded.",
		}),
	}

	reg.MustRegister(c.signIns, c.signUps, c.reconciles, c.stale)
	return c
}

func (c *PromCollector) RecordSignIn() { c.signIns.Inc() }

func (c *PromCollector) RecordSignUp() { c.signUps.Inc() }

func (c *PromCollector) RecordReconciliation(outcome string) {
	c.reconciles.WithLabelValues(outcome).Inc()
}

func (c *PromCollector) RecordStaleResultDiscarded() { c.stale.Inc() }

// Noop satisfies Collector for tests and wiring without a registry.
type Noop struct{}

func (Noop) RecordSignIn()               {}
func (Noop) RecordSignUp()               {}
func (Noop) RecordReconciliation(string) {}
func (Noop) RecordStaleResultDiscarded() {}

// Handler returns the Prometheus scrape handler.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
