// Package metrics exports per-run counters and timing histograms for the
// DKG and signing engines, grounded on drand's internal/metrics package's
// use of prometheus/client_golang and the grpc-ecosystem's registerer
// pattern. Every constructor accepts a nil prometheus.Registerer and
// falls back to an unregistered registry, so call sites never have to
// nil-check before recording a metric.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the collectors this module records against, mirroring
// drand's own grouping of one struct per subsystem (beacon, dkg, net)
// rather than free-floating package-level vars.
type Metrics struct {
	RunsTotal      *prometheus.CounterVec
	RunDuration    *prometheus.HistogramVec
	AbortsTotal    *prometheus.CounterVec
	BlamedPartyIDs *prometheus.CounterVec
}

// New builds a Metrics bundle and registers it against reg. If reg is
// nil, a private, never-scraped registry is used instead so recording
// calls are always safe no-ops in tests.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "frostd",
			Name:      "runs_total",
			Help:      "Number of DKG or signing runs started, by protocol and ciphersuite.",
		}, []string{"protocol", "ciphersuite"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "frostd",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of a completed DKG or signing run.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"protocol", "ciphersuite", "outcome"}),
		AbortsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "frostd",
			Name:      "aborts_total",
			Help:      "Number of runs that aborted, by reason class.",
		}, []string{"protocol", "reason"}),
		BlamedPartyIDs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "frostd",
			Name:      "blamed_party_total",
			Help:      "Number of times a party index was blamed for an invalid share.",
		}, []string{"party"}),
	}
	reg.MustRegister(m.RunsTotal, m.RunDuration, m.AbortsTotal, m.BlamedPartyIDs)
	return m
}
