// Package metrics holds the Prometheus instrumentation of the verification
// pipeline. A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Lookup result labels.
const (
	LookupOK    = "ok"
	LookupEmpty = "empty"
	LookupError = "error"
)

// Metrics holds the collectors of one Verifier.
type Metrics struct {
	MXLookup      *prometheus.HistogramVec
	PortProbes    *prometheus.CounterVec
	CacheRequests *prometheus.CounterVec
	Verifications *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		MXLookup: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "domaincheck_mx_lookup_duration_seconds",
				Help:    "MX lookup duration and result.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.100, 0.5, 1, 5, 10, 20},
			},
			[]string{"result"},
		),
		PortProbes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "domaincheck_port_probes_total",
				Help: "TCP port probes by port and result.",
			},
			[]string{"port", "result"},
		),
		CacheRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "domaincheck_cache_requests_total",
				Help: "Verification cache lookups by result (hit, miss).",
			},
			[]string{"result"},
		),
		Verifications: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "domaincheck_verifications_total",
				Help: "Completed verifications by policy and verdict.",
			},
			[]string{"policy", "verified"},
		),
	}
}

// ObserveLookup records an MX lookup that began at start.
func (m *Metrics) ObserveLookup(result string, start time.Time) {
	if m == nil {
		return
	}
	m.MXLookup.WithLabelValues(result).Observe(time.Since(start).Seconds())
}

// ObserveProbe counts one TCP probe of port.
func (m *Metrics) ObserveProbe(port int, open bool) {
	if m == nil {
		return
	}
	result := "closed"
	if open {
		result = "open"
	}
	m.PortProbes.WithLabelValues(strconv.Itoa(port), result).Inc()
}

// ObserveCache counts a cache hit or miss.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheRequests.WithLabelValues(result).Inc()
}

// ObserveVerification counts a completed verdict under policy.
func (m *Metrics) ObserveVerification(policy string, verified bool) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(policy, strconv.FormatBool(verified)).Inc()
}
