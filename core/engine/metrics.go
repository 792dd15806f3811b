package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	predictionsTotal *prometheus.CounterVec
	outcomesTotal    *prometheus.CounterVec
	pendingEntries   prometheus.Gauge
	sweptEntries     prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, prometheus.Gauge, prometheus.Counter) {
	pred := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_predictions_total",
			Help: "Number of optimization results returned",
		},
		[]string{"fallback"},
	)
	out := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "route_outcomes_total",
			Help: "Number of reported actual results by reconciliation status",
		},
		[]string{"status"},
	)
	pend := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "route_pending_predictions",
			Help: "Size of the pending prediction ledger",
		},
	)
	swept := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "route_pending_swept_total",
			Help: "Number of pending predictions evicted by the TTL sweep",
		},
	)
	return pred, out, pend, swept
}

func init() {
	predictionsTotal, outcomesTotal, pendingEntries, sweptEntries = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers engine metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(predictionsTotal, outcomesTotal, pendingEntries, sweptEntries)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	predictionsTotal, outcomesTotal, pendingEntries, sweptEntries = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
