package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	evaluationLatency     *prometheus.HistogramVec
	recommendationsIssued *prometheus.CounterVec
	degradedEvaluations   *prometheus.CounterVec
	commanderDecisions    *prometheus.CounterVec
	queueDepth            prometheus.Gauge
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.HistogramVec, *prometheus.CounterVec, *prometheus.CounterVec, *prometheus.CounterVec, prometheus.Gauge) {
	lat := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "evaluation_latency_seconds",
			Help:    "Latency of one evaluation ladder walk",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"step"},
	)
	rec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_issued_total",
			Help: "Number of dispatch recommendations issued",
		},
		[]string{"decision", "step"},
	)
	deg := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "degraded_evaluations_total",
			Help: "Number of evaluations served below the live rung",
		},
		[]string{"step"},
	)
	cmd := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "commander_decisions_total",
			Help: "Number of commander decisions recorded",
		},
		[]string{"outcome"},
	)
	depth := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatch_queue_depth",
			Help: "Number of open convoy movement requests",
		},
	)
	return lat, rec, deg, cmd, depth
}

func init() {
	evaluationLatency, recommendationsIssued, degradedEvaluations, commanderDecisions, queueDepth = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers engine metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(evaluationLatency, recommendationsIssued, degradedEvaluations, commanderDecisions, queueDepth)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	evaluationLatency, recommendationsIssued, degradedEvaluations, commanderDecisions, queueDepth = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
