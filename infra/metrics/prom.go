package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	coremetrics "github.com/milops/convoyd/core/metrics"
	"github.com/milops/convoyd/infra/logger"
)

// PromSink records engine events in Prometheus metrics.
type PromSink struct {
	recommendations *prometheus.CounterVec
	latency         *prometheus.HistogramVec
	queueDepth      prometheus.Gauge
	commander       *prometheus.CounterVec
	degraded        *prometheus.CounterVec
}

// NewPromSink registers the sink metrics on the default Prometheus
// registerer. The scrape server is started separately with StartPromServer.
func NewPromSink(cfg coremetrics.Config) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	recs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "convoy_recommendations_total",
		Help: "Total number of dispatch recommendations issued",
	}, []string{"decision", "risk", "step", "degraded"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "convoy_evaluation_latency_seconds",
		Help:    "Wall time of one evaluation per rung",
		Buckets: prometheus.DefBuckets,
	}, []string{"step"})
	depth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "convoy_queue_depth",
		Help: "Number of open convoy movement requests",
	})
	commander := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "convoy_commander_decisions_total",
		Help: "Total number of commander decisions recorded",
	}, []string{"outcome"})
	degraded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "convoy_degraded_evaluations_total",
		Help: "Evaluations served below the live rung",
	}, []string{"step"})

	if err := reg.Register(recs); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			recs = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(latency); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			latency = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(depth); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			depth = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(commander); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			commander = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(degraded); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			degraded = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		recommendations: recs,
		latency:         latency,
		queueDepth:      depth,
		commander:       commander,
		degraded:        degraded,
	}, nil
}

// RecordRecommendation increments the recommendation counter.
func (s *PromSink) RecordRecommendation(ev coremetrics.RecommendationEvent) error {
	s.recommendations.WithLabelValues(
		ev.Decision.String(),
		ev.RiskLevel.String(),
		ev.Step,
		strconv.FormatBool(ev.Degraded),
	).Inc()
	return nil
}

// RecordEvaluationLatency observes the ladder walk latency.
func (s *PromSink) RecordEvaluationLatency(lat coremetrics.EvaluationLatency) error {
	s.latency.WithLabelValues(lat.Step).Observe(lat.Latency.Seconds())
	return nil
}

// RecordQueueDepth sets the open-request gauge.
func (s *PromSink) RecordQueueDepth(depth int) error {
	s.queueDepth.Set(float64(depth))
	return nil
}

// RecordCommanderDecision increments the outcome counter.
func (s *PromSink) RecordCommanderDecision(ev coremetrics.CommanderEvent) error {
	s.commander.WithLabelValues(string(ev.Outcome)).Inc()
	return nil
}

// RecordDegradedEvaluation increments the degraded counter for the rung.
func (s *PromSink) RecordDegradedEvaluation(convoyID, step string) error {
	s.degraded.WithLabelValues(step).Inc()
	return nil
}

// StartPromServer exposes /metrics on the given port and blocks until the
// server fails.
func StartPromServer(port string, log logger.Logger) error {
	if log == nil {
		log = logger.NopLogger{}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Infof("prometheus metrics listening on :%s", port)
	return srv.ListenAndServe()
}
