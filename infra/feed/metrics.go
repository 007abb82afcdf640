package feed

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	messagesIngested *prometheus.CounterVec
	ingestFailures   *prometheus.CounterVec
	publishSuccess   prometheus.Counter
	publishFailure   prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, prometheus.Counter, prometheus.Counter) {
	ingested := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_messages_ingested_total",
			Help: "Number of intel records ingested from the broker",
		},
		[]string{"record"},
	)
	failures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_ingest_failures_total",
			Help: "Number of intel records rejected during ingest",
		},
		[]string{"record"},
	)
	suc := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_publish_success_total",
			Help: "Number of successful recommendation publishes",
		},
	)
	fail := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_publish_failure_total",
			Help: "Number of failed recommendation publishes",
		},
	)
	return ingested, failures, suc, fail
}

func init() {
	messagesIngested, ingestFailures, publishSuccess, publishFailure = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers feed metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(messagesIngested, ingestFailures, publishSuccess, publishFailure)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	messagesIngested, ingestFailures, publishSuccess, publishFailure = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
