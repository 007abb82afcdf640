// Package metrics defines the observability contracts the engine records
// through. Implementations live in infra/metrics.
package metrics

import (
	"time"

	"github.com/milops/convoyd/core/model"
)

// RecommendationEvent captures one issued recommendation.
type RecommendationEvent struct {
	RecommendationID string
	ConvoyID         string
	Decision         model.Decision
	RiskLevel        model.RiskLevel
	Ensemble         float64
	Degraded         bool
	Step             string
	Time             time.Time
}

// Sink records issued recommendations.
type Sink interface {
	RecordRecommendation(ev RecommendationEvent) error
}

// EvaluationLatency is the wall time of one evaluation ladder walk.
type EvaluationLatency struct {
	ConvoyID string
	Step     string
	Latency  time.Duration
}

// LatencyRecorder is implemented by sinks able to record evaluation
// latency.
type LatencyRecorder interface {
	RecordEvaluationLatency(lat EvaluationLatency) error
}

// QueueDepthRecorder records the number of open requests after a mutation.
type QueueDepthRecorder interface {
	RecordQueueDepth(depth int) error
}

// CommanderEvent captures one recorded commander decision.
type CommanderEvent struct {
	RecommendationID string
	ConvoyID         string
	Outcome          model.DecisionOutcome
	Time             time.Time
}

// CommanderRecorder records commander decisions.
type CommanderRecorder interface {
	RecordCommanderDecision(ev CommanderEvent) error
}

// DegradeRecorder records evaluations that fell past the live rung.
type DegradeRecorder interface {
	RecordDegradedEvaluation(convoyID, step string) error
}

// Config selects which sinks the service wires.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordRecommendation(RecommendationEvent) error { return nil }

func (NopSink) RecordEvaluationLatency(EvaluationLatency) error { return nil }
func (NopSink) RecordQueueDepth(int) error                      { return nil }
func (NopSink) RecordCommanderDecision(CommanderEvent) error    { return nil }
func (NopSink) RecordDegradedEvaluation(string, string) error   { return nil }
