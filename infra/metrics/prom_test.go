package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/milops/convoyd/core/metrics"
	"github.com/milops/convoyd/core/model"
)

func TestPromSink_RecordRecommendation(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	ev := coremetrics.RecommendationEvent{
		RecommendationID: "rec-1",
		ConvoyID:         "c1",
		Decision:         model.DecisionHold,
		RiskLevel:        model.RiskHigh,
		Ensemble:         0.8,
		Step:             "live",
		Time:             time.Now(),
	}
	if err := sink.RecordRecommendation(ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	got := testutil.ToFloat64(sink.recommendations.WithLabelValues("HOLD", "HIGH", "live", "false"))
	if got != 1 {
		t.Fatalf("counter = %v, want 1", got)
	}
}

func TestPromSink_QueueDepthAndCommander(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if err := sink.RecordQueueDepth(4); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(sink.queueDepth); got != 4 {
		t.Fatalf("gauge = %v, want 4", got)
	}
	if err := sink.RecordCommanderDecision(coremetrics.CommanderEvent{Outcome: model.OutcomeApproved}); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(sink.commander.WithLabelValues("APPROVED")); got != 1 {
		t.Fatalf("commander counter = %v, want 1", got)
	}
}

func TestPromSink_DoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg); err != nil {
		t.Fatalf("second registration should reuse collectors: %v", err)
	}
}
