package metrics

import (
	"context"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/milops/convoyd/core/metrics"
	"github.com/milops/convoyd/infra/logger"
)

// InfluxSink writes engine events to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClient(base, token)
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink when the health check fails, so a down Influx never blocks
// dispatch.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.Sink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordRecommendation writes the issued recommendation as a point.
func (s *InfluxSink) RecordRecommendation(ev coremetrics.RecommendationEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("recommendation_issued").
		AddTag("convoy_id", ev.ConvoyID).
		AddTag("decision", ev.Decision.String()).
		AddTag("risk", ev.RiskLevel.String()).
		AddTag("step", ev.Step).
		AddTag("degraded", strconv.FormatBool(ev.Degraded)).
		AddField("ensemble_confidence", ev.Ensemble).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordEvaluationLatency writes the ladder walk latency.
func (s *InfluxSink) RecordEvaluationLatency(lat coremetrics.EvaluationLatency) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("evaluation_latency").
		AddTag("convoy_id", lat.ConvoyID).
		AddTag("step", lat.Step).
		AddField("seconds", lat.Latency.Seconds()).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordQueueDepth writes the open-request count.
func (s *InfluxSink) RecordQueueDepth(depth int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("queue_depth").
		AddField("open_requests", depth).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordCommanderDecision writes a commander decision point.
func (s *InfluxSink) RecordCommanderDecision(ev coremetrics.CommanderEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("commander_decision").
		AddTag("convoy_id", ev.ConvoyID).
		AddTag("outcome", string(ev.Outcome)).
		AddField("recommendation_id", ev.RecommendationID).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordDegradedEvaluation writes a degraded-evaluation point.
func (s *InfluxSink) RecordDegradedEvaluation(convoyID, step string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("degraded_evaluation").
		AddTag("convoy_id", convoyID).
		AddTag("step", step).
		AddField("count", 1).
		SetTime(time.Now())
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }
