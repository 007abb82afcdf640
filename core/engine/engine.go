// Package engine orchestrates the dispatch pipeline: queued movement
// requests flow through the degradation ladder into issued
// recommendations, and commander decisions close them out.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/milops/convoyd/core/audit"
	"github.com/milops/convoyd/core/degrade"
	"github.com/milops/convoyd/core/events"
	"github.com/milops/convoyd/core/fusion"
	"github.com/milops/convoyd/core/intel"
	"github.com/milops/convoyd/core/lifecycle"
	"github.com/milops/convoyd/core/logger"
	"github.com/milops/convoyd/core/metrics"
	"github.com/milops/convoyd/core/model"
	"github.com/milops/convoyd/core/queue"
	"github.com/milops/convoyd/core/resolve"
	"github.com/milops/convoyd/core/risk"
	"github.com/milops/convoyd/internal/eventbus"
)

var (
	// ErrEvaluationInFlight is returned when an evaluation is already
	// running for the convoy. The caller should retry after it settles.
	ErrEvaluationInFlight = errors.New("engine: evaluation already in flight")
	// ErrRateLimited is returned when the per-convoy analysis interval has
	// not elapsed and no active recommendation exists to serve instead.
	ErrRateLimited = errors.New("engine: evaluation rate limited")
)

// timeNow is overridable in tests.
var timeNow = time.Now

// Config gathers the tunables of the whole decision pipeline.
type Config struct {
	Weights       risk.Weights    `json:"weights"`
	Thresholds    risk.Thresholds `json:"thresholds"`
	Resolve       resolve.Config  `json:"resolve"`
	Fusion        fusion.Config   `json:"fusion"`
	ExpiryMinutes int             `json:"expiry_minutes"`
}

// SetDefaults applies the reference constants for every section.
func (c *Config) SetDefaults() {
	if c.Weights.Sum() <= 0 {
		c.Weights = risk.DefaultWeights()
	}
	if c.Thresholds == (risk.Thresholds{}) {
		c.Thresholds = risk.DefaultThresholds()
	}
	c.Resolve.SetDefaults()
	c.Fusion.SetDefaults()
	if c.ExpiryMinutes == 0 {
		c.ExpiryMinutes = int(lifecycle.DefaultExpiry / time.Minute)
	}
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.ExpiryMinutes < 0 {
		return fmt.Errorf("engine: expiry_minutes must not be negative, got %d", c.ExpiryMinutes)
	}
	return nil
}

// Deps are the external collaborators injected into the engine. Nil
// fields fall back to no-op implementations.
type Deps struct {
	Sources intel.Sources
	Bus     eventbus.EventBus
	Sink    metrics.Sink
	Audit   audit.Store
	Log     logger.Logger
}

// Engine ties the queue, the evaluation ladder and the recommendation
// lifecycle together behind one concurrency-safe facade.
type Engine struct {
	queue   *queue.Manager
	ladder  *degrade.Ladder
	life    *lifecycle.Manager
	guard   *fusion.InflightGuard
	limiter *fusion.RateLimiter
	cache   *intel.Cache
	bus     eventbus.EventBus
	sink    metrics.Sink
	audit   audit.Store
	log     logger.Logger
}

// New assembles an engine from configuration and dependencies.
func New(cfg Config, deps Deps) (*Engine, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := deps.Log
	if log == nil {
		log = logger.NopLogger{}
	}
	sink := deps.Sink
	if sink == nil {
		sink = metrics.NopSink{}
	}
	store := deps.Audit
	if store == nil {
		store = audit.NopStore{}
	}

	cache := intel.NewCache()
	eval := degrade.Evaluator{
		Scorer:   risk.NewScorer(cfg.Weights, cfg.Thresholds),
		Resolver: resolve.New(cfg.Resolve),
		Fuser:    fusion.NewFuser(cfg.Fusion, log),
	}
	return &Engine{
		queue:   queue.NewManager(log),
		ladder:  degrade.NewLadder(eval, deps.Sources, cache, log),
		life:    lifecycle.NewManager(time.Duration(cfg.ExpiryMinutes)*time.Minute, log),
		guard:   fusion.NewInflightGuard(),
		limiter: fusion.NewRateLimiter(time.Duration(cfg.Fusion.MinIntervalSeconds) * time.Second),
		cache:   cache,
		bus:     deps.Bus,
		sink:    sink,
		audit:   store,
		log:     log,
	}, nil
}

// Cache exposes the intel snapshot cache for feed ingestion.
func (e *Engine) Cache() *intel.Cache { return e.cache }

// EnqueueConvoy derives a movement request from upstream convoy data and
// queues it. The convoy record is cached for degraded evaluation.
func (e *Engine) EnqueueConvoy(c model.Convoy) error {
	e.cache.PutConvoy(c)
	return e.EnqueueRequest(queue.FromConvoy(c, timeNow()))
}

// EnqueueRequest validates and queues a movement request.
func (e *Engine) EnqueueRequest(req model.ConvoyRequest) error {
	if err := e.queue.Enqueue(req); err != nil {
		return err
	}
	e.publish(events.RequestEvent{Request: req, Time: timeNow()})
	e.recordQueueDepth()
	return nil
}

// Pending returns the open requests in dispatch order.
func (e *Engine) Pending() []model.ConvoyRequest {
	return e.queue.Pending(timeNow())
}

// Request returns the open request for a convoy.
func (e *Engine) Request(convoyID string) (model.ConvoyRequest, error) {
	return e.queue.Get(convoyID)
}

// Evaluate runs the full pipeline for one queued convoy and issues a
// recommendation. A concurrent evaluation for the same convoy is skipped
// with ErrEvaluationInFlight. A call inside the per-convoy analysis
// interval returns the still-active recommendation when one exists and
// ErrRateLimited otherwise; it never reruns the agents.
func (e *Engine) Evaluate(ctx context.Context, convoyID string) (model.Recommendation, error) {
	req, err := e.queue.Get(convoyID)
	if err != nil {
		return model.Recommendation{}, err
	}
	now := timeNow()

	if !e.limiter.Allow(convoyID, now) {
		if rec, ok := e.life.Active(convoyID); ok {
			return rec, nil
		}
		e.publish(events.SkipEvent{ConvoyID: convoyID, Reason: "rate_limited", Time: now})
		return model.Recommendation{}, fmt.Errorf("%w: %s", ErrRateLimited, convoyID)
	}
	if !e.guard.Begin(convoyID) {
		e.publish(events.SkipEvent{ConvoyID: convoyID, Reason: "in_flight", Time: now})
		return model.Recommendation{}, fmt.Errorf("%w: %s", ErrEvaluationInFlight, convoyID)
	}
	defer e.guard.End(convoyID)

	start := time.Now()
	rec, step, err := e.ladder.Evaluate(ctx, req, now)
	if err != nil {
		// A failed run must not burn the analysis interval: release the
		// slot so the next call can retry immediately.
		e.limiter.Reset(convoyID)
		e.log.Errorf("evaluation failed for convoy %s: %v", convoyID, err)
		return model.Recommendation{}, err
	}
	rec = e.life.Issue(rec)
	elapsed := time.Since(start)

	e.log.Infof("recommendation %s issued for convoy %s: %s (%s, risk %s)",
		rec.ID, convoyID, rec.Decision, step, rec.Risk.Level)
	e.publish(events.RecommendationEvent{Recommendation: rec, Step: step, Time: now})
	if rec.Degraded {
		e.publish(events.DegradeEvent{ConvoyID: convoyID, Step: step, Reason: "live evaluation unavailable", Time: now})
	}
	e.observe(rec, step, elapsed)
	e.auditAppend(audit.Record{
		Timestamp:      now,
		Kind:           audit.KindRecommendation,
		ConvoyID:       convoyID,
		Step:           step,
		Recommendation: &rec,
	})
	return rec, nil
}

// Active returns the convoy's current undecided, unexpired recommendation.
func (e *Engine) Active(convoyID string) (model.Recommendation, bool) {
	return e.life.Active(convoyID)
}

// Recommendation returns a recommendation by id.
func (e *Engine) Recommendation(id string) (model.Recommendation, error) {
	return e.life.Get(id)
}

// SubmitDecision records a commander decision and closes out the convoy's
// open request. The first decision for a recommendation wins; conflicts,
// superseded and expired recommendations are rejected by the lifecycle.
func (e *Engine) SubmitDecision(dec model.CommanderDecision) (model.Recommendation, error) {
	rec, err := e.life.Decide(dec)
	if err != nil {
		return model.Recommendation{}, err
	}
	if _, rmErr := e.queue.Remove(rec.ConvoyID); rmErr != nil && !errors.Is(rmErr, queue.ErrNotQueued) {
		e.log.Warnf("dequeue after decision for convoy %s: %v", rec.ConvoyID, rmErr)
	}
	now := timeNow()
	dec.ConvoyID = rec.ConvoyID
	e.publish(events.CommanderEvent{Decision: dec, Time: now})
	e.recordQueueDepth()
	commanderDecisions.WithLabelValues(string(dec.Outcome)).Inc()
	if cr, ok := e.sink.(metrics.CommanderRecorder); ok {
		if err := cr.RecordCommanderDecision(metrics.CommanderEvent{
			RecommendationID: dec.RecommendationID,
			ConvoyID:         rec.ConvoyID,
			Outcome:          dec.Outcome,
			Time:             now,
		}); err != nil {
			e.log.Warnf("commander metric: %v", err)
		}
	}
	e.auditAppend(audit.Record{
		Timestamp: now,
		Kind:      audit.KindCommander,
		ConvoyID:  rec.ConvoyID,
		Decision:  &dec,
	})
	return rec, nil
}

// Deselect clears the analysis rate-limit record for a convoy, e.g. when
// the operator moves focus elsewhere.
func (e *Engine) Deselect(convoyID string) {
	e.limiter.Reset(convoyID)
}

// Close releases the bus and the audit store.
func (e *Engine) Close() error {
	if e.bus != nil {
		e.bus.Close()
	}
	return e.audit.Close()
}

func (e *Engine) publish(ev eventbus.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}

func (e *Engine) observe(rec model.Recommendation, step string, elapsed time.Duration) {
	evaluationLatency.WithLabelValues(step).Observe(elapsed.Seconds())
	recommendationsIssued.WithLabelValues(rec.Decision.String(), step).Inc()
	if rec.Degraded {
		degradedEvaluations.WithLabelValues(step).Inc()
	}

	if err := e.sink.RecordRecommendation(metrics.RecommendationEvent{
		RecommendationID: rec.ID,
		ConvoyID:         rec.ConvoyID,
		Decision:         rec.Decision,
		RiskLevel:        rec.Risk.Level,
		Ensemble:         rec.EnsembleConfidence,
		Degraded:         rec.Degraded,
		Step:             step,
		Time:             rec.GeneratedAt,
	}); err != nil {
		e.log.Warnf("recommendation metric: %v", err)
	}
	if lr, ok := e.sink.(metrics.LatencyRecorder); ok {
		if err := lr.RecordEvaluationLatency(metrics.EvaluationLatency{
			ConvoyID: rec.ConvoyID,
			Step:     step,
			Latency:  elapsed,
		}); err != nil {
			e.log.Warnf("latency metric: %v", err)
		}
	}
	if rec.Degraded {
		if dr, ok := e.sink.(metrics.DegradeRecorder); ok {
			if err := dr.RecordDegradedEvaluation(rec.ConvoyID, step); err != nil {
				e.log.Warnf("degrade metric: %v", err)
			}
		}
	}
}

func (e *Engine) recordQueueDepth() {
	depth := e.queue.Len()
	queueDepth.Set(float64(depth))
	if qr, ok := e.sink.(metrics.QueueDepthRecorder); ok {
		if err := qr.RecordQueueDepth(depth); err != nil {
			e.log.Warnf("queue depth metric: %v", err)
		}
	}
}

// auditAppend persists a decision-log record without blocking the caller.
func (e *Engine) auditAppend(rec audit.Record) {
	go func() {
		if err := e.audit.Append(context.Background(), rec); err != nil {
			e.log.Errorf("audit append for convoy %s: %v", rec.ConvoyID, err)
		}
	}()
}
