package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/milops/convoyd/core/fusion"
	"github.com/milops/convoyd/core/intel"
	"github.com/milops/convoyd/core/lifecycle"
	"github.com/milops/convoyd/core/metrics"
	"github.com/milops/convoyd/core/model"
	"github.com/milops/convoyd/core/queue"
)

type stubRoutes struct {
	route model.Route
	err   error
}

func (s stubRoutes) Route(ctx context.Context, id string) (model.Route, error) {
	if s.err != nil {
		return model.Route{}, s.err
	}
	return s.route, nil
}

type recordingSink struct {
	mu     sync.Mutex
	recs   []metrics.RecommendationEvent
	cmds   []metrics.CommanderEvent
	depths []int
}

func (s *recordingSink) RecordRecommendation(ev metrics.RecommendationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, ev)
	return nil
}

func (s *recordingSink) RecordCommanderDecision(ev metrics.CommanderEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cmds = append(s.cmds, ev)
	return nil
}

func (s *recordingSink) RecordQueueDepth(depth int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.depths = append(s.depths, depth)
	return nil
}

func testRoute() model.Route {
	return model.Route{
		ID:         "msr-jade",
		Name:       "MSR JADE",
		DistanceKm: 120,
		Terrain:    model.TerrainPlains,
		Threat:     model.ThreatYellow,
		Weather:    model.WeatherClear,
	}
}

func testRequest(convoyID string) model.ConvoyRequest {
	return model.ConvoyRequest{
		ConvoyID:  convoyID,
		Name:      "WATER RESUPPLY 12",
		Cargo:     model.CargoWater,
		Priority:  model.PriorityRoutine,
		Vehicles:  8,
		Personnel: 16,
		FuelPct:   90,
		HealthPct: 100,
		Crew:      model.CrewRested,
		RouteID:   "msr-jade",
	}
}

func newTestEngine(t *testing.T, sources intel.Sources, sink metrics.Sink) *Engine {
	t.Helper()
	// A negative interval disables per-convoy rate limiting in tests.
	cfg := Config{Fusion: fusion.Config{MinIntervalSeconds: -1}}
	eng, err := New(cfg, Deps{Sources: sources, Sink: sink})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return eng
}

func TestEngine_EvaluateIssuesRecommendation(t *testing.T) {
	sink := &recordingSink{}
	eng := newTestEngine(t, intel.Sources{Routes: stubRoutes{route: testRoute()}}, sink)

	if err := eng.EnqueueRequest(testRequest("c1")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	rec, err := eng.Evaluate(context.Background(), "c1")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if rec.ID == "" || rec.ExpiresAt.IsZero() {
		t.Fatal("recommendation missing identity or expiry")
	}
	if rec.Decision != model.DecisionReleaseWindow {
		t.Fatalf("routine convoy on moderate route: got %s", rec.Decision)
	}
	if rec.Degraded || rec.Source != "live" {
		t.Fatalf("expected live evaluation, got source %q degraded %v", rec.Source, rec.Degraded)
	}
	if len(rec.Findings) == 0 || rec.EnsembleConfidence <= 0 {
		t.Fatal("fusion findings missing from recommendation")
	}

	active, ok := eng.Active("c1")
	if !ok || active.ID != rec.ID {
		t.Fatal("issued recommendation should be active")
	}
	if len(sink.recs) != 1 || sink.recs[0].Step != "live" {
		t.Fatalf("sink events: %+v", sink.recs)
	}
}

func TestEngine_EvaluateUnknownConvoy(t *testing.T) {
	eng := newTestEngine(t, intel.Sources{}, nil)
	if _, err := eng.Evaluate(context.Background(), "ghost"); !errors.Is(err, queue.ErrNotQueued) {
		t.Fatalf("expected ErrNotQueued, got %v", err)
	}
}

func TestEngine_DegradesWhenRouteSourceDown(t *testing.T) {
	eng := newTestEngine(t, intel.Sources{Routes: stubRoutes{err: intel.ErrUnavailable}}, nil)

	if err := eng.EnqueueRequest(testRequest("c1")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	rec, err := eng.Evaluate(context.Background(), "c1")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !rec.Degraded || rec.Source != "static" {
		t.Fatalf("expected static fallback, got source %q degraded %v", rec.Source, rec.Degraded)
	}
}

func TestEngine_CachedFallbackAfterLiveSuccess(t *testing.T) {
	src := &flakyRoutes{route: testRoute()}
	eng := newTestEngine(t, intel.Sources{Routes: src}, nil)

	if err := eng.EnqueueRequest(testRequest("c1")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := eng.Evaluate(context.Background(), "c1"); err != nil {
		t.Fatalf("first evaluate: %v", err)
	}

	src.down = true
	rec, err := eng.Evaluate(context.Background(), "c1")
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	if rec.Source != "cached" || !rec.Degraded {
		t.Fatalf("expected cached rung, got source %q degraded %v", rec.Source, rec.Degraded)
	}
}

type flakyRoutes struct {
	mu    sync.Mutex
	route model.Route
	down  bool
}

func (s *flakyRoutes) Route(ctx context.Context, id string) (model.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return model.Route{}, intel.ErrUnavailable
	}
	return s.route, nil
}

func TestEngine_ReissueSupersedes(t *testing.T) {
	eng := newTestEngine(t, intel.Sources{Routes: stubRoutes{route: testRoute()}}, nil)

	if err := eng.EnqueueRequest(testRequest("c1")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	first, err := eng.Evaluate(context.Background(), "c1")
	if err != nil {
		t.Fatalf("first evaluate: %v", err)
	}
	second, err := eng.Evaluate(context.Background(), "c1")
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("reissue must mint a new identity")
	}
	if _, err := eng.SubmitDecision(model.CommanderDecision{
		RecommendationID: first.ID,
		Outcome:          model.OutcomeApproved,
	}); !errors.Is(err, lifecycle.ErrSuperseded) {
		t.Fatalf("deciding a superseded recommendation: %v", err)
	}
}

func TestEngine_SubmitDecisionDequeues(t *testing.T) {
	sink := &recordingSink{}
	eng := newTestEngine(t, intel.Sources{Routes: stubRoutes{route: testRoute()}}, sink)

	if err := eng.EnqueueRequest(testRequest("c1")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	rec, err := eng.Evaluate(context.Background(), "c1")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if _, err := eng.SubmitDecision(model.CommanderDecision{
		RecommendationID: rec.ID,
		Outcome:          model.OutcomeApproved,
	}); err != nil {
		t.Fatalf("submit decision: %v", err)
	}
	if _, err := eng.Request("c1"); !errors.Is(err, queue.ErrNotQueued) {
		t.Fatal("request should leave the queue after a decision")
	}
	if _, err := eng.SubmitDecision(model.CommanderDecision{
		RecommendationID: rec.ID,
		Outcome:          model.OutcomeRejected,
	}); !errors.Is(err, lifecycle.ErrDecisionConflict) {
		t.Fatalf("second decision must conflict, got %v", err)
	}
	if len(sink.cmds) != 1 || sink.cmds[0].Outcome != model.OutcomeApproved {
		t.Fatalf("commander sink events: %+v", sink.cmds)
	}
}

func TestEngine_RateLimitedReturnsActive(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()
	cfg.Fusion.MinIntervalSeconds = 3600
	eng, err := New(cfg, Deps{Sources: intel.Sources{Routes: stubRoutes{route: testRoute()}}})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	if err := eng.EnqueueRequest(testRequest("c1")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	first, err := eng.Evaluate(context.Background(), "c1")
	if err != nil {
		t.Fatalf("first evaluate: %v", err)
	}
	again, err := eng.Evaluate(context.Background(), "c1")
	if err != nil {
		t.Fatalf("rate-limited evaluate with active recommendation: %v", err)
	}
	if again.ID != first.ID {
		t.Fatal("rate-limited call must serve the active recommendation, not rerun")
	}

	// Deselect clears the interval so a fresh run is allowed.
	eng.Deselect("c1")
	fresh, err := eng.Evaluate(context.Background(), "c1")
	if err != nil {
		t.Fatalf("evaluate after deselect: %v", err)
	}
	if fresh.ID == first.ID {
		t.Fatal("deselect should allow a fresh evaluation")
	}
}

func TestEngine_RateLimitedWithoutActive(t *testing.T) {
	cfg := Config{}
	cfg.Fusion.MinIntervalSeconds = 3600
	eng, err := New(cfg, Deps{Sources: intel.Sources{Routes: stubRoutes{route: testRoute()}}})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	if err := eng.EnqueueRequest(testRequest("c1")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	rec, err := eng.Evaluate(context.Background(), "c1")
	if err != nil {
		t.Fatalf("first evaluate: %v", err)
	}
	if _, err := eng.SubmitDecision(model.CommanderDecision{
		RecommendationID: rec.ID,
		Outcome:          model.OutcomeApproved,
	}); err != nil {
		t.Fatalf("submit decision: %v", err)
	}

	// Re-enqueued inside the interval with no active recommendation left.
	if err := eng.EnqueueRequest(testRequest("c1")); err != nil {
		t.Fatalf("re-enqueue: %v", err)
	}
	if _, err := eng.Evaluate(context.Background(), "c1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestEngine_FailedEvaluationDoesNotBurnInterval(t *testing.T) {
	cfg := Config{}
	cfg.Fusion.MinIntervalSeconds = 3600
	eng, err := New(cfg, Deps{Sources: intel.Sources{Routes: stubRoutes{route: testRoute()}}})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	if err := eng.EnqueueRequest(testRequest("c1")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := eng.Evaluate(cancelled, "c1"); err == nil {
		t.Fatal("evaluate with a cancelled context must fail")
	}

	// The failed run issued nothing; an immediate retry must run, not
	// hit ErrRateLimited.
	rec, err := eng.Evaluate(context.Background(), "c1")
	if err != nil {
		t.Fatalf("retry after failed evaluation: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("retry should issue a recommendation")
	}
}

func TestEngine_EnqueueConvoyDerivesRequest(t *testing.T) {
	eng := newTestEngine(t, intel.Sources{Routes: stubRoutes{route: testRoute()}}, nil)

	if err := eng.EnqueueConvoy(model.Convoy{
		ID:        "c-cas",
		Name:      "CASEVAC RAVEN",
		Vehicles:  3,
		Personnel: 9,
		Crew:      model.CrewAlert,
		RouteID:   "msr-jade",
	}); err != nil {
		t.Fatalf("enqueue convoy: %v", err)
	}
	req, err := eng.Request("c-cas")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if req.Cargo != model.CargoEvacuation || req.Priority != model.PriorityImmediate {
		t.Fatalf("derived %s/%s", req.Cargo, req.Priority)
	}
	rec, err := eng.Evaluate(context.Background(), "c-cas")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if rec.Decision != model.DecisionReleaseImmediate {
		t.Fatalf("immediate priority on moderate risk: got %s", rec.Decision)
	}
}

func TestEngine_PendingOrder(t *testing.T) {
	eng := newTestEngine(t, intel.Sources{}, nil)

	routine := testRequest("c-routine")
	flash := testRequest("c-flash")
	flash.Cargo = model.CargoEvacuation
	flash.Priority = model.PriorityFlash
	flash.MedicalFlag = true
	if err := eng.EnqueueRequest(routine); err != nil {
		t.Fatal(err)
	}
	if err := eng.EnqueueRequest(flash); err != nil {
		t.Fatal(err)
	}
	pending := eng.Pending()
	if len(pending) != 2 || pending[0].ConvoyID != "c-flash" {
		t.Fatalf("pending order: %+v", pending)
	}
}

func TestEngine_DuplicateEnqueueRejected(t *testing.T) {
	eng := newTestEngine(t, intel.Sources{}, nil)
	if err := eng.EnqueueRequest(testRequest("c1")); err != nil {
		t.Fatal(err)
	}
	if err := eng.EnqueueRequest(testRequest("c1")); !errors.Is(err, queue.ErrDuplicateRequest) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}
}
