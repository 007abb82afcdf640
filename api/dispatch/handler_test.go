package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/milops/convoyd/core/engine"
	"github.com/milops/convoyd/core/fusion"
	"github.com/milops/convoyd/core/intel"
	"github.com/milops/convoyd/core/model"
)

type stubRoutes struct{ route model.Route }

func (s stubRoutes) Route(ctx context.Context, id string) (model.Route, error) {
	return s.route, nil
}

func newAPIEngine(t *testing.T) *engine.Engine {
	t.Helper()
	cfg := engine.Config{Fusion: fusion.Config{MinIntervalSeconds: -1}}
	eng, err := engine.New(cfg, engine.Deps{Sources: intel.Sources{Routes: stubRoutes{route: model.Route{
		ID:         "msr-jade",
		DistanceKm: 80,
		Terrain:    model.TerrainPlains,
		Threat:     model.ThreatYellow,
		Weather:    model.WeatherClear,
	}}}})
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	if err := eng.EnqueueRequest(model.ConvoyRequest{
		ConvoyID:  "c1",
		Name:      "RATION RUN 7",
		Cargo:     model.CargoRations,
		Priority:  model.PriorityRoutine,
		Vehicles:  5,
		Personnel: 10,
		Crew:      model.CrewRested,
		RouteID:   "msr-jade",
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	return eng
}

func TestQueueHandler(t *testing.T) {
	eng := newAPIEngine(t)
	h := NewQueueHandler(eng)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dispatch/queue", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var reqs []model.ConvoyRequest
	if err := json.Unmarshal(rr.Body.Bytes(), &reqs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(reqs) != 1 || reqs[0].ConvoyID != "c1" {
		t.Fatalf("queue body: %+v", reqs)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/dispatch/queue", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("post status = %d", rr.Code)
	}
}

func TestEvaluateAndDecisionHandlers(t *testing.T) {
	eng := newAPIEngine(t)
	eval := NewEvaluateHandler(eng)
	decide := NewDecisionHandler(eng)

	rr := httptest.NewRecorder()
	eval.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/dispatch/evaluate?convoy_id=c1", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("evaluate status = %d: %s", rr.Code, rr.Body.String())
	}
	var rec model.Recommendation
	if err := json.Unmarshal(rr.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("missing recommendation id")
	}

	body, _ := json.Marshal(model.CommanderDecision{
		RecommendationID: rec.ID,
		Outcome:          model.OutcomeApproved,
	})
	rr = httptest.NewRecorder()
	decide.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/dispatch/decision", bytes.NewReader(body)))
	if rr.Code != http.StatusOK {
		t.Fatalf("decision status = %d: %s", rr.Code, rr.Body.String())
	}

	// Second decision for the same recommendation conflicts.
	rr = httptest.NewRecorder()
	decide.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/dispatch/decision", bytes.NewReader(body)))
	if rr.Code != http.StatusConflict {
		t.Fatalf("conflict status = %d", rr.Code)
	}
}

func TestEvaluateHandlerErrors(t *testing.T) {
	eng := newAPIEngine(t)
	eval := NewEvaluateHandler(eng)

	rr := httptest.NewRecorder()
	eval.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/dispatch/evaluate", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing convoy_id status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	eval.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/dispatch/evaluate?convoy_id=ghost", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown convoy status = %d", rr.Code)
	}
}

func TestRecommendationHandler(t *testing.T) {
	eng := newAPIEngine(t)
	rec, err := eng.Evaluate(context.Background(), "c1")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	h := NewRecommendationHandler(eng)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dispatch/recommendation?convoy_id=c1", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("active status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dispatch/recommendation?id="+rec.ID, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("by-id status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/dispatch/recommendation?convoy_id=ghost", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown convoy status = %d", rr.Code)
	}
}

func TestDecisionHandlerBadBody(t *testing.T) {
	eng := newAPIEngine(t)
	decide := NewDecisionHandler(eng)

	rr := httptest.NewRecorder()
	decide.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/dispatch/decision", bytes.NewReader([]byte("{"))))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad body status = %d", rr.Code)
	}

	body, _ := json.Marshal(model.CommanderDecision{RecommendationID: "nope", Outcome: model.OutcomeApproved})
	rr = httptest.NewRecorder()
	decide.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/dispatch/decision", bytes.NewReader(body)))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown recommendation status = %d", rr.Code)
	}
}
