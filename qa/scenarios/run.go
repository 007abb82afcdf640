package scenarios

import (
	"context"
	"testing"

	"github.com/milops/convoyd/core/engine"
	"github.com/milops/convoyd/core/fusion"
	"github.com/milops/convoyd/core/intel"
	"github.com/milops/convoyd/core/model"
)

type mapRoutes map[string]model.Route

func (m mapRoutes) Route(_ context.Context, id string) (model.Route, error) {
	r, ok := m[id]
	if !ok {
		return model.Route{}, intel.ErrUnavailable
	}
	return r, nil
}

type mapCheckpoints map[string]model.Checkpoint

func (m mapCheckpoints) Checkpoint(_ context.Context, id string) (model.Checkpoint, error) {
	c, ok := m[id]
	if !ok {
		return model.Checkpoint{}, intel.ErrUnavailable
	}
	return c, nil
}

// RunScenario replays a scenario against a freshly built engine and checks
// every expectation. Rate limiting is disabled so convoys can be evaluated
// back to back.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()

	sources := intel.Sources{}
	if len(sc.Routes) > 0 {
		routes := mapRoutes{}
		for _, def := range sc.Routes {
			routes[def.ID] = def.ToModel()
		}
		sources.Routes = routes
	}
	if len(sc.Checkpoints) > 0 {
		cps := mapCheckpoints{}
		for _, def := range sc.Checkpoints {
			cps[def.ID] = def.ToModel()
		}
		sources.Checkpoints = cps
	}

	cfg := engine.Config{Fusion: fusion.Config{MinIntervalSeconds: -1}}
	eng, err := engine.New(cfg, engine.Deps{Sources: sources})
	if err != nil {
		t.Fatalf("scenario %s: build engine: %v", sc.Name, err)
	}
	defer eng.Close()

	ctx := context.Background()
	for _, def := range sc.Convoys {
		if err := eng.EnqueueConvoy(def.ToModel()); err != nil {
			t.Fatalf("scenario %s: enqueue %s: %v", sc.Name, def.ID, err)
		}
	}

	for _, def := range sc.Convoys {
		want, ok := sc.Expected[def.ID]
		if !ok {
			continue
		}
		rec, err := eng.Evaluate(ctx, def.ID)
		if err != nil {
			t.Errorf("scenario %s: evaluate %s: %v", sc.Name, def.ID, err)
			continue
		}
		if got := rec.Decision.String(); got != want.Decision {
			t.Errorf("scenario %s: convoy %s decision = %s, want %s", sc.Name, def.ID, got, want.Decision)
		}
		if rec.EscortRequired != want.Escort {
			t.Errorf("scenario %s: convoy %s escort = %v, want %v", sc.Name, def.ID, rec.EscortRequired, want.Escort)
		}
		if want.Step != "" && rec.Source != want.Step {
			t.Errorf("scenario %s: convoy %s answered by %q, want %q", sc.Name, def.ID, rec.Source, want.Step)
		}
		if rec.Degraded != want.Degraded {
			t.Errorf("scenario %s: convoy %s degraded = %v, want %v", sc.Name, def.ID, rec.Degraded, want.Degraded)
		}
	}
}
