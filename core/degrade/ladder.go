// Package degrade implements the failure ladder: live multi-agent fusion,
// cached-snapshot evaluation, then a conservative static default. Every
// rung goes through the same risk scorer and decision resolver; only input
// completeness differs.
package degrade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/milops/convoyd/core/fusion"
	"github.com/milops/convoyd/core/intel"
	"github.com/milops/convoyd/core/logger"
	"github.com/milops/convoyd/core/model"
	"github.com/milops/convoyd/core/resolve"
	"github.com/milops/convoyd/core/risk"
)

// ErrExhausted is returned when every rung failed, which only happens on
// cancellation: the static rung cannot otherwise fail.
var ErrExhausted = errors.New("degrade: all evaluation strategies failed")

// Evaluator bundles the shared scoring components every rung uses.
type Evaluator struct {
	Scorer   *risk.Scorer
	Resolver *resolve.Resolver
	Fuser    *fusion.Fuser
}

// Strategy is one rung of the ladder. Evaluate returns a structurally
// complete recommendation body or an error to fall through to the next
// rung.
type Strategy interface {
	Name() string
	Evaluate(ctx context.Context, req model.ConvoyRequest, now time.Time) (model.Recommendation, error)
}

// Ladder tries strategies in order and returns the first success.
type Ladder struct {
	steps []Strategy
	log   logger.Logger
}

// NewLadder assembles the standard three-rung ladder.
func NewLadder(eval Evaluator, sources intel.Sources, cache *intel.Cache, log logger.Logger) *Ladder {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Ladder{
		steps: []Strategy{
			&LiveStrategy{Eval: eval, Sources: sources, Cache: cache},
			&CachedStrategy{Eval: eval, Cache: cache},
			&StaticStrategy{Eval: eval},
		},
		log: log,
	}
}

// Evaluate walks the ladder. The returned step name identifies the rung
// that produced the recommendation.
func (l *Ladder) Evaluate(ctx context.Context, req model.ConvoyRequest, now time.Time) (model.Recommendation, string, error) {
	for _, s := range l.steps {
		if err := ctx.Err(); err != nil {
			return model.Recommendation{}, "", err
		}
		rec, err := s.Evaluate(ctx, req, now)
		if err != nil {
			l.log.Warnf("strategy %s failed for convoy %s: %v", s.Name(), req.ConvoyID, err)
			continue
		}
		return rec, s.Name(), nil
	}
	return model.Recommendation{}, "", ErrExhausted
}

// LiveStrategy evaluates with live upstream context and full fusion. The
// route source is required; checkpoint, threat and weather detail are
// optional and degrade per-agent.
type LiveStrategy struct {
	Eval    Evaluator
	Sources intel.Sources
	Cache   *intel.Cache
}

func (s *LiveStrategy) Name() string { return "live" }

func (s *LiveStrategy) Evaluate(ctx context.Context, req model.ConvoyRequest, now time.Time) (model.Recommendation, error) {
	if s.Sources.Routes == nil {
		return model.Recommendation{}, fmt.Errorf("%w: no route source", intel.ErrUnavailable)
	}
	route, err := s.Sources.Routes.Route(ctx, req.RouteID)
	if err != nil {
		return model.Recommendation{}, fmt.Errorf("route %s: %w", req.RouteID, err)
	}
	if s.Cache != nil {
		s.Cache.PutRoute(route)
	}

	var cp *model.Checkpoint
	if s.Sources.Checkpoints != nil && req.CheckpointID != "" {
		if c, err := s.Sources.Checkpoints.Checkpoint(ctx, req.CheckpointID); err == nil {
			cp = &c
			if s.Cache != nil {
				s.Cache.PutCheckpoint(c)
			}
		}
	}
	var indicators []string
	if s.Sources.Threat != nil {
		indicators, _ = s.Sources.Threat.Indicators(ctx, req.RouteID)
	}
	var advisory string
	if s.Sources.Weather != nil {
		advisory, _ = s.Sources.Weather.Advisory(ctx, req.RouteID)
	}

	crew := req.Crew
	breakdown := s.Eval.Scorer.Score(risk.IndicatorsFrom(&route, cp, &crew))
	journey := s.Eval.Resolver.Journey(&route, 0)

	res := s.Eval.Fuser.Fuse(fusion.Context{
		Request:          req,
		Route:            &route,
		Checkpoint:       cp,
		Risk:             breakdown,
		Journey:          journey,
		ThreatIndicators: indicators,
		WeatherAdvisory:  advisory,
		Authoritative:    true,
		Now:              now,
	})

	// A cancellation racing the fusion run must not commit its result.
	if err := ctx.Err(); err != nil {
		return model.Recommendation{}, err
	}

	rec := s.Eval.Resolver.Resolve(resolve.Input{
		Request:    req,
		Route:      &route,
		Checkpoint: cp,
		Risk:       breakdown,
		Now:        now,
	})
	rec.EnsembleConfidence = res.Ensemble
	rec.Findings = res.Findings
	rec.Source = s.Name()
	return rec, nil
}

// CachedStrategy evaluates from the most recent local snapshots when live
// sources are down. Fusion still runs; agents lacking data degrade
// individually.
type CachedStrategy struct {
	Eval  Evaluator
	Cache *intel.Cache
}

func (s *CachedStrategy) Name() string { return "cached" }

func (s *CachedStrategy) Evaluate(ctx context.Context, req model.ConvoyRequest, now time.Time) (model.Recommendation, error) {
	if s.Cache == nil {
		return model.Recommendation{}, fmt.Errorf("%w: no snapshot cache", intel.ErrUnavailable)
	}
	snap, ok := s.Cache.Snapshot(req.ConvoyID)
	if !ok {
		// Fall back to route/checkpoint records cached for other convoys.
		if r, found := s.Cache.Route(req.RouteID); found {
			snap.Route = &r
		}
		if cp, found := s.Cache.Checkpoint(req.CheckpointID); found {
			snap.Checkpoint = &cp
		}
		if snap.Route == nil {
			return model.Recommendation{}, fmt.Errorf("%w: no snapshot for convoy %s", intel.ErrUnavailable, req.ConvoyID)
		}
	}

	crew := req.Crew
	breakdown := s.Eval.Scorer.Score(risk.IndicatorsFrom(snap.Route, snap.Checkpoint, &crew))
	journey := s.Eval.Resolver.Journey(snap.Route, 0)

	res := s.Eval.Fuser.Fuse(fusion.Context{
		Request:    req,
		Route:      snap.Route,
		Checkpoint: snap.Checkpoint,
		Risk:       breakdown,
		Journey:    journey,
		Now:        now,
	})
	if err := ctx.Err(); err != nil {
		return model.Recommendation{}, err
	}

	rec := s.Eval.Resolver.Resolve(resolve.Input{
		Request:    req,
		Route:      snap.Route,
		Checkpoint: snap.Checkpoint,
		Risk:       breakdown,
		History:    fmt.Sprintf("evaluated from snapshot cached %s", snap.UpdatedAt.UTC().Format(time.RFC3339)),
		Now:        now,
	})
	rec.EnsembleConfidence = res.Ensemble
	rec.Findings = res.Findings
	rec.Degraded = true
	rec.Source = s.Name()
	return rec, nil
}

// StaticStrategy synthesizes a conservative default so the operator is
// never blocked. Indicators take their lowest-risk defaults except crew
// fatigue, which is locally known.
type StaticStrategy struct {
	Eval Evaluator
}

func (s *StaticStrategy) Name() string { return "static" }

// staticConfidence is the moderate ensemble reported when no agent ran.
const staticConfidence = 0.50

func (s *StaticStrategy) Evaluate(ctx context.Context, req model.ConvoyRequest, now time.Time) (model.Recommendation, error) {
	if err := ctx.Err(); err != nil {
		return model.Recommendation{}, err
	}
	crew := req.Crew
	breakdown := s.Eval.Scorer.Score(risk.IndicatorsFrom(nil, nil, &crew))

	rec := s.Eval.Resolver.Resolve(resolve.Input{
		Request: req,
		Risk:    breakdown,
		History: "upstream data unavailable; conservative default issued",
		Now:     now,
	})
	rec.EnsembleConfidence = staticConfidence
	rec.Degraded = true
	rec.Source = s.Name()
	return rec, nil
}
