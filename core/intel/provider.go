// Package intel defines the read-only upstream data contracts the engine
// consumes (convoy, route, checkpoint, threat, weather sources) and a
// snapshot cache used when sources degrade.
package intel

import (
	"context"
	"errors"

	"github.com/milops/convoyd/core/model"
)

// ErrUnavailable signals an upstream source that cannot be reached. The
// degradation ladder recovers it; it is never fatal.
var ErrUnavailable = errors.New("intel: upstream source unavailable")

// ConvoySource supplies convoy records.
type ConvoySource interface {
	Convoy(ctx context.Context, id string) (model.Convoy, error)
	Convoys(ctx context.Context) ([]model.Convoy, error)
}

// RouteSource supplies route records.
type RouteSource interface {
	Route(ctx context.Context, id string) (model.Route, error)
}

// CheckpointSource supplies checkpoint (TCP) records.
type CheckpointSource interface {
	Checkpoint(ctx context.Context, id string) (model.Checkpoint, error)
}

// ThreatSource supplies threat indicator detail beyond the route band.
type ThreatSource interface {
	Indicators(ctx context.Context, routeID string) ([]string, error)
}

// WeatherSource supplies weather advisories beyond the route condition.
type WeatherSource interface {
	Advisory(ctx context.Context, routeID string) (string, error)
}

// Sources bundles the upstream collaborators. Any field may be nil; the
// engine treats a nil source like an unreachable one.
type Sources struct {
	Convoys     ConvoySource
	Routes      RouteSource
	Checkpoints CheckpointSource
	Threat      ThreatSource
	Weather     WeatherSource
}
