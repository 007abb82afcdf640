package resolve

import (
	"math"
	"time"

	"github.com/milops/convoyd/core/model"
)

// JourneyEstimate breaks the end-to-end movement time into its parts.
type JourneyEstimate struct {
	DistanceKm  float64
	SpeedKmh    float64
	Drive       time.Duration
	Halts       int
	HaltTime    time.Duration
	Checkpoints int
	Crossing    time.Duration
	Total       time.Duration
}

// Journey computes the movement time for a route: raw driving time, one
// mandatory halt per full halt interval of driving, and one crossing
// allowance per started checkpoint spacing of distance. A nil route or
// non-positive distance yields a zero estimate.
func (r *Resolver) Journey(route *model.Route, speedKmh float64) JourneyEstimate {
	if route == nil || route.DistanceKm <= 0 {
		return JourneyEstimate{SpeedKmh: speedKmh}
	}
	if speedKmh <= 0 {
		speedKmh = r.cfg.DefaultSpeedKmh
	}

	est := JourneyEstimate{DistanceKm: route.DistanceKm, SpeedKmh: speedKmh}
	driveHours := route.DistanceKm / speedKmh
	est.Drive = time.Duration(driveHours * float64(time.Hour))

	est.Halts = int(math.Floor(driveHours / r.cfg.HaltEveryHours))
	est.HaltTime = time.Duration(est.Halts*r.cfg.HaltMinutes) * time.Minute

	est.Checkpoints = int(math.Ceil(route.DistanceKm / r.cfg.CheckpointEveryKm))
	est.Crossing = time.Duration(est.Checkpoints*r.cfg.CheckpointMinutes) * time.Minute

	est.Total = est.Drive + est.HaltTime + est.Crossing
	return est
}
