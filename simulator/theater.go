package main

import (
	"fmt"
	"math/rand"

	"github.com/milops/convoyd/core/model"
)

// Theater holds the synthetic battlefield picture the simulator evolves
// and publishes.
type Theater struct {
	Routes      []model.Route
	Checkpoints []model.Checkpoint

	rng       *rand.Rand
	driftRate float64
	nextSeq   int
}

var routeNames = []string{"TAMPA", "COBRA", "VIPER", "JACKAL", "FALCON", "SABRE", "NOMAD", "PHOENIX"}

var convoyNames = []string{
	"FUEL PUSH", "AMMO RESUPPLY", "WATER RESUPPLY", "RATION RUN",
	"CASEVAC DUSTOFF", "TROOP LIFT", "BRIDGE PACKAGE", "STORES PUSH",
}

// NewTheater generates routes and checkpoints from the seed. The same seed
// always produces the same theater.
func NewTheater(routes, checkpoints int, driftRate float64, seed int64) *Theater {
	rng := rand.New(rand.NewSource(seed))
	t := &Theater{rng: rng, driftRate: driftRate}
	for i := 0; i < routes; i++ {
		name := routeNames[i%len(routeNames)]
		t.Routes = append(t.Routes, model.Route{
			ID:         fmt.Sprintf("msr-%s-%d", name, i+1),
			Name:       "MSR " + name,
			DistanceKm: 30 + rng.Float64()*150,
			Terrain:    model.TerrainType(rng.Intn(int(model.TerrainMountain) + 1)),
			Threat:     model.ThreatLevel(rng.Intn(int(model.ThreatRed) + 1)),
			Weather:    model.WeatherCondition(rng.Intn(int(model.WeatherStorm) + 1)),
		})
	}
	for i := 0; i < checkpoints; i++ {
		t.Checkpoints = append(t.Checkpoints, model.Checkpoint{
			ID:             fmt.Sprintf("tcp-%d", i+1),
			Name:           fmt.Sprintf("TCP %d", i+1),
			TrafficDensity: rng.Float64(),
		})
	}
	return t
}

// Drift randomly walks threat, weather and traffic. Each record mutates
// with probability driftRate per tick.
func (t *Theater) Drift() {
	for i := range t.Routes {
		if t.rng.Float64() < t.driftRate {
			t.Routes[i].Threat = step(t.rng, int(t.Routes[i].Threat), int(model.ThreatRed))
		}
		if t.rng.Float64() < t.driftRate {
			t.Routes[i].Weather = model.WeatherCondition(stepInt(t.rng, int(t.Routes[i].Weather), int(model.WeatherStorm)))
		}
	}
	for i := range t.Checkpoints {
		if t.rng.Float64() < t.driftRate {
			d := t.Checkpoints[i].TrafficDensity + (t.rng.Float64()-0.5)*0.3
			if d < 0 {
				d = 0
			}
			if d > 1 {
				d = 1
			}
			t.Checkpoints[i].TrafficDensity = d
		}
	}
}

// NewConvoy fabricates the next convoy, assigned to a random route and
// sometimes a checkpoint.
func (t *Theater) NewConvoy() model.Convoy {
	t.nextSeq++
	name := convoyNames[t.rng.Intn(len(convoyNames))]
	c := model.Convoy{
		ID:       fmt.Sprintf("sim-%04d", t.nextSeq),
		Name:     fmt.Sprintf("%s %d", name, t.nextSeq),
		Status:   model.StatusPlanned,
		Vehicles: 2 + t.rng.Intn(14),
		Crew:     model.CrewState(t.rng.Intn(int(model.CrewFatigued) + 1)),
		RouteID:  t.Routes[t.rng.Intn(len(t.Routes))].ID,
	}
	if len(t.Checkpoints) > 0 && t.rng.Float64() < 0.5 {
		c.CheckpointID = t.Checkpoints[t.rng.Intn(len(t.Checkpoints))].ID
	}
	return c
}

func step(rng *rand.Rand, cur, max int) model.ThreatLevel {
	return model.ThreatLevel(stepInt(rng, cur, max))
}

// stepInt moves one notch up or down, clamped to [0,max].
func stepInt(rng *rand.Rand, cur, max int) int {
	if rng.Intn(2) == 0 {
		cur--
	} else {
		cur++
	}
	if cur < 0 {
		cur = 0
	}
	if cur > max {
		cur = max
	}
	return cur
}
