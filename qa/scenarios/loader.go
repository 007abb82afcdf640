// Package scenarios runs YAML-described dispatch situations against the
// real engine and checks the issued recommendations.
package scenarios

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/milops/convoyd/core/model"
)

type RouteDef struct {
	ID         string  `yaml:"id"`
	DistanceKm float64 `yaml:"distance_km"`
	Terrain    string  `yaml:"terrain"`
	Threat     string  `yaml:"threat"`
	Weather    string  `yaml:"weather"`
}

func (r RouteDef) ToModel() model.Route {
	return model.Route{
		ID:         r.ID,
		DistanceKm: r.DistanceKm,
		Terrain:    parseTerrain(r.Terrain),
		Threat:     parseThreat(r.Threat),
		Weather:    parseWeather(r.Weather),
	}
}

type CheckpointDef struct {
	ID             string  `yaml:"id"`
	TrafficDensity float64 `yaml:"traffic_density"`
}

func (c CheckpointDef) ToModel() model.Checkpoint {
	return model.Checkpoint{ID: c.ID, TrafficDensity: c.TrafficDensity}
}

type ConvoyDef struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Vehicles   int    `yaml:"vehicles"`
	Crew       string `yaml:"crew"`
	Route      string `yaml:"route"`
	Checkpoint string `yaml:"checkpoint,omitempty"`
}

func (c ConvoyDef) ToModel() model.Convoy {
	return model.Convoy{
		ID:           c.ID,
		Name:         c.Name,
		Vehicles:     c.Vehicles,
		Crew:         parseCrew(c.Crew),
		RouteID:      c.Route,
		CheckpointID: c.Checkpoint,
	}
}

type Expected struct {
	Decision string `yaml:"decision"`
	Escort   bool   `yaml:"escort,omitempty"`
	Step     string `yaml:"step,omitempty"`
	Degraded bool   `yaml:"degraded,omitempty"`
}

type Scenario struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description,omitempty"`
	Routes      []RouteDef          `yaml:"routes,omitempty"`
	Checkpoints []CheckpointDef     `yaml:"checkpoints,omitempty"`
	Convoys     []ConvoyDef         `yaml:"convoys"`
	Expected    map[string]Expected `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

func parseThreat(s string) model.ThreatLevel {
	switch strings.ToUpper(s) {
	case "YELLOW":
		return model.ThreatYellow
	case "ORANGE":
		return model.ThreatOrange
	case "RED":
		return model.ThreatRed
	default:
		return model.ThreatGreen
	}
}

func parseWeather(s string) model.WeatherCondition {
	switch strings.ToUpper(s) {
	case "RAIN":
		return model.WeatherRain
	case "FOG":
		return model.WeatherFog
	case "STORM":
		return model.WeatherStorm
	default:
		return model.WeatherClear
	}
}

func parseTerrain(s string) model.TerrainType {
	switch strings.ToUpper(s) {
	case "HILLS":
		return model.TerrainHills
	case "MOUNTAIN":
		return model.TerrainMountain
	case "URBAN":
		return model.TerrainUrban
	case "DESERT":
		return model.TerrainDesert
	default:
		return model.TerrainPlains
	}
}

func parseCrew(s string) model.CrewState {
	switch strings.ToUpper(s) {
	case "ALERT":
		return model.CrewAlert
	case "FATIGUED":
		return model.CrewFatigued
	default:
		return model.CrewRested
	}
}
