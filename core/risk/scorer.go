// Package risk converts per-domain indicators into a normalized
// RiskBreakdown with a convex aggregate score and a severity band.
package risk

import "github.com/milops/convoyd/core/model"

// Weights defines the convex combination applied to the five components.
type Weights struct {
	Threat  float64 `json:"threat"`
	Weather float64 `json:"weather"`
	Terrain float64 `json:"terrain"`
	Fatigue float64 `json:"fatigue"`
	Traffic float64 `json:"traffic"`
}

// DefaultWeights returns the reference weighting.
func DefaultWeights() Weights {
	return Weights{Threat: 0.35, Weather: 0.20, Terrain: 0.20, Fatigue: 0.15, Traffic: 0.10}
}

// Sum returns the total of all weights. A valid weighting sums to 1.0.
func (w Weights) Sum() float64 {
	return w.Threat + w.Weather + w.Terrain + w.Fatigue + w.Traffic
}

// Thresholds maps an aggregate score to a RiskLevel band. Each bound is the
// inclusive lower edge of its band.
type Thresholds struct {
	Low      float64 `json:"low"`
	Moderate float64 `json:"moderate"`
	High     float64 `json:"high"`
	Critical float64 `json:"critical"`
}

// DefaultThresholds returns the reference band boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{Low: 0.15, Moderate: 0.30, High: 0.50, Critical: 0.70}
}

// Indicators carries the raw per-domain inputs. A nil pointer means the
// reading is missing and the domain's lowest-risk default applies: a missing
// weather reading is "clear", not "unknown".
type Indicators struct {
	Threat  *float64
	Weather *float64
	Terrain *float64
	Fatigue *float64
	Traffic *float64
}

// IndicatorsFrom assembles Indicators from upstream records. Nil records
// leave the corresponding indicator missing.
func IndicatorsFrom(route *model.Route, cp *model.Checkpoint, crew *model.CrewState) Indicators {
	var in Indicators
	if route != nil {
		t := route.Threat.Severity()
		w := route.Weather.Severity()
		d := route.Terrain.Difficulty()
		in.Threat, in.Weather, in.Terrain = &t, &w, &d
	}
	if cp != nil {
		c := cp.Congestion()
		in.Traffic = &c
	}
	if crew != nil {
		f := crew.FatigueRisk()
		in.Fatigue = &f
	}
	return in
}

// Scorer computes RiskBreakdowns from indicators.
type Scorer struct {
	weights    Weights
	thresholds Thresholds
}

// NewScorer builds a scorer. Zero weights or unordered thresholds fall back
// to the defaults.
func NewScorer(w Weights, t Thresholds) *Scorer {
	if w.Sum() <= 0 {
		w = DefaultWeights()
	}
	if !(t.Low > 0 && t.Low < t.Moderate && t.Moderate < t.High && t.High < t.Critical) {
		t = DefaultThresholds()
	}
	return &Scorer{weights: w, thresholds: t}
}

// Lowest-risk substitutions for missing indicators.
var (
	defaultThreat  = model.ThreatGreen.Severity()
	defaultWeather = model.WeatherClear.Severity()
	defaultTerrain = model.TerrainPlains.Difficulty()
	defaultFatigue = model.CrewRested.FatigueRisk()
	defaultTraffic = 0.0
)

// Score computes the breakdown. The aggregate is monotone non-decreasing in
// every component and always lies in [0,1].
func (s *Scorer) Score(in Indicators) model.RiskBreakdown {
	b := model.RiskBreakdown{
		Threat:  clamp01(orDefault(in.Threat, defaultThreat)),
		Weather: clamp01(orDefault(in.Weather, defaultWeather)),
		Terrain: clamp01(orDefault(in.Terrain, defaultTerrain)),
		Fatigue: clamp01(orDefault(in.Fatigue, defaultFatigue)),
		Traffic: clamp01(orDefault(in.Traffic, defaultTraffic)),
	}
	sum := s.weights.Sum()
	agg := (b.Threat*s.weights.Threat +
		b.Weather*s.weights.Weather +
		b.Terrain*s.weights.Terrain +
		b.Fatigue*s.weights.Fatigue +
		b.Traffic*s.weights.Traffic) / sum
	b.Aggregate = clamp01(agg)
	b.Level = s.Band(b.Aggregate)
	return b
}

// Band maps an aggregate score to its RiskLevel.
func (s *Scorer) Band(aggregate float64) model.RiskLevel {
	switch {
	case aggregate >= s.thresholds.Critical:
		return model.RiskCritical
	case aggregate >= s.thresholds.High:
		return model.RiskHigh
	case aggregate >= s.thresholds.Moderate:
		return model.RiskModerate
	case aggregate >= s.thresholds.Low:
		return model.RiskLow
	default:
		return model.RiskMinimal
	}
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
