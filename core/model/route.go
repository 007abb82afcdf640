package model

import "time"

// ThreatLevel is the coarse route threat band reported by intel.
type ThreatLevel int

const (
	ThreatGreen ThreatLevel = iota
	ThreatYellow
	ThreatOrange
	ThreatRed
)

func (t ThreatLevel) String() string {
	switch t {
	case ThreatGreen:
		return "GREEN"
	case ThreatYellow:
		return "YELLOW"
	case ThreatOrange:
		return "ORANGE"
	case ThreatRed:
		return "RED"
	default:
		return "unknown"
	}
}

// Severity maps the band to its normalized risk contribution. The mapping
// is monotone in the band.
func (t ThreatLevel) Severity() float64 {
	switch t {
	case ThreatYellow:
		return 0.18
	case ThreatOrange:
		return 0.32
	case ThreatRed:
		return 0.45
	default:
		return 0.08
	}
}

// WeatherCondition is the summarized weather state along a route.
type WeatherCondition int

const (
	WeatherClear WeatherCondition = iota
	WeatherOvercast
	WeatherRain
	WeatherFog
	WeatherDust
	WeatherStorm
)

func (w WeatherCondition) String() string {
	switch w {
	case WeatherClear:
		return "CLEAR"
	case WeatherOvercast:
		return "OVERCAST"
	case WeatherRain:
		return "RAIN"
	case WeatherFog:
		return "FOG"
	case WeatherDust:
		return "DUST"
	case WeatherStorm:
		return "STORM"
	default:
		return "unknown"
	}
}

// Severity maps the condition to its normalized risk contribution.
func (w WeatherCondition) Severity() float64 {
	switch w {
	case WeatherOvercast:
		return 0.10
	case WeatherRain:
		return 0.22
	case WeatherFog:
		return 0.30
	case WeatherDust:
		return 0.34
	case WeatherStorm:
		return 0.42
	default:
		return 0.05
	}
}

// TerrainType classifies the dominant terrain of a route.
type TerrainType int

const (
	TerrainPlains TerrainType = iota
	TerrainDesert
	TerrainForest
	TerrainHills
	TerrainUrban
	TerrainMountain
)

func (t TerrainType) String() string {
	switch t {
	case TerrainPlains:
		return "PLAINS"
	case TerrainDesert:
		return "DESERT"
	case TerrainForest:
		return "FOREST"
	case TerrainHills:
		return "HILLS"
	case TerrainUrban:
		return "URBAN"
	case TerrainMountain:
		return "MOUNTAIN"
	default:
		return "unknown"
	}
}

// Difficulty maps terrain to its normalized risk contribution.
func (t TerrainType) Difficulty() float64 {
	switch t {
	case TerrainDesert:
		return 0.18
	case TerrainForest:
		return 0.25
	case TerrainHills:
		return 0.30
	case TerrainUrban:
		return 0.35
	case TerrainMountain:
		return 0.42
	default:
		return 0.10
	}
}

// Route is the upstream route record consumed read-only by the engine.
type Route struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	DistanceKm float64          `json:"distance_km"`
	Terrain    TerrainType      `json:"terrain"`
	Threat     ThreatLevel      `json:"threat"`
	Weather    WeatherCondition `json:"weather"`
}

// Checkpoint is a traffic control point (TCP) record along a route.
type Checkpoint struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Code             string        `json:"code"`
	TrafficDensity   float64       `json:"traffic_density"` // occupancy fraction [0,1]
	Capacity         int           `json:"capacity"`
	ClearanceTime    time.Duration `json:"clearance_time"`
	OperatingHours   string        `json:"operating_hours"`
	OperationalState string        `json:"operational_state"`
}

// Congestion returns the checkpoint's normalized traffic risk contribution.
func (c Checkpoint) Congestion() float64 {
	d := c.TrafficDensity
	if d < 0 {
		return 0
	}
	if d > 1 {
		return 1
	}
	return d
}

// Convoy is the upstream convoy record consumed read-only by the engine.
type Convoy struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Origin         string       `json:"origin"`
	Destination    string       `json:"destination"`
	Status         ConvoyStatus `json:"status"`
	Vehicles       int          `json:"vehicles"`
	Personnel      int          `json:"personnel"`
	FuelPct        float64      `json:"fuel_pct"`
	HealthPct      float64      `json:"health_pct"`
	Crew           CrewState    `json:"crew"`
	RouteID        string       `json:"route_id"`
	CheckpointID   string       `json:"checkpoint_id"`
	ScheduledStart time.Time    `json:"scheduled_start"`
	AvgSpeedKmh    float64      `json:"avg_speed_kmh"`
}
