package model

import "time"

// AgentFinding is one analysis agent's contribution to fusion: a textual
// summary, a confidence in [0,1] and an agent-specific payload. Absence of
// usable data is expressed through an InsufficientData payload, never by
// omitting the finding.
type AgentFinding struct {
	Agent         string         `json:"agent"`
	Summary       string         `json:"summary"`
	Confidence    float64        `json:"confidence"`
	Authoritative bool           `json:"authoritative"`
	Payload       FindingPayload `json:"payload,omitempty"`
}

// FindingPayload is the tagged union of agent-specific result variants.
// Kind returns a stable discriminator used for serialization and routing.
type FindingPayload interface {
	Kind() string
}

// InsufficientData marks a finding produced without usable upstream data.
type InsufficientData struct {
	Reason string `json:"reason"`
}

func (InsufficientData) Kind() string { return "insufficient_data" }

// ThreatAssessment carries threat indicators observed along the route.
type ThreatAssessment struct {
	Band       ThreatLevel `json:"band"`
	Indicators []string    `json:"indicators"`
	HostileAct bool        `json:"hostile_activity"`
}

func (ThreatAssessment) Kind() string { return "threat" }

// WeatherAdvisory summarizes the weather outlook for the movement window.
type WeatherAdvisory struct {
	Condition     WeatherCondition `json:"condition"`
	VisibilityKm  float64          `json:"visibility_km"`
	Advisory      string           `json:"advisory"`
	DrivingImpact float64          `json:"driving_impact"`
}

func (WeatherAdvisory) Kind() string { return "weather" }

// RouteEstimate carries drive-time arithmetic for the planned route.
type RouteEstimate struct {
	DistanceKm    float64       `json:"distance_km"`
	AvgSpeedKmh   float64       `json:"avg_speed_kmh"`
	DriveTime     time.Duration `json:"drive_time"`
	Halts         int           `json:"halts"`
	Checkpoints   int           `json:"checkpoints"`
	TotalDuration time.Duration `json:"total_duration"`
}

func (RouteEstimate) Kind() string { return "route" }

// FormationPlan is the movement formation recommended for the convoy.
type FormationPlan struct {
	Formation     string  `json:"formation"`
	SpacingMeters float64 `json:"spacing_meters"`
	SpeedKmh      float64 `json:"speed_kmh"`
	LeadElement   string  `json:"lead_element"`
}

func (FormationPlan) Kind() string { return "formation" }

// RiskSummary is the aggregate-risk agent payload.
type RiskSummary struct {
	Breakdown RiskBreakdown `json:"breakdown"`
}

func (RiskSummary) Kind() string { return "risk" }

// PosteriorEstimate is a Bayesian posterior over mission success.
type PosteriorEstimate struct {
	SuccessMean float64 `json:"success_mean"`
	Lower95     float64 `json:"lower_95"`
	Upper95     float64 `json:"upper_95"`
}

func (PosteriorEstimate) Kind() string { return "posterior" }

// OutcomeDistribution is a simulated probability distribution over the
// terminal mission outcomes.
type OutcomeDistribution struct {
	Success  float64 `json:"success"`
	Delay    float64 `json:"delay"`
	Reroute  float64 `json:"reroute"`
	Incident float64 `json:"incident"`
	Critical float64 `json:"critical"`
	Samples  int     `json:"samples"`
}

func (OutcomeDistribution) Kind() string { return "outcomes" }

// TemporalProfile classifies departure risk by hour of day.
type TemporalProfile struct {
	BestHour  int       `json:"best_hour"`
	WorstHour int       `json:"worst_hour"`
	Window    string    `json:"window"`
	ByHour    []float64 `json:"by_hour"`
}

func (TemporalProfile) Kind() string { return "temporal" }

// FeatureWeight is one entry of a feature-importance explanation.
type FeatureWeight struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"`
}

// FeatureImportance explains which components drove the aggregate risk.
type FeatureImportance struct {
	Features []FeatureWeight `json:"features"`
}

func (FeatureImportance) Kind() string { return "explain" }

// AdversarialScenario is one red-team scenario with likelihood and severity.
type AdversarialScenario struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
	Severity    float64 `json:"severity"`
}

// AdversarialReport lists plausible hostile courses of action.
type AdversarialReport struct {
	Scenarios []AdversarialScenario `json:"scenarios"`
}

func (AdversarialReport) Kind() string { return "adversarial" }

// SignalsReport carries simplified SIGINT indicators.
type SignalsReport struct {
	EmitterCount int      `json:"emitter_count"`
	Indicators   []string `json:"indicators"`
}

func (SignalsReport) Kind() string { return "signals" }

// ImageryReport carries simplified imagery indicators.
type ImageryReport struct {
	FramesReviewed int      `json:"frames_reviewed"`
	Observations   []string `json:"observations"`
}

func (ImageryReport) Kind() string { return "imagery" }
