package model

// RiskLevel is the discretized severity band of an aggregate risk score.
type RiskLevel int

const (
	RiskMinimal RiskLevel = iota
	RiskLow
	RiskModerate
	RiskHigh
	RiskCritical
)

func (l RiskLevel) String() string {
	switch l {
	case RiskMinimal:
		return "MINIMAL"
	case RiskLow:
		return "LOW"
	case RiskModerate:
		return "MODERATE"
	case RiskHigh:
		return "HIGH"
	case RiskCritical:
		return "CRITICAL"
	default:
		return "unknown"
	}
}

// RiskBreakdown holds the five per-domain risk components, each in [0,1],
// the convex aggregate and its band.
type RiskBreakdown struct {
	Threat    float64   `json:"threat"`
	Weather   float64   `json:"weather"`
	Terrain   float64   `json:"terrain"`
	Fatigue   float64   `json:"fatigue"`
	Traffic   float64   `json:"traffic"`
	Aggregate float64   `json:"aggregate"`
	Level     RiskLevel `json:"level"`
}

// ThreatBand maps the threat component back to the coarse band it was
// derived from, using the midpoints of the enum severity mapping.
func (b RiskBreakdown) ThreatBand() ThreatLevel {
	switch {
	case b.Threat >= ThreatRed.Severity():
		return ThreatRed
	case b.Threat >= ThreatOrange.Severity():
		return ThreatOrange
	case b.Threat >= ThreatYellow.Severity():
		return ThreatYellow
	default:
		return ThreatGreen
	}
}
