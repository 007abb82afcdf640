package model

import "time"

// Decision is the terminal recommendation category produced by the
// resolver. The resolver emits the first five; DELAY, REROUTE and CANCEL
// appear in alternatives and commander modifications.
type Decision int

const (
	DecisionReleaseImmediate Decision = iota
	DecisionReleaseWindow
	DecisionHold
	DecisionRequiresEscort
	DecisionCommanderReview
	DecisionDelay
	DecisionReroute
	DecisionCancel
)

func (d Decision) String() string {
	switch d {
	case DecisionReleaseImmediate:
		return "RELEASE_IMMEDIATE"
	case DecisionReleaseWindow:
		return "RELEASE_WINDOW"
	case DecisionHold:
		return "HOLD"
	case DecisionRequiresEscort:
		return "REQUIRES_ESCORT"
	case DecisionCommanderReview:
		return "REQUIRES_COMMANDER_REVIEW"
	case DecisionDelay:
		return "DELAY"
	case DecisionReroute:
		return "REROUTE"
	case DecisionCancel:
		return "CANCEL"
	default:
		return "unknown"
	}
}

// TimeWindow is a bounded departure window.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Recommendation is the engine's output for one convoy request. It is
// read-only after creation; commander feedback attaches through a
// CommanderDecision held by the lifecycle manager.
type Recommendation struct {
	ID                 string         `json:"id"`
	ConvoyID           string         `json:"convoy_id"`
	Decision           Decision       `json:"decision"`
	EnsembleConfidence float64        `json:"ensemble_confidence"`
	Risk               RiskBreakdown  `json:"risk"`
	Departure          time.Time      `json:"departure"`
	Window             TimeWindow     `json:"window"`
	JourneyDuration    time.Duration  `json:"journey_duration"`
	Reasoning          []string       `json:"reasoning"`
	RequiredActions    []string       `json:"required_actions"`
	Alternatives       []string       `json:"alternatives"`
	EscortRequired     bool           `json:"escort_required"`
	Findings           []AgentFinding `json:"findings,omitempty"`
	Degraded           bool           `json:"degraded"`
	Source             string         `json:"source"`
	GeneratedAt        time.Time      `json:"generated_at"`
	ExpiresAt          time.Time      `json:"expires_at"`
}

// Expired reports whether the recommendation has passed its expiry.
func (r Recommendation) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

// DecisionOutcome is the commander's verdict on a recommendation.
type DecisionOutcome string

const (
	OutcomeApproved DecisionOutcome = "APPROVED"
	OutcomeModified DecisionOutcome = "MODIFIED"
	OutcomeRejected DecisionOutcome = "REJECTED"
)

// Valid reports whether the outcome is one of the known verdicts.
func (o DecisionOutcome) Valid() bool {
	switch o {
	case OutcomeApproved, OutcomeModified, OutcomeRejected:
		return true
	}
	return false
}

// CommanderDecision records the human verdict for one recommendation.
// Exactly one decision may exist per recommendation id.
type CommanderDecision struct {
	RecommendationID string          `json:"recommendation_id"`
	ConvoyID         string          `json:"convoy_id"`
	Outcome          DecisionOutcome `json:"outcome"`
	Modified         *Decision       `json:"modified,omitempty"`
	Notes            string          `json:"notes"`
	DecidedAt        time.Time       `json:"decided_at"`
}
