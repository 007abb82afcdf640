// Package resolve maps a convoy request's priority and fused risk picture
// to a terminal dispatch decision with derived departure, journey and
// reasoning fields. Resolution is a pure function of its inputs.
package resolve

import (
	"time"

	"github.com/milops/convoyd/core/model"
)

// Config holds the tuned resolution constants. They are operational
// defaults, not invariants, and are loaded from configuration.
type Config struct {
	ImmediateOffsetMinutes int     `json:"immediate_offset_minutes"`
	HoldOffsetMinutes      int     `json:"hold_offset_minutes"`
	WindowOffsetMinutes    int     `json:"window_offset_minutes"`
	WindowSpanMinutes      int     `json:"window_span_minutes"`
	HaltEveryHours         float64 `json:"halt_every_hours"`
	HaltMinutes            int     `json:"halt_minutes"`
	CheckpointEveryKm      float64 `json:"checkpoint_every_km"`
	CheckpointMinutes      int     `json:"checkpoint_minutes"`
	DefaultSpeedKmh        float64 `json:"default_speed_kmh"`
}

// SetDefaults applies the reference constants.
func (c *Config) SetDefaults() {
	if c.ImmediateOffsetMinutes == 0 {
		c.ImmediateOffsetMinutes = 20
	}
	if c.HoldOffsetMinutes == 0 {
		c.HoldOffsetMinutes = 240
	}
	if c.WindowOffsetMinutes == 0 {
		c.WindowOffsetMinutes = 45
	}
	if c.WindowSpanMinutes == 0 {
		c.WindowSpanMinutes = 60
	}
	if c.HaltEveryHours == 0 {
		c.HaltEveryHours = 4
	}
	if c.HaltMinutes == 0 {
		c.HaltMinutes = 30
	}
	if c.CheckpointEveryKm == 0 {
		c.CheckpointEveryKm = 50
	}
	if c.CheckpointMinutes == 0 {
		c.CheckpointMinutes = 20
	}
	if c.DefaultSpeedKmh == 0 {
		c.DefaultSpeedKmh = 28
	}
}

// Input bundles everything the resolver consumes for one request. Route
// and Checkpoint may be nil when upstream data is unavailable; resolution
// still succeeds on the remaining fields.
type Input struct {
	Request     model.ConvoyRequest
	Route       *model.Route
	Checkpoint  *model.Checkpoint
	Risk        model.RiskBreakdown
	AvgSpeedKmh float64
	History     string
	Now         time.Time
}

// Resolver derives decisions from priority, risk band and threat band.
type Resolver struct {
	cfg Config
}

// New returns a resolver using cfg with defaults applied.
func New(cfg Config) *Resolver {
	cfg.SetDefaults()
	return &Resolver{cfg: cfg}
}

// Decide applies the precedence-ordered transition rules. First match wins:
//
//  1. FLASH releases immediately unless risk is CRITICAL, which escalates.
//  2. RED threat or CRITICAL risk requires escort.
//  3. ORANGE threat or HIGH risk holds.
//  4. IMMEDIATE releases immediately.
//  5. Everything else gets a bounded departure window.
//
// The escort flag is set whenever the decision is REQUIRES_ESCORT or the
// threat band is RED, regardless of which rule fired.
func (r *Resolver) Decide(priority model.PriorityClass, risk model.RiskLevel, threat model.ThreatLevel) (model.Decision, bool) {
	var d model.Decision
	switch {
	case priority == model.PriorityFlash && risk == model.RiskCritical:
		d = model.DecisionCommanderReview
	case priority == model.PriorityFlash:
		d = model.DecisionReleaseImmediate
	case threat == model.ThreatRed || risk == model.RiskCritical:
		d = model.DecisionRequiresEscort
	case threat == model.ThreatOrange || risk == model.RiskHigh:
		d = model.DecisionHold
	case priority == model.PriorityImmediate:
		d = model.DecisionReleaseImmediate
	default:
		d = model.DecisionReleaseWindow
	}
	escort := d == model.DecisionRequiresEscort || threat == model.ThreatRed
	return d, escort
}

// DepartureOffset returns the offset from now for the given decision.
func (r *Resolver) DepartureOffset(d model.Decision) time.Duration {
	switch d {
	case model.DecisionReleaseImmediate:
		return time.Duration(r.cfg.ImmediateOffsetMinutes) * time.Minute
	case model.DecisionHold:
		return time.Duration(r.cfg.HoldOffsetMinutes) * time.Minute
	default:
		return time.Duration(r.cfg.WindowOffsetMinutes) * time.Minute
	}
}

// Resolve produces the full recommendation body for the input. The
// lifecycle manager assigns identity and expiry afterwards.
func (r *Resolver) Resolve(in Input) model.Recommendation {
	threat := in.Risk.ThreatBand()
	decision, escort := r.Decide(in.Request.Priority, in.Risk.Level, threat)

	offset := r.DepartureOffset(decision)
	departure := in.Now.Add(offset)
	window := model.TimeWindow{
		Start: departure,
		End:   departure.Add(time.Duration(r.cfg.WindowSpanMinutes) * time.Minute),
	}

	est := r.Journey(in.Route, in.AvgSpeedKmh)

	rec := model.Recommendation{
		ConvoyID:        in.Request.ConvoyID,
		Decision:        decision,
		Risk:            in.Risk,
		Departure:       departure,
		Window:          window,
		JourneyDuration: est.Total,
		Reasoning:       r.reasoning(in, decision, est),
		RequiredActions: r.requiredActions(in, decision, escort),
		Alternatives:    r.alternatives(decision, threat),
		EscortRequired:  escort,
		GeneratedAt:     in.Now,
	}
	return rec
}
