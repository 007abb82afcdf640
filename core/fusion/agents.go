package fusion

import (
	"fmt"

	"github.com/milops/convoyd/core/model"
)

// ThreatAgent assesses the hostile picture along the route.
type ThreatAgent struct{}

func (ThreatAgent) Name() string { return "threat" }

func (ThreatAgent) Analyze(ctx Context) model.AgentFinding {
	if ctx.Route == nil {
		return insufficient("no route threat data", 0.40)
	}
	band := ctx.Route.Threat
	hostile := band >= model.ThreatOrange
	conf := 0.78
	if len(ctx.ThreatIndicators) > 0 {
		conf = 0.88
	}
	return model.AgentFinding{
		Summary:       fmt.Sprintf("threat condition %s on %s", band, ctx.Route.Name),
		Confidence:    conf,
		Authoritative: ctx.Authoritative,
		Payload: model.ThreatAssessment{
			Band:       band,
			Indicators: ctx.ThreatIndicators,
			HostileAct: hostile,
		},
	}
}

// WeatherAgent summarizes the weather outlook for the movement window.
type WeatherAgent struct{}

func (WeatherAgent) Name() string { return "weather" }

func (WeatherAgent) Analyze(ctx Context) model.AgentFinding {
	if ctx.Route == nil {
		return insufficient("no weather reading", 0.45)
	}
	cond := ctx.Route.Weather
	visibility := 10.0 * (1 - cond.Severity())
	advisory := ctx.WeatherAdvisory
	if advisory == "" {
		advisory = fmt.Sprintf("%s conditions forecast for the movement window", cond)
	}
	return model.AgentFinding{
		Summary:       fmt.Sprintf("weather %s, visibility %.1f km", cond, visibility),
		Confidence:    0.82,
		Authoritative: ctx.Authoritative,
		Payload: model.WeatherAdvisory{
			Condition:     cond,
			VisibilityKm:  visibility,
			Advisory:      advisory,
			DrivingImpact: cond.Severity(),
		},
	}
}

// RouteAgent reports the journey-time arithmetic for the planned route.
type RouteAgent struct{}

func (RouteAgent) Name() string { return "route" }

func (RouteAgent) Analyze(ctx Context) model.AgentFinding {
	est := ctx.Journey
	if ctx.Route == nil || est.DistanceKm <= 0 {
		return insufficient("no route geometry", 0.40)
	}
	return model.AgentFinding{
		Summary: fmt.Sprintf("%.0f km, %.1f h total with %d halt(s) and %d crossing(s)",
			est.DistanceKm, est.Total.Hours(), est.Halts, est.Checkpoints),
		Confidence:    0.90,
		Authoritative: ctx.Authoritative,
		Payload: model.RouteEstimate{
			DistanceKm:    est.DistanceKm,
			AvgSpeedKmh:   est.SpeedKmh,
			DriveTime:     est.Drive,
			Halts:         est.Halts,
			Checkpoints:   est.Checkpoints,
			TotalDuration: est.Total,
		},
	}
}

// FormationAgent recommends a movement formation from cargo and threat.
type FormationAgent struct{}

func (FormationAgent) Name() string { return "formation" }

func (FormationAgent) Analyze(ctx Context) model.AgentFinding {
	spacing := 50.0
	formation := "column"
	lead := "gun truck"
	switch ctx.Request.Cargo {
	case model.CargoAmmunition:
		spacing = 100
		formation = "open column"
	case model.CargoFuel:
		spacing = 75
		formation = "open column"
	case model.CargoMedical, model.CargoEvacuation:
		formation = "close column"
		lead = "marked medical vehicle"
	}
	speed := 40.0
	if ctx.Route != nil {
		speed = 40 * (1 - ctx.Route.Terrain.Difficulty())
	}
	return model.AgentFinding{
		Summary:       fmt.Sprintf("%s, %.0f m spacing at %.0f km/h", formation, spacing, speed),
		Confidence:    0.75,
		Authoritative: ctx.Authoritative,
		Payload: model.FormationPlan{
			Formation:     formation,
			SpacingMeters: spacing,
			SpeedKmh:      speed,
			LeadElement:   lead,
		},
	}
}

// AggregateRiskAgent restates the fused risk picture as a finding so the
// operator sees the same numbers the resolver acted on.
type AggregateRiskAgent struct{}

func (AggregateRiskAgent) Name() string { return "aggregate-risk" }

func (AggregateRiskAgent) Analyze(ctx Context) model.AgentFinding {
	return model.AgentFinding{
		Summary: fmt.Sprintf("aggregate risk %.2f (%s), dominated by threat %.2f",
			ctx.Risk.Aggregate, ctx.Risk.Level, ctx.Risk.Threat),
		Confidence:    0.85,
		Authoritative: ctx.Authoritative,
		Payload:       model.RiskSummary{Breakdown: ctx.Risk},
	}
}
