package resolve

import (
	"fmt"

	"github.com/milops/convoyd/core/model"
)

// reasoning emits the audit trail in a fixed order so that identical inputs
// produce an identical statement list: priority, route, threat, cargo rule,
// journey arithmetic, checkpoint status, crew readiness, historical pattern,
// weather.
func (r *Resolver) reasoning(in Input, decision model.Decision, est JourneyEstimate) []string {
	req := in.Request
	out := make([]string, 0, 9)

	out = append(out, fmt.Sprintf("%s cargo assigns movement precedence %s; resolved to %s",
		req.Cargo, req.Priority, decision))

	if in.Route != nil {
		out = append(out, fmt.Sprintf("route %s: %.0f km across %s terrain",
			in.Route.Name, in.Route.DistanceKm, in.Route.Terrain))
	} else {
		out = append(out, "route data unavailable; evaluated on defaults")
	}

	out = append(out, fmt.Sprintf("threat condition %s (component %.2f), aggregate risk %s (%.2f)",
		in.Risk.ThreatBand(), in.Risk.Threat, in.Risk.Level, in.Risk.Aggregate))

	out = append(out, cargoRule(req.Cargo))

	if est.DistanceKm > 0 {
		out = append(out, fmt.Sprintf("journey: %.1f h driving at %.0f km/h + %d halt(s) + %d checkpoint crossing(s) = %.1f h total",
			est.Drive.Hours(), est.SpeedKmh, est.Halts, est.Checkpoints, est.Total.Hours()))
	} else {
		out = append(out, "journey time not computed; distance unknown")
	}

	if in.Checkpoint != nil {
		out = append(out, fmt.Sprintf("checkpoint %s at %.0f%% occupancy, clearance %s",
			in.Checkpoint.Code, in.Checkpoint.Congestion()*100, in.Checkpoint.ClearanceTime))
	} else {
		out = append(out, "no checkpoint report on file")
	}

	out = append(out, fmt.Sprintf("crew reported %s (fatigue component %.2f)", req.Crew, in.Risk.Fatigue))

	if in.History != "" {
		out = append(out, "historical pattern: "+in.History)
	} else {
		out = append(out, "historical pattern: no adverse movement history recorded for this route")
	}

	if in.Route != nil {
		out = append(out, fmt.Sprintf("weather %s (component %.2f)", in.Route.Weather, in.Risk.Weather))
	} else {
		out = append(out, fmt.Sprintf("weather assumed CLEAR (component %.2f)", in.Risk.Weather))
	}
	return out
}

// cargoRule states the load-specific movement constraint.
func cargoRule(c model.CargoClass) string {
	switch c {
	case model.CargoAmmunition:
		return "ammunition load: 100 m vehicle spacing, no co-located fuel, hard-shoulder halts only"
	case model.CargoFuel:
		return "fuel load: 75 m vehicle spacing, smoking and open flame prohibited at halts"
	case model.CargoMedical, model.CargoEvacuation:
		return "medical movement: priority passage at all checkpoints, minimal halt policy"
	case model.CargoPersonnel:
		return "personnel movement: hardened lead and trail vehicles, 50 m spacing"
	default:
		return "standard load: 50 m vehicle spacing, routine halt policy"
	}
}

// requiredActions lists pre-departure actions implied by the decision.
func (r *Resolver) requiredActions(in Input, decision model.Decision, escort bool) []string {
	acts := []string{"confirm fuel and vehicle readiness", "brief route and checkpoint sequence"}
	if escort {
		acts = append(acts, "coordinate armed escort before release")
	}
	switch decision {
	case model.DecisionHold:
		acts = append(acts, "re-evaluate threat picture before next release cycle")
	case model.DecisionCommanderReview:
		acts = append(acts, "present full risk picture to approving commander")
	}
	if in.Request.Crew == model.CrewFatigued {
		acts = append(acts, "rotate or rest crews before departure")
	}
	if in.Request.FuelPct > 0 && in.Request.FuelPct < 50 {
		acts = append(acts, "top off fuel below 50% reserve")
	}
	return acts
}

// alternatives lists fallback options an approving commander may select.
func (r *Resolver) alternatives(decision model.Decision, threat model.ThreatLevel) []string {
	var alts []string
	switch decision {
	case model.DecisionRequiresEscort:
		alts = append(alts,
			fmt.Sprintf("%s: shift to an alternate route with lower threat", model.DecisionReroute),
			fmt.Sprintf("%s: defer movement until threat subsides", model.DecisionDelay))
	case model.DecisionHold:
		alts = append(alts,
			fmt.Sprintf("%s: release with escort despite %s threat", model.DecisionRequiresEscort, threat),
			fmt.Sprintf("%s: shift to an alternate route", model.DecisionReroute))
	case model.DecisionCommanderReview:
		alts = append(alts,
			fmt.Sprintf("%s: release under escort on commander authority", model.DecisionRequiresEscort),
			fmt.Sprintf("%s: cancel the movement", model.DecisionCancel))
	default:
		alts = append(alts, fmt.Sprintf("%s: defer to a later window", model.DecisionDelay))
	}
	return alts
}
