// Package fusion runs the fixed set of analysis agents over the available
// convoy context and combines their confidences into one ensemble value.
// Agents are pure functions: identical context yields an identical finding
// set and ensemble confidence.
package fusion

import (
	"time"

	"github.com/milops/convoyd/core/logger"
	"github.com/milops/convoyd/core/model"
	"github.com/milops/convoyd/core/resolve"
)

// Context is everything an agent may consume for one analysis run. Any
// pointer field may be nil; agents degrade to an insufficient-data finding
// instead of failing.
type Context struct {
	Request          model.ConvoyRequest
	Route            *model.Route
	Checkpoint       *model.Checkpoint
	Risk             model.RiskBreakdown
	Journey          resolve.JourneyEstimate
	ThreatIndicators []string
	WeatherAdvisory  string
	// Authoritative marks context backed by direct telemetry rather than
	// cached snapshots. Findings produced from it earn a confidence bonus.
	Authoritative bool
	Now           time.Time
}

// Agent is one independent analysis function. Analyze never returns an
// error: on missing data it returns an InsufficientData finding with a
// conservative confidence so fusion of the remaining agents proceeds.
type Agent interface {
	Name() string
	Analyze(ctx Context) model.AgentFinding
}

// Config holds the fusion tuning constants.
type Config struct {
	// ConfidenceBonus is added per finding with authoritative backing.
	ConfidenceBonus float64 `json:"confidence_bonus"`
	// ConfidenceCap bounds the ensemble confidence.
	ConfidenceCap float64 `json:"confidence_cap"`
	// Extended enables the deeper analysis agents.
	Extended bool `json:"extended"`
	// MinIntervalSeconds is the per-convoy spacing between full fusion
	// runs, enforced by the rate limiter.
	MinIntervalSeconds int `json:"min_interval_seconds"`
}

// SetDefaults applies the reference constants.
func (c *Config) SetDefaults() {
	if c.ConfidenceBonus == 0 {
		c.ConfidenceBonus = 0.03
	}
	if c.ConfidenceCap == 0 {
		c.ConfidenceCap = 0.98
	}
	if c.MinIntervalSeconds == 0 {
		c.MinIntervalSeconds = 12
	}
}

// Result is one fusion run's output.
type Result struct {
	Findings []model.AgentFinding
	Ensemble float64
}

// Fuser executes the configured agent set.
type Fuser struct {
	agents []Agent
	cfg    Config
	log    logger.Logger
}

// NewFuser builds a fuser with the standard agent roster: threat, weather,
// route, formation and aggregate-risk, plus the deep agents when extended
// analysis is enabled.
func NewFuser(cfg Config, log logger.Logger) *Fuser {
	cfg.SetDefaults()
	if log == nil {
		log = logger.NopLogger{}
	}
	agents := []Agent{
		ThreatAgent{},
		WeatherAgent{},
		RouteAgent{},
		FormationAgent{},
		AggregateRiskAgent{},
	}
	if cfg.Extended {
		agents = append(agents,
			ProbabilisticAgent{},
			MonteCarloAgent{},
			TemporalAgent{},
			ExplainAgent{},
			AdversarialAgent{},
			SignalsAgent{},
			ImageryAgent{},
		)
	}
	return &Fuser{agents: agents, cfg: cfg, log: log}
}

// Fuse runs every agent in roster order and computes the ensemble
// confidence: the mean of all finding confidences, each boosted by the
// configured bonus when authoritative context backed it, capped.
func (f *Fuser) Fuse(ctx Context) Result {
	findings := make([]model.AgentFinding, 0, len(f.agents))
	var sum float64
	for _, a := range f.agents {
		finding := a.Analyze(ctx)
		finding.Agent = a.Name()
		conf := clamp01(finding.Confidence)
		if finding.Authoritative {
			conf += f.cfg.ConfidenceBonus
		}
		if conf > f.cfg.ConfidenceCap {
			conf = f.cfg.ConfidenceCap
		}
		finding.Confidence = conf
		sum += conf
		findings = append(findings, finding)
	}
	ensemble := 0.0
	if len(findings) > 0 {
		ensemble = sum / float64(len(findings))
	}
	if ensemble > f.cfg.ConfidenceCap {
		ensemble = f.cfg.ConfidenceCap
	}
	f.log.Debugw("fusion complete", map[string]any{
		"convoy_id": ctx.Request.ConvoyID,
		"agents":    len(findings),
		"ensemble":  ensemble,
	})
	return Result{Findings: findings, Ensemble: ensemble}
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

func insufficient(reason string, conf float64) model.AgentFinding {
	return model.AgentFinding{
		Summary:    "insufficient data: " + reason,
		Confidence: conf,
		Payload:    model.InsufficientData{Reason: reason},
	}
}
