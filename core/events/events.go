// Package events defines the typed domain events published on the
// internal bus.
package events

import (
	"time"

	"github.com/milops/convoyd/core/model"
)

// RequestEvent is published when a movement request enters the queue.
type RequestEvent struct {
	Request model.ConvoyRequest
	Time    time.Time
}

// RecommendationEvent is published when the engine issues a recommendation.
type RecommendationEvent struct {
	Recommendation model.Recommendation
	Step           string
	Time           time.Time
}

// DegradeEvent is published when an evaluation fell past the live rung.
type DegradeEvent struct {
	ConvoyID string
	Step     string
	Reason   string
	Time     time.Time
}

// CommanderEvent is published when a commander decision is recorded.
type CommanderEvent struct {
	Decision model.CommanderDecision
	Time     time.Time
}

// SkipEvent is published when an evaluation was skipped by the in-flight
// guard or the rate limiter.
type SkipEvent struct {
	ConvoyID string
	Reason   string
	Time     time.Time
}
