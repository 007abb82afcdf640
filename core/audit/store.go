// Package audit persists the decision log: every issued recommendation
// and every commander decision, append-only. Writes are fire-and-forget
// from the engine; queue state never depends on sink success.
package audit

import (
	"context"
	"time"

	"github.com/milops/convoyd/core/model"
)

// Record kinds.
const (
	KindRecommendation = "recommendation"
	KindCommander      = "commander_decision"
)

// Record is one decision-log entry.
type Record struct {
	Timestamp      time.Time                `json:"timestamp"`
	Kind           string                   `json:"kind"`
	ConvoyID       string                   `json:"convoy_id"`
	Step           string                   `json:"step,omitempty"`
	Recommendation *model.Recommendation    `json:"recommendation,omitempty"`
	Decision       *model.CommanderDecision `json:"decision,omitempty"`
}

// Query filters decision-log reads. Zero fields match everything.
type Query struct {
	ConvoyID string
	Kind     string
	Start    time.Time
	End      time.Time
}

// Matches reports whether the record satisfies the query.
func (q Query) Matches(r Record) bool {
	if q.ConvoyID != "" && r.ConvoyID != q.ConvoyID {
		return false
	}
	if q.Kind != "" && r.Kind != q.Kind {
		return false
	}
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	return true
}

// Store is the decision-log contract.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}

// NopStore discards all records.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error { return nil }

func (NopStore) Query(context.Context, Query) ([]Record, error) { return nil, nil }

func (NopStore) Close() error { return nil }
