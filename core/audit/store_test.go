package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/milops/convoyd/core/model"
)

func sampleRecords(base time.Time) []Record {
	rec := model.Recommendation{ID: "rec-1", ConvoyID: "c1", Decision: model.DecisionHold}
	dec := model.CommanderDecision{RecommendationID: "rec-1", ConvoyID: "c1", Outcome: model.OutcomeApproved}
	return []Record{
		{Timestamp: base, Kind: KindRecommendation, ConvoyID: "c1", Step: "live", Recommendation: &rec},
		{Timestamp: base.Add(time.Minute), Kind: KindCommander, ConvoyID: "c1", Decision: &dec},
		{Timestamp: base.Add(2 * time.Minute), Kind: KindRecommendation, ConvoyID: "c2", Step: "static"},
	}
}

func runStoreTests(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 14, 6, 0, 0, 0, time.UTC)
	for _, r := range sampleRecords(base) {
		if err := s.Append(ctx, r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := s.Query(ctx, Query{})
	if err != nil || len(all) != 3 {
		t.Fatalf("query all: %d records, err %v", len(all), err)
	}

	c1, err := s.Query(ctx, Query{ConvoyID: "c1"})
	if err != nil || len(c1) != 2 {
		t.Fatalf("query convoy: %d records, err %v", len(c1), err)
	}

	decs, err := s.Query(ctx, Query{Kind: KindCommander})
	if err != nil || len(decs) != 1 {
		t.Fatalf("query kind: %d records, err %v", len(decs), err)
	}
	if decs[0].Decision == nil || decs[0].Decision.Outcome != model.OutcomeApproved {
		t.Fatal("commander record did not round-trip")
	}

	windowed, err := s.Query(ctx, Query{Start: base.Add(90 * time.Second)})
	if err != nil || len(windowed) != 1 {
		t.Fatalf("query window: %d records, err %v", len(windowed), err)
	}
}

func TestJSONLStore(t *testing.T) {
	s, err := NewJSONLStore(filepath.Join(t.TempDir(), "decisions.jsonl"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s.Close() }()
	runStoreTests(t, s)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "decisions.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s.Close() }()
	runStoreTests(t, s)
}
