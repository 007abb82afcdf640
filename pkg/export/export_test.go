package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/milops/convoyd/core/audit"
	"github.com/milops/convoyd/core/model"
)

func sampleRecords() []audit.Record {
	ts := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	return []audit.Record{
		{
			Timestamp: ts,
			Kind:      audit.KindRecommendation,
			ConvoyID:  "c1",
			Step:      "live",
			Recommendation: &model.Recommendation{
				ID:             "rec-1",
				ConvoyID:       "c1",
				Decision:       model.DecisionRequiresEscort,
				Risk:           model.RiskBreakdown{Level: model.RiskHigh},
				EscortRequired: true,
			},
		},
		{
			Timestamp: ts.Add(5 * time.Minute),
			Kind:      audit.KindCommander,
			ConvoyID:  "c1",
			Decision: &model.CommanderDecision{
				RecommendationID: "rec-1",
				ConvoyID:         "c1",
				Outcome:          model.OutcomeApproved,
				Notes:            "escort tasked",
			},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleRecords()); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	rec := rows[1]
	if rec[4] != "REQUIRES_ESCORT" || rec[5] != "HIGH" || rec[6] != "true" {
		t.Errorf("unexpected recommendation row: %v", rec)
	}
	cmd := rows[2]
	if cmd[8] != "APPROVED" || cmd[9] != "escort tasked" {
		t.Errorf("unexpected commander row: %v", cmd)
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleRecords()); err != nil {
		t.Fatalf("write json: %v", err)
	}
	var out []audit.Record
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 || out[0].Recommendation == nil || out[1].Decision == nil {
		t.Errorf("unexpected round trip: %+v", out)
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("expected indented output")
	}
}
