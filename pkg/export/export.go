// Package export renders decision-log records for after-action review.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/milops/convoyd/core/audit"
)

// WriteJSON writes the records to w as a JSON array.
func WriteJSON(w io.Writer, records []audit.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// csvHeader is the fixed column set of the flat export.
var csvHeader = []string{
	"timestamp", "kind", "convoy_id", "step",
	"decision", "risk_level", "escort", "degraded", "outcome", "notes",
}

// WriteCSV writes a flattened view of the records. Recommendation rows
// carry the decision columns, commander rows the outcome columns.
func WriteCSV(w io.Writer, records []audit.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Timestamp.UTC().Format(time.RFC3339),
			r.Kind,
			r.ConvoyID,
			r.Step,
			"", "", "", "", "", "",
		}
		if rec := r.Recommendation; rec != nil {
			row[4] = rec.Decision.String()
			row[5] = rec.Risk.Level.String()
			row[6] = strconv.FormatBool(rec.EscortRequired)
			row[7] = strconv.FormatBool(rec.Degraded)
		}
		if dec := r.Decision; dec != nil {
			row[8] = string(dec.Outcome)
			row[9] = dec.Notes
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
