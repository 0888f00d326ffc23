package caselog

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"time"
)

// csvColumns is the fixed tabular column order, one row per transcript
// entry.
var csvColumns = []string{"timestamp_utc", "node_id", "node_text", "choice", "next_node"}

// ExportRow is one transcript entry flattened for tabular output.
type ExportRow struct {
	Timestamp string `json:"timestamp_utc"`
	NodeID    string `json:"node_id"`
	NodeText  string `json:"node_text"`
	Choice    string `json:"choice"`
	NextNode  string `json:"next_node"`
}

// ExportRecord is a serializable snapshot of a case, suitable for
// handing to a persistence collaborator. Building one has no side
// effects, so exporting twice without an intervening transition yields
// identical records.
type ExportRecord struct {
	CaseID     string
	DocumentID string
	Issue      string
	Metadata   map[string]string
	Log        []ExportRow
}

// MarshalJSON inlines the metadata key/values at the top level, the
// shape downstream consumers of the transcript files already expect
// ({"case_id", "issue", "resident", ..., "log"}).
func (rec ExportRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(rec.Metadata)+4)
	for k, v := range rec.Metadata {
		out[k] = v
	}
	out["case_id"] = rec.CaseID
	out["document_id"] = rec.DocumentID
	out["issue"] = rec.Issue
	out["log"] = rec.Log
	return json.Marshal(out)
}

// WriteCSV writes the header row followed by one row per entry.
func (rec ExportRecord) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return err
	}
	for _, row := range rec.Log {
		if err := cw.Write([]string{row.Timestamp, row.NodeID, row.NodeText, row.Choice, row.NextNode}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Export projects the case into an ExportRecord. Pure read; the case is
// not modified.
func (r *Runner) Export(c *Case) ExportRecord {
	rows := make([]ExportRow, 0, len(c.Transcript))
	for _, e := range c.Transcript {
		rows = append(rows, ExportRow{
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
			NodeID:    e.FromNodeID,
			NodeText:  e.FromNodeText,
			Choice:    e.ChoiceLabel,
			NextNode:  e.ToNodeID,
		})
	}

	meta := make(map[string]string, len(c.Metadata))
	for k, v := range c.Metadata {
		meta[k] = v
	}

	issue := c.DocumentTitle
	if issue == "" {
		issue = c.DocumentID
	}

	return ExportRecord{
		CaseID:     c.ID,
		DocumentID: c.DocumentID,
		Issue:      issue,
		Metadata:   meta,
		Log:        rows,
	}
}
