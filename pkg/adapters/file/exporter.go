package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shaktimishra84/icuflow/pkg/caselog"
)

// Exporter implements ports.Exporter by writing the transcript to disk
// twice: once as a JSON document and once as a CSV table, named after
// the case id. This is the download behavior of the original tool.
type Exporter struct {
	Dir string
}

// NewExporter creates an exporter writing into dir.
// If dir is empty, it defaults to ".icuflow/exports".
func NewExporter(dir string) *Exporter {
	if dir == "" {
		dir = filepath.Join(".icuflow", "exports")
	}
	return &Exporter{Dir: dir}
}

// Export writes <case_id>.json and <case_id>.csv.
func (e *Exporter) Export(ctx context.Context, rec caselog.ExportRecord) error {
	if rec.CaseID == "" {
		return fmt.Errorf("export record has no case id")
	}

	if err := os.MkdirAll(e.Dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure export directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}
	if err := os.WriteFile(filepath.Join(e.Dir, rec.CaseID+".json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write transcript json: %w", err)
	}

	var buf bytes.Buffer
	if err := rec.WriteCSV(&buf); err != nil {
		return fmt.Errorf("failed to encode transcript csv: %w", err)
	}
	if err := os.WriteFile(filepath.Join(e.Dir, rec.CaseID+".csv"), buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write transcript csv: %w", err)
	}

	return nil
}
