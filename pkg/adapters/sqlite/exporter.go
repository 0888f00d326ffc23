// Package sqlite provides an Exporter that archives transcripts into a
// SQLite table, one row per transcript entry. It replaces the
// spreadsheet-append integration of earlier versions with a durable
// local table that tools can query directly.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/shaktimishra84/icuflow/pkg/caselog"
)

const schema = `
CREATE TABLE IF NOT EXISTS transcript_rows (
	case_id       TEXT NOT NULL,
	seq           INTEGER NOT NULL,
	document_id   TEXT NOT NULL,
	issue         TEXT NOT NULL,
	timestamp_utc TEXT NOT NULL,
	node_id       TEXT NOT NULL,
	node_text     TEXT NOT NULL,
	choice        TEXT NOT NULL,
	next_node     TEXT NOT NULL,
	metadata      TEXT NOT NULL,
	exported_at   TEXT NOT NULL,
	PRIMARY KEY (case_id, seq)
);`

// Open opens (or creates) the archive database at path and ensures the
// schema exists. Sets WAL mode for concurrent readers.
func Open(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening archive database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return db, nil
}

// Exporter implements ports.Exporter against a SQLite archive.
type Exporter struct {
	db  *sql.DB
	now func() time.Time
}

// NewExporter wraps an open archive database.
func NewExporter(db *sql.DB) *Exporter {
	return &Exporter{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Export archives the record. Re-exporting a case replaces its previous
// rows inside one transaction, so the archive always reflects the
// latest snapshot of the transcript.
func (e *Exporter) Export(ctx context.Context, rec caselog.ExportRecord) error {
	if rec.CaseID == "" {
		return fmt.Errorf("export record has no case id")
	}

	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	exportedAt := e.now().Format(time.RFC3339)

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transcript_rows WHERE case_id = ?`, rec.CaseID); err != nil {
		return fmt.Errorf("clearing previous export: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO transcript_rows
		(case_id, seq, document_id, issue, timestamp_utc, node_id, node_text, choice, next_node, metadata, exported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for seq, row := range rec.Log {
		_, err := stmt.ExecContext(ctx,
			rec.CaseID,
			seq,
			rec.DocumentID,
			rec.Issue,
			row.Timestamp,
			row.NodeID,
			row.NodeText,
			row.Choice,
			row.NextNode,
			string(meta),
			exportedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting transcript row %d: %w", seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing export: %w", err)
	}
	return nil
}

// Rows returns the archived rows for a case in sequence order, for
// inspection tooling.
func (e *Exporter) Rows(ctx context.Context, caseID string) ([]caselog.ExportRow, error) {
	rows, err := e.db.QueryContext(ctx, `SELECT timestamp_utc, node_id, node_text, choice, next_node
		FROM transcript_rows WHERE case_id = ? ORDER BY seq`, caseID)
	if err != nil {
		return nil, fmt.Errorf("querying transcript rows: %w", err)
	}
	defer rows.Close()

	var out []caselog.ExportRow
	for rows.Next() {
		var r caselog.ExportRow
		if err := rows.Scan(&r.Timestamp, &r.NodeID, &r.NodeText, &r.Choice, &r.NextNode); err != nil {
			return nil, fmt.Errorf("scanning transcript row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
