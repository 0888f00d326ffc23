package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shaktimishra84/icuflow/pkg/adapters/sqlite"
	"github.com/shaktimishra84/icuflow/pkg/caselog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord() caselog.ExportRecord {
	return caselog.ExportRecord{
		CaseID:     "case-20260314-092653-ab12cd34",
		DocumentID: "sepsis",
		Issue:      "Sepsis Bundle",
		Metadata:   map[string]string{"resident": "r1"},
		Log: []caselog.ExportRow{
			{Timestamp: "2026-03-14T09:27:00Z", NodeID: "a", NodeText: "Q1", Choice: "Yes", NextNode: "b"},
			{Timestamp: "2026-03-14T09:27:30Z", NodeID: "b", NodeText: "Q2", Choice: "No", NextNode: "c"},
		},
	}
}

func TestExporter_RoundTrip(t *testing.T) {
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	defer db.Close()

	exporter := sqlite.NewExporter(db)
	ctx := context.Background()
	rec := testRecord()

	require.NoError(t, exporter.Export(ctx, rec))

	rows, err := exporter.Rows(ctx, rec.CaseID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, rec.Log, rows)
}

func TestExporter_ReExportReplaces(t *testing.T) {
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	defer db.Close()

	exporter := sqlite.NewExporter(db)
	ctx := context.Background()

	rec := testRecord()
	require.NoError(t, exporter.Export(ctx, rec))

	// Second export with a shorter log (e.g. after restart).
	rec.Log = rec.Log[:1]
	require.NoError(t, exporter.Export(ctx, rec))

	rows, err := exporter.Rows(ctx, rec.CaseID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
