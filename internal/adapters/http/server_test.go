package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	httpAdapter "github.com/shaktimishra84/icuflow/internal/adapters/http"
	"github.com/shaktimishra84/icuflow/pkg/adapters/memory"
	"github.com/shaktimishra84/icuflow/pkg/caselog"
	"github.com/shaktimishra84/icuflow/pkg/library"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sepsisJSON = `{
	"assistant_flow": {
		"start": "a",
		"nodes": [
			{"id": "a", "text": "Lactate > 2?", "options": [{"label": "Yes", "next": "b"}, {"label": "No", "next": "c"}]},
			{"id": "b", "text": "Start bundle", "end": true},
			{"id": "c", "text": "Reassess", "options": [{"label": "Done", "next": "ghost"}]}
		]
	}
}`

type captureExporter struct {
	records []caselog.ExportRecord
}

func (e *captureExporter) Export(ctx context.Context, rec caselog.ExportRecord) error {
	e.records = append(e.records, rec)
	return nil
}

func newTestHandler(t *testing.T) (http.Handler, *captureExporter) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01_sepsis.json"), []byte(sepsisJSON), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reference.json"), []byte(`{"note": "plain"}`), 0644))

	lib, err := library.New(dir)
	require.NoError(t, err)

	exporter := &captureExporter{}
	handler := httpAdapter.NewHandler(lib, memory.NewStore(), httpAdapter.WithExporter(exporter))
	return handler, exporter
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

func startCase(t *testing.T, handler http.Handler) string {
	t.Helper()
	rec := doJSON(t, handler, http.MethodPost, "/cases", map[string]any{
		"document_id": "01_sepsis",
		"metadata":    map[string]string{"resident": "r1"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody(t, rec)["case_id"].(string)
}

func TestHealthz(t *testing.T) {
	handler, _ := newTestHandler(t)
	rec := doJSON(t, handler, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListDocuments(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := doJSON(t, handler, http.MethodGet, "/documents", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []library.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 2)

	rec = doJSON(t, handler, http.MethodGet, "/documents?q=sepsis", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 1)
}

func TestGetDocument(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := doJSON(t, handler, http.MethodGet, "/documents/01_sepsis", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "a", body["start"])

	// Reference documents degrade to raw content.
	rec = doJSON(t, handler, http.MethodGet, "/documents/reference", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Contains(t, body, "raw")

	rec = doJSON(t, handler, http.MethodGet, "/documents/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCaseLifecycle(t *testing.T) {
	handler, _ := newTestHandler(t)
	caseID := startCase(t, handler)

	// Current node is rendered with its options.
	rec := doJSON(t, handler, http.MethodGet, "/cases/"+caseID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	node := body["node"].(map[string]any)
	assert.Equal(t, "a", node["id"])
	assert.Len(t, node["options"], 2)

	// Choose moves the case and logs the transition.
	rec = doJSON(t, handler, http.MethodPost, "/cases/"+caseID+"/choose", map[string]string{"label": "Yes"})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, "terminal", body["status"])
	assert.Len(t, body["transcript"], 1)

	// No choices from a terminal case.
	rec = doJSON(t, handler, http.MethodPost, "/cases/"+caseID+"/choose", map[string]string{"label": "Yes"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Restart resets position and transcript.
	rec = doJSON(t, handler, http.MethodPost, "/cases/"+caseID+"/restart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, "active", body["status"])
	assert.Len(t, body["transcript"], 0)

	// Delete removes the case.
	rec = doJSON(t, handler, http.MethodDelete, "/cases/"+caseID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doJSON(t, handler, http.MethodGet, "/cases/"+caseID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChooseValidation(t *testing.T) {
	handler, _ := newTestHandler(t)
	caseID := startCase(t, handler)

	rec := doJSON(t, handler, http.MethodPost, "/cases/"+caseID+"/choose", map[string]string{"label": "Nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/cases/ghost/choose", map[string]string{"label": "Yes"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDanglingEdgeDegrades(t *testing.T) {
	handler, _ := newTestHandler(t)
	caseID := startCase(t, handler)

	rec := doJSON(t, handler, http.MethodPost, "/cases/"+caseID+"/choose", map[string]string{"label": "No"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/cases/"+caseID+"/choose", map[string]string{"label": "Done"})
	require.Equal(t, http.StatusOK, rec.Code, "dangling edges must not fail the request")
	body := decodeBody(t, rec)
	assert.Equal(t, "unresolved", body["status"])

	node := body["node"].(map[string]any)
	assert.Equal(t, "ghost", node["id"])
	assert.Equal(t, false, node["resolved"])
}

func TestCreateCaseErrors(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := doJSON(t, handler, http.MethodPost, "/cases", map[string]string{"document_id": "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/cases", map[string]string{"document_id": "reference"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTranscript(t *testing.T) {
	handler, _ := newTestHandler(t)
	caseID := startCase(t, handler)
	doJSON(t, handler, http.MethodPost, "/cases/"+caseID+"/choose", map[string]string{"label": "Yes"})

	rec := doJSON(t, handler, http.MethodGet, "/cases/"+caseID+"/transcript", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, caseID, body["case_id"])
	assert.Equal(t, "r1", body["resident"])
	assert.Len(t, body["log"], 1)

	rec = doJSON(t, handler, http.MethodGet, "/cases/"+caseID+"/transcript?format=csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "timestamp_utc,node_id,node_text,choice,next_node"))
}

func TestExport(t *testing.T) {
	handler, exporter := newTestHandler(t)
	caseID := startCase(t, handler)
	doJSON(t, handler, http.MethodPost, "/cases/"+caseID+"/choose", map[string]string{"label": "Yes"})

	rec := doJSON(t, handler, http.MethodPost, "/cases/"+caseID+"/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, exporter.records, 1)
	assert.Equal(t, caseID, exporter.records[0].CaseID)
	assert.Len(t, exporter.records[0].Log, 1)
}

func TestMetricsEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t)
	caseID := startCase(t, handler)
	doJSON(t, handler, http.MethodPost, "/cases/"+caseID+"/choose", map[string]string{"label": "Yes"})

	rec := doJSON(t, handler, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "icuflow_cases_started_total")
	assert.Contains(t, rec.Body.String(), "icuflow_transitions_total")
}
