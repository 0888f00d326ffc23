package caselog_test

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/shaktimishra84/icuflow/pkg/caselog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport_Idempotent(t *testing.T) {
	doc := buildDoc(t, twoStepDoc)
	runner := caselog.NewRunner(doc)

	c := runner.Start(map[string]string{"resident": "r1"})
	require.NoError(t, runner.Choose(c, "Yes"))

	first := runner.Export(c)
	second := runner.Export(c)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Export is not idempotent:\n%+v\n%+v", first, second)
	}
}

func TestExport_JSONShape(t *testing.T) {
	doc := buildDoc(t, twoStepDoc)
	doc.ID = "sepsis"
	doc.Title = "Sepsis Bundle"
	runner := caselog.NewRunner(doc)

	c := runner.Start(map[string]string{"resident": "dr. okafor", "patient_id": "icu-7"})
	require.NoError(t, runner.Choose(c, "Yes"))

	data, err := json.Marshal(runner.Export(c))
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, c.ID, out["case_id"])
	assert.Equal(t, "Sepsis Bundle", out["issue"])
	// Metadata is inlined at the top level, not nested.
	assert.Equal(t, "dr. okafor", out["resident"])
	assert.Equal(t, "icu-7", out["patient_id"])

	log, ok := out["log"].([]any)
	require.True(t, ok, "log must be an array")
	require.Len(t, log, 1)

	row := log[0].(map[string]any)
	assert.Equal(t, "a", row["node_id"])
	assert.Equal(t, "Q1", row["node_text"])
	assert.Equal(t, "Yes", row["choice"])
	assert.Equal(t, "b", row["next_node"])
	assert.NotEmpty(t, row["timestamp_utc"])
}

func TestExport_CSV(t *testing.T) {
	doc := buildDoc(t, twoStepDoc)
	runner := caselog.NewRunner(doc)

	c := runner.Start(nil)
	require.NoError(t, runner.Choose(c, "No"))
	require.NoError(t, runner.Choose(c, "Yes"))

	var buf bytes.Buffer
	require.NoError(t, runner.Export(c).WriteCSV(&buf))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "timestamp_utc,node_id,node_text,choice,next_node", lines[0])
	assert.Contains(t, lines[1], ",a,Q1,No,a")
	assert.Contains(t, lines[2], ",a,Q1,Yes,b")
}

func TestExport_EmptyTranscript(t *testing.T) {
	doc := buildDoc(t, twoStepDoc)
	runner := caselog.NewRunner(doc)
	c := runner.Start(nil)

	rec := runner.Export(c)
	assert.Empty(t, rec.Log)

	var buf bytes.Buffer
	require.NoError(t, rec.WriteCSV(&buf))
	assert.Equal(t, "timestamp_utc,node_id,node_text,choice,next_node\n", buf.String())
}
