package icuflow_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shaktimishra84/icuflow"
	"github.com/shaktimishra84/icuflow/pkg/caselog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hypotensionJSON = `{
	"assistant_flow": {
		"start": "assess",
		"nodes": [
			{"id": "assess", "text": "MAP < 65?", "options": [{"label": "Yes", "next": "fluids"}, {"label": "No", "next": "observe"}]},
			{"id": "fluids", "text": "Give 30 ml/kg crystalloid", "options": [{"label": "Responded", "next": "observe"}, {"label": "Refractory", "next": "pressors"}]},
			{"id": "pressors", "text": "Start norepinephrine", "end": true},
			{"id": "observe", "text": "Continue monitoring", "end": true}
		]
	}
}`

func newApp(t *testing.T) *icuflow.App {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "02_hypotension.json"), []byte(hypotensionJSON), 0644))

	app, err := icuflow.New(dir)
	require.NoError(t, err)
	return app
}

func TestAppWalksCase(t *testing.T) {
	app := newApp(t)
	ctx := context.Background()

	entries := app.Documents()
	require.Len(t, entries, 1)
	assert.Equal(t, "hypotension", entries[0].Title)

	c, err := app.StartCase(ctx, "02_hypotension", map[string]string{"resident": "r9"})
	require.NoError(t, err)
	assert.Equal(t, "assess", c.CurrentNodeID)

	c, err = app.Choose(ctx, c.ID, "Yes")
	require.NoError(t, err)
	c, err = app.Choose(ctx, c.ID, "Refractory")
	require.NoError(t, err)
	assert.Equal(t, caselog.StatusTerminal, c.Status)

	rec, err := app.Transcript(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, rec.Log, 2)
	assert.Equal(t, "r9", rec.Metadata["resident"])

	c, err = app.Restart(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, caselog.StatusActive, c.Status)
	assert.Empty(t, c.Transcript)
}

func TestAppCaseManagement(t *testing.T) {
	app := newApp(t)
	ctx := context.Background()

	c, err := app.StartCase(ctx, "02_hypotension", nil)
	require.NoError(t, err)

	ids, err := app.Cases(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, c.ID)

	require.NoError(t, app.RemoveCase(ctx, c.ID))
	_, err = app.Case(ctx, c.ID)
	assert.Error(t, err)
}

func TestAppValidate(t *testing.T) {
	app := newApp(t)

	report, err := app.Validate("02_hypotension")
	require.NoError(t, err)
	assert.True(t, report.OK())

	_, err = app.Validate("ghost")
	assert.Error(t, err)
}
