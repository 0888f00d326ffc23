package caselog_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shaktimishra84/icuflow/pkg/caselog"
	"github.com/shaktimishra84/icuflow/pkg/flow"
)

// buildDoc assembles a document from raw JSON the way the library does.
func buildDoc(t *testing.T, raw string) *flow.Document {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("bad test fixture: %v", err)
	}
	doc, err := flow.Build(v)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return doc
}

const twoStepDoc = `{
	"assistant_flow": {
		"start": "a",
		"nodes": [
			{"id": "a", "text": "Q1", "options": [{"label": "Yes", "next": "b"}, {"label": "No", "next": "a"}]},
			{"id": "b", "text": "Q2", "end": true}
		]
	}
}`

func TestRunner_EndToEnd(t *testing.T) {
	doc := buildDoc(t, twoStepDoc)
	runner := caselog.NewRunner(doc)

	c := runner.Start(map[string]string{"resident": "dr. okafor"})

	if c.CurrentNodeID != "a" {
		t.Errorf("Expected case at 'a', got %q", c.CurrentNodeID)
	}
	if c.Status != caselog.StatusActive {
		t.Errorf("Expected active status, got %q", c.Status)
	}
	if len(c.Transcript) != 0 {
		t.Errorf("Expected empty transcript, got %d entries", len(c.Transcript))
	}

	if err := runner.Choose(c, "Yes"); err != nil {
		t.Fatalf("Choose failed: %v", err)
	}

	if c.CurrentNodeID != "b" {
		t.Errorf("Expected case at 'b', got %q", c.CurrentNodeID)
	}
	if c.Status != caselog.StatusTerminal {
		t.Errorf("Expected terminal status at end node, got %q", c.Status)
	}
	if len(c.Transcript) != 1 {
		t.Fatalf("Expected 1 transcript entry, got %d", len(c.Transcript))
	}

	entry := c.Transcript[0]
	if entry.FromNodeID != "a" || entry.FromNodeText != "Q1" || entry.ChoiceLabel != "Yes" || entry.ToNodeID != "b" {
		t.Errorf("Unexpected transcript entry: %+v", entry)
	}
}

func TestRunner_ChooseIsAppendOnly(t *testing.T) {
	doc := buildDoc(t, twoStepDoc)
	runner := caselog.NewRunner(doc)
	c := runner.Start(nil)

	if err := runner.Choose(c, "No"); err != nil {
		t.Fatalf("Choose failed: %v", err)
	}
	first := c.Transcript[0]

	for i := 0; i < 5; i++ {
		before := len(c.Transcript)
		if err := runner.Choose(c, "No"); err != nil {
			t.Fatalf("Choose failed: %v", err)
		}
		if len(c.Transcript) != before+1 {
			t.Errorf("Expected transcript to grow by 1, got %d -> %d", before, len(c.Transcript))
		}
	}

	if c.Transcript[0] != first {
		t.Errorf("Prior entry changed: %+v != %+v", c.Transcript[0], first)
	}
}

func TestRunner_TimestampsMonotonic(t *testing.T) {
	doc := buildDoc(t, twoStepDoc)
	runner := caselog.NewRunner(doc)
	c := runner.Start(nil)

	for i := 0; i < 10; i++ {
		if err := runner.Choose(c, "No"); err != nil {
			t.Fatalf("Choose failed: %v", err)
		}
	}

	for i := 1; i < len(c.Transcript); i++ {
		if c.Transcript[i].Timestamp.Before(c.Transcript[i-1].Timestamp) {
			t.Errorf("Timestamps regressed at entry %d", i)
		}
	}
}

func TestRunner_ChooseUnknownLabel(t *testing.T) {
	doc := buildDoc(t, twoStepDoc)
	runner := caselog.NewRunner(doc)
	c := runner.Start(nil)

	err := runner.Choose(c, "Maybe")
	if !errors.Is(err, caselog.ErrUnknownChoice) {
		t.Errorf("Expected ErrUnknownChoice, got %v", err)
	}
	if len(c.Transcript) != 0 {
		t.Errorf("Rejected choice must not be logged, got %d entries", len(c.Transcript))
	}
	if c.CurrentNodeID != "a" {
		t.Errorf("Rejected choice must not move the case, got %q", c.CurrentNodeID)
	}
}

func TestRunner_NoChoiceFromTerminal(t *testing.T) {
	doc := buildDoc(t, twoStepDoc)
	runner := caselog.NewRunner(doc)
	c := runner.Start(nil)

	if err := runner.Choose(c, "Yes"); err != nil {
		t.Fatalf("Choose failed: %v", err)
	}

	err := runner.Choose(c, "Yes")
	if !errors.Is(err, caselog.ErrCaseClosed) {
		t.Errorf("Expected ErrCaseClosed, got %v", err)
	}
}

func TestRunner_Restart(t *testing.T) {
	doc := buildDoc(t, twoStepDoc)
	runner := caselog.NewRunner(doc)

	meta := map[string]string{"patient_id": "icu-7"}
	c := runner.Start(meta)
	originalID := c.ID

	if err := runner.Choose(c, "Yes"); err != nil {
		t.Fatalf("Choose failed: %v", err)
	}

	runner.Restart(c)

	if c.ID != originalID {
		t.Errorf("Restart must preserve case id, got %q", c.ID)
	}
	if c.Metadata["patient_id"] != "icu-7" {
		t.Errorf("Restart must preserve metadata, got %v", c.Metadata)
	}
	if c.CurrentNodeID != "a" || c.Status != caselog.StatusActive {
		t.Errorf("Expected case back at active start, got %q/%q", c.CurrentNodeID, c.Status)
	}
	if len(c.Transcript) != 0 {
		t.Errorf("Restart must clear transcript, got %d entries", len(c.Transcript))
	}

	// The case is usable again after restart.
	if err := runner.Choose(c, "Yes"); err != nil {
		t.Fatalf("Choose after restart failed: %v", err)
	}
}

func TestRunner_DanglingEdge(t *testing.T) {
	doc := buildDoc(t, `{
		"assistant_flow": {
			"start": "x",
			"nodes": [{"id": "x", "text": "step", "options": [{"label": "go", "next": "missing"}]}]
		}
	}`)
	runner := caselog.NewRunner(doc)
	c := runner.Start(nil)

	if err := runner.Choose(c, "go"); err != nil {
		t.Fatalf("Dangling edge must not fail the transition: %v", err)
	}

	if len(c.Transcript) != 1 || c.Transcript[0].ToNodeID != "missing" {
		t.Errorf("Transition into the dangling target must be logged: %+v", c.Transcript)
	}
	if c.Status != caselog.StatusUnresolved {
		t.Errorf("Expected unresolved status, got %q", c.Status)
	}
	if _, ok := runner.Current(c); ok {
		t.Error("Current node must not resolve after following a dangling edge")
	}

	// Stuck until restart.
	if err := runner.Choose(c, "go"); !errors.Is(err, caselog.ErrCaseClosed) {
		t.Errorf("Expected ErrCaseClosed on unresolved case, got %v", err)
	}
	runner.Restart(c)
	if c.Status != caselog.StatusActive {
		t.Errorf("Restart must recover an unresolved case, got %q", c.Status)
	}
}

func TestRunner_TerminalStart(t *testing.T) {
	doc := buildDoc(t, `{
		"assistant_flow": {
			"start": "only",
			"nodes": [{"id": "only", "text": "done", "end": true}]
		}
	}`)
	runner := caselog.NewRunner(doc)
	c := runner.Start(nil)

	if c.Status != caselog.StatusTerminal {
		t.Errorf("Expected terminal status when start node ends, got %q", c.Status)
	}
}

func TestRunner_DeterministicClock(t *testing.T) {
	doc := buildDoc(t, twoStepDoc)

	base := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	tick := 0
	runner := caselog.NewRunner(doc, caselog.WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}))

	c := runner.Start(nil)
	if err := runner.Choose(c, "Yes"); err != nil {
		t.Fatalf("Choose failed: %v", err)
	}

	if got := c.Transcript[0].Timestamp; !got.Equal(base.Add(2 * time.Second)) {
		t.Errorf("Clock not honored: %v", got)
	}
}

func TestNewCaseID_Unique(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := caselog.NewCaseID(now)
		if seen[id] {
			t.Fatalf("Duplicate case id within one second: %s", id)
		}
		seen[id] = true
	}
}
