package ports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shaktimishra84/icuflow/pkg/caselog"
)

// RunCaseStoreContract exercises the CaseStore behavior every adapter
// must satisfy. Adapter test files call this against their
// implementation.
func RunCaseStoreContract(t *testing.T, store CaseStore) {
	t.Helper()
	ctx := context.Background()

	c := &caselog.Case{
		ID:            "case-20260314-092653-ab12cd34",
		DocumentID:    "sepsis",
		CurrentNodeID: "a",
		Status:        caselog.StatusActive,
		StartedAt:     time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Metadata:      map[string]string{"resident": "r1"},
		Transcript: []caselog.TranscriptEntry{
			{
				Timestamp:    time.Date(2026, 3, 14, 9, 27, 0, 0, time.UTC),
				FromNodeID:   "a",
				FromNodeText: "Q1",
				ChoiceLabel:  "Yes",
				ToNodeID:     "b",
			},
		},
	}

	// 1. Load of an unknown case reports ErrCaseNotFound.
	if _, err := store.Load(ctx, c.ID); !errors.Is(err, ErrCaseNotFound) {
		t.Errorf("Expected ErrCaseNotFound, got %v", err)
	}

	// 2. Save then load round-trips the case.
	if err := store.Save(ctx, c); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	loaded, err := store.Load(ctx, c.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.CurrentNodeID != c.CurrentNodeID || loaded.Status != c.Status {
		t.Errorf("Round-trip mismatch: %+v", loaded)
	}
	if len(loaded.Transcript) != 1 || loaded.Transcript[0].ChoiceLabel != "Yes" {
		t.Errorf("Transcript did not survive round-trip: %+v", loaded.Transcript)
	}
	if loaded.Metadata["resident"] != "r1" {
		t.Errorf("Metadata did not survive round-trip: %v", loaded.Metadata)
	}

	// 3. Mutating the loaded copy must not leak back into the store.
	loaded.CurrentNodeID = "tampered"
	loaded.Metadata["resident"] = "tampered"
	reloaded, err := store.Load(ctx, c.ID)
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if reloaded.CurrentNodeID == "tampered" || reloaded.Metadata["resident"] == "tampered" {
		t.Error("Store leaked shared mutable state between loads")
	}

	// 4. List includes the saved case.
	ids, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	found := false
	for _, id := range ids {
		if id == c.ID {
			found = true
		}
	}
	if !found {
		t.Errorf("List missing saved case, got %v", ids)
	}

	// 5. Delete removes the case; deleting again is not an error.
	if err := store.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Load(ctx, c.ID); !errors.Is(err, ErrCaseNotFound) {
		t.Errorf("Expected ErrCaseNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, c.ID); err != nil {
		t.Errorf("Deleting an absent case should be a no-op, got %v", err)
	}
}
