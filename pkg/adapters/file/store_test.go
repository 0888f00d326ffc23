package file_test

import (
	"context"
	"testing"

	"github.com/shaktimishra84/icuflow/pkg/adapters/file"
	"github.com/shaktimishra84/icuflow/pkg/ports"
)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunCaseStoreContract(t, store)
}

func TestFileStore_ListEmptyDir(t *testing.T) {
	store := file.New(t.TempDir() + "/never-created")
	ids, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List on missing dir should not fail: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Expected no cases, got %v", ids)
	}
}
