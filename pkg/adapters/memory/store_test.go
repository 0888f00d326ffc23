package memory_test

import (
	"testing"

	"github.com/shaktimishra84/icuflow/pkg/adapters/memory"
	"github.com/shaktimishra84/icuflow/pkg/ports"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunCaseStoreContract(t, store)
}
