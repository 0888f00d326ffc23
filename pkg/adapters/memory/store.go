// Package memory provides an in-process CaseStore, used for tests and
// single-binary deployments without persistence requirements.
package memory

import (
	"context"
	"sync"

	"github.com/shaktimishra84/icuflow/pkg/caselog"
	"github.com/shaktimishra84/icuflow/pkg/ports"
)

// Store implements ports.CaseStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*caselog.Case
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*caselog.Case),
	}
}

// clone deep-copies a case so holders never share mutable state through
// the store, mirroring what a serializing backend does for free.
func clone(c *caselog.Case) *caselog.Case {
	copied := *c
	if c.Metadata != nil {
		copied.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			copied.Metadata[k] = v
		}
	}
	copied.Transcript = make([]caselog.TranscriptEntry, len(c.Transcript))
	copy(copied.Transcript, c.Transcript)
	return &copied
}

// Save persists the case in memory.
func (s *Store) Save(ctx context.Context, c *caselog.Case) error {
	copied := clone(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[c.ID] = copied
	return nil
}

// Load retrieves a copy of the case.
func (s *Store) Load(ctx context.Context, caseID string) (*caselog.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.data[caseID]
	if !ok {
		return nil, ports.ErrCaseNotFound
	}
	return clone(c), nil
}

// Delete removes the case.
func (s *Store) Delete(ctx context.Context, caseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, caseID)
	return nil
}

// List returns stored case ids.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
