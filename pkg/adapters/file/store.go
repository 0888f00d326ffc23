// Package file provides a CaseStore backed by JSON files on the local
// filesystem, one file per case.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/shaktimishra84/icuflow/pkg/caselog"
	"github.com/shaktimishra84/icuflow/pkg/ports"
)

// Store implements ports.CaseStore on disk.
type Store struct {
	BasePath string
}

// New creates a file store rooted at basePath.
// If basePath is empty, it defaults to ".icuflow/cases".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".icuflow", "cases")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(caseID string) string {
	return filepath.Join(s.BasePath, caseID+".json")
}

// Save writes the case as an indented JSON file.
func (s *Store) Save(ctx context.Context, c *caselog.Case) error {
	if c.ID == "" {
		return fmt.Errorf("case id cannot be empty")
	}

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure case directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal case: %w", err)
	}

	if err := os.WriteFile(s.path(c.ID), data, 0644); err != nil {
		return fmt.Errorf("failed to write case file: %w", err)
	}

	return nil
}

// Load reads a case back from disk.
func (s *Store) Load(ctx context.Context, caseID string) (*caselog.Case, error) {
	if caseID == "" {
		return nil, fmt.Errorf("case id cannot be empty")
	}

	data, err := os.ReadFile(s.path(caseID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ports.ErrCaseNotFound
		}
		return nil, fmt.Errorf("failed to read case file: %w", err)
	}

	var c caselog.Case
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal case: %w", err)
	}

	return &c, nil
}

// Delete removes the case file.
func (s *Store) Delete(ctx context.Context, caseID string) error {
	if caseID == "" {
		return fmt.Errorf("case id cannot be empty")
	}

	err := os.Remove(s.path(caseID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete case file: %w", err)
	}

	return nil
}

// List returns the ids of all stored cases.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			name := entry.Name()
			ids = append(ids, name[:len(name)-len(".json")])
		}
	}

	return ids, nil
}
