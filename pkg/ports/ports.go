// Package ports defines the boundary interfaces between the traversal
// core and its collaborators: case persistence and transcript export.
package ports

import (
	"context"
	"errors"

	"github.com/shaktimishra84/icuflow/pkg/caselog"
)

// ErrCaseNotFound is returned when a case id cannot be found in a store.
var ErrCaseNotFound = errors.New("case not found")

// CaseStore persists cases keyed by their id. Implementations must
// return isolated copies (or serialized forms) so that two holders of a
// case never share mutable state through the store.
type CaseStore interface {
	// Save persists the case under c.ID.
	Save(ctx context.Context, c *caselog.Case) error

	// Load retrieves a case. Returns ErrCaseNotFound when absent.
	Load(ctx context.Context, caseID string) (*caselog.Case, error)

	// Delete removes a case. Deleting an absent case is not an error.
	Delete(ctx context.Context, caseID string) error

	// List returns the ids of all stored cases.
	List(ctx context.Context) ([]string, error)
}

// Exporter durably stores or transmits a transcript snapshot (file,
// database table, remote sheet). It reports success or failure back to
// the caller without the core knowing the mechanism.
type Exporter interface {
	Export(ctx context.Context, rec caselog.ExportRecord) error
}
