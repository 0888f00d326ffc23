// Package icuflow is the high-level entry point for embedding the
// algorithm engine. It wires the document library, the case runner and
// a pluggable case store behind one facade so hosts (CLI, HTTP, MCP)
// do not have to assemble the pieces themselves.
package icuflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaktimishra84/icuflow/internal/logging"
	"github.com/shaktimishra84/icuflow/pkg/adapters/memory"
	"github.com/shaktimishra84/icuflow/pkg/caselog"
	"github.com/shaktimishra84/icuflow/pkg/flow"
	"github.com/shaktimishra84/icuflow/pkg/library"
	"github.com/shaktimishra84/icuflow/pkg/ports"
)

// Version is the release version reported by the CLI and the MCP
// server handshake.
var Version = "0.3.0"

// App bundles a document library with a case store.
type App struct {
	library *library.Library
	store   ports.CaseStore
	logger  *slog.Logger
}

// Option configures the App.
type Option func(*App)

// WithStore injects a case store. The default is an in-memory store.
func WithStore(store ports.CaseStore) Option {
	return func(a *App) {
		a.store = store
	}
}

// WithLogger sets a structured logger for the app and its runners.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// New scans dataDir for algorithm documents and returns a ready App.
func New(dataDir string, opts ...Option) (*App, error) {
	a := &App{}
	for _, opt := range opts {
		opt(a)
	}

	if a.store == nil {
		a.store = memory.NewStore()
	}
	if a.logger == nil {
		a.logger = logging.NewNop()
	}

	lib, err := library.New(dataDir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dataDir, err)
	}
	a.library = lib

	return a, nil
}

// Library exposes the underlying document catalog.
func (a *App) Library() *library.Library {
	return a.library
}

// Store exposes the underlying case store.
func (a *App) Store() ports.CaseStore {
	return a.store
}

// Documents lists every scanned document, sorted by display title.
func (a *App) Documents() []library.Entry {
	return a.library.List()
}

// Search filters documents by id or title substring.
func (a *App) Search(query string) []library.Entry {
	return a.library.Search(query)
}

// Validate checks a document's decision graph for dead links and
// unreachable nodes.
func (a *App) Validate(documentID string) (flow.Report, error) {
	doc, err := a.library.Document(documentID)
	if err != nil {
		return flow.Report{}, err
	}
	return flow.Validate(doc), nil
}

// StartCase opens a new case against a document and persists it.
func (a *App) StartCase(ctx context.Context, documentID string, metadata map[string]string) (*caselog.Case, error) {
	doc, err := a.library.Document(documentID)
	if err != nil {
		return nil, err
	}

	runner := caselog.NewRunner(doc, caselog.WithLogger(a.logger))
	c := runner.Start(metadata)
	if err := a.store.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("saving case: %w", err)
	}

	a.logger.Info("case started", "case_id", c.ID, "document", documentID)
	return c, nil
}

// Case loads a persisted case by id.
func (a *App) Case(ctx context.Context, caseID string) (*caselog.Case, error) {
	return a.store.Load(ctx, caseID)
}

// Cases lists the ids of persisted cases.
func (a *App) Cases(ctx context.Context) ([]string, error) {
	return a.store.List(ctx)
}

// RemoveCase deletes a persisted case.
func (a *App) RemoveCase(ctx context.Context, caseID string) error {
	return a.store.Delete(ctx, caseID)
}

// Choose applies a labeled choice to a case and persists the result.
func (a *App) Choose(ctx context.Context, caseID, label string) (*caselog.Case, error) {
	c, runner, err := a.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if err := runner.Choose(c, label); err != nil {
		return nil, err
	}
	if err := a.store.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("saving case: %w", err)
	}
	return c, nil
}

// Restart resets a case to the start node, clearing its transcript,
// and persists the result.
func (a *App) Restart(ctx context.Context, caseID string) (*caselog.Case, error) {
	c, runner, err := a.load(ctx, caseID)
	if err != nil {
		return nil, err
	}
	runner.Restart(c)
	if err := a.store.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("saving case: %w", err)
	}
	return c, nil
}

// Transcript projects a case into its export record.
func (a *App) Transcript(ctx context.Context, caseID string) (caselog.ExportRecord, error) {
	c, runner, err := a.load(ctx, caseID)
	if err != nil {
		return caselog.ExportRecord{}, err
	}
	return runner.Export(c), nil
}

// Runner binds a runner to the document a case walks. Most callers use
// the higher-level methods; hosts that drive the walk themselves (like
// the interactive CLI) need the runner directly.
func (a *App) Runner(c *caselog.Case) (*caselog.Runner, error) {
	doc, err := a.library.Document(c.DocumentID)
	if err != nil {
		return nil, err
	}
	return caselog.NewRunner(doc, caselog.WithLogger(a.logger)), nil
}

func (a *App) load(ctx context.Context, caseID string) (*caselog.Case, *caselog.Runner, error) {
	c, err := a.store.Load(ctx, caseID)
	if err != nil {
		return nil, nil, err
	}
	runner, err := a.Runner(c)
	if err != nil {
		return nil, nil, err
	}
	return c, runner, nil
}
