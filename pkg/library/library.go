// Package library discovers algorithm JSON files under a data directory
// and hands out immutable flow documents built from them.
package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/shaktimishra84/icuflow/pkg/flow"
)

// ErrDocumentNotFound is returned when a document id is unknown.
var ErrDocumentNotFound = errors.New("document not found")

// Entry is one discovered algorithm file.
type Entry struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Path    string `json:"path"`
	HasFlow bool   `json:"has_flow"`
	Nodes   int    `json:"nodes,omitempty"`
}

// Library scans a directory tree for *.json algorithm files, parses
// them once, and caches the results. Documents are immutable; Reload
// builds new instances instead of mutating cached ones, so documents
// already handed out stay valid.
type Library struct {
	dir    string
	logger *slog.Logger

	mu      sync.RWMutex
	entries []Entry
	docs    map[string]*flow.Document
	raws    map[string]any
}

// Option configures a Library.
type Option func(*Library)

// WithLogger sets a structured logger for scan events.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Library) {
		l.logger = logger
	}
}

// New scans dir and returns the library. Files that fail to parse as
// JSON are skipped with a warning; files without an assistant_flow stay
// listed as reference documents with their raw content available.
func New(dir string, opts ...Option) (*Library, error) {
	l := &Library{
		dir:    dir,
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
	}
	for _, opt := range opts {
		opt(l)
	}

	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Reload rescans the data directory, replacing the cache.
func (l *Library) Reload() error {
	var paths []string
	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".json") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scanning %s: %w", l.dir, err)
	}
	sort.Strings(paths)

	entries := make([]Entry, 0, len(paths))
	docs := make(map[string]*flow.Document, len(paths))
	raws := make(map[string]any, len(paths))

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			l.logger.Warn("unreadable algorithm file, skipping", "path", path, "err", err)
			continue
		}

		var raw any
		if err := json.Unmarshal(data, &raw); err != nil {
			l.logger.Warn("invalid JSON, skipping", "path", path, "err", err)
			continue
		}

		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		id := slug(stem)
		if _, dup := raws[id]; dup {
			l.logger.Warn("duplicate document id, later file wins", "id", id, "path", path)
		}
		raws[id] = raw

		entry := Entry{
			ID:    id,
			Title: Title(stem),
			Path:  path,
		}

		doc, err := flow.Build(raw)
		switch {
		case err == nil:
			doc.ID = id
			doc.Title = entry.Title
			docs[id] = doc
			entry.HasFlow = true
			entry.Nodes = doc.Len()
		case errors.Is(err, flow.ErrNoFlow):
			// Plain reference document; raw content only.
		case errors.Is(err, flow.ErrMalformedFlow):
			l.logger.Warn("malformed assistant flow, falling back to raw content", "id", id, "err", err)
		default:
			l.logger.Warn("failed to build flow", "id", id, "err", err)
		}

		entries = append(entries, entry)
	}

	// Duplicate stems: keep only the surviving (last) entry per id.
	entries = dedupe(entries)

	l.mu.Lock()
	l.entries = entries
	l.docs = docs
	l.raws = raws
	l.mu.Unlock()

	l.logger.Debug("library reloaded", "dir", l.dir, "documents", len(entries))
	return nil
}

func dedupe(entries []Entry) []Entry {
	last := make(map[string]int, len(entries))
	for i, e := range entries {
		last[e.ID] = i
	}
	out := make([]Entry, 0, len(last))
	for i, e := range entries {
		if last[e.ID] == i {
			out = append(out, e)
		}
	}
	return out
}

// List returns every entry sorted by title.
func (l *Library) List() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

// Search returns entries whose id or title contains the query,
// case-insensitive. An empty query returns everything.
func (l *Library) Search(query string) []Entry {
	all := l.List()
	if query == "" {
		return all
	}

	q := strings.ToLower(query)
	out := make([]Entry, 0, len(all))
	for _, e := range all {
		if strings.Contains(strings.ToLower(e.ID), q) || strings.Contains(strings.ToLower(e.Title), q) {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of discovered documents.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Entry looks up a single entry by id.
func (l *Library) Entry(id string) (Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, e := range l.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Document returns the parsed flow document. It returns
// ErrDocumentNotFound for unknown ids and flow.ErrNoFlow for known
// documents that carry no assistant flow (callers fall back to Raw).
func (l *Library) Document(id string) (*flow.Document, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if doc, ok := l.docs[id]; ok {
		return doc, nil
	}
	if _, ok := l.raws[id]; ok {
		return nil, flow.ErrNoFlow
	}
	return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
}

// Raw returns the decoded JSON value of the document, for fallback
// display of reference documents.
func (l *Library) Raw(id string) (any, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	raw, ok := l.raws[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	return raw, nil
}
