// Package http exposes the document library and case lifecycle as a
// JSON API.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shaktimishra84/icuflow/internal/logging"
	"github.com/shaktimishra84/icuflow/pkg/caselog"
	"github.com/shaktimishra84/icuflow/pkg/flow"
	"github.com/shaktimishra84/icuflow/pkg/library"
	"github.com/shaktimishra84/icuflow/pkg/ports"
)

// Library defines what the handlers need from the document catalog.
type Library interface {
	Search(query string) []library.Entry
	Entry(id string) (library.Entry, bool)
	Document(id string) (*flow.Document, error)
	Raw(id string) (any, error)
}

// Server wires the library, case store and exporter behind HTTP
// handlers.
type Server struct {
	library  Library
	store    ports.CaseStore
	exporter ports.Exporter
	logger   *slog.Logger
	metrics  *metrics
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithExporter attaches a persistence collaborator for transcript
// exports. Without one, POST export returns 503.
func WithExporter(exporter ports.Exporter) Option {
	return func(s *Server) {
		s.exporter = exporter
	}
}

// NewHandler builds the HTTP handler.
func NewHandler(lib Library, store ports.CaseStore, opts ...Option) http.Handler {
	s := &Server{
		library: lib,
		store:   store,
		logger:  logging.NewNop(),
		metrics: newMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()

	r.Get("/healthz", s.health)
	r.Handle("/metrics", s.metrics.handler)

	r.Route("/documents", func(r chi.Router) {
		r.Get("/", s.listDocuments)
		r.Get("/{id}", s.getDocument)
	})

	r.Route("/cases", func(r chi.Router) {
		r.Post("/", s.createCase)
		r.Get("/", s.listCases)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getCase)
			r.Delete("/", s.deleteCase)
			r.Post("/choose", s.choose)
			r.Post("/restart", s.restart)
			r.Get("/transcript", s.transcript)
			r.Post("/export", s.export)
		})
	})

	return r
}

// nodeView is the rendered current step of a case. Resolved is false
// when the case followed a dangling edge; the step then renders blank.
type nodeView struct {
	ID       string        `json:"id"`
	Text     string        `json:"text,omitempty"`
	End      bool          `json:"end,omitempty"`
	Options  []flow.Choice `json:"options,omitempty"`
	Resolved bool          `json:"resolved"`
}

type caseView struct {
	*caselog.Case
	Node *nodeView `json:"node,omitempty"`
}

func (s *Server) view(runner *caselog.Runner, c *caselog.Case) caseView {
	v := caseView{Case: c}
	node, ok := runner.Current(c)
	if ok {
		v.Node = &nodeView{ID: node.ID, Text: node.Text, End: node.End, Options: node.Options, Resolved: true}
	} else {
		v.Node = &nodeView{ID: c.CurrentNodeID, Resolved: false}
	}
	return v
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// runnerFor resolves the document a case walks and binds a runner to
// it. Runners are cheap; one is built per request.
func (s *Server) runnerFor(c *caselog.Case) (*caselog.Runner, error) {
	doc, err := s.library.Document(c.DocumentID)
	if err != nil {
		return nil, err
	}
	return caselog.NewRunner(doc, caselog.WithLogger(s.logger)), nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	entries := s.library.Search(r.URL.Query().Get("q"))
	s.writeJSON(w, http.StatusOK, entries)
}

// getDocument returns the flow graph, or the raw document content for
// reference documents without a flow.
func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, ok := s.library.Entry(id)
	if !ok {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}

	doc, err := s.library.Document(id)
	if errors.Is(err, flow.ErrNoFlow) {
		raw, rawErr := s.library.Raw(id)
		if rawErr != nil {
			http.Error(w, fmt.Sprintf("load error: %v", rawErr), http.StatusInternalServerError)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"entry": entry, "raw": raw})
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("load error: %v", err), http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"entry": entry,
		"start": doc.Start,
		"nodes": doc.Nodes(),
	})
}

type createCaseRequest struct {
	DocumentID string            `json:"document_id"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

func (s *Server) createCase(w http.ResponseWriter, r *http.Request) {
	var body createCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	doc, err := s.library.Document(body.DocumentID)
	if errors.Is(err, library.ErrDocumentNotFound) {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, flow.ErrNoFlow) {
		http.Error(w, "document has no assistant flow", http.StatusConflict)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("load error: %v", err), http.StatusInternalServerError)
		return
	}

	runner := caselog.NewRunner(doc, caselog.WithLogger(s.logger))
	c := runner.Start(body.Metadata)

	if err := s.store.Save(r.Context(), c); err != nil {
		http.Error(w, fmt.Sprintf("save error: %v", err), http.StatusInternalServerError)
		return
	}

	s.metrics.casesStarted.WithLabelValues(c.DocumentID).Inc()
	s.logger.Info("case started", "case_id", c.ID, "document", c.DocumentID)
	s.writeJSON(w, http.StatusCreated, s.view(runner, c))
}

func (s *Server) listCases(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("list error: %v", err), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"cases": ids})
}

// loadCase fetches the case or writes the error response and returns
// nil.
func (s *Server) loadCase(w http.ResponseWriter, r *http.Request) *caselog.Case {
	id := chi.URLParam(r, "id")
	c, err := s.store.Load(r.Context(), id)
	if errors.Is(err, ports.ErrCaseNotFound) {
		http.Error(w, "case not found", http.StatusNotFound)
		return nil
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("load error: %v", err), http.StatusInternalServerError)
		return nil
	}
	return c
}

func (s *Server) getCase(w http.ResponseWriter, r *http.Request) {
	c := s.loadCase(w, r)
	if c == nil {
		return
	}

	runner, err := s.runnerFor(c)
	if err != nil {
		http.Error(w, fmt.Sprintf("document error: %v", err), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, s.view(runner, c))
}

func (s *Server) deleteCase(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		http.Error(w, fmt.Sprintf("delete error: %v", err), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type chooseRequest struct {
	Label string `json:"label"`
}

func (s *Server) choose(w http.ResponseWriter, r *http.Request) {
	c := s.loadCase(w, r)
	if c == nil {
		return
	}

	var body chooseRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	runner, err := s.runnerFor(c)
	if err != nil {
		http.Error(w, fmt.Sprintf("document error: %v", err), http.StatusInternalServerError)
		return
	}

	if err := runner.Choose(c, body.Label); err != nil {
		switch {
		case errors.Is(err, caselog.ErrUnknownChoice):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, caselog.ErrCaseClosed):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, fmt.Sprintf("choose error: %v", err), http.StatusInternalServerError)
		}
		return
	}

	if err := s.store.Save(r.Context(), c); err != nil {
		http.Error(w, fmt.Sprintf("save error: %v", err), http.StatusInternalServerError)
		return
	}

	s.metrics.transitions.WithLabelValues(c.DocumentID).Inc()
	if c.Status == caselog.StatusUnresolved {
		s.metrics.dangling.Inc()
	}
	s.writeJSON(w, http.StatusOK, s.view(runner, c))
}

func (s *Server) restart(w http.ResponseWriter, r *http.Request) {
	c := s.loadCase(w, r)
	if c == nil {
		return
	}

	runner, err := s.runnerFor(c)
	if err != nil {
		http.Error(w, fmt.Sprintf("document error: %v", err), http.StatusInternalServerError)
		return
	}

	runner.Restart(c)

	if err := s.store.Save(r.Context(), c); err != nil {
		http.Error(w, fmt.Sprintf("save error: %v", err), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, s.view(runner, c))
}

// transcript serves the export record as JSON, or as CSV with
// ?format=csv.
func (s *Server) transcript(w http.ResponseWriter, r *http.Request) {
	c := s.loadCase(w, r)
	if c == nil {
		return
	}

	runner, err := s.runnerFor(c)
	if err != nil {
		http.Error(w, fmt.Sprintf("document error: %v", err), http.StatusInternalServerError)
		return
	}
	rec := runner.Export(c)

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.CaseID+".csv"))
		if err := rec.WriteCSV(w); err != nil {
			s.logger.Error("csv write failed", "err", err)
		}
		return
	}

	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		http.Error(w, "no exporter configured", http.StatusServiceUnavailable)
		return
	}

	c := s.loadCase(w, r)
	if c == nil {
		return
	}

	runner, err := s.runnerFor(c)
	if err != nil {
		http.Error(w, fmt.Sprintf("document error: %v", err), http.StatusInternalServerError)
		return
	}

	rec := runner.Export(c)
	if err := s.exporter.Export(r.Context(), rec); err != nil {
		http.Error(w, fmt.Sprintf("export error: %v", err), http.StatusBadGateway)
		return
	}

	s.metrics.exports.Inc()
	s.logger.Info("transcript exported", "case_id", c.ID)
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "exported", "case_id": c.ID})
}
