package caselog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shaktimishra84/icuflow/pkg/flow"
)

// ErrUnknownChoice is returned when the requested label is not among the
// current node's options. A well-formed caller only offers labels from
// the node it rendered, so hitting this is a contract violation.
var ErrUnknownChoice = errors.New("choice not offered by current node")

// ErrCaseClosed is returned when a choice is applied to a terminal or
// unresolved case. Only Restart moves a closed case.
var ErrCaseClosed = errors.New("case is closed")

// Runner drives traversals of a single document. It holds no per-case
// state; every operation takes the case it should act on, so a Runner is
// safe to share across sessions of the same document.
type Runner struct {
	doc    *flow.Document
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock overrides the timestamp source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// WithLogger sets a structured logger for transition events.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a runner bound to a document.
func NewRunner(doc *flow.Document, opts ...Option) *Runner {
	r := &Runner{
		doc:    doc,
		now:    func() time.Time { return time.Now().UTC() },
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Document returns the document this runner walks.
func (r *Runner) Document() *flow.Document {
	return r.doc
}

// NewCaseID produces a case identifier safe for filenames: a readable
// timestamp prefix plus a uuid fragment so two cases started in the same
// second cannot collide.
func NewCaseID(now time.Time) string {
	return fmt.Sprintf("case-%s-%s", now.Format("20060102-150405"), uuid.NewString()[:8])
}

// Start creates a case positioned at the document's start node with an
// empty transcript. It always succeeds; a missing or terminal start node
// simply yields a case that is already closed.
func (r *Runner) Start(metadata map[string]string) *Case {
	now := r.now()
	c := &Case{
		ID:            NewCaseID(now),
		DocumentID:    r.doc.ID,
		DocumentTitle: r.doc.Title,
		CurrentNodeID: r.doc.Start,
		StartedAt:     now,
		Metadata:      metadata,
		Transcript:    []TranscriptEntry{},
	}
	c.Status = r.statusOf(c.CurrentNodeID)

	r.logger.Debug("case started", "case_id", c.ID, "document", c.DocumentID, "node", c.CurrentNodeID)
	return c
}

// Choose applies one transition: it appends a transcript entry capturing
// the pre-transition node, then moves the case to the choice's target.
// The append happens even when the target is a dangling edge; the case
// then lands in StatusUnresolved rather than losing the record.
func (r *Runner) Choose(c *Case, label string) error {
	if c.Status.Closed() {
		return fmt.Errorf("%w: %s", ErrCaseClosed, c.Status)
	}

	node, ok := r.doc.Lookup(c.CurrentNodeID)
	if !ok {
		// Start pointed nowhere but status was computed before a reload;
		// treat like any unresolved position.
		c.Status = StatusUnresolved
		return fmt.Errorf("%w: %s", ErrCaseClosed, c.Status)
	}

	choice, ok := node.Choice(label)
	if !ok {
		return fmt.Errorf("%w: %q at node %s", ErrUnknownChoice, label, node.ID)
	}

	c.Transcript = append(c.Transcript, TranscriptEntry{
		Timestamp:    r.now(),
		FromNodeID:   node.ID,
		FromNodeText: node.Text,
		ChoiceLabel:  choice.Label,
		ToNodeID:     choice.Next,
	})
	c.CurrentNodeID = choice.Next
	c.Status = r.statusOf(choice.Next)

	if c.Status == StatusUnresolved {
		r.logger.Warn("transition to unknown node", "case_id", c.ID, "from", node.ID, "to", choice.Next)
	} else {
		r.logger.Debug("transition", "case_id", c.ID, "from", node.ID, "to", choice.Next, "choice", choice.Label)
	}
	return nil
}

// Restart resets the case to the start node and clears the transcript.
// Case identity and metadata are preserved.
func (r *Runner) Restart(c *Case) {
	c.CurrentNodeID = r.doc.Start
	c.Status = r.statusOf(c.CurrentNodeID)
	c.Transcript = []TranscriptEntry{}

	r.logger.Debug("case restarted", "case_id", c.ID, "node", c.CurrentNodeID)
}

// Current resolves the case's current node. The bool is false when the
// case sits on a dangling edge target.
func (r *Runner) Current(c *Case) (flow.Node, bool) {
	return r.doc.Lookup(c.CurrentNodeID)
}

func (r *Runner) statusOf(nodeID string) Status {
	node, ok := r.doc.Lookup(nodeID)
	switch {
	case !ok:
		return StatusUnresolved
	case node.End:
		return StatusTerminal
	default:
		return StatusActive
	}
}
