package caselog

import "time"

// Status is the traversal state of a case.
type Status string

const (
	// StatusActive means the current node resolved and offers choices.
	StatusActive Status = "active"
	// StatusTerminal means the current node's end flag is set.
	StatusTerminal Status = "terminal"
	// StatusUnresolved means the current node id does not exist in the
	// document (a dangling edge was followed). The case is stuck until
	// restarted, but the transcript up to that point is intact.
	StatusUnresolved Status = "unresolved"
)

// Closed reports whether the case accepts no further choices.
func (s Status) Closed() bool {
	return s == StatusTerminal || s == StatusUnresolved
}

// TranscriptEntry records one transition. Entries are immutable once
// appended; the node text is captured by value so the record survives a
// reload of the underlying document.
type TranscriptEntry struct {
	Timestamp    time.Time `json:"timestamp_utc"`
	FromNodeID   string    `json:"node_id"`
	FromNodeText string    `json:"node_text"`
	ChoiceLabel  string    `json:"choice"`
	ToNodeID     string    `json:"next_node"`
}

// Case is one clinician session walking one document. A case is owned
// exclusively by the session that created it; the runner mutates only
// the case it is handed.
type Case struct {
	ID            string            `json:"case_id"`
	DocumentID    string            `json:"document_id"`
	DocumentTitle string            `json:"document_title,omitempty"`
	CurrentNodeID string            `json:"current_node_id"`
	Status        Status            `json:"status"`
	StartedAt     time.Time         `json:"started_at"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Transcript    []TranscriptEntry `json:"transcript"`
}
