package flow

import "errors"

// ErrNoFlow means the document has no assistant_flow section. This is a
// non-fatal signal: the document is a plain reference document and the
// caller should fall back to showing its raw content.
var ErrNoFlow = errors.New("document has no assistant flow")

// ErrMalformedFlow means an assistant_flow section exists but is missing
// the pieces a traversal needs (start id, nodes).
var ErrMalformedFlow = errors.New("malformed assistant flow")
