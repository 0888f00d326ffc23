package flow

import (
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"
)

// Choice is a single selectable option on a node.
// Next may reference a node id that does not exist in the document;
// such dangling edges are allowed at build time and surface later as
// an unresolved lookup.
type Choice struct {
	Label string `json:"label" mapstructure:"label"`
	Next  string `json:"next,omitempty" mapstructure:"next"`
}

// Node is one step of an assistant flow.
type Node struct {
	ID   string `json:"id" mapstructure:"id"`
	Text string `json:"text,omitempty" mapstructure:"text"`

	// End marks a terminal node. Terminal nodes offer no choices.
	End bool `json:"end,omitempty" mapstructure:"end"`

	// Options in document order; order is display and selection order.
	Options []Choice `json:"options,omitempty" mapstructure:"options"`
}

// Choice returns the first option whose label matches.
func (n Node) Choice(label string) (Choice, bool) {
	for _, opt := range n.Options {
		if opt.Label == label {
			return opt, true
		}
	}
	return Choice{}, false
}

// Document is an immutable decision graph built from one algorithm file.
// ID and Title are descriptive and set by whoever loaded the file; the
// graph itself is never mutated after Build.
type Document struct {
	ID    string
	Title string
	Start string

	nodes map[string]Node
}

// flowSpec mirrors the assistant_flow section of an algorithm file.
type flowSpec struct {
	Start string           `mapstructure:"start"`
	Nodes []map[string]any `mapstructure:"nodes"`
}

// Build extracts the assistant_flow section from an already-decoded JSON
// value and assembles the node graph.
//
// Intake is deliberately permissive, matching how the algorithm files are
// authored: entries without an id are skipped, duplicate ids are
// last-write-wins, and choice targets are not resolved. It returns
// ErrNoFlow when the document has no assistant_flow section at all and
// ErrMalformedFlow when the section exists but cannot drive a traversal
// (no start node, or no usable nodes).
func Build(raw any) (*Document, error) {
	top, ok := raw.(map[string]any)
	if !ok {
		return nil, ErrNoFlow
	}
	section, ok := top["assistant_flow"]
	if !ok || section == nil {
		return nil, ErrNoFlow
	}

	var spec flowSpec
	if err := mapstructure.Decode(section, &spec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFlow, err)
	}

	nodes := make(map[string]Node, len(spec.Nodes))
	for _, entry := range spec.Nodes {
		var node Node
		if err := mapstructure.Decode(entry, &node); err != nil {
			continue
		}
		if node.ID == "" {
			continue
		}
		for i, opt := range node.Options {
			if opt.Label == "" {
				node.Options[i].Label = "Next"
			}
		}
		nodes[node.ID] = node
	}

	if spec.Start == "" {
		return nil, fmt.Errorf("%w: missing start node id", ErrMalformedFlow)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: no nodes", ErrMalformedFlow)
	}

	return &Document{Start: spec.Start, nodes: nodes}, nil
}

// Lookup resolves a node id. A miss is an expected outcome (dangling
// edges are legal), so it reports via the bool rather than an error.
func (d *Document) Lookup(id string) (Node, bool) {
	node, ok := d.nodes[id]
	return node, ok
}

// Len returns the number of nodes in the document.
func (d *Document) Len() int {
	return len(d.nodes)
}

// Nodes returns every node sorted by id, for introspection and
// visualization. The returned slice is a copy.
func (d *Document) Nodes() []Node {
	out := make([]Node, 0, len(d.nodes))
	for _, n := range d.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
