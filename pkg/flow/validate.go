package flow

import (
	"fmt"
	"sort"
	"strings"
)

// DanglingEdge describes a choice whose target node does not exist.
type DanglingEdge struct {
	FromNodeID string
	Label      string
	Target     string
}

func (e DanglingEdge) String() string {
	return fmt.Sprintf("%s --[%s]--> %s", e.FromNodeID, e.Label, e.Target)
}

// Report is the result of validating a document.
type Report struct {
	MissingStart bool
	Dangling     []DanglingEdge
	Unreachable  []string
}

// OK reports whether the document is free of structural problems.
func (r Report) OK() bool {
	return !r.MissingStart && len(r.Dangling) == 0 && len(r.Unreachable) == 0
}

// Err collapses the report into a single error, or nil when clean.
func (r Report) Err() error {
	if r.OK() {
		return nil
	}
	var lines []string
	if r.MissingStart {
		lines = append(lines, "start node not found")
	}
	for _, e := range r.Dangling {
		lines = append(lines, "dangling edge: "+e.String())
	}
	for _, id := range r.Unreachable {
		lines = append(lines, "unreachable node: "+id)
	}
	return fmt.Errorf("found %d problems:\n- %s", len(lines), strings.Join(lines, "\n- "))
}

// Validate walks the graph from the start node and reports dangling
// edges and nodes no path reaches. Build does not run this; documents
// with problems still traverse (degrading per the runner's rules), so
// validation is an authoring aid, not a gate.
func Validate(d *Document) Report {
	var report Report

	if _, ok := d.Lookup(d.Start); !ok {
		report.MissingStart = true
	}

	visited := make(map[string]bool)
	queue := []string{d.Start}

	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]

		if visited[currentID] {
			continue
		}
		visited[currentID] = true

		node, ok := d.Lookup(currentID)
		if !ok {
			continue
		}

		for _, opt := range node.Options {
			if opt.Next == "" {
				continue
			}
			if _, ok := d.Lookup(opt.Next); !ok {
				report.Dangling = append(report.Dangling, DanglingEdge{
					FromNodeID: node.ID,
					Label:      opt.Label,
					Target:     opt.Next,
				})
				continue
			}
			if !visited[opt.Next] {
				queue = append(queue, opt.Next)
			}
		}
	}

	for _, node := range d.Nodes() {
		if !visited[node.ID] {
			report.Unreachable = append(report.Unreachable, node.ID)
		}
	}
	sort.Strings(report.Unreachable)

	return report
}
