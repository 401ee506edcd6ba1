package access

import (
	"github.com/vk/flowgrid/internal/workflow"
)

// Map records, per block id, the set of block ids whose output that block
// may legally reference. Absence from the set is a hard deny regardless of
// whether the id exists in the workflow.
type Map map[string]map[string]struct{}

// Accessible reports whether `from` may reference `target`.
func (m Map) Accessible(from, target string) bool {
	set, ok := m[from]
	if !ok {
		return false
	}
	_, ok = set[target]
	return ok
}

// Build computes the accessibility map for a workflow:
//
//   - the starter block is accessible from everywhere;
//   - every direct upstream connection source is accessible;
//   - blocks sharing a loop or parallel grouping may reference each other.
//
// The map is directional; membership is not made symmetric beyond the
// sibling rule above.
func Build(wf *workflow.Workflow) Map {
	m := make(Map, len(wf.Blocks))

	starterID := ""
	if starter, ok := wf.Starter(); ok {
		starterID = starter.ID
	}

	for _, b := range wf.Blocks {
		set := make(map[string]struct{})
		if starterID != "" {
			set[starterID] = struct{}{}
		}
		for _, src := range wf.Upstream(b.ID) {
			set[src] = struct{}{}
		}
		m[b.ID] = set
	}

	for _, l := range wf.Loops {
		addSiblings(m, l.Nodes)
	}
	for _, p := range wf.Parallels {
		addSiblings(m, p.Nodes)
	}

	return m
}

func addSiblings(m Map, nodes []string) {
	for _, a := range nodes {
		set, ok := m[a]
		if !ok {
			continue
		}
		for _, b := range nodes {
			if a == b {
				continue
			}
			set[b] = struct{}{}
		}
	}
}
