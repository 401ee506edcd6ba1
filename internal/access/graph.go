package access

import (
	"fmt"

	"github.com/vk/flowgrid/internal/workflow"
)

// ValidateGraph checks the raw connection graph for structural problems
// before any resolution happens: dangling connection endpoints and cycles.
// Loop constructs iterate via loop groupings, not via back-edges, so a
// cycle in the connections themselves is always an authoring error.
func ValidateGraph(wf *workflow.Workflow) error {
	downstream := make(map[string][]string, len(wf.Blocks))
	for _, c := range wf.Connections {
		if _, ok := wf.BlockByID(c.Source); !ok {
			return fmt.Errorf("connection source not found: %s", c.Source)
		}
		if _, ok := wf.BlockByID(c.Target); !ok {
			return fmt.Errorf("connection target not found: %s", c.Target)
		}
		if c.Source == c.Target {
			return fmt.Errorf("self-referential connection not allowed: %s -> %s", c.Source, c.Target)
		}
		downstream[c.Source] = append(downstream[c.Source], c.Target)
	}

	// Classic DFS cycle detection with a temporary mark for the current
	// recursion stack and a permanent mark for fully visited nodes.
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(id string) error
	visit = func(id string) error {
		if permanent[id] {
			return nil
		}
		if temporary[id] {
			return fmt.Errorf("cycle detected involving block '%s'", id)
		}
		temporary[id] = true
		for _, next := range downstream[id] {
			if err := visit(next); err != nil {
				return err
			}
		}
		delete(temporary, id)
		permanent[id] = true
		return nil
	}

	for _, b := range wf.Blocks {
		if !permanent[b.ID] {
			if err := visit(b.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
