package access

import (
	"sort"

	"github.com/vk/flowgrid/internal/workflow"
)

// Gate authorizes block-output references before resolution fetches any
// value. A Gate with a nil Map fails closed: only the starter block is
// referencable.
type Gate struct {
	wf *workflow.Workflow
	m  Map
}

// NewGate creates a gate over the given workflow and accessibility map.
// The map may be nil.
func NewGate(wf *workflow.Workflow, m Map) *Gate {
	return &Gate{wf: wf, m: m}
}

// Authorize checks a reference from one block to another. The disabled and
// connectivity checks run in that order, and both run before any check of
// whether the target has actually executed.
func (g *Gate) Authorize(from *workflow.Block, target *workflow.Block) error {
	if !target.Enabled {
		return &DisabledBlockReferenceError{BlockName: target.Name}
	}

	if starter, ok := g.wf.Starter(); ok && target.ID == starter.ID {
		// The starter is always referencable, map or no map.
		return nil
	}

	if g.m == nil || !g.m.Accessible(from.ID, target.ID) {
		return &UnconnectedBlockReferenceError{
			BlockName:  target.Name,
			Accessible: g.accessibleNames(from.ID),
		}
	}
	return nil
}

// accessibleNames lists the display names of every block accessible from
// the given block, sorted. With no map, only the starter qualifies.
func (g *Gate) accessibleNames(from string) []string {
	var names []string

	if g.m == nil {
		if starter, ok := g.wf.Starter(); ok {
			names = append(names, starter.Name)
		}
		return names
	}

	for id := range g.m[from] {
		if b, ok := g.wf.BlockByID(id); ok {
			names = append(names, b.Name)
		}
	}
	sort.Strings(names)
	return names
}
