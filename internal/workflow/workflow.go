package workflow

import (
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// StarterType is the block type tag of the unique entry block of a workflow.
const StarterType = "starter"

// Block is a single node of the workflow graph as declared in the builder.
type Block struct {
	ID      string
	Name    string
	Type    string
	Enabled bool

	// Params is the raw declared parameter tree. It is always an object
	// value; nested strings may embed reference tokens that the resolver
	// substitutes before execution.
	Params cty.Value
}

// Connection is a directed edge between two blocks.
type Connection struct {
	Source string
	Target string
}

// LoopKind distinguishes counted loops from collection loops.
type LoopKind string

const (
	LoopFor     LoopKind = "for"
	LoopForEach LoopKind = "forEach"
)

// Loop groups a set of blocks that execute repeatedly.
type Loop struct {
	ID         string
	Name       string
	Nodes      []string
	Iterations int
	Kind       LoopKind

	// ForEachItems is the statically configured collection for forEach
	// loops. NilVal when the loop is a plain counted loop.
	ForEachItems cty.Value
}

// Parallel groups a set of blocks that execute across parallel branches.
type Parallel struct {
	ID       string
	Name     string
	Nodes    []string
	Count    int
	Items    cty.Value
}

// Workflow is the full static graph handed to the resolver.
type Workflow struct {
	ID          string
	Blocks      []*Block
	Connections []Connection
	Loops       map[string]*Loop
	Parallels   map[string]*Parallel

	byID map[string]*Block
}

// New assembles a Workflow and builds its lookup indexes.
func New(id string, blocks []*Block, conns []Connection) *Workflow {
	wf := &Workflow{
		ID:          id,
		Blocks:      blocks,
		Connections: conns,
		Loops:       make(map[string]*Loop),
		Parallels:   make(map[string]*Parallel),
		byID:        make(map[string]*Block, len(blocks)),
	}
	for _, b := range blocks {
		wf.byID[b.ID] = b
	}
	return wf
}

// AddLoop registers a loop grouping on the workflow.
func (wf *Workflow) AddLoop(l *Loop) { wf.Loops[l.ID] = l }

// AddParallel registers a parallel grouping on the workflow.
func (wf *Workflow) AddParallel(p *Parallel) { wf.Parallels[p.ID] = p }

// BlockByID returns the block with the given id, if any.
func (wf *Workflow) BlockByID(id string) (*Block, bool) {
	b, ok := wf.byID[id]
	return b, ok
}

// NormalizeName reduces a display name to its canonical matching form by
// stripping all whitespace and lowercasing. Display names are not guaranteed
// unique, so lookups prefer ids and exact names before the normalized form.
func NormalizeName(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range name {
		switch r {
		case ' ', '\t', '\n', '\r':
			continue
		}
		sb.WriteRune(r)
	}
	return strings.ToLower(sb.String())
}

// BlockByRef resolves a reference head against the workflow's blocks,
// trying in order: exact id, exact display name, normalized display name.
func (wf *Workflow) BlockByRef(head string) (*Block, bool) {
	if b, ok := wf.byID[head]; ok {
		return b, true
	}
	for _, b := range wf.Blocks {
		if b.Name == head {
			return b, true
		}
	}
	want := NormalizeName(head)
	for _, b := range wf.Blocks {
		if NormalizeName(b.Name) == want {
			return b, true
		}
	}
	return nil, false
}

// Starter returns the workflow's unique entry block.
func (wf *Workflow) Starter() (*Block, bool) {
	for _, b := range wf.Blocks {
		if b.Type == StarterType {
			return b, true
		}
	}
	return nil, false
}

// LoopForBlock returns the loop the given block belongs to. The second
// result is false when the block is a member of no loop or of more than one;
// loop context references are only meaningful for exactly-one membership.
func (wf *Workflow) LoopForBlock(blockID string) (*Loop, bool) {
	var found *Loop
	for _, l := range wf.Loops {
		for _, n := range l.Nodes {
			if n == blockID {
				if found != nil {
					return nil, false
				}
				found = l
				break
			}
		}
	}
	return found, found != nil
}

// ParallelForBlock mirrors LoopForBlock for parallel groupings.
func (wf *Workflow) ParallelForBlock(blockID string) (*Parallel, bool) {
	var found *Parallel
	for _, p := range wf.Parallels {
		for _, n := range p.Nodes {
			if n == blockID {
				if found != nil {
					return nil, false
				}
				found = p
				break
			}
		}
	}
	return found, found != nil
}

// Upstream returns the ids of blocks with a connection into the given block.
func (wf *Workflow) Upstream(blockID string) []string {
	var out []string
	for _, c := range wf.Connections {
		if c.Target == blockID {
			out = append(out, c.Source)
		}
	}
	return out
}
