// Package loader reads JSON-serialized workflow documents for the cmd
// harness and tests. It is agnostic to where the document came from: the
// filesystem is abstracted behind afero so tests run on an in-memory fs.
package loader

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/variables"
	"github.com/vk/flowgrid/internal/workflow"
)

// Document is the top-level JSON shape of a serialized workflow.
type Document struct {
	ID          string             `json:"id"`
	Blocks      []BlockDocument    `json:"blocks"`
	Connections []ConnectionDoc    `json:"connections"`
	Loops       []LoopDocument     `json:"loops,omitempty"`
	Parallels   []ParallelDocument `json:"parallels,omitempty"`
	Variables   []VariableDocument `json:"variables,omitempty"`
}

// BlockDocument is one serialized block. Enabled defaults to true when the
// field is absent.
type BlockDocument struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Type    string          `json:"type"`
	Enabled *bool           `json:"enabled,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// ConnectionDoc is one serialized edge.
type ConnectionDoc struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// LoopDocument is one serialized loop grouping.
type LoopDocument struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Nodes      []string        `json:"nodes"`
	Iterations int             `json:"iterations,omitempty"`
	Kind       string          `json:"kind,omitempty"`
	Items      json.RawMessage `json:"items,omitempty"`
}

// ParallelDocument is one serialized parallel grouping.
type ParallelDocument struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Nodes []string        `json:"nodes"`
	Count int             `json:"count,omitempty"`
	Items json.RawMessage `json:"items,omitempty"`
}

// VariableDocument is one serialized workflow variable.
type VariableDocument struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	Value string `json:"value"`
}

// Load reads and assembles a workflow document from the given filesystem.
// Advisory variable-value warnings are logged, not returned: a stored value
// that does not parse only fails later if a reference actually touches it.
func Load(ctx context.Context, fsys afero.Fs, path string) (*workflow.Workflow, *variables.Store, error) {
	logger := ctxlog.FromContext(ctx)

	raw, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading workflow file %s: %w", path, err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("parsing workflow file %s: %w", path, err)
	}

	wf, store, err := Assemble(&doc)
	if err != nil {
		return nil, nil, fmt.Errorf("workflow file %s: %w", path, err)
	}

	for _, v := range store.ForWorkflow(wf.ID) {
		if err := v.Validate(); err != nil {
			logger.Warn("Variable value does not conform to its declared type.", "variable", v.Name, "error", err)
		}
	}

	logger.Debug("Workflow loaded.",
		"id", wf.ID,
		"blocks", len(wf.Blocks),
		"connections", len(wf.Connections),
		"loops", len(wf.Loops),
		"parallels", len(wf.Parallels),
	)
	return wf, store, nil
}

// Assemble converts a parsed document into the in-memory graph and a
// populated variable store.
func Assemble(doc *Document) (*workflow.Workflow, *variables.Store, error) {
	blocks := make([]*workflow.Block, 0, len(doc.Blocks))
	for _, bd := range doc.Blocks {
		if bd.ID == "" {
			return nil, nil, fmt.Errorf("block %q: missing id", bd.Name)
		}
		params, err := decodeValue(bd.Params)
		if err != nil {
			return nil, nil, fmt.Errorf("block '%s': decoding params: %w", bd.ID, err)
		}
		enabled := true
		if bd.Enabled != nil {
			enabled = *bd.Enabled
		}
		blocks = append(blocks, &workflow.Block{
			ID:      bd.ID,
			Name:    bd.Name,
			Type:    bd.Type,
			Enabled: enabled,
			Params:  params,
		})
	}

	conns := make([]workflow.Connection, 0, len(doc.Connections))
	for _, cd := range doc.Connections {
		conns = append(conns, workflow.Connection{Source: cd.Source, Target: cd.Target})
	}

	wf := workflow.New(doc.ID, blocks, conns)

	for _, ld := range doc.Loops {
		items, err := decodeValue(ld.Items)
		if err != nil {
			return nil, nil, fmt.Errorf("loop '%s': decoding items: %w", ld.ID, err)
		}
		kind := workflow.LoopKind(ld.Kind)
		if kind == "" {
			kind = workflow.LoopFor
		}
		wf.AddLoop(&workflow.Loop{
			ID:           ld.ID,
			Name:         ld.Name,
			Nodes:        ld.Nodes,
			Iterations:   ld.Iterations,
			Kind:         kind,
			ForEachItems: items,
		})
	}

	for _, pd := range doc.Parallels {
		items, err := decodeValue(pd.Items)
		if err != nil {
			return nil, nil, fmt.Errorf("parallel '%s': decoding items: %w", pd.ID, err)
		}
		wf.AddParallel(&workflow.Parallel{
			ID:    pd.ID,
			Name:  pd.Name,
			Nodes: pd.Nodes,
			Count: pd.Count,
			Items: items,
		})
	}

	store := variables.NewStore()
	for _, vd := range doc.Variables {
		// Add never fails the load; its error is advisory and surfaced by
		// the caller through Validate.
		_, _ = store.Add(variables.Variable{
			ID:         vd.ID,
			WorkflowID: doc.ID,
			Name:       vd.Name,
			Type:       variables.Type(vd.Type),
			Value:      vd.Value,
		})
	}

	return wf, store, nil
}

// decodeValue turns a raw JSON fragment into a cty value with its implied
// type. Absent fragments become NilVal.
func decodeValue(raw json.RawMessage) (cty.Value, error) {
	if len(raw) == 0 {
		return cty.NilVal, nil
	}
	ty, err := ctyjson.ImpliedType(raw)
	if err != nil {
		return cty.NilVal, err
	}
	return ctyjson.Unmarshal(raw, ty)
}
