package loader

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/execution"
)

// StateDocument is the JSON shape of an execution snapshot fixture: the
// environment and the outputs of blocks that already ran. The harness
// resolves inputs against this snapshot instead of actually executing.
type StateDocument struct {
	Env     map[string]string          `json:"env,omitempty"`
	Outputs map[string]json.RawMessage `json:"outputs,omitempty"`
	Loops   map[string]IterationDoc    `json:"loops,omitempty"`
}

// IterationDoc is the snapshot of one loop's live iteration state.
type IterationDoc struct {
	Iteration   int             `json:"iteration"`
	CurrentItem json.RawMessage `json:"currentItem,omitempty"`
	Items       json.RawMessage `json:"items,omitempty"`
}

// LoadState reads an execution snapshot from the given filesystem. A missing
// path yields a fresh empty snapshot.
func LoadState(ctx context.Context, fsys afero.Fs, path string) (*execution.Context, error) {
	state := execution.NewContext()
	if path == "" {
		return state, nil
	}

	raw, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("reading state file %s: %w", path, err)
	}

	var doc StateDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing state file %s: %w", path, err)
	}

	for name, value := range doc.Env {
		state.SetEnv(name, value)
	}
	for blockID, fragment := range doc.Outputs {
		val, err := decodeValue(fragment)
		if err != nil {
			return nil, fmt.Errorf("state file %s: output for block '%s': %w", path, blockID, err)
		}
		state.RecordOutput(blockID, val)
	}
	for loopID, it := range doc.Loops {
		state.SetLoopIteration(loopID, it.Iteration)
		if len(it.CurrentItem) > 0 {
			item, err := decodeValue(it.CurrentItem)
			if err != nil {
				return nil, fmt.Errorf("state file %s: loop '%s' currentItem: %w", path, loopID, err)
			}
			state.SetLoopItem(loopID, item)
		}
		if len(it.Items) > 0 {
			items, err := decodeValue(it.Items)
			if err != nil {
				return nil, fmt.Errorf("state file %s: loop '%s' items: %w", path, loopID, err)
			}
			state.SetLoopItems(loopID, items)
		}
	}

	ctxlog.FromContext(ctx).Debug("Execution snapshot loaded.",
		"env", len(doc.Env),
		"outputs", len(doc.Outputs),
		"loops", len(doc.Loops),
	)
	return state, nil
}
