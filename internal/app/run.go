package app

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/loader"
)

// Run resolves the inputs of every enabled block against the configured
// execution snapshot and writes them to the output as JSON, one line per
// block. Blocks that fail to resolve are reported and do not stop the pass.
func (a *App) Run(ctx context.Context, cfg *Config, fsys afero.Fs) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	state, err := loader.LoadState(ctx, fsys, cfg.StatePath)
	if err != nil {
		return fmt.Errorf("failed to load execution snapshot: %w", err)
	}

	failed := 0
	for _, block := range a.wf.Blocks {
		if !block.Enabled {
			a.logger.Debug("Skipping disabled block.", "block", block.ID)
			continue
		}

		inputs, err := a.resolver.ResolveInputs(ctx, block, state)
		if err != nil {
			failed++
			a.logger.Error("Block inputs failed to resolve.", "block", block.ID, "error", err)
			continue
		}

		line, err := encodeInputs(inputs)
		if err != nil {
			return fmt.Errorf("encoding inputs of block '%s': %w", block.ID, err)
		}
		fmt.Fprintf(a.outW, "%s\t%s\n", block.ID, line)
	}

	a.logger.Debug("App.Run method finished.", "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d block(s) failed to resolve", failed)
	}
	return nil
}

// encodeInputs renders a resolved input map as one compact JSON object.
func encodeInputs(inputs map[string]cty.Value) ([]byte, error) {
	if len(inputs) == 0 {
		return []byte("{}"), nil
	}
	attrs := make(map[string]cty.Value, len(inputs))
	for name, val := range inputs {
		if val == cty.NilVal {
			val = cty.NullVal(cty.DynamicPseudoType)
		}
		attrs[name] = val
	}
	obj := cty.ObjectVal(attrs)
	return ctyjson.Marshal(obj, obj.Type())
}
