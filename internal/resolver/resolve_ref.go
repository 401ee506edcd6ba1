package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/execution"
	"github.com/vk/flowgrid/internal/refs"
	"github.com/vk/flowgrid/internal/variables"
	"github.com/vk/flowgrid/internal/workflow"
)

// emptyResult is the soft-fail value: the reference is legal but its target
// has not produced a value for this run.
var emptyResult = cty.StringVal("")

// resolveReference fetches the value behind one classified token. The
// second result is false when the token does not resolve to anything known
// and must be left as literal text. Gate violations and coercion failures
// return an error that aborts the whole resolution call.
func (r *Resolver) resolveReference(ctx context.Context, block *workflow.Block, state *execution.Context, ref refs.Reference) (cty.Value, bool, error) {
	switch ref := ref.(type) {
	case refs.VariableRef:
		return r.resolveVariable(ctx, ref)
	case refs.LoopRef:
		return r.resolveLoop(ctx, block, state, ref)
	case refs.ParallelRef:
		return r.resolveParallel(ctx, block, state, ref)
	case refs.BlockRef:
		return r.resolveBlockOutput(ctx, block, state, ref)
	}
	panic(fmt.Sprintf("resolver: unhandled reference variant %T", ref))
}

func (r *Resolver) resolveVariable(ctx context.Context, ref refs.VariableRef) (cty.Value, bool, error) {
	v, ok := r.vars.Lookup(r.wf.ID, ref.Name)
	if !ok {
		ctxlog.FromContext(ctx).Debug("Unknown variable, leaving token literal.", "name", ref.Name)
		return cty.NilVal, false, nil
	}

	// A stored value that fails to coerce only surfaces here, when it is
	// actually referenced; storing it was merely advisory.
	val, err := variables.Coerce(v)
	if err != nil {
		return cty.NilVal, false, err
	}

	if len(ref.Tail) > 0 {
		drilled, ok := applyPath(val, ref.Tail)
		if !ok {
			return emptyResult, true, nil
		}
		return drilled, true, nil
	}
	return val, true, nil
}

func (r *Resolver) resolveLoop(ctx context.Context, block *workflow.Block, state *execution.Context, ref refs.LoopRef) (cty.Value, bool, error) {
	loop, ok := r.wf.LoopForBlock(block.ID)
	if !ok {
		// Not a member of exactly one loop: the token has no meaning here.
		return cty.NilVal, false, nil
	}

	st, _ := state.LoopState(loop.ID)
	switch ref.Property {
	case refs.PropIndex:
		if st.Iteration == 0 {
			// No iteration recorded yet; soft empty like currentItem.
			return emptyResult, true, nil
		}
		return cty.NumberIntVal(int64(st.Iteration - 1)), true, nil

	case refs.PropCurrentItem:
		if st.CurrentItem == cty.NilVal {
			return emptyResult, true, nil
		}
		return drill(st.CurrentItem, ref.Tail), true, nil

	case refs.PropItems:
		// Prefer the live per-run snapshot; fall back to the loop's static
		// forEach configuration.
		items := st.Items
		if items == cty.NilVal {
			items = loop.ForEachItems
		}
		if items == cty.NilVal {
			return emptyResult, true, nil
		}
		return drill(items, ref.Tail), true, nil
	}
	return cty.NilVal, false, nil
}

func (r *Resolver) resolveParallel(ctx context.Context, block *workflow.Block, state *execution.Context, ref refs.ParallelRef) (cty.Value, bool, error) {
	parallel, ok := r.wf.ParallelForBlock(block.ID)
	if !ok {
		return cty.NilVal, false, nil
	}

	st, _ := state.ParallelState(parallel.ID)
	switch ref.Property {
	case refs.PropIndex:
		if st.Iteration == 0 {
			return emptyResult, true, nil
		}
		return cty.NumberIntVal(int64(st.Iteration - 1)), true, nil

	case refs.PropCurrentItem:
		if st.CurrentItem == cty.NilVal {
			return emptyResult, true, nil
		}
		return drill(st.CurrentItem, ref.Tail), true, nil

	case refs.PropItems:
		items := st.Items
		if items == cty.NilVal {
			items = parallel.Items
		}
		if items == cty.NilVal {
			return emptyResult, true, nil
		}
		return drill(items, ref.Tail), true, nil
	}
	return cty.NilVal, false, nil
}

func (r *Resolver) resolveBlockOutput(ctx context.Context, block *workflow.Block, state *execution.Context, ref refs.BlockRef) (cty.Value, bool, error) {
	logger := ctxlog.FromContext(ctx)

	var target *workflow.Block
	if ref.Starter {
		starter, ok := r.wf.Starter()
		if !ok {
			logger.Debug("Workflow has no starter block, leaving token literal.")
			return cty.NilVal, false, nil
		}
		target = starter
	} else {
		found, ok := r.wf.BlockByRef(ref.Head)
		if !ok {
			logger.Debug("Unknown block reference, leaving token literal.", "head", ref.Head)
			return cty.NilVal, false, nil
		}
		target = found
	}

	// Disabled and connectivity checks run before any look at execution
	// state; an illegal reference must not be masked by "not yet run".
	if err := r.gate.Authorize(block, target); err != nil {
		return cty.NilVal, false, err
	}

	if !state.HasExecuted(target.ID) || !state.InActivePath(target.ID) {
		// Legal but not yet run: resolves to empty string, never an error.
		logger.Debug("Referenced block has not executed, resolving to empty string.", "target", target.ID)
		return emptyResult, true, nil
	}

	output, ok := state.Output(target.ID)
	if !ok {
		return emptyResult, true, nil
	}

	path := ref.Path
	if len(path) == 0 {
		path = r.defaultOutputPath(target)
	}
	if len(path) == 0 {
		return output, true, nil
	}
	drilled, ok := applyPath(output, path)
	if !ok {
		return emptyResult, true, nil
	}
	return drilled, true, nil
}

// defaultOutputPath returns the path a bare block reference selects, per
// the target's block-type definition. No definition or no declared default
// means the whole output object.
func (r *Resolver) defaultOutputPath(target *workflow.Block) []refs.PathSegment {
	def, ok := r.types.Lookup(target.Type)
	if !ok || def.DefaultOutput == "" {
		return nil
	}
	var path []refs.PathSegment
	for _, part := range strings.Split(def.DefaultOutput, ".") {
		path = append(path, refs.PathSegment{Name: part, Index: -1})
	}
	return path
}

// drill applies an optional tail path, soft-failing to empty on a miss.
func drill(v cty.Value, tail []refs.PathSegment) cty.Value {
	if len(tail) == 0 {
		return v
	}
	out, ok := applyPath(v, tail)
	if !ok {
		return emptyResult
	}
	return out
}
