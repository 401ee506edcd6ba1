package resolver

import (
	"context"
	"fmt"
	"sort"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgrid/internal/access"
	"github.com/vk/flowgrid/internal/blocktype"
	"github.com/vk/flowgrid/internal/condition"
	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/execution"
	"github.com/vk/flowgrid/internal/variables"
	"github.com/vk/flowgrid/internal/workflow"
)

// Resolver resolves block inputs against an execution snapshot. It holds
// only immutable collaborators and is safe to share across concurrent
// resolutions of independent blocks.
type Resolver struct {
	wf    *workflow.Workflow
	types *blocktype.Registry
	vars  *variables.Store
	gate  *access.Gate
}

// New creates a Resolver. The accessibility map may be nil, in which case
// the gate fails closed and only starter references resolve.
func New(wf *workflow.Workflow, types *blocktype.Registry, vars *variables.Store, m access.Map) *Resolver {
	return &Resolver{
		wf:    wf,
		types: types,
		vars:  vars,
		gate:  access.NewGate(wf, m),
	}
}

// ResolveInputs produces the final input map for one block. The first
// failing parameter aborts the whole call.
func (r *Resolver) ResolveInputs(ctx context.Context, block *workflow.Block, state *execution.Context) (map[string]cty.Value, error) {
	logger := ctxlog.FromContext(ctx).With("block", block.ID)
	logger.Debug("Resolving block inputs.")

	def, hasDef := r.types.Lookup(block.Type)

	params, err := paramMap(block)
	if err != nil {
		return nil, err
	}

	// Sorted for deterministic resolution and error order.
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	resolved := make(map[string]cty.Value, len(params))
	for _, name := range names {
		p := blocktype.Param{Name: name, Type: blocktype.TypeString}
		if hasDef {
			if declared, ok := def.Param(name); ok {
				p = declared
			}
		}

		if p.Mode == blocktype.ModePassThrough {
			// Left intact for the block's own downstream evaluator.
			logger.Debug("Skipping pass-through parameter.", "param", name)
			resolved[name] = params[name]
			continue
		}

		val, err := r.resolveValue(ctx, block, state, p, params[name])
		if err != nil {
			return nil, fmt.Errorf("resolving parameter '%s' of block '%s': %w", name, block.Name, err)
		}
		resolved[name] = val
	}

	if !hasDef {
		// Without a schema there is nothing to filter against.
		return resolved, nil
	}
	return filterConditional(def, resolved), nil
}

// paramMap extracts the block's declared parameters as a name→value map.
func paramMap(block *workflow.Block) (map[string]cty.Value, error) {
	p := block.Params
	if p == cty.NilVal || p.IsNull() {
		return map[string]cty.Value{}, nil
	}
	ty := p.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("block '%s': parameters must be an object, got %s", block.Name, ty.FriendlyName())
	}
	if ty.IsObjectType() && len(ty.AttributeTypes()) == 0 {
		return map[string]cty.Value{}, nil
	}
	return p.AsValueMap(), nil
}

// resolveValue walks a parameter value tree, resolving every string leaf.
// Containers are rebuilt so structural replacements may change leaf types.
func (r *Resolver) resolveValue(ctx context.Context, block *workflow.Block, state *execution.Context, p blocktype.Param, v cty.Value) (cty.Value, error) {
	if v == cty.NilVal || v.IsNull() {
		return v, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return r.resolveString(ctx, block, state, p, v.AsString())

	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		if v.LengthInt() == 0 {
			return v, nil
		}
		elems := make([]cty.Value, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			out, err := r.resolveValue(ctx, block, state, p, elem)
			if err != nil {
				return cty.NilVal, err
			}
			elems = append(elems, out)
		}
		return cty.TupleVal(elems), nil

	case ty.IsObjectType() || ty.IsMapType():
		if ty.IsObjectType() && len(ty.AttributeTypes()) == 0 {
			return v, nil
		}
		attrs := v.AsValueMap()
		out := make(map[string]cty.Value, len(attrs))
		for name, attr := range attrs {
			res, err := r.resolveValue(ctx, block, state, p, attr)
			if err != nil {
				return cty.NilVal, err
			}
			out[name] = res
		}
		return cty.ObjectVal(out), nil
	}

	// Numbers, bools and anything else pass through unchanged.
	return v, nil
}

// filterConditional drops resolved parameters whose declared visibility
// condition evaluates false against the sibling values. Parameters without
// a schema entry are always retained.
func filterConditional(def *blocktype.Definition, resolved map[string]cty.Value) map[string]cty.Value {
	out := make(map[string]cty.Value, len(resolved))
	for name, val := range resolved {
		declared := def.ParamsNamed(name)
		if len(declared) == 0 {
			out[name] = val
			continue
		}
		for _, p := range declared {
			if condition.Evaluate(p.Condition, resolved) {
				out[name] = val
				break
			}
		}
	}
	return out
}
