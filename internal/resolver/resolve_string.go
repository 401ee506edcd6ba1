package resolver

import (
	"context"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgrid/internal/blocktype"
	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/execution"
	"github.com/vk/flowgrid/internal/refs"
	"github.com/vk/flowgrid/internal/workflow"
)

// resolveString handles one string leaf: environment tokens first, then
// bracket references with the structural-vs-splice placement rule.
func (r *Resolver) resolveString(ctx context.Context, block *workflow.Block, state *execution.Context, p blocktype.Param, s string) (cty.Value, error) {
	// A string that is nothing but one {{NAME}} token substitutes directly;
	// the env value itself is never re-scanned for references.
	if envMatches := refs.ScanEnv(s); len(envMatches) == 1 && strings.TrimSpace(s) == envMatches[0].Raw {
		if val, ok := state.Env(envMatches[0].Name); ok {
			return cty.StringVal(val), nil
		}
		return cty.StringVal(s), nil
	}
	s = r.substituteEnv(ctx, state, p, s)

	matches := refs.Scan(s)
	if len(matches) == 0 {
		return cty.StringVal(s), nil
	}

	// A parameter that is exactly one token resolves structurally: the
	// native type of the referenced value replaces the whole parameter.
	if len(matches) == 1 && strings.TrimSpace(s) == matches[0].Raw {
		val, ok, err := r.resolveReference(ctx, block, state, matches[0].Ref)
		if err != nil {
			return cty.NilVal, err
		}
		if !ok {
			return cty.StringVal(s), nil
		}
		return val, nil
	}

	// Embedded occurrences splice as text, preserving every byte outside
	// the matched spans.
	var sb strings.Builder
	last := 0
	for _, m := range matches {
		sb.WriteString(s[last:m.Start])
		last = m.End

		val, ok, err := r.resolveReference(ctx, block, state, m.Ref)
		if err != nil {
			return cty.NilVal, err
		}
		if !ok {
			sb.WriteString(m.Raw)
			continue
		}
		text, err := spliceText(val, p.Mode == blocktype.ModeCode)
		if err != nil {
			return cty.NilVal, err
		}
		sb.WriteString(text)
	}
	sb.WriteString(s[last:])
	return cty.StringVal(sb.String()), nil
}

// substituteEnv applies embedded {{NAME}} tokens for secret-bearing
// parameters. Tokens in ordinary text fields stay verbatim, as do tokens
// whose name is not set.
func (r *Resolver) substituteEnv(ctx context.Context, state *execution.Context, p blocktype.Param, s string) string {
	if !p.Secret {
		return s
	}
	matches := refs.ScanEnv(s)
	if len(matches) == 0 {
		return s
	}

	logger := ctxlog.FromContext(ctx)
	var sb strings.Builder
	last := 0
	for _, m := range matches {
		sb.WriteString(s[last:m.Start])
		last = m.End
		if val, ok := state.Env(m.Name); ok {
			sb.WriteString(val)
		} else {
			logger.Debug("Environment variable not set, leaving token verbatim.", "name", m.Name)
			sb.WriteString(m.Raw)
		}
	}
	sb.WriteString(s[last:])
	return sb.String()
}
