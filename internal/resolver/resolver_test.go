package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgrid/internal/access"
	"github.com/vk/flowgrid/internal/blocktype"
	"github.com/vk/flowgrid/internal/execution"
	"github.com/vk/flowgrid/internal/variables"
	"github.com/vk/flowgrid/internal/workflow"
)

// testEnv bundles the fixture workflow and its collaborators.
//
//	Start ──> function-block ──> Agent 1
//	  └─────> Response
//
// "Lonely" is connected to the starter only; "Broken Block" is disabled.
type testEnv struct {
	wf       *workflow.Workflow
	vars     *variables.Store
	state    *execution.Context
	resolver *Resolver
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	blocks := []*workflow.Block{
		{ID: "start-1", Name: "Start", Type: workflow.StarterType, Enabled: true},
		{ID: "function-block", Name: "Function Block", Type: "function", Enabled: true},
		{ID: "agent-1", Name: "Agent 1", Type: "agent", Enabled: true},
		{ID: "response-1", Name: "Response", Type: "response", Enabled: true},
		{ID: "lonely-1", Name: "Lonely", Type: "function", Enabled: true},
		{ID: "broken-1", Name: "Broken Block", Type: "function", Enabled: false},
	}
	conns := []workflow.Connection{
		{Source: "start-1", Target: "function-block"},
		{Source: "function-block", Target: "agent-1"},
		{Source: "start-1", Target: "response-1"},
		{Source: "start-1", Target: "lonely-1"},
		{Source: "start-1", Target: "broken-1"},
	}
	wf := workflow.New("wf-test", blocks, conns)

	vars := variables.NewStore()
	state := execution.NewContext()
	state.RecordOutput("start-1", cty.ObjectVal(map[string]cty.Value{
		"input": cty.StringVal("hello"),
	}))

	r := New(wf, blocktype.Defaults(), vars, access.Build(wf))
	return &testEnv{wf: wf, vars: vars, state: state, resolver: r}
}

func (e *testEnv) block(t *testing.T, id string) *workflow.Block {
	t.Helper()
	b, ok := e.wf.BlockByID(id)
	require.True(t, ok, "block %s", id)
	return b
}

// withParams returns a copy of the block with the given parameter tree.
func withParams(b *workflow.Block, params map[string]cty.Value) *workflow.Block {
	copied := *b
	copied.Params = cty.ObjectVal(params)
	return &copied
}

func addVariable(t *testing.T, e *testEnv, name string, vtype variables.Type, value string) {
	t.Helper()
	_, err := e.vars.Add(variables.Variable{
		WorkflowID: "wf-test", Name: name, Type: vtype, Value: value,
	})
	require.NoError(t, err)
}

func TestResolveVariableReferences(t *testing.T) {
	e := newTestEnv(t)
	addVariable(t, e, "numberVar", variables.TypeNumber, "42")
	addVariable(t, e, "boolVar", variables.TypeBoolean, "true")
	addVariable(t, e, "objVar", variables.TypeObject, `{"host":"localhost"}`)
	addVariable(t, e, "arrVar", variables.TypeArray, `[1,2]`)
	addVariable(t, e, "plainVar", variables.TypePlain, `he said "hi"`)

	agent := e.block(t, "agent-1")

	t.Run("sole reference resolves to native type", func(t *testing.T) {
		testCases := []struct {
			name     string
			param    string
			expected cty.Value
		}{
			{name: "number", param: "<variable.numberVar>", expected: cty.NumberIntVal(42)},
			{name: "boolean", param: "<variable.boolVar>", expected: cty.True},
			{name: "object", param: "<variable.objVar>", expected: cty.ObjectVal(map[string]cty.Value{"host": cty.StringVal("localhost")})},
			{name: "array", param: "<variable.arrVar>", expected: cty.TupleVal([]cty.Value{cty.NumberIntVal(1), cty.NumberIntVal(2)})},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				blk := withParams(agent, map[string]cty.Value{
					"userPrompt": cty.StringVal(tc.param),
				})
				inputs, err := e.resolver.ResolveInputs(context.Background(), blk, e.state)
				require.NoError(t, err)
				assert.True(t, tc.expected.RawEquals(inputs["userPrompt"]),
					"expected %#v, got %#v", tc.expected, inputs["userPrompt"])
			})
		}
	})

	t.Run("embedded reference splices as text", func(t *testing.T) {
		blk := withParams(agent, map[string]cty.Value{
			"userPrompt": cty.StringVal("The number is <variable.numberVar>"),
		})
		inputs, err := e.resolver.ResolveInputs(context.Background(), blk, e.state)
		require.NoError(t, err)
		assert.Equal(t, cty.StringVal("The number is 42"), inputs["userPrompt"])
	})

	t.Run("plain variable is never quote-escaped in text", func(t *testing.T) {
		blk := withParams(agent, map[string]cty.Value{
			"userPrompt": cty.StringVal("quote: <variable.plainVar>!"),
		})
		inputs, err := e.resolver.ResolveInputs(context.Background(), blk, e.state)
		require.NoError(t, err)
		assert.Equal(t, cty.StringVal(`quote: he said "hi"!`), inputs["userPrompt"])
	})

	t.Run("drill-down into object variable", func(t *testing.T) {
		blk := withParams(agent, map[string]cty.Value{
			"userPrompt": cty.StringVal("<variable.objVar.host>"),
		})
		inputs, err := e.resolver.ResolveInputs(context.Background(), blk, e.state)
		require.NoError(t, err)
		assert.Equal(t, cty.StringVal("localhost"), inputs["userPrompt"])
	})

	t.Run("unknown variable stays literal", func(t *testing.T) {
		blk := withParams(agent, map[string]cty.Value{
			"userPrompt": cty.StringVal("see <variable.ghost> here"),
		})
		inputs, err := e.resolver.ResolveInputs(context.Background(), blk, e.state)
		require.NoError(t, err)
		assert.Equal(t, cty.StringVal("see <variable.ghost> here"), inputs["userPrompt"])
	})

	t.Run("malformed stored value fails only when referenced", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.vars.Add(variables.Variable{
			WorkflowID: "wf-test", Name: "badNum", Type: variables.TypeNumber, Value: "oops",
		})
		var invalid *variables.InvalidVariableValueError
		require.ErrorAs(t, err, &invalid)

		// Unreferenced: resolution of other params is unaffected.
		blk := withParams(env.block(t, "agent-1"), map[string]cty.Value{
			"userPrompt": cty.StringVal("no references"),
		})
		_, err = env.resolver.ResolveInputs(context.Background(), blk, env.state)
		require.NoError(t, err)

		// Referenced: the coercion failure propagates.
		blk = withParams(env.block(t, "agent-1"), map[string]cty.Value{
			"userPrompt": cty.StringVal("<variable.badNum>"),
		})
		_, err = env.resolver.ResolveInputs(context.Background(), blk, env.state)
		require.Error(t, err)
		assert.ErrorContains(t, err, "badNum")
	})
}

func TestResolveBlockOutputs(t *testing.T) {
	t.Run("start reference in plain content splices raw", func(t *testing.T) {
		e := newTestEnv(t)
		blk := withParams(e.block(t, "agent-1"), map[string]cty.Value{
			"userPrompt": cty.StringVal("User said: <start.input>"),
		})
		inputs, err := e.resolver.ResolveInputs(context.Background(), blk, e.state)
		require.NoError(t, err)
		assert.Equal(t, cty.StringVal("User said: hello"), inputs["userPrompt"])
	})

	t.Run("start reference in code context is quoted", func(t *testing.T) {
		e := newTestEnv(t)
		blk := withParams(e.block(t, "function-block"), map[string]cty.Value{
			"code": cty.StringVal("const x = <start.input>;"),
		})
		inputs, err := e.resolver.ResolveInputs(context.Background(), blk, e.state)
		require.NoError(t, err)
		assert.Equal(t, cty.StringVal(`const x = "hello";`), inputs["code"])
	})

	t.Run("bare reference selects the default output", func(t *testing.T) {
		e := newTestEnv(t)
		blk := withParams(e.block(t, "agent-1"), map[string]cty.Value{
			"userPrompt": cty.StringVal("<start>"),
		})
		inputs, err := e.resolver.ResolveInputs(context.Background(), blk, e.state)
		require.NoError(t, err)
		assert.Equal(t, cty.StringVal("hello"), inputs["userPrompt"])
	})

	t.Run("executed upstream output resolves by path", func(t *testing.T) {
		e := newTestEnv(t)
		e.state.RecordOutput("function-block", cty.ObjectVal(map[string]cty.Value{
			"result": cty.StringVal("42"),
		}))
		blk := withParams(e.block(t, "agent-1"), map[string]cty.Value{
			"userPrompt": cty.StringVal("<function-block.result>"),
		})
		inputs, err := e.resolver.ResolveInputs(context.Background(), blk, e.state)
		require.NoError(t, err)
		assert.Equal(t, cty.StringVal("42"), inputs["userPrompt"])
	})

	t.Run("reference by display name and normalized name", func(t *testing.T) {
		e := newTestEnv(t)
		e.state.RecordOutput("function-block", cty.ObjectVal(map[string]cty.Value{
			"result": cty.StringVal("42"),
		}))
		for _, head := range []string{"Function Block", "functionblock"} {
			blk := withParams(e.block(t, "agent-1"), map[string]cty.Value{
				"userPrompt": cty.StringVal("<" + head + ".result>"),
			})
			inputs, err := e.resolver.ResolveInputs(context.Background(), blk, e.state)
			require.NoError(t, err, "head %q", head)
			assert.Equal(t, cty.StringVal("42"), inputs["userPrompt"], "head %q", head)
		}
	})

	t.Run("disabled block reference is fatal", func(t *testing.T) {
		e := newTestEnv(t)
		blk := withParams(e.block(t, "lonely-1"), map[string]cty.Value{
			"code": cty.StringVal("<Broken Block.result>"),
		})
		_, err := e.resolver.ResolveInputs(context.Background(), blk, e.state)
		var disabled *access.DisabledBlockReferenceError
		require.ErrorAs(t, err, &disabled)
		assert.Equal(t, "Broken Block", disabled.BlockName)
	})

	t.Run("unconnected block reference is fatal and lists accessible names", func(t *testing.T) {
		e := newTestEnv(t)
		e.state.RecordOutput("function-block", cty.ObjectVal(map[string]cty.Value{
			"result": cty.StringVal("42"),
		}))
		// Lonely is connected to the starter only.
		blk := withParams(e.block(t, "lonely-1"), map[string]cty.Value{
			"code": cty.StringVal("<function-block.result>"),
		})
		_, err := e.resolver.ResolveInputs(context.Background(), blk, e.state)
		var unconnected *access.UnconnectedBlockReferenceError
		require.ErrorAs(t, err, &unconnected)
		assert.Equal(t, "Function Block", unconnected.BlockName)
		assert.Contains(t, unconnected.Accessible, "Start")
	})

	t.Run("accessible but not executed resolves to empty string", func(t *testing.T) {
		e := newTestEnv(t)
		// function-block has not run; agent-1 may reference it.
		blk := withParams(e.block(t, "agent-1"), map[string]cty.Value{
			"userPrompt": cty.StringVal("<function-block.result>"),
		})
		inputs, err := e.resolver.ResolveInputs(context.Background(), blk, e.state)
		require.NoError(t, err)
		assert.Equal(t, cty.StringVal(""), inputs["userPrompt"])
	})

	t.Run("unknown block stays literal", func(t *testing.T) {
		e := newTestEnv(t)
		blk := withParams(e.block(t, "agent-1"), map[string]cty.Value{
			"userPrompt": cty.StringVal("keep <ghost.output> as is"),
		})
		inputs, err := e.resolver.ResolveInputs(context.Background(), blk, e.state)
		require.NoError(t, err)
		assert.Equal(t, cty.StringVal("keep <ghost.output> as is"), inputs["userPrompt"])
	})

	t.Run("without accessibility map only the starter resolves", func(t *testing.T) {
		e := newTestEnv(t)
		closed := New(e.wf, blocktype.Defaults(), e.vars, nil)

		blk := withParams(e.block(t, "agent-1"), map[string]cty.Value{
			"userPrompt": cty.StringVal("<start.input>"),
		})
		inputs, err := closed.ResolveInputs(context.Background(), blk, e.state)
		require.NoError(t, err)
		assert.Equal(t, cty.StringVal("hello"), inputs["userPrompt"])

		blk = withParams(e.block(t, "agent-1"), map[string]cty.Value{
			"userPrompt": cty.StringVal("<function-block.result>"),
		})
		_, err = closed.ResolveInputs(context.Background(), blk, e.state)
		var unconnected *access.UnconnectedBlockReferenceError
		require.ErrorAs(t, err, &unconnected)
		assert.Equal(t, []string{"Start"}, unconnected.Accessible)
	})
}

func TestComparisonTextUntouched(t *testing.T) {
	e := newTestEnv(t)
	blk := withParams(e.block(t, "function-block"), map[string]cty.Value{
		"code": cty.StringVal("x < 5 && 8 > b"),
	})
	inputs, err := e.resolver.ResolveInputs(context.Background(), blk, e.state)
	require.NoError(t, err)
	assert.Equal(t, cty.StringVal("x < 5 && 8 > b"), inputs["code"])
}

func TestResolveNestedParameters(t *testing.T) {
	e := newTestEnv(t)
	addVariable(t, e, "numberVar", variables.TypeNumber, "42")

	// Table-shaped parameter: rows of cells, resolved recursively.
	blk := withParams(e.block(t, "agent-1"), map[string]cty.Value{
		"headers": cty.TupleVal([]cty.Value{
			cty.ObjectVal(map[string]cty.Value{
				"cells": cty.ObjectVal(map[string]cty.Value{
					"Key":   cty.StringVal("X-User"),
					"Value": cty.StringVal("<start.input>"),
				}),
			}),
			cty.ObjectVal(map[string]cty.Value{
				"cells": cty.ObjectVal(map[string]cty.Value{
					"Key":   cty.StringVal("X-Count"),
					"Value": cty.StringVal("<variable.numberVar>"),
				}),
			}),
		}),
	})

	inputs, err := e.resolver.ResolveInputs(context.Background(), blk, e.state)
	require.NoError(t, err)

	rows := inputs["headers"]
	require.Equal(t, 2, rows.LengthInt())

	first := rows.Index(cty.NumberIntVal(0)).GetAttr("cells")
	assert.Equal(t, cty.StringVal("hello"), first.GetAttr("Value"))

	second := rows.Index(cty.NumberIntVal(1)).GetAttr("cells")
	assert.True(t, cty.NumberIntVal(42).RawEquals(second.GetAttr("Value")))
}
