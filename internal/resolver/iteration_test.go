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

func newLoopEnv(t *testing.T, loop *workflow.Loop) *testEnv {
	t.Helper()

	blocks := []*workflow.Block{
		{ID: "start-1", Name: "Start", Type: workflow.StarterType, Enabled: true},
		{ID: "member-1", Name: "Member 1", Type: "function", Enabled: true},
		{ID: "member-2", Name: "Member 2", Type: "function", Enabled: true},
		{ID: "outsider-1", Name: "Outsider", Type: "function", Enabled: true},
	}
	conns := []workflow.Connection{
		{Source: "start-1", Target: "member-1"},
		{Source: "member-1", Target: "member-2"},
		{Source: "start-1", Target: "outsider-1"},
	}
	wf := workflow.New("wf-test", blocks, conns)
	wf.AddLoop(loop)

	state := execution.NewContext()
	state.RecordOutput("start-1", cty.ObjectVal(map[string]cty.Value{
		"input": cty.StringVal("hello"),
	}))

	vars := variables.NewStore()
	r := New(wf, blocktype.Defaults(), vars, access.Build(wf))
	return &testEnv{wf: wf, vars: vars, state: state, resolver: r}
}

func TestLoopContext(t *testing.T) {
	staticItems := cty.TupleVal([]cty.Value{
		cty.StringVal("a"), cty.StringVal("b"), cty.StringVal("c"),
	})
	loop := &workflow.Loop{
		ID:           "loop-1",
		Name:         "Loop 1",
		Nodes:        []string{"member-1", "member-2"},
		Iterations:   3,
		Kind:         workflow.LoopForEach,
		ForEachItems: staticItems,
	}

	t.Run("index is iteration count minus one", func(t *testing.T) {
		e := newLoopEnv(t, loop)
		e.state.SetLoopIteration("loop-1", 3)

		blk := withParams(e.block(t, "member-1"), map[string]cty.Value{
			"code": cty.StringVal("<loop.index>"),
		})
		inputs, err := e.resolver.ResolveInputs(context.Background(), blk, e.state)
		require.NoError(t, err)
		assert.True(t, cty.NumberIntVal(2).RawEquals(inputs["code"]))
	})

	t.Run("index before any iteration resolves to empty", func(t *testing.T) {
		e := newLoopEnv(t, loop)

		blk := withParams(e.block(t, "member-1"), map[string]cty.Value{
			"code": cty.StringVal("<loop.index>"),
		})
		inputs, err := e.resolver.ResolveInputs(context.Background(), blk, e.state)
		require.NoError(t, err)
		assert.Equal(t, cty.StringVal(""), inputs["code"])
	})

	t.Run("index splices as decimal text", func(t *testing.T) {
		e := newLoopEnv(t, loop)
		e.state.SetLoopIteration("loop-1", 2)

		blk := withParams(e.block(t, "member-1"), map[string]cty.Value{
			"code": cty.StringVal("iteration <loop.index> done"),
		})
		inputs, err := e.resolver.ResolveInputs(context.Background(), blk, e.state)
		require.NoError(t, err)
		assert.Equal(t, cty.StringVal("iteration 1 done"), inputs["code"])
	})

	t.Run("current item resolves from runtime state", func(t *testing.T) {
		e := newLoopEnv(t, loop)
		e.state.SetLoopItem("loop-1", cty.StringVal("b"))

		blk := withParams(e.block(t, "member-2"), map[string]cty.Value{
			"timeout": cty.StringVal("<loop.currentItem>"),
		})
		inputs, err := e.resolver.ResolveInputs(context.Background(), blk, e.state)
		require.NoError(t, err)
		assert.Equal(t, cty.StringVal("b"), inputs["timeout"])
	})

	t.Run("current item drill-down", func(t *testing.T) {
		e := newLoopEnv(t, loop)
		e.state.SetLoopItem("loop-1", cty.ObjectVal(map[string]cty.Value{
			"name": cty.StringVal("first"),
		}))

		blk := withParams(e.block(t, "member-1"), map[string]cty.Value{
			"timeout": cty.StringVal("<loop.currentItem.name>"),
		})
		inputs, err := e.resolver.ResolveInputs(context.Background(), blk, e.state)
		require.NoError(t, err)
		assert.Equal(t, cty.StringVal("first"), inputs["timeout"])
	})

	t.Run("items prefers live snapshot over static config", func(t *testing.T) {
		e := newLoopEnv(t, loop)
		live := cty.TupleVal([]cty.Value{cty.StringVal("x"), cty.StringVal("y")})
		e.state.SetLoopItems("loop-1", live)

		blk := withParams(e.block(t, "member-1"), map[string]cty.Value{
			"timeout": cty.StringVal("<loop.items>"),
		})
		inputs, err := e.resolver.ResolveInputs(context.Background(), blk, e.state)
		require.NoError(t, err)
		assert.True(t, live.RawEquals(inputs["timeout"]))
	})

	t.Run("items falls back to static config", func(t *testing.T) {
		e := newLoopEnv(t, loop)

		blk := withParams(e.block(t, "member-1"), map[string]cty.Value{
			"timeout": cty.StringVal("<loop.items>"),
		})
		inputs, err := e.resolver.ResolveInputs(context.Background(), blk, e.state)
		require.NoError(t, err)
		assert.True(t, staticItems.RawEquals(inputs["timeout"]))
	})

	t.Run("items supports indexing", func(t *testing.T) {
		e := newLoopEnv(t, loop)

		blk := withParams(e.block(t, "member-1"), map[string]cty.Value{
			"timeout": cty.StringVal("<loop.items[1]>"),
		})
		inputs, err := e.resolver.ResolveInputs(context.Background(), blk, e.state)
		require.NoError(t, err)
		assert.Equal(t, cty.StringVal("b"), inputs["timeout"])
	})

	t.Run("non-member leaves loop token literal", func(t *testing.T) {
		e := newLoopEnv(t, loop)

		blk := withParams(e.block(t, "outsider-1"), map[string]cty.Value{
			"timeout": cty.StringVal("<loop.index>"),
		})
		inputs, err := e.resolver.ResolveInputs(context.Background(), blk, e.state)
		require.NoError(t, err)
		assert.Equal(t, cty.StringVal("<loop.index>"), inputs["timeout"])
	})

	t.Run("membership in two loops is ambiguous and stays literal", func(t *testing.T) {
		e := newLoopEnv(t, loop)
		e.wf.AddLoop(&workflow.Loop{
			ID:    "loop-2",
			Nodes: []string{"member-1"},
		})

		blk := withParams(e.block(t, "member-1"), map[string]cty.Value{
			"timeout": cty.StringVal("<loop.index>"),
		})
		inputs, err := e.resolver.ResolveInputs(context.Background(), blk, e.state)
		require.NoError(t, err)
		assert.Equal(t, cty.StringVal("<loop.index>"), inputs["timeout"])
	})
}

func TestParallelContext(t *testing.T) {
	items := cty.TupleVal([]cty.Value{cty.StringVal("p"), cty.StringVal("q")})

	blocks := []*workflow.Block{
		{ID: "start-1", Name: "Start", Type: workflow.StarterType, Enabled: true},
		{ID: "branch-1", Name: "Branch 1", Type: "function", Enabled: true},
	}
	conns := []workflow.Connection{{Source: "start-1", Target: "branch-1"}}
	wf := workflow.New("wf-test", blocks, conns)
	wf.AddParallel(&workflow.Parallel{
		ID:    "parallel-1",
		Name:  "Parallel 1",
		Nodes: []string{"branch-1"},
		Count: 2,
		Items: items,
	})

	state := execution.NewContext()
	r := New(wf, blocktype.Defaults(), variables.NewStore(), access.Build(wf))
	branch, ok := wf.BlockByID("branch-1")
	require.True(t, ok)

	t.Run("index before any iteration resolves to empty", func(t *testing.T) {
		blk := withParams(branch, map[string]cty.Value{
			"timeout": cty.StringVal("<parallel.index>"),
		})
		inputs, err := r.ResolveInputs(context.Background(), blk, state)
		require.NoError(t, err)
		assert.Equal(t, cty.StringVal(""), inputs["timeout"])
	})

	t.Run("items supports indexing", func(t *testing.T) {
		blk := withParams(branch, map[string]cty.Value{
			"timeout": cty.StringVal("<parallel.items[0]>"),
		})
		inputs, err := r.ResolveInputs(context.Background(), blk, state)
		require.NoError(t, err)
		assert.Equal(t, cty.StringVal("p"), inputs["timeout"])
	})

	t.Run("index", func(t *testing.T) {
		state.SetParallelIteration("parallel-1", 2)
		blk := withParams(branch, map[string]cty.Value{
			"timeout": cty.StringVal("<parallel.index>"),
		})
		inputs, err := r.ResolveInputs(context.Background(), blk, state)
		require.NoError(t, err)
		assert.True(t, cty.NumberIntVal(1).RawEquals(inputs["timeout"]))
	})

	t.Run("current item", func(t *testing.T) {
		state.SetParallelItem("parallel-1", cty.StringVal("q"))
		blk := withParams(branch, map[string]cty.Value{
			"timeout": cty.StringVal("<parallel.currentItem>"),
		})
		inputs, err := r.ResolveInputs(context.Background(), blk, state)
		require.NoError(t, err)
		assert.Equal(t, cty.StringVal("q"), inputs["timeout"])
	})

	t.Run("items falls back to descriptor", func(t *testing.T) {
		blk := withParams(branch, map[string]cty.Value{
			"timeout": cty.StringVal("<parallel.items>"),
		})
		inputs, err := r.ResolveInputs(context.Background(), blk, state)
		require.NoError(t, err)
		assert.True(t, items.RawEquals(inputs["timeout"]))
	})
}
