// Package execution holds the per-run mutable state the resolver reads:
// recorded block outputs, the active execution path, environment variables,
// and loop/parallel iteration state.
//
// The orchestration loop owns all mutation and performs it strictly between
// resolution calls. The resolver only ever reads, through the accessor
// methods, so a Context handed to concurrent resolutions of independent
// blocks needs no external locking.
package execution

import (
	"sync"

	"github.com/zclconf/go-cty/cty"
)

// IterationState is the live state of one loop or parallel grouping.
type IterationState struct {
	// Iteration is the number of iterations recorded so far; the exposed
	// index is Iteration-1.
	Iteration int

	// CurrentItem is the per-iteration item snapshot. NilVal when the
	// grouping has no item semantics or none was recorded.
	CurrentItem cty.Value

	// Items is the live collection snapshot for this run. NilVal when no
	// snapshot was taken; consumers then fall back to the grouping's
	// static configuration.
	Items cty.Value
}

// Context is the execution snapshot for one workflow run.
type Context struct {
	mu sync.RWMutex

	outputs    map[string]cty.Value
	executed   map[string]struct{}
	activePath map[string]struct{}
	env        map[string]string

	loops          map[string]*IterationState
	parallels      map[string]*IterationState
	completedLoops map[string]struct{}
}

// NewContext creates an empty execution context.
func NewContext() *Context {
	return &Context{
		outputs:        make(map[string]cty.Value),
		executed:       make(map[string]struct{}),
		activePath:     make(map[string]struct{}),
		env:            make(map[string]string),
		loops:          make(map[string]*IterationState),
		parallels:      make(map[string]*IterationState),
		completedLoops: make(map[string]struct{}),
	}
}

// RecordOutput stores a block's output and marks it executed and active.
func (c *Context) RecordOutput(blockID string, output cty.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outputs[blockID] = output
	c.executed[blockID] = struct{}{}
	c.activePath[blockID] = struct{}{}
}

// Output returns a block's recorded output.
func (c *Context) Output(blockID string) (cty.Value, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.outputs[blockID]
	return v, ok
}

// MarkActive adds a block to the active execution path without recording
// an output.
func (c *Context) MarkActive(blockID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activePath[blockID] = struct{}{}
}

// HasExecuted reports whether a block has produced an output this run.
func (c *Context) HasExecuted(blockID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.executed[blockID]
	return ok
}

// InActivePath reports whether a block is on the active execution path.
func (c *Context) InActivePath(blockID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.activePath[blockID]
	return ok
}

// SetEnv replaces one environment variable.
func (c *Context) SetEnv(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.env[name] = value
}

// Env returns one environment variable.
func (c *Context) Env(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.env[name]
	return v, ok
}

// SetLoopIteration records the loop's iteration counter.
func (c *Context) SetLoopIteration(loopID string, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loopState(loopID).Iteration = n
}

// SetLoopItem records the loop's current per-iteration item.
func (c *Context) SetLoopItem(loopID string, item cty.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loopState(loopID).CurrentItem = item
}

// SetLoopItems records a live snapshot of the loop's item collection.
func (c *Context) SetLoopItems(loopID string, items cty.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loopState(loopID).Items = items
}

// LoopState returns a copy of the loop's iteration state.
func (c *Context) LoopState(loopID string) (IterationState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st, ok := c.loops[loopID]
	if !ok {
		return IterationState{}, false
	}
	return *st, true
}

// MarkLoopCompleted records that the loop has finished all iterations.
func (c *Context) MarkLoopCompleted(loopID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completedLoops[loopID] = struct{}{}
}

// LoopCompleted reports whether the loop has finished all iterations.
func (c *Context) LoopCompleted(loopID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.completedLoops[loopID]
	return ok
}

// SetParallelIteration records the parallel's branch counter.
func (c *Context) SetParallelIteration(parallelID string, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parallelState(parallelID).Iteration = n
}

// SetParallelItem records the current branch item.
func (c *Context) SetParallelItem(parallelID string, item cty.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parallelState(parallelID).CurrentItem = item
}

// SetParallelItems records a live snapshot of the parallel's items.
func (c *Context) SetParallelItems(parallelID string, items cty.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parallelState(parallelID).Items = items
}

// ParallelState returns a copy of the parallel's iteration state.
func (c *Context) ParallelState(parallelID string) (IterationState, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st, ok := c.parallels[parallelID]
	if !ok {
		return IterationState{}, false
	}
	return *st, true
}

func (c *Context) loopState(loopID string) *IterationState {
	st, ok := c.loops[loopID]
	if !ok {
		st = &IterationState{CurrentItem: cty.NilVal, Items: cty.NilVal}
		c.loops[loopID] = st
	}
	return st
}

func (c *Context) parallelState(parallelID string) *IterationState {
	st, ok := c.parallels[parallelID]
	if !ok {
		st = &IterationState{CurrentItem: cty.NilVal, Items: cty.NilVal}
		c.parallels[parallelID] = st
	}
	return st
}
