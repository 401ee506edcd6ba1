// Package workflow holds the static, immutable description of a workflow as
// authored in the visual builder: blocks, connections between them, and the
// loop/parallel groupings that blocks may belong to.
//
// Everything in this package is read-only for the duration of a resolution
// call. Runtime state (outputs, iteration counters) lives in the execution
// package instead.
package workflow
