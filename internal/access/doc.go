// Package access decides which block-output references are legal.
//
// The analyzer precomputes a per-block accessibility map from the workflow
// graph; the gate consults that map (or fails closed without one) before
// the resolver fetches any block output.
package access
