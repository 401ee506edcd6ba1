package blocktype

import (
	"fmt"

	"github.com/vk/flowgrid/internal/condition"
)

// Registry holds the block-type definitions for one application instance.
type Registry struct {
	defs map[string]*Definition
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds a definition, replacing any previous one of the same type.
func (r *Registry) Register(def *Definition) {
	r.defs[def.Type] = def
}

// Lookup returns the definition for a block type. The resolver tolerates a
// missing definition: resolution proceeds with text-mode parameters and no
// conditional filtering.
func (r *Registry) Lookup(blockType string) (*Definition, bool) {
	d, ok := r.defs[blockType]
	return d, ok
}

// Validate checks the internal consistency of every registered definition:
// visibility conditions may only reference declared sibling parameters.
// Inconsistencies are programmer errors surfaced at startup.
func (r *Registry) Validate() error {
	for blockType, def := range r.defs {
		declared := make(map[string]struct{}, len(def.Params))
		for _, p := range def.Params {
			declared[p.Name] = struct{}{}
		}
		for _, p := range def.Params {
			for _, field := range conditionFields(p.Condition) {
				if _, ok := declared[field]; !ok {
					return fmt.Errorf("block type '%s': param '%s' condition references undeclared param '%s'", blockType, p.Name, field)
				}
			}
		}
	}
	return nil
}

// conditionFields collects every field name a condition tree references.
func conditionFields(c condition.Condition) []string {
	switch cond := c.(type) {
	case nil:
		return nil
	case condition.Equals:
		return []string{cond.Field}
	case condition.OneOf:
		return []string{cond.Field}
	case condition.Not:
		return conditionFields(cond.Cond)
	case condition.And:
		return append(conditionFields(cond.Left), conditionFields(cond.Right)...)
	}
	panic(fmt.Sprintf("blocktype: unhandled condition variant %T", c))
}

// Defaults returns a registry pre-populated with the built-in block types
// of the builder.
func Defaults() *Registry {
	r := New()
	for _, def := range builtins {
		r.Register(def)
	}
	return r
}

// builtins mirrors the block palette the visual builder ships with. Hosts
// embedding the resolver register their own types on top.
var builtins = []*Definition{
	{
		Type:          "starter",
		Description:   "Workflow entry point.",
		DefaultOutput: "input",
		Params: []Param{
			{Name: "input", Type: TypePlain},
		},
	},
	{
		Type:          "function",
		Description:   "Runs a user-supplied code snippet.",
		DefaultOutput: "result",
		Params: []Param{
			{Name: "code", Type: TypeString, Mode: ModeCode},
			{Name: "timeout", Type: TypeNumber},
		},
	},
	{
		Type:        "condition",
		Description: "Routes execution by evaluating a predicate.",
		Params: []Param{
			// The predicate keeps its references intact; the routing
			// evaluator resolves them under its own scoping rules.
			{Name: "conditions", Type: TypeJSON, Mode: ModePassThrough},
		},
	},
	{
		Type:          "agent",
		Description:   "LLM call with prompt templating.",
		DefaultOutput: "content",
		Params: []Param{
			{Name: "systemPrompt", Type: TypeString},
			{Name: "userPrompt", Type: TypeString},
			{Name: "model", Type: TypeString},
			{Name: "apiKey", Type: TypeString, Secret: true},
			{Name: "temperature", Type: TypeNumber},
		},
	},
	{
		Type:          "api",
		Description:   "Outbound HTTP request.",
		DefaultOutput: "output",
		Params: []Param{
			{Name: "url", Type: TypeString},
			{Name: "method", Type: TypeString},
			{Name: "headers", Type: TypeJSON},
			{Name: "params", Type: TypeJSON},
			{
				Name:      "body",
				Type:      TypeJSON,
				Condition: condition.OneOf{Field: "method", Values: methodsWithBody()},
			},
			{Name: "apiKey", Type: TypeString, Secret: true},
		},
	},
	{
		Type:          "response",
		Description:   "Terminal block shaping the workflow response.",
		DefaultOutput: "data",
		Params: []Param{
			{Name: "dataMode", Type: TypeString},
			{
				Name:      "data",
				Type:      TypeJSON,
				Condition: condition.Equals{Field: "dataMode", Value: strVal("structured")},
			},
			{
				Name:      "data",
				Type:      TypePlain,
				Condition: condition.Not{Cond: condition.Equals{Field: "dataMode", Value: strVal("structured")}},
			},
			{Name: "status", Type: TypeNumber},
		},
	},
}
