// Package blocktype is the registry of block-type definitions: the declared
// parameter schema of each type, its default output field, and the policies
// that drive input resolution (code-context quoting, pass-through
// parameters, secret-bearing parameters).
package blocktype

import (
	"github.com/vk/flowgrid/internal/condition"
)

// InputType is the declared type of a single block parameter.
type InputType string

const (
	TypeString  InputType = "string"
	TypeNumber  InputType = "number"
	TypeBoolean InputType = "boolean"
	TypeJSON    InputType = "json"
	TypePlain   InputType = "plain"
)

// ParamMode controls how the resolver treats a parameter's text.
type ParamMode int

const (
	// ModeText splices resolved string values raw, unquoted.
	ModeText ParamMode = iota

	// ModeCode marks parameters whose text is an executable snippet;
	// spliced string values are rendered as quoted, escaped literals so
	// the snippet stays syntactically valid.
	ModeCode

	// ModePassThrough excludes the parameter from resolution entirely.
	// Its references stay intact for a downstream block-specific
	// evaluator with its own scoping rules.
	ModePassThrough
)

// Param declares one parameter of a block type. Several Param entries may
// share a Name with mutually exclusive visibility conditions; at most one
// survives filtering.
type Param struct {
	Name string

	// Type is schema metadata for hosts (editor widgets, request
	// validation). Resolution itself is driven by Mode and Secret; the
	// resolved value's type comes from the referenced value, not from
	// this declaration.
	Type InputType

	Mode      ParamMode
	Secret    bool
	Condition condition.Condition
}

// Definition describes one block type.
type Definition struct {
	Type        string
	Description string

	// DefaultOutput is the dot path selected when a reference names the
	// block with no path, e.g. <start>. Empty means the whole output
	// object.
	DefaultOutput string

	Params []Param
}

// Param returns the first declared parameter with the given name.
func (d *Definition) Param(name string) (Param, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// ParamsNamed returns every declared parameter sharing the given name, in
// declaration order.
func (d *Definition) ParamsNamed(name string) []Param {
	var out []Param
	for _, p := range d.Params {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out
}
