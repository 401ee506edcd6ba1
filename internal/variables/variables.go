// Package variables implements the workflow-scoped variable store and the
// type coercion applied when a variable is referenced.
//
// Values are stored verbatim as raw text. Validation against the declared
// type happens at write time and is advisory only: a malformed value is
// still written, and the failure surfaces as a resolution error only when
// the variable is actually referenced.
package variables

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Type is the declared type of a variable.
type Type string

const (
	TypePlain   Type = "plain"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeObject  Type = "object"
	TypeArray   Type = "array"

	// TypeString is a deprecated alias of TypePlain, migrated on write.
	TypeString Type = "string"
)

// Variable is one workflow-scoped variable.
type Variable struct {
	ID         string
	WorkflowID string
	Name       string
	Type       Type

	// Value is the raw text exactly as the user entered it.
	Value string
}

// InvalidVariableValueError reports a stored value that does not conform to
// the variable's declared type. It is advisory: the write succeeds anyway.
type InvalidVariableValueError struct {
	Name string
	Type Type
	Err  error
}

func (e *InvalidVariableValueError) Error() string {
	return fmt.Sprintf("variable '%s' value is not a valid %s: %v", e.Name, e.Type, e.Err)
}

func (e *InvalidVariableValueError) Unwrap() error { return e.Err }

// NormalizeName reduces a variable name to its matching form: whitespace
// stripped, lowercased.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), ""))
}

// Coerce converts the variable's raw text into a typed value.
//
// No quoting or escaping happens here; rendering a string as a code literal
// is the formatter's concern.
func Coerce(v *Variable) (cty.Value, error) {
	switch v.Type {
	case TypeNumber:
		num, err := convert.Convert(cty.StringVal(strings.TrimSpace(v.Value)), cty.Number)
		if err != nil {
			return cty.NilVal, fmt.Errorf("variable '%s': %w", v.Name, err)
		}
		return num, nil
	case TypeBoolean:
		switch strings.ToLower(strings.TrimSpace(v.Value)) {
		case "true":
			return cty.True, nil
		case "false":
			return cty.False, nil
		}
		return cty.NilVal, fmt.Errorf("variable '%s': %q is not a boolean", v.Name, v.Value)
	case TypeObject, TypeArray:
		val, err := jsonDecode(v.Value)
		if err != nil {
			return cty.NilVal, fmt.Errorf("variable '%s': %w", v.Name, err)
		}
		return val, nil
	case TypePlain, TypeString, "":
		return cty.StringVal(v.Value), nil
	}
	return cty.NilVal, fmt.Errorf("variable '%s': unknown type %q", v.Name, v.Type)
}

func jsonDecode(raw string) (cty.Value, error) {
	ty, err := ctyjson.ImpliedType([]byte(raw))
	if err != nil {
		return cty.NilVal, err
	}
	return ctyjson.Unmarshal([]byte(raw), ty)
}

// Validate checks the raw value against the declared type. nil means the
// value conforms (plain values always do).
func (v *Variable) Validate() error {
	return validate(v)
}

func validate(v *Variable) error {
	if v.Type == TypePlain || v.Type == TypeString || v.Type == "" {
		return nil
	}
	if _, err := Coerce(v); err != nil {
		return &InvalidVariableValueError{Name: v.Name, Type: v.Type, Err: err}
	}
	return nil
}
