// Package condition implements declarative visibility conditions for block
// parameters. A condition is one of a closed set of variants evaluated
// against the sibling parameters' already-resolved values.
package condition

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Condition is the sealed set of visibility predicates.
type Condition interface {
	isCondition()
}

// Equals is satisfied when the named field's resolved value equals Value.
type Equals struct {
	Field string
	Value cty.Value
}

// OneOf is satisfied when the named field's resolved value is a member of
// Values.
type OneOf struct {
	Field  string
	Values []cty.Value
}

// Not negates its inner condition.
type Not struct {
	Cond Condition
}

// And is satisfied when both of its conditions are.
type And struct {
	Left  Condition
	Right Condition
}

func (Equals) isCondition() {}
func (OneOf) isCondition()  {}
func (Not) isCondition()    {}
func (And) isCondition()    {}

// Evaluate applies a condition to the resolved sibling values. A nil
// condition is vacuously true.
func Evaluate(c Condition, values map[string]cty.Value) bool {
	switch cond := c.(type) {
	case nil:
		return true
	case Equals:
		got, ok := values[cond.Field]
		if !ok {
			return false
		}
		return scalarEqual(got, cond.Value)
	case OneOf:
		got, ok := values[cond.Field]
		if !ok {
			return false
		}
		for _, want := range cond.Values {
			if scalarEqual(got, want) {
				return true
			}
		}
		return false
	case Not:
		return !Evaluate(cond.Cond, values)
	case And:
		return Evaluate(cond.Left, values) && Evaluate(cond.Right, values)
	}
	panic(fmt.Sprintf("condition: unhandled variant %T", c))
}

// scalarEqual compares two scalar values, converting the left side to the
// right side's type first so "2" matches 2 the way builder schemas expect.
func scalarEqual(got, want cty.Value) bool {
	if got.IsNull() || want.IsNull() {
		return got.IsNull() && want.IsNull()
	}
	converted, err := convert.Convert(got, want.Type())
	if err != nil {
		return false
	}
	eq := converted.Equals(want)
	return eq.IsKnown() && eq.True()
}
