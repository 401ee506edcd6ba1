package resolver

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgrid/internal/refs"
)

// applyPath walks a dot/index path into a value. The boolean result is
// false when any step misses; callers decide whether that is a soft empty
// or a literal token.
func applyPath(v cty.Value, path []refs.PathSegment) (cty.Value, bool) {
	for _, seg := range path {
		if seg.Name != "" {
			next, ok := stepAttr(v, seg.Name)
			if !ok {
				return cty.NilVal, false
			}
			v = next
		}
		if seg.HasIndex() {
			next, ok := stepIndex(v, seg.Index)
			if !ok {
				return cty.NilVal, false
			}
			v = next
		}
	}
	return v, true
}

func stepAttr(v cty.Value, name string) (cty.Value, bool) {
	if v == cty.NilVal || v.IsNull() {
		return cty.NilVal, false
	}
	ty := v.Type()
	switch {
	case ty.IsObjectType():
		if !ty.HasAttribute(name) {
			return cty.NilVal, false
		}
		return v.GetAttr(name), true
	case ty.IsMapType():
		key := cty.StringVal(name)
		if has := v.HasIndex(key); !has.IsKnown() || has.False() {
			return cty.NilVal, false
		}
		return v.Index(key), true
	}
	return cty.NilVal, false
}

func stepIndex(v cty.Value, idx int) (cty.Value, bool) {
	if v == cty.NilVal || v.IsNull() {
		return cty.NilVal, false
	}
	ty := v.Type()
	if !ty.IsTupleType() && !ty.IsListType() {
		return cty.NilVal, false
	}
	if idx < 0 || idx >= v.LengthInt() {
		return cty.NilVal, false
	}
	return v.Index(cty.NumberIntVal(int64(idx))), true
}
