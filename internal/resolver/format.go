package resolver

import (
	"encoding/json"
	"fmt"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// spliceText renders a resolved value for insertion into surrounding text.
// In code context, string values become quoted escaped literals so the
// containing snippet stays syntactically valid; everywhere else strings
// splice raw. Non-strings render as their bare literal text either way.
func spliceText(v cty.Value, code bool) (string, error) {
	if v == cty.NilVal || v.IsNull() {
		return "", nil
	}

	switch ty := v.Type(); {
	case ty == cty.String:
		if code {
			return quoteLiteral(v.AsString())
		}
		return v.AsString(), nil

	case ty == cty.Number:
		return formatNumber(v), nil

	case ty == cty.Bool:
		if v.True() {
			return "true", nil
		}
		return "false", nil

	default:
		// Objects, maps, lists and tuples splice as compact JSON.
		b, err := ctyjson.Marshal(v, ty)
		if err != nil {
			return "", fmt.Errorf("serializing %s value for splice: %w", ty.FriendlyName(), err)
		}
		return string(b), nil
	}
}

// formatNumber renders a cty number as plain decimal text with no exponent
// and no trailing zeros.
func formatNumber(v cty.Value) string {
	return v.AsBigFloat().Text('f', -1)
}

// quoteLiteral renders s as a double-quoted, escaped string literal.
func quoteLiteral(s string) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("quoting string literal: %w", err)
	}
	return string(b), nil
}
