package blocktype

import "github.com/zclconf/go-cty/cty"

func strVal(s string) cty.Value {
	return cty.StringVal(s)
}

func methodsWithBody() []cty.Value {
	return []cty.Value{
		cty.StringVal("POST"),
		cty.StringVal("PUT"),
		cty.StringVal("PATCH"),
		cty.StringVal("DELETE"),
	}
}
