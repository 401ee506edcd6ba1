// Package testutil holds small helpers shared across the test suites.
package testutil

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// MustJSON decodes a JSON fragment into a cty value with its implied type,
// failing the test on malformed input.
func MustJSON(t *testing.T, raw string) cty.Value {
	t.Helper()
	ty, err := ctyjson.ImpliedType([]byte(raw))
	require.NoError(t, err, "implied type of %s", raw)
	val, err := ctyjson.Unmarshal([]byte(raw), ty)
	require.NoError(t, err, "unmarshal of %s", raw)
	return val
}

// WriteFile writes a fixture file onto the given filesystem, failing the
// test on error.
func WriteFile(t *testing.T, fsys afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fsys, path, []byte(content), 0o644))
}

// MemFS returns an in-memory filesystem pre-populated with the given
// path→content fixtures.
func MemFS(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for path, content := range files {
		WriteFile(t, fsys, path, content)
	}
	return fsys
}
