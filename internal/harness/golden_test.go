package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden(t *testing.T) {
	for _, name := range []string{"filter_before_map", "mapping_last_write_wins", "arity_rejected"} {
		t.Run(name, func(t *testing.T) {
			s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
			require.NoError(t, err)

			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestSnapshotEncodesEntries(t *testing.T) {
	s := &Scenario{
		Name:          "entries",
		Description:   "d",
		Comprehension: "mapping; for x in [1] => \"k\", x",
	}
	result, err := Run(s)
	require.NoError(t, err)

	data, err := Snapshot(s, result)
	require.NoError(t, err)
	assert.Contains(t, string(data), `{"depth":0,"kind":"yield","seq":4,"value":{"key":"k","value":1}}`)
	assert.Contains(t, string(data), `"result":{"k":1}`)
}

func writeScenario(t *testing.T, dir, name, body string) *Scenario {
	t.Helper()
	path := filepath.Join(dir, name+".yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	s, err := LoadScenario(path)
	require.NoError(t, err)
	return s
}

func TestWithGolden_UpdateThenCompare(t *testing.T) {
	dir := t.TempDir()
	s := writeScenario(t, dir, "doubles", `
name: doubles
description: doubles every element
comprehension: "sequence; for x in [1, 2] => x * 2"
expect:
  result: [2, 4]
`)

	// No golden file yet: expect and assertions only.
	result, err := New(WithGolden(false)).Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass)
	assert.NoFileExists(t, GoldenPath(s))

	result, err = New(WithGolden(true)).Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass)
	require.FileExists(t, GoldenPath(s))

	result, err = New(WithGolden(false)).Run(context.Background(), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	// Same name, different comprehension: the snapshot no longer matches.
	changed := writeScenario(t, dir, "doubles", `
name: doubles
description: doubles every element
comprehension: "sequence; for x in [1, 2] => x + x"
expect:
  result: [2, 4]
`)
	result, err = New(WithGolden(false)).Run(context.Background(), changed)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "trace does not match golden file")
}
