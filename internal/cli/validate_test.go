package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/comprehend/internal/compiler"
)

const validDoc = `# comprehensions over the shop dataset
for x in xs => x

sequence; for row in rows; for col in row => col, if col > 0
mapping; for {customer, total} in orders => customer, total
`

const invalidDoc = `for x in xs => x
mapping; for x in xs => x
# skipped
for x xs => x
set; for x in xs => x +
`

func TestValidateValidFile(t *testing.T) {
	path := writeFile(t, "ok.comp", validDoc)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.NoError(t, err)
	assert.Equal(t, "✓ "+path+": 3 comprehension(s) valid\n", out)
}

func TestValidateValidFileJSON(t *testing.T) {
	path := writeFile(t, "ok.comp", validDoc)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), path)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Data.Valid)
	require.Len(t, resp.Data.Comprehensions, 3)

	lines := []int{}
	for _, c := range resp.Data.Comprehensions {
		lines = append(lines, c.Line)
		assert.Len(t, c.ID, 64)
	}
	assert.Equal(t, []int{2, 4, 5}, lines)
	assert.Equal(t, "mapping; for {customer, total} in orders => customer, total", resp.Data.Comprehensions[2].Canonical)
}

func TestValidateReportsEveryProblem(t *testing.T) {
	path := writeFile(t, "bad.comp", invalidDoc)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "validation failed with 3 error(s)")

	var resp struct {
		Data ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Comprehensions, 1)
	assert.Equal(t, 1, resp.Data.Comprehensions[0].Line)

	require.Len(t, resp.Data.Errors, 3)
	assert.Equal(t, compiler.CodeArity, resp.Data.Errors[0].Code)
	assert.Equal(t, 2, resp.Data.Errors[0].Line)
	assert.Equal(t, compiler.CodeMalformed, resp.Data.Errors[1].Code)
	assert.Equal(t, 4, resp.Data.Errors[1].Line)
	assert.Equal(t, "binding", resp.Data.Errors[1].Field)
	assert.Equal(t, compiler.CodeMalformed, resp.Data.Errors[2].Code)
	assert.Equal(t, 5, resp.Data.Errors[2].Line)
	assert.Equal(t, "mapper", resp.Data.Errors[2].Field)
}

func TestValidateInvalidFileText(t *testing.T) {
	path := writeFile(t, "bad.comp", invalidDoc)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Contains(t, out, "✗ "+path+": 3 error(s)")
	assert.Contains(t, out, path+":2:")
	assert.Contains(t, out, "  UNSUPPORTED_CONTAINER_MAPPER_ARITY: mapping requires a key and a value expression")
	assert.Contains(t, out, path+":4:1\n")
}

func TestValidateMissingFile(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), "/nonexistent/file.comp")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestValidateEmptyFile(t *testing.T) {
	path := writeFile(t, "empty.comp", "# nothing here\n\n")

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.NoError(t, err)
	assert.Contains(t, out, ": 0 comprehension(s) valid")
}
