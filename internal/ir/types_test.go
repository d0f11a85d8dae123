package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContainerKind(t *testing.T) {
	tests := []struct {
		name string
		want ContainerKind
	}{
		{"lazy", Lazy},
		{"iter", Lazy},
		{"Sequence", Sequence},
		{"slice", Sequence},
		{"vec", Sequence},
		{"SET", Set},
		{"mapping", Mapping},
		{"map", Mapping},
		{"dict", Mapping},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseContainerKind(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := ParseContainerKind("bag")
	assert.False(t, ok)
}

func TestContainerKindArity(t *testing.T) {
	assert.Equal(t, 1, Lazy.MapperArity())
	assert.Equal(t, 1, Sequence.MapperArity())
	assert.Equal(t, 1, Set.MapperArity())
	assert.Equal(t, 2, Mapping.MapperArity())
	assert.False(t, Lazy.Eager())
	assert.True(t, Set.Eager())
}

func TestContainerKindJSON(t *testing.T) {
	data, err := json.Marshal(Mapping)
	require.NoError(t, err)
	assert.Equal(t, `"mapping"`, string(data))

	var k ContainerKind
	require.NoError(t, json.Unmarshal([]byte(`"slice"`), &k))
	assert.Equal(t, Sequence, k)

	assert.Error(t, json.Unmarshal([]byte(`"heap"`), &k))
}

func TestJSONFieldNaming(t *testing.T) {
	data, err := json.Marshal(sampleComprehension())
	require.NoError(t, err)

	assert.Contains(t, string(data), `"container":"sequence"`)
	assert.Contains(t, string(data), `"clauses"`)
	assert.Contains(t, string(data), `"guard"`)
	assert.NotContains(t, string(data), `"Clauses"`)
}

func TestPatternNamesAndString(t *testing.T) {
	p := Tuple(
		Ident("k"),
		Record(
			FieldPattern{Field: "name", Pattern: Ident("name")},
			FieldPattern{Field: "age", Pattern: Ident("a")},
		),
		Ident("_"),
	)

	assert.Equal(t, []string{"k", "name", "a"}, p.Names())
	assert.Equal(t, "(k, {name, age: a}, _)", p.String())
}

func TestComprehensionString(t *testing.T) {
	c := sampleComprehension()
	assert.Equal(t, "sequence; for row in rows; for col in row => col, if mod(col, 2) == 0", c.String())

	exprs := c.Expressions()
	require.Len(t, exprs, 4)
	assert.Equal(t, "rows", exprs[0].Text)
	assert.Equal(t, "mod(col, 2) == 0", exprs[2].Text)
	assert.Equal(t, "col", exprs[3].Text)
}
