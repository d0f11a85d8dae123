package pipeline

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/comprehend/internal/compiler"
	"github.com/roach88/comprehend/internal/ir"
)

func mustParse(t *testing.T, src string) *ir.Comprehension {
	t.Helper()
	c, err := compiler.Parse(src)
	require.NoError(t, err)
	return c
}

func TestBuildSingleClause(t *testing.T) {
	plan, err := Build(mustParse(t, "sequence; for x in xs => x * 2, if mod(x, 2) == 0"))
	require.NoError(t, err)

	fm, ok := plan.Root.(*FilterMap)
	require.True(t, ok, "one clause builds the fused base case directly")
	assert.Equal(t, "xs", fm.Gen.Source.Text)
	require.NotNil(t, fm.Guard)
	assert.Equal(t, "mod(x, 2) == 0", fm.Guard.Text)
	assert.Equal(t, "x * 2", fm.Mapper.Value().Text)
	assert.Equal(t, 1, plan.Depth)
	assert.Equal(t, ir.Sequence, plan.Container)
	assert.Len(t, plan.ID, 64)
}

func TestBuildNestsOuterToInner(t *testing.T) {
	plan, err := Build(mustParse(t, "for a in as; for b in bs; for c in cs => [a, b, c], if c > a"))
	require.NoError(t, err)
	require.Equal(t, 3, plan.Depth)

	outer, ok := plan.Root.(*FlatMap)
	require.True(t, ok)
	assert.Equal(t, "as", outer.Clause().Source.Text)

	middle, ok := outer.Inner.(*FlatMap)
	require.True(t, ok)
	assert.Equal(t, "bs", middle.Clause().Source.Text)

	inner, ok := middle.Inner.(*FilterMap)
	require.True(t, ok)
	assert.Equal(t, "cs", inner.Clause().Source.Text)
	assert.Equal(t, "c > a", inner.Guard.Text, "guard attaches to the innermost stage only")
	assert.Same(t, inner, plan.Terminal())
}

func TestBuildDeepChain(t *testing.T) {
	src := "for x0 in s"
	for i := 1; i < 50; i++ {
		src += fmt.Sprintf("; for x%d in s", i)
	}
	plan, err := Build(mustParse(t, src+" => 1"))
	require.NoError(t, err)

	assert.Equal(t, 50, plan.Depth)
	assert.True(t, Validate(plan).Valid)
}

func TestBuildDeterministicID(t *testing.T) {
	a, err := Build(mustParse(t, "set; for x in xs => x"))
	require.NoError(t, err)
	b, err := Build(mustParse(t, "set;for x in xs   =>   x"))
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
}

func TestBuildRejectsEmptyChain(t *testing.T) {
	_, err := Build(&ir.Comprehension{Container: ir.Lazy})
	assert.ErrorIs(t, err, ErrEmptyChain)

	_, err = Build(nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	good, err := Build(mustParse(t, "mapping; for (k, v) in kvs; for x in v => k, x"))
	require.NoError(t, err)
	assert.True(t, Validate(good).Valid)

	tests := []struct {
		name    string
		plan    *Plan
		problem string
	}{
		{"nil plan", nil, "nil plan"},
		{
			"flat map without inner",
			&Plan{Root: &FlatMap{Gen: clause("x", "xs")}, Depth: 1},
			"FlatMap without inner stage",
		},
		{
			"arity mismatch",
			&Plan{Container: ir.Mapping, Root: &FilterMap{Gen: clause("x", "xs"), Mapper: mapper("x")}, Depth: 1},
			"mapping needs 2 mapper expression(s), found 1",
		},
		{
			"depth mismatch",
			&Plan{Root: &FilterMap{Gen: clause("x", "xs"), Mapper: mapper("x")}, Depth: 3},
			"plan depth 3 does not match 1 stages",
		},
		{
			"empty source",
			&Plan{Root: &FilterMap{Gen: clause("x", ""), Mapper: mapper("x")}, Depth: 1},
			"empty source expression",
		},
		{"missing root", &Plan{Depth: 0}, "missing stage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.plan)
			assert.False(t, res.Valid)
			assert.True(t, slices.ContainsFunc(res.Problems, func(p string) bool {
				return strings.Contains(p, tt.problem)
			}), "problems: %v", res.Problems)
		})
	}
}

func TestExplainGolden(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"explain_single", "sequence; for x in xs => x * 2, if mod(x, 2) == 0"},
		{"explain_nested", "for row in rows; for col in row => col, if mod(col, 2) == 0"},
		{"explain_mapping", "mapping; for {name, age: a} in people; for tag in tags => name, [a, tag]"},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Build(mustParse(t, tt.src))
			require.NoError(t, err)
			g.Assert(t, tt.name, []byte(Explain(plan)))
		})
	}
}

func TestPlanJSONTagsStages(t *testing.T) {
	plan, err := Build(mustParse(t, "for a in as; for b in bs => b"))
	require.NoError(t, err)

	data, err := json.Marshal(plan)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	root := decoded["root"].(map[string]any)
	assert.Equal(t, "flat_map", root["kind"])
	assert.Equal(t, "filter_map", root["inner"].(map[string]any)["kind"])
}

func clause(binding, source string) ir.GeneratorClause {
	return ir.GeneratorClause{Binding: ir.Ident(binding), Source: ir.Expr{Text: source}}
}

func mapper(exprs ...string) ir.Mapper {
	m := ir.Mapper{}
	for _, e := range exprs {
		m.Exprs = append(m.Exprs, ir.Expr{Text: e})
	}
	return m
}
