package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/comprehend/internal/ir"
)

func TestParseBasic(t *testing.T) {
	c, err := Parse("sequence; for x in xs => x * 2, if mod(x, 2) == 0")
	require.NoError(t, err)

	assert.Equal(t, ir.Sequence, c.Container)
	require.Len(t, c.Chain.Clauses, 1)
	assert.Equal(t, "x", c.Chain.Clauses[0].Binding.Name)
	assert.Equal(t, "xs", c.Chain.Clauses[0].Source.Text)
	require.NotNil(t, c.Chain.Guard)
	assert.Equal(t, "mod(x, 2) == 0", c.Chain.Guard.Text)
	require.Equal(t, 1, c.Chain.Mapper.Arity())
	assert.Equal(t, "x * 2", c.Chain.Mapper.Value().Text)
}

func TestParseContainers(t *testing.T) {
	tests := []struct {
		src  string
		want ir.ContainerKind
	}{
		{"for x in xs => x", ir.Lazy},
		{"iter; for x in xs => x", ir.Lazy},
		{"vec; for x in xs => x", ir.Sequence},
		{"set; for x in xs => x", ir.Set},
		{"map; for k in ks => k, 1", ir.Mapping},
		{"dict; for k in ks => k, 1", ir.Mapping},
		{"Mapping; for k in ks => k, 1", ir.Mapping},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			c, err := Parse(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Container)
		})
	}
}

func TestParseNestedClauses(t *testing.T) {
	c, err := Parse("for row in rows; for col in row => col, if mod(col, 2) == 0")
	require.NoError(t, err)

	require.Equal(t, 2, c.Chain.Depth())
	assert.Equal(t, "rows", c.Chain.Clauses[0].Source.Text)
	assert.Equal(t, "row", c.Chain.Clauses[1].Source.Text)
	assert.Equal(t, "col", c.Chain.Innermost().Binding.Name)
	assert.Equal(t, "col", c.Chain.Mapper.Value().Text)
}

func TestParseCommaBeforeFor(t *testing.T) {
	a, err := Parse("for a in as, for b in bs => [a, b]")
	require.NoError(t, err)
	b, err := Parse("for a in as; for b in bs => [a, b]")
	require.NoError(t, err)

	assert.Equal(t, ir.MustComprehensionID(a), ir.MustComprehensionID(b))
	assert.Equal(t, "[a, b]", a.Chain.Mapper.Value().Text)
}

func TestParseExpressionsAreOpaque(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		source string
		mapper string
		guard  string
	}{
		{
			name:   "commas inside call",
			src:    "for x in list.Range(0, 10, 1) => f(x, 1), if g(x, 2)",
			source: "list.Range(0, 10, 1)",
			mapper: "f(x, 1)",
			guard:  "g(x, 2)",
		},
		{
			name:   "separators inside brackets",
			src:    "for x in [1, 2; 3] => {a: x, b: x}",
			source: "[1, 2; 3]",
			mapper: "{a: x, b: x}",
		},
		{
			name:   "nested comprehension in source",
			src:    "for x in [for y in ys if y > 0 {y}] => x",
			source: "[for y in ys if y > 0 {y}]",
			mapper: "x",
		},
		{
			name:   "arrow inside brackets",
			src:    `for x in xs => "a=>b" + (x)`,
			source: "xs",
			mapper: `"a=>b" + (x)`,
		},
		{
			name:   "comparison is not an arrow",
			src:    "for x in xs => x >= 1, if x = > 0",
			source: "xs",
			mapper: "x >= 1",
			guard:  "x = > 0",
		},
		{
			name:   "whitespace and newlines",
			src:    "for x in\n  xs\n  =>   x + 1\n",
			source: "xs",
			mapper: "x + 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.source, c.Chain.Clauses[0].Source.Text)
			assert.Equal(t, tt.mapper, c.Chain.Mapper.Value().Text)
			if tt.guard == "" {
				assert.Nil(t, c.Chain.Guard)
			} else {
				require.NotNil(t, c.Chain.Guard)
				assert.Equal(t, tt.guard, c.Chain.Guard.Text)
			}
		})
	}
}

func TestParseTrailingComma(t *testing.T) {
	c, err := Parse("set; for x in xs => x, if x > 1,")
	require.NoError(t, err)
	require.NotNil(t, c.Chain.Guard)
	assert.Equal(t, "x > 1", c.Chain.Guard.Text)

	c, err = Parse("for x in xs => x,")
	require.NoError(t, err)
	assert.Nil(t, c.Chain.Guard)
	assert.Equal(t, 1, c.Chain.Mapper.Arity())
}

func TestParseMappingKeyValue(t *testing.T) {
	c, err := Parse(`mapping; for (k, v) in pairs => k, v * 10, if v != null`)
	require.NoError(t, err)

	require.Equal(t, 2, c.Chain.Mapper.Arity())
	assert.Equal(t, "k", c.Chain.Mapper.Key().Text)
	assert.Equal(t, "v * 10", c.Chain.Mapper.Value().Text)
	assert.Equal(t, ir.PatternTuple, c.Chain.Clauses[0].Binding.Kind)
}

func TestParsePatterns(t *testing.T) {
	tests := []struct {
		binding string
		want    string
		names   []string
	}{
		{"x", "x", []string{"x"}},
		{"_", "_", nil},
		{"(x)", "x", []string{"x"}},
		{"(x,)", "(x)", []string{"x"}},
		{"k, v", "(k, v)", []string{"k", "v"}},
		{"(k, v)", "(k, v)", []string{"k", "v"}},
		{"[a, _, c]", "(a, _, c)", []string{"a", "c"}},
		{"(i, (a, b))", "(i, (a, b))", []string{"i", "a", "b"}},
		{"{name, age: a}", "{name, age: a}", []string{"name", "a"}},
		{`{"first-name": n}`, "{first-name: n}", []string{"n"}},
		{"{user: {id}}", "{user: {id}}", []string{"id"}},
		{"type", "type", []string{"type"}},
	}
	for _, tt := range tests {
		t.Run(tt.binding, func(t *testing.T) {
			c, err := Parse("for " + tt.binding + " in xs => 1")
			require.NoError(t, err)
			b := c.Chain.Clauses[0].Binding
			assert.Equal(t, tt.want, b.String())
			assert.Equal(t, tt.names, b.Names())
			assert.True(t, b.Pos.IsValid() || b.Kind == ir.PatternWildcard)
		})
	}
}

func TestParsePositions(t *testing.T) {
	c, err := Parse("set; for x in xs\n  => x + 1, if x > 2")
	require.NoError(t, err)

	assert.Equal(t, ir.Pos{Offset: 14, Line: 1, Column: 15}, c.Chain.Clauses[0].Source.Pos)
	assert.Equal(t, 2, c.Chain.Mapper.Value().Pos.Line)
	assert.Equal(t, 6, c.Chain.Mapper.Value().Pos.Column)
	assert.Equal(t, 2, c.Chain.Guard.Pos.Line)
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
		msg   string
	}{
		{"empty", "   ", "comprehension", "empty comprehension"},
		{"no clause", "set; => x", "clause", "expected 'for'"},
		{"no for", "x in xs => x", "clause", "expected 'for'"},
		{"missing in", "for x xs => x", "binding", "missing 'in'"},
		{"missing binding", "for in xs => x", "binding", "missing binding"},
		{"missing source", "for x in => x", "source", "missing source"},
		{"missing arrow", "for x in xs", "mapper", "missing '=>'"},
		{"missing mapper", "for x in xs =>", "mapper", "missing mapper"},
		{"guard only", "for x in xs => if x", "mapper", "missing mapper"},
		{"empty guard", "for x in xs => x, if", "guard", "missing guard expression"},
		{"guard not last", "for x in xs => if x > 1, x", "guard", "must be the last"},
		{"two guards", "for x in xs => x, if a, if b", "guard", "only one guard"},
		{"too many mappers", "mapping; for x in xs => a, b, c", "mapper", "too many mapper"},
		{"empty segment", "for x in xs => x,, if y", "mapper", "empty expression"},
		{"dangling semicolon", "for x in xs; => x", "clause", "must be followed by another 'for'"},
		{"for in source", "for x in xs for y in ys => x", "source", "unexpected 'for'"},
		{"if in source", "for x in xs if x => x", "source", "unexpected 'if'"},
		{"comma in source", "for x in a, b => x", "source", "unexpected ','"},
		{"comma in outer source", "for x in a, b; for y in x => y", "source", "unexpected ','"},
		{"for after arrow", "for x in xs => x; for y in ys => y", "mapper", "unexpected 'for'"},
		{"second arrow", "for x in xs => x => y", "mapper", "unexpected '=>'"},
		{"unknown container", "bag; for x in xs => x", "container", "unknown container kind"},
		{"unclosed", "for x in f(xs => x", "comprehension", "unclosed"},
		{"mismatched", "for x in f(xs] => x", "comprehension", "mismatched"},
		{"stray closer", "for x in xs) => x", "comprehension", "unbalanced"},
		{"bad pattern", "for 1 in xs => x", "binding", "unexpected"},
		{"duplicate binding", "for (x, x) in xs => x", "binding", "bound more than once"},
		{"unclosed pattern", "for (x in xs => x", "comprehension", "unclosed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Parse(tt.src)
			require.Error(t, err)
			assert.Nil(t, c)

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, CodeMalformed, ce.Code)
			assert.Equal(t, tt.field, ce.Field)
			assert.Contains(t, ce.Message, tt.msg)
			assert.True(t, IsMalformed(err))
			assert.False(t, IsArityError(err))
		})
	}
}

func TestParseArityRejection(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"sequence with key/value", "sequence; for x in xs => x, x"},
		{"set with key/value", "set; for x in xs => x, x, if x > 0"},
		{"lazy with key/value", "for x in xs => x, x"},
		{"mapping with single mapper", "mapping; for x in xs => x"},
		{"mapping with single mapper and guard", "map; for x in xs => x, if x > 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			require.Error(t, err)
			assert.True(t, IsArityError(err))
			assert.True(t, IsMalformed(err), "arity errors are malformed comprehensions too")
			assert.ErrorIs(t, err, ErrUnsupportedContainerMapperArity)
		})
	}
}

func TestCompileErrorFormat(t *testing.T) {
	_, err := Parse("for x in xs =>")
	require.Error(t, err)
	assert.Equal(t, "1:13: mapper: missing mapper expression after '=>'", err.Error())

	plain := &CompileError{Code: CodeMalformed, Field: "clause", Message: "oops"}
	assert.Equal(t, "clause: oops", plain.Error())
}

func TestStringRoundTrip(t *testing.T) {
	srcs := []string{
		"for x in xs => x",
		"set; for (k, v) in pairs; for y in f(k, v) => [k, y], if y > 0",
		"mapping; for {name, age: a} in people => name, a",
	}
	for _, src := range srcs {
		t.Run(src, func(t *testing.T) {
			c, err := Parse(src)
			require.NoError(t, err)
			again, err := Parse(c.String())
			require.NoError(t, err)
			assert.Equal(t, ir.MustComprehensionID(c), ir.MustComprehensionID(again))
		})
	}
}

func TestParseCommaInSourcePosition(t *testing.T) {
	_, err := Parse("for x in a, b => x")

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ",", ce.Token)
	assert.Equal(t, 1, ce.Pos.Line)
	assert.Equal(t, 11, ce.Pos.Column)
}
