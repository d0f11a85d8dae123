package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/comprehend/internal/ir"
)

func TestScopeIsImmutable(t *testing.T) {
	root := NewScope(map[string]any{"g": 1})
	a := root.Bind("x", "a")
	b := root.Bind("x", "b")

	va, _ := a.Lookup("x")
	vb, _ := b.Lookup("x")
	assert.Equal(t, "a", va)
	assert.Equal(t, "b", vb)

	_, ok := root.Lookup("x")
	assert.False(t, ok)
	assert.Equal(t, map[string]any{"g": 1}, root.Vars())
}

func TestScopeShadowing(t *testing.T) {
	s := NewScope(map[string]any{"x": "global"}).Bind("x", "outer").Bind("y", 1).Bind("x", "inner")

	assert.Equal(t, map[string]any{"x": "inner", "y": 1}, s.Vars())
}

func TestEmptyScope(t *testing.T) {
	s := NewScope(nil)
	assert.Empty(t, s.Vars())
	_, ok := s.Lookup("anything")
	assert.False(t, ok)
}

func TestBindPatterns(t *testing.T) {
	tests := []struct {
		name  string
		pat   ir.Pattern
		value any
		want  map[string]any
	}{
		{"ident", ir.Ident("x"), int64(1), map[string]any{"x": int64(1)}},
		{"wildcard", ir.Ident("_"), int64(1), map[string]any{}},
		{
			"tuple",
			ir.Tuple(ir.Ident("k"), ir.Ident("v")),
			[]any{"a", int64(1)},
			map[string]any{"k": "a", "v": int64(1)},
		},
		{
			"nested",
			ir.Tuple(ir.Ident("i"), ir.Tuple(ir.Ident("a"), ir.Ident("_"))),
			[]any{int64(0), []any{"x", "y"}},
			map[string]any{"i": int64(0), "a": "x"},
		},
		{
			"record",
			ir.Record(
				ir.FieldPattern{Field: "name", Pattern: ir.Ident("name")},
				ir.FieldPattern{Field: "age", Pattern: ir.Ident("a")},
			),
			map[string]any{"name": "ann", "age": int64(30), "extra": true},
			map[string]any{"name": "ann", "a": int64(30)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := bind(NewScope(nil), tt.pat, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Vars())
		})
	}
}

func TestBindMismatch(t *testing.T) {
	tests := []struct {
		name  string
		pat   ir.Pattern
		value any
		msg   string
	}{
		{"tuple on scalar", ir.Tuple(ir.Ident("a")), int64(1), "expects a list"},
		{"tuple length", ir.Tuple(ir.Ident("a"), ir.Ident("b")), []any{int64(1)}, "expects 2 elements, got 1"},
		{"record on list", ir.Record(ir.FieldPattern{Field: "a", Pattern: ir.Ident("a")}), []any{}, "expects a record"},
		{"missing field", ir.Record(ir.FieldPattern{Field: "a", Pattern: ir.Ident("a")}), map[string]any{}, `no field "a"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := bind(NewScope(nil), tt.pat, tt.value)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
