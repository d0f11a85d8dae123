// Package expr evaluates comprehension expressions written in CUE.
//
// Sources, guards and mappers are CUE expressions evaluated against a scope
// holding every name bound so far. Builtin packages are available without
// imports, so `strings.ToUpper(name)` and `list.Range(0, 10, 1)` work
// directly, as do the predeclared `len`, `mod`, `div` and friends. CUE has
// no `%` operator; use `mod(x, 2)`.
//
// Besides CUE values, a source may name a registered Source: a Go-side lazy
// sequence such as a number range or a SQLite query. Registered sources are
// only consulted for a bare identifier that no binding shadows.
//
// Values cross into Go as nil, bool, int64, float64, string, []any and
// map[string]any.
package expr
