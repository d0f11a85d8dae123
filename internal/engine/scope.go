package engine

import (
	"maps"
	"slices"
)

// Scope is an immutable chain of bindings. Binding a name returns a new
// scope; the parent is never modified, so sibling iterations of an outer
// clause cannot see each other's inner bindings.
type Scope struct {
	parent *Scope
	name   string
	value  any
	depth  int
}

// NewScope returns a root scope holding globals.
func NewScope(globals map[string]any) *Scope {
	var s *Scope
	for _, k := range sortedNames(globals) {
		s = s.Bind(k, globals[k])
	}
	if s == nil {
		s = &Scope{}
	}
	return s
}

// Bind returns a child scope with name bound to value.
func (s *Scope) Bind(name string, value any) *Scope {
	depth := 1
	if s != nil {
		depth = s.depth + 1
	}
	return &Scope{parent: s, name: name, value: value, depth: depth}
}

// Lookup returns the innermost value bound to name.
func (s *Scope) Lookup(name string) (any, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.depth > 0 && cur.name == name {
			return cur.value, true
		}
	}
	return nil, false
}

// Vars flattens the scope into a map. Inner bindings shadow outer ones.
func (s *Scope) Vars() map[string]any {
	vars := make(map[string]any)
	var chain []*Scope
	for cur := s; cur != nil; cur = cur.parent {
		if cur.depth > 0 {
			chain = append(chain, cur)
		}
	}
	for i := len(chain) - 1; i >= 0; i-- {
		vars[chain[i].name] = chain[i].value
	}
	return vars
}

func sortedNames(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}
