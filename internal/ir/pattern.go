package ir

import (
	"strings"
)

// PatternKind discriminates binding patterns.
type PatternKind string

const (
	// PatternIdent binds the whole element to Name.
	PatternIdent PatternKind = "ident"
	// PatternWildcard matches anything and binds nothing (`_`).
	PatternWildcard PatternKind = "wildcard"
	// PatternTuple destructures a sequence of exactly len(Elems) elements.
	PatternTuple PatternKind = "tuple"
	// PatternRecord destructures named fields of a record.
	PatternRecord PatternKind = "record"
)

// Pattern is the binding of a generator clause. Expansion treats it as an
// opaque unit; only the binder destructures values with it.
type Pattern struct {
	Kind   PatternKind    `json:"kind"`
	Name   string         `json:"name,omitempty"`   // ident
	Elems  []Pattern      `json:"elems,omitempty"`  // tuple
	Fields []FieldPattern `json:"fields,omitempty"` // record
	Pos    Pos            `json:"pos"`
}

// FieldPattern binds one record field. `{name}` is shorthand for
// `{name: name}`.
type FieldPattern struct {
	Field   string  `json:"field"`
	Pattern Pattern `json:"pattern"`
}

// Ident returns an identifier pattern.
func Ident(name string) Pattern {
	if name == "_" {
		return Pattern{Kind: PatternWildcard}
	}
	return Pattern{Kind: PatternIdent, Name: name}
}

// Tuple returns a tuple pattern over elems.
func Tuple(elems ...Pattern) Pattern {
	return Pattern{Kind: PatternTuple, Elems: elems}
}

// Record returns a record pattern over fields.
func Record(fields ...FieldPattern) Pattern {
	return Pattern{Kind: PatternRecord, Fields: fields}
}

// Names returns the identifiers the pattern binds, left to right.
func (p Pattern) Names() []string {
	var names []string
	p.collect(&names)
	return names
}

func (p Pattern) collect(names *[]string) {
	switch p.Kind {
	case PatternIdent:
		*names = append(*names, p.Name)
	case PatternTuple:
		for _, e := range p.Elems {
			e.collect(names)
		}
	case PatternRecord:
		for _, f := range p.Fields {
			f.Pattern.collect(names)
		}
	}
}

// String renders the pattern in surface syntax.
func (p Pattern) String() string {
	switch p.Kind {
	case PatternIdent:
		return p.Name
	case PatternWildcard:
		return "_"
	case PatternTuple:
		parts := make([]string, len(p.Elems))
		for i, e := range p.Elems {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case PatternRecord:
		parts := make([]string, len(p.Fields))
		for i, f := range p.Fields {
			if f.Pattern.Kind == PatternIdent && f.Pattern.Name == f.Field {
				parts[i] = f.Field
			} else {
				parts[i] = f.Field + ": " + f.Pattern.String()
			}
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "<invalid pattern>"
	}
}
