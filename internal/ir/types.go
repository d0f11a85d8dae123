package ir

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ContainerKind selects what happens to the composed lazy sequence.
type ContainerKind int

const (
	// Lazy leaves the result as a lazy sequence (default when no annotation).
	Lazy ContainerKind = iota
	// Sequence drains into an insertion-ordered container; duplicates kept.
	Sequence
	// Set drains into a container with unique elements.
	Set
	// Mapping drains key/value pairs into an associative container.
	// Requires the two-expression mapper form.
	Mapping
)

// containerNames maps accepted annotations to kinds. The first name listed
// for a kind in containerCanonical is the one String returns.
var containerNames = map[string]ContainerKind{
	"lazy":     Lazy,
	"iter":     Lazy,
	"sequence": Sequence,
	"slice":    Sequence,
	"vec":      Sequence,
	"list":     Sequence,
	"set":      Set,
	"mapping":  Mapping,
	"map":      Mapping,
	"dict":     Mapping,
}

var containerCanonical = [...]string{
	Lazy:     "lazy",
	Sequence: "sequence",
	Set:      "set",
	Mapping:  "mapping",
}

// ParseContainerKind resolves a container annotation (case-insensitive).
func ParseContainerKind(name string) (ContainerKind, bool) {
	kind, ok := containerNames[strings.ToLower(name)]
	return kind, ok
}

// String returns the canonical annotation for the kind.
func (k ContainerKind) String() string {
	if k < 0 || int(k) >= len(containerCanonical) {
		return fmt.Sprintf("ContainerKind(%d)", int(k))
	}
	return containerCanonical[k]
}

// Eager reports whether the kind requests materialization.
func (k ContainerKind) Eager() bool {
	return k != Lazy
}

// MapperArity is the number of mapper expressions the kind requires.
func (k ContainerKind) MapperArity() int {
	if k == Mapping {
		return 2
	}
	return 1
}

// MarshalJSON encodes the kind by its canonical name.
func (k ContainerKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes any accepted annotation.
func (k *ContainerKind) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	kind, ok := ParseContainerKind(name)
	if !ok {
		return fmt.Errorf("unknown container kind %q", name)
	}
	*k = kind
	return nil
}

// Pos is a position in the comprehension text. Line and Column are 1-based;
// the zero Pos is invalid.
type Pos struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

// IsValid reports whether the position was set.
func (p Pos) IsValid() bool {
	return p.Line > 0
}

func (p Pos) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Expr is an opaque expression: the verbatim source text plus where it
// started. The engine never interprets Text; an evaluator does.
type Expr struct {
	Text string `json:"text"`
	Pos  Pos    `json:"pos"`
}

func (e Expr) String() string {
	return e.Text
}

// GeneratorClause is one `for <binding> in <source>` step.
type GeneratorClause struct {
	Binding Pattern `json:"binding"`
	Source  Expr    `json:"source"`
}

// Mapper holds the transform. One expression for lazy/sequence/set
// output, exactly two (key, value) for mapping output.
type Mapper struct {
	Exprs []Expr `json:"exprs"`
}

// Arity returns the number of mapper expressions.
func (m Mapper) Arity() int {
	return len(m.Exprs)
}

// Key returns the key expression of a two-expression mapper.
func (m Mapper) Key() Expr {
	return m.Exprs[0]
}

// Value returns the value expression of a two-expression mapper, or the
// single expression otherwise.
func (m Mapper) Value() Expr {
	return m.Exprs[len(m.Exprs)-1]
}

// ClauseChain is the ordered clause list plus the terminal guard and mapper.
// Guard and mapper see the bindings of every clause, not just the innermost.
type ClauseChain struct {
	Clauses []GeneratorClause `json:"clauses"`
	Guard   *Expr             `json:"guard,omitempty"` // nil = no guard
	Mapper  Mapper            `json:"mapper"`
}

// Depth returns the number of generator clauses.
func (c ClauseChain) Depth() int {
	return len(c.Clauses)
}

// Innermost returns the last clause in the chain.
func (c ClauseChain) Innermost() GeneratorClause {
	return c.Clauses[len(c.Clauses)-1]
}

// Comprehension is the root artifact produced by parsing.
type Comprehension struct {
	Container ContainerKind `json:"container"`
	Chain     ClauseChain   `json:"chain"`
	Source    string        `json:"source,omitempty"` // original text, informational
}

// Expressions returns every opaque expression in evaluation-relevant order:
// sources outer to inner, then the guard, then the mapper expressions.
func (c *Comprehension) Expressions() []Expr {
	exprs := make([]Expr, 0, len(c.Chain.Clauses)+3)
	for _, clause := range c.Chain.Clauses {
		exprs = append(exprs, clause.Source)
	}
	if c.Chain.Guard != nil {
		exprs = append(exprs, *c.Chain.Guard)
	}
	exprs = append(exprs, c.Chain.Mapper.Exprs...)
	return exprs
}

// String renders the comprehension back in canonical surface syntax.
func (c *Comprehension) String() string {
	var b strings.Builder
	if c.Container != Lazy {
		b.WriteString(c.Container.String())
		b.WriteString("; ")
	}
	for i, clause := range c.Chain.Clauses {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "for %s in %s", clause.Binding, clause.Source.Text)
	}
	b.WriteString(" => ")
	for i, e := range c.Chain.Mapper.Exprs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.Text)
	}
	if c.Chain.Guard != nil {
		b.WriteString(", if ")
		b.WriteString(c.Chain.Guard.Text)
	}
	return b.String()
}
