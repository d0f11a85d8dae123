package compiler

import (
	"fmt"

	"github.com/roach88/comprehend/internal/ir"
)

// SyntaxChecker validates the syntax of one opaque expression. The
// expression language belongs to the evaluator; the parser only knows
// where expressions start and end.
type SyntaxChecker interface {
	Check(expr string) error
}

// Check runs checker over every expression of c, outer source first, and
// reports the first failure as a malformed comprehension positioned at the
// expression.
func Check(c *ir.Comprehension, checker SyntaxChecker) error {
	for i, clause := range c.Chain.Clauses {
		if err := checkExpr(checker, fmt.Sprintf("clause[%d].source", i), clause.Source); err != nil {
			return err
		}
	}
	if c.Chain.Guard != nil {
		if err := checkExpr(checker, "guard", *c.Chain.Guard); err != nil {
			return err
		}
	}
	for i, m := range c.Chain.Mapper.Exprs {
		field := "mapper"
		if c.Chain.Mapper.Arity() == 2 {
			field = [...]string{"mapper.key", "mapper.value"}[i]
		}
		if err := checkExpr(checker, field, m); err != nil {
			return err
		}
	}
	return nil
}

func checkExpr(checker SyntaxChecker, field string, e ir.Expr) error {
	if err := checker.Check(e.Text); err != nil {
		return malformed(field, e.Pos, "invalid expression %q: %v", e.Text, err)
	}
	return nil
}

// Compile parses src and, when checker is non-nil, checks every expression.
func Compile(src string, checker SyntaxChecker) (*ir.Comprehension, error) {
	c, err := Parse(src)
	if err != nil {
		return nil, err
	}
	if checker != nil {
		if err := Check(c, checker); err != nil {
			return nil, err
		}
	}
	return c, nil
}
