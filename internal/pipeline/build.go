package pipeline

import (
	"errors"
	"fmt"

	"github.com/roach88/comprehend/internal/ir"
)

// ErrEmptyChain is returned when a comprehension has no generator clauses.
// The parser never produces one.
var ErrEmptyChain = errors.New("pipeline: comprehension has no generator clauses")

// Build expands c into a plan. The comprehension is not modified.
func Build(c *ir.Comprehension) (*Plan, error) {
	if c == nil {
		return nil, fmt.Errorf("pipeline: nil comprehension")
	}
	chain := c.Chain
	if chain.Depth() == 0 {
		return nil, ErrEmptyChain
	}

	id, err := ir.ComprehensionID(c)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	return &Plan{
		ID:        id,
		Container: c.Container,
		Root:      buildChain(chain.Clauses, chain.Guard, chain.Mapper),
		Depth:     chain.Depth(),
	}, nil
}

// buildChain is the recursive expansion: one clause left is the fused
// filter/map base case, otherwise flat-map the head over the rest.
func buildChain(clauses []ir.GeneratorClause, guard *ir.Expr, mapper ir.Mapper) Stage {
	if len(clauses) == 1 {
		return &FilterMap{Gen: clauses[0], Guard: guard, Mapper: mapper}
	}
	return &FlatMap{
		Gen:   clauses[0],
		Inner: buildChain(clauses[1:], guard, mapper),
	}
}
