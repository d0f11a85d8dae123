package pipeline

import (
	"fmt"

	"github.com/roach88/comprehend/internal/ir"
)

// ValidationResult lists structural problems found in a plan.
type ValidationResult struct {
	Valid    bool
	Problems []string
}

// Validate walks a plan and checks the shape Build guarantees: FlatMap
// stages all the way down to exactly one FilterMap, a mapper arity that
// fits the container, and a Depth that matches the number of stages.
// Validate is a pure function.
func Validate(p *Plan) ValidationResult {
	v := &validator{problems: []string{}}
	if p == nil {
		v.add("nil plan")
	} else {
		depth := v.validateStage(p.Root, 1, p.Container)
		if depth != p.Depth {
			v.add("plan depth %d does not match %d stages", p.Depth, depth)
		}
	}
	return ValidationResult{Valid: len(v.problems) == 0, Problems: v.problems}
}

type validator struct {
	problems []string
}

func (v *validator) add(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

// validateStage returns the number of stages from s down.
func (v *validator) validateStage(s Stage, level int, kind ir.ContainerKind) int {
	switch st := s.(type) {
	case nil:
		v.add("stage %d: missing stage", level)
		return level - 1
	case *FlatMap:
		if st == nil {
			v.add("stage %d: nil FlatMap", level)
			return level - 1
		}
		v.validateClause(st.Gen, level)
		if st.Inner == nil {
			v.add("stage %d: FlatMap without inner stage", level)
			return level
		}
		return v.validateStage(st.Inner, level+1, kind)
	case *FilterMap:
		if st == nil {
			v.add("stage %d: nil FilterMap", level)
			return level - 1
		}
		v.validateClause(st.Gen, level)
		if st.Guard != nil && st.Guard.Text == "" {
			v.add("stage %d: empty guard expression", level)
		}
		if st.Mapper.Arity() != kind.MapperArity() {
			v.add("stage %d: %s needs %d mapper expression(s), found %d",
				level, kind, kind.MapperArity(), st.Mapper.Arity())
		}
		for i, e := range st.Mapper.Exprs {
			if e.Text == "" {
				v.add("stage %d: empty mapper expression %d", level, i)
			}
		}
		return level
	default:
		v.add("stage %d: unknown stage type %T", level, s)
		return level
	}
}

func (v *validator) validateClause(c ir.GeneratorClause, level int) {
	if c.Source.Text == "" {
		v.add("stage %d: empty source expression", level)
	}
	if c.Binding.Kind == "" {
		v.add("stage %d: missing binding pattern", level)
	}
}
