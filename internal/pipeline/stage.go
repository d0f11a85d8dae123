package pipeline

import (
	"encoding/json"

	"github.com/roach88/comprehend/internal/ir"
)

// Stage is one level of the expansion. Sealed to this package.
type Stage interface {
	stageNode()
	// Clause returns the generator clause the stage iterates.
	Clause() ir.GeneratorClause
}

// FlatMap iterates its clause and, for every binding, runs Inner and
// concatenates the results in order.
type FlatMap struct {
	Gen   ir.GeneratorClause `json:"clause"`
	Inner Stage              `json:"inner"`
}

// FilterMap iterates the innermost clause. For every binding it evaluates
// Guard (when present) and yields Mapper only when the guard holds.
type FilterMap struct {
	Gen    ir.GeneratorClause `json:"clause"`
	Guard  *ir.Expr           `json:"guard,omitempty"`
	Mapper ir.Mapper          `json:"mapper"`
}

func (*FlatMap) stageNode()   {}
func (*FilterMap) stageNode() {}

func (s *FlatMap) Clause() ir.GeneratorClause   { return s.Gen }
func (s *FilterMap) Clause() ir.GeneratorClause { return s.Gen }

// Plan is a built comprehension ready for lowering.
type Plan struct {
	ID        string           `json:"id"`
	Container ir.ContainerKind `json:"container"`
	Root      Stage            `json:"root"`
	Depth     int              `json:"depth"`
}

// Terminal follows Inner links down to the FilterMap.
func (p *Plan) Terminal() *FilterMap {
	s := p.Root
	for {
		switch st := s.(type) {
		case *FlatMap:
			s = st.Inner
		case *FilterMap:
			return st
		default:
			return nil
		}
	}
}

// MarshalJSON tags the stage with its kind so plans can be printed and
// compared without Go type information.
func (s *FlatMap) MarshalJSON() ([]byte, error) {
	type alias FlatMap
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{"flat_map", (*alias)(s)})
}

// MarshalJSON tags the stage with its kind.
func (s *FilterMap) MarshalJSON() ([]byte, error) {
	type alias FilterMap
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{"filter_map", (*alias)(s)})
}
