package pipeline

import (
	"fmt"
	"strings"
)

// Explain renders the plan as an indented tree, one stage per line, with
// the guard and mapper under the innermost stage. The output is stable and
// used in golden tests.
func Explain(p *Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (depth %d)\n", p.Container, p.Depth)
	explainStage(&b, p.Root, 1)
	return b.String()
}

func explainStage(b *strings.Builder, s Stage, level int) {
	indent := strings.Repeat("  ", level)
	switch st := s.(type) {
	case *FlatMap:
		fmt.Fprintf(b, "%sflat_map %s in %s\n", indent, st.Gen.Binding, st.Gen.Source.Text)
		explainStage(b, st.Inner, level+1)
	case *FilterMap:
		fmt.Fprintf(b, "%sfilter_map %s in %s\n", indent, st.Gen.Binding, st.Gen.Source.Text)
		if st.Guard != nil {
			fmt.Fprintf(b, "%s  guard %s\n", indent, st.Guard.Text)
		}
		if st.Mapper.Arity() == 2 {
			fmt.Fprintf(b, "%s  key %s\n", indent, st.Mapper.Key().Text)
			fmt.Fprintf(b, "%s  value %s\n", indent, st.Mapper.Value().Text)
		} else if st.Mapper.Arity() == 1 {
			fmt.Fprintf(b, "%s  map %s\n", indent, st.Mapper.Value().Text)
		}
	default:
		fmt.Fprintf(b, "%s<invalid stage %T>\n", indent, s)
	}
}
