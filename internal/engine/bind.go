package engine

import (
	"fmt"

	"github.com/roach88/comprehend/internal/ir"
)

// bind destructures value with pattern p on top of s. A value that does
// not fit the pattern is an error, never a silent skip.
func bind(s *Scope, p ir.Pattern, value any) (*Scope, error) {
	switch p.Kind {
	case ir.PatternIdent:
		return s.Bind(p.Name, value), nil
	case ir.PatternWildcard:
		return s, nil
	case ir.PatternTuple:
		elems, ok := value.([]any)
		if !ok {
			return nil, fmt.Errorf("pattern %s expects a list of %d elements, got %s", p, len(p.Elems), describe(value))
		}
		if len(elems) != len(p.Elems) {
			return nil, fmt.Errorf("pattern %s expects %d elements, got %d", p, len(p.Elems), len(elems))
		}
		for i, sub := range p.Elems {
			var err error
			if s, err = bind(s, sub, elems[i]); err != nil {
				return nil, err
			}
		}
		return s, nil
	case ir.PatternRecord:
		rec, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("pattern %s expects a record, got %s", p, describe(value))
		}
		for _, f := range p.Fields {
			fv, ok := rec[f.Field]
			if !ok {
				return nil, fmt.Errorf("pattern %s: record has no field %q", p, f.Field)
			}
			var err error
			if s, err = bind(s, f.Pattern, fv); err != nil {
				return nil, err
			}
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown pattern kind %q", p.Kind)
	}
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "list"
	case map[string]any:
		return "record"
	case string:
		return "string"
	case bool:
		return "bool"
	case int64, int, float64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
