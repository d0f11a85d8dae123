package expr

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/ast"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/parser"

	"github.com/roach88/comprehend/internal/engine"
)

// Source produces a lazy sequence of elements. It is called once per
// evaluation of the clause that names it.
type Source func(ctx context.Context) iter.Seq2[any, error]

// Evaluator implements engine.Evaluator on CUE.
//
// An Evaluator holds a cue.Context and is not safe for concurrent use.
type Evaluator struct {
	cue     *cue.Context
	sources map[string]Source
}

var _ engine.Evaluator = (*Evaluator)(nil)

// New returns an evaluator with no registered sources.
func New() *Evaluator {
	return &Evaluator{
		cue:     cuecontext.New(),
		sources: make(map[string]Source),
	}
}

// Register makes src available as a bare identifier in source position.
func (e *Evaluator) Register(name string, src Source) {
	e.sources[name] = src
}

// Sources returns the registered source names.
func (e *Evaluator) Sources() []string {
	names := make([]string, 0, len(e.sources))
	for name := range e.sources {
		names = append(names, name)
	}
	return names
}

// Check parses expr as a CUE expression.
func (e *Evaluator) Check(expr string) error {
	if strings.TrimSpace(expr) == "" {
		return fmt.Errorf("empty expression")
	}
	if _, err := parser.ParseExpr("expr", expr); err != nil {
		return fmt.Errorf("%s", errors.Details(err, nil))
	}
	return nil
}

// Eval evaluates expr with vars in scope and returns a concrete Go value.
func (e *Evaluator) Eval(_ context.Context, expr string, vars map[string]any) (any, error) {
	v, err := e.compile(expr, vars)
	if err != nil {
		return nil, err
	}
	return toGo(v)
}

// Iterate evaluates a source expression. Lists yield their elements and
// structs yield [label, value] pairs, both decoded one element at a time.
func (e *Evaluator) Iterate(ctx context.Context, expr string, vars map[string]any) (iter.Seq2[any, error], error) {
	if name, ok := bareIdent(expr); ok {
		if _, shadowed := vars[name]; !shadowed {
			if src, ok := e.sources[name]; ok {
				slog.Debug("iterating registered source", "source", name)
				return src(ctx), nil
			}
		}
	}

	v, err := e.compile(expr, vars)
	if err != nil {
		return nil, err
	}

	switch v.Kind() {
	case cue.ListKind:
		return listSeq(v), nil
	case cue.StructKind:
		return structSeq(v), nil
	default:
		return nil, fmt.Errorf("%s value: %w", v.Kind(), engine.ErrNotIterable)
	}
}

func (e *Evaluator) compile(expr string, vars map[string]any) (cue.Value, error) {
	if vars == nil {
		vars = map[string]any{}
	}
	scope := e.cue.Encode(vars)
	if err := scope.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("encoding scope: %w", err)
	}

	v := e.cue.CompileString(expr, cue.Scope(scope), cue.InferBuiltins(true))
	if err := v.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return v, nil
}

// bareIdent reports whether expr is a single identifier.
func bareIdent(expr string) (string, bool) {
	x, err := parser.ParseExpr("expr", expr)
	if err != nil {
		return "", false
	}
	id, ok := x.(*ast.Ident)
	if !ok {
		return "", false
	}
	return id.Name, true
}

// formatCUEError flattens a CUE error list into one message.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}
