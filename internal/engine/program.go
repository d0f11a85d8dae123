package engine

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"github.com/roach88/comprehend/internal/compiler"
	"github.com/roach88/comprehend/internal/ir"
	"github.com/roach88/comprehend/internal/pipeline"
	"github.com/roach88/comprehend/pkg/comp"
)

// Program is a prepared comprehension bound to an evaluator.
type Program struct {
	comprehension *ir.Comprehension
	plan          *pipeline.Plan
	ev            Evaluator
	globals       map[string]any
	tracer        Tracer
	limit         int
	ids           IDGenerator
}

// Option configures a Program.
type Option func(*Program)

// WithGlobals makes names visible to every expression, beneath all clause
// bindings.
func WithGlobals(globals map[string]any) Option {
	return func(p *Program) { p.globals = globals }
}

// WithTracer receives every evaluation step.
func WithTracer(t Tracer) Option {
	return func(p *Program) { p.tracer = t }
}

// WithLimit stops pulling after n values leave the pipeline. Zero means no
// limit. Required to materialize a comprehension over an infinite source.
func WithLimit(n int) Option {
	return func(p *Program) { p.limit = n }
}

// WithIDGenerator sets the run id generator (default UUIDv7Generator).
func WithIDGenerator(g IDGenerator) Option {
	return func(p *Program) { p.ids = g }
}

// Prepare expands c into a runnable Program. Every expression is checked
// with ev before anything runs, so syntax errors surface as
// compiler.ErrMalformedComprehension here and never mid-iteration.
func Prepare(c *ir.Comprehension, ev Evaluator, opts ...Option) (*Program, error) {
	if ev == nil {
		return nil, fmt.Errorf("engine: nil evaluator")
	}
	if err := compiler.Check(c, ev); err != nil {
		return nil, err
	}

	plan, err := pipeline.Build(c)
	if err != nil {
		return nil, err
	}
	if res := pipeline.Validate(plan); !res.Valid {
		var merr *multierror.Error
		for _, problem := range res.Problems {
			merr = multierror.Append(merr, fmt.Errorf("%s", problem))
		}
		return nil, fmt.Errorf("engine: invalid plan: %w", merr)
	}

	p := &Program{
		comprehension: c,
		plan:          plan,
		ev:            ev,
		ids:           UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(p)
	}

	slog.Debug("comprehension prepared",
		"id", plan.ID,
		"container", plan.Container.String(),
		"depth", plan.Depth,
	)
	return p, nil
}

// PrepareText parses src and prepares it.
func PrepareText(src string, ev Evaluator, opts ...Option) (*Program, error) {
	c, err := compiler.Parse(src)
	if err != nil {
		return nil, err
	}
	return Prepare(c, ev, opts...)
}

// Plan returns the built plan.
func (p *Program) Plan() *pipeline.Plan {
	return p.plan
}

// Comprehension returns the parsed comprehension.
func (p *Program) Comprehension() *ir.Comprehension {
	return p.comprehension
}

// Seq returns the composed lazy sequence. Each range over it is an
// independent run with its own scope and trace clock. A Mapping program
// yields Entry values. The sequence ends after the first error.
func (p *Program) Seq(ctx context.Context) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		r := &run{p: p, ctx: ctx, clock: NewClock()}
		seq := r.stage(p.plan.Root, NewScope(p.globals), 1)
		if p.limit > 0 {
			seq = comp.TryLimit(seq, p.limit)
		}
		for v, err := range seq {
			if err == nil {
				r.trace(TraceYield, 0, "", v)
			}
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}
