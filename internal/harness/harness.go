package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/comprehend/internal/compiler"
	"github.com/roach88/comprehend/internal/dataset"
	"github.com/roach88/comprehend/internal/engine"
	"github.com/roach88/comprehend/internal/expr"
	"github.com/roach88/comprehend/internal/ir"
)

// Result is the outcome of one scenario.
type Result struct {
	// Pass is true when the outcome matched expect and every assertion
	// held.
	Pass bool `json:"pass"`

	RunID string `json:"run_id,omitempty"`

	// Value is the materialized result; nil when the run failed.
	Value any `json:"value,omitempty"`

	// ErrorCode and Error describe a failed run.
	ErrorCode string `json:"error_code,omitempty"`
	Error     string `json:"error,omitempty"`

	// Trace holds every evaluation step in order.
	Trace []engine.TraceEvent `json:"trace"`

	// Errors lists expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []engine.TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Harness runs scenarios.
type Harness struct {
	logger *slog.Logger
	golden bool
	update bool
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a default Harness.
func Run(s *Scenario) (*Result, error) {
	return New().Run(context.Background(), s)
}

// Run executes one scenario against a fresh evaluator. The returned error
// reports a harness problem, such as data that cannot be bound; failures
// of the comprehension itself are recorded in the Result.
func (h *Harness) Run(ctx context.Context, s *Scenario) (*Result, error) {
	data := s.Data
	if data == nil {
		data = &dataset.Spec{}
	}
	ev := expr.New()
	bound, err := dataset.Bind(ctx, data, ev)
	if err != nil {
		return nil, fmt.Errorf("failed to bind data: %w", err)
	}
	defer bound.Close()

	rec := &engine.Recorder{}
	result := NewResult()
	result.RunID = RunID(s.Name)

	value, err := execute(ctx, s, ev, bound.Globals, rec, result.RunID)
	result.Trace = rec.Events()
	if err != nil {
		result.ErrorCode = ErrorCode(err)
		result.Error = err.Error()
	} else {
		result.Value = value
	}

	checkExpect(s, result)
	for _, aerr := range EvaluateAssertions(result.Trace, s.Assertions) {
		result.AddError(aerr.Error())
	}
	if h.golden && s.Path != "" {
		if err := h.checkGolden(s, result); err != nil {
			return nil, err
		}
	}

	h.logger.Debug("scenario finished",
		"name", s.Name,
		"pass", result.Pass,
		"events", len(result.Trace),
		"error_code", result.ErrorCode,
	)
	return result, nil
}

// RunID is the deterministic run id a scenario runs under.
func RunID(name string) string {
	return "scenario-" + name
}

func execute(ctx context.Context, s *Scenario, ev *expr.Evaluator, globals map[string]any, rec *engine.Recorder, runID string) (any, error) {
	p, err := engine.PrepareText(s.Comprehension, ev,
		engine.WithGlobals(globals),
		engine.WithTracer(rec),
		engine.WithLimit(s.Limit),
		engine.WithIDGenerator(engine.NewFixedGenerator(runID)),
	)
	if err != nil {
		return nil, err
	}
	res, err := p.Run(ctx)
	if err != nil {
		return nil, err
	}
	return res.Collect(0)
}

// ErrorCode extracts the code of a compile or runtime error, or "" for
// anything else.
func ErrorCode(err error) string {
	var cerr *compiler.CompileError
	if errors.As(err, &cerr) {
		return cerr.Code
	}
	var rerr *engine.RuntimeError
	if errors.As(err, &rerr) {
		return string(rerr.Code)
	}
	return ""
}

func checkExpect(s *Scenario, r *Result) {
	want := s.Expect
	if want.Error != "" {
		switch {
		case r.Error == "":
			r.AddError(fmt.Sprintf("expected error %s, got a result", want.Error))
		case r.ErrorCode != want.Error:
			r.AddError(fmt.Sprintf("expected error %s, got %s: %s", want.Error, codeOrUnknown(r.ErrorCode), r.Error))
		}
		return
	}
	if r.Error != "" {
		r.AddError(fmt.Sprintf("unexpected error %s: %s", codeOrUnknown(r.ErrorCode), r.Error))
		return
	}
	if want.Result == nil {
		return
	}
	if msg := compareValues(want.Result, r.Value, want.Unordered); msg != "" {
		r.AddError(msg)
	}
}

func codeOrUnknown(code string) string {
	if code == "" {
		return "(uncoded)"
	}
	return code
}

// compareValues compares by canonical encoding. unordered compares two
// lists as multisets.
func compareValues(want, got any, unordered bool) string {
	if unordered {
		w, wok := want.([]any)
		g, gok := got.([]any)
		if wok && gok {
			want, got = sortedCanonical(w), sortedCanonical(g)
		}
	}
	wk, err := ir.CanonicalKey(want)
	if err != nil {
		return fmt.Sprintf("expected result cannot be encoded: %v", err)
	}
	gk, err := ir.CanonicalKey(got)
	if err != nil {
		return fmt.Sprintf("result cannot be encoded: %v", err)
	}
	if wk != gk {
		return fmt.Sprintf("result mismatch:\n  expected: %s\n  actual:   %s", wk, gk)
	}
	return ""
}

// sortedCanonical returns the elements' canonical encodings in order. An
// element without one is kept as its %v rendering so the comparison fails
// visibly instead of panicking.
func sortedCanonical(items []any) []any {
	keys := make([]string, len(items))
	for i, item := range items {
		k, err := ir.CanonicalKey(item)
		if err != nil {
			k = fmt.Sprintf("%v", item)
		}
		keys[i] = k
	}
	slices.Sort(keys)
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}

// Summary aggregates a batch of scenario runs.
type Summary struct {
	Total    int       `json:"total"`
	Passed   int       `json:"passed"`
	Failed   int       `json:"failed"`
	Failures []Failure `json:"failures,omitempty"`
}

// Failure describes one failed scenario.
type Failure struct {
	Name   string   `json:"name"`
	Path   string   `json:"path,omitempty"`
	Errors []string `json:"errors"`
}

// RunAll runs scenarios in order and summarizes them. visit, when not
// nil, sees each scenario's result as it finishes.
func (h *Harness) RunAll(ctx context.Context, scenarios []*Scenario, visit func(*Scenario, *Result, error)) Summary {
	sum := Summary{Total: len(scenarios)}
	for _, s := range scenarios {
		res, err := h.Run(ctx, s)
		if visit != nil {
			visit(s, res, err)
		}
		switch {
		case err != nil:
			sum.Failed++
			sum.Failures = append(sum.Failures, Failure{Name: s.Name, Path: s.Path, Errors: []string{err.Error()}})
		case !res.Pass:
			sum.Failed++
			sum.Failures = append(sum.Failures, Failure{Name: s.Name, Path: s.Path, Errors: res.Errors})
		default:
			sum.Passed++
		}
	}
	return sum
}
