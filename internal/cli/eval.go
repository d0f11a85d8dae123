package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/comprehend/internal/dataset"
	"github.com/roach88/comprehend/internal/engine"
	"github.com/roach88/comprehend/internal/expr"
	"github.com/roach88/comprehend/internal/ir"
	"github.com/roach88/comprehend/internal/store"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Data  string // dataset file
	Limit int    // maximum values pulled, 0 = all
	Trace bool   // include the evaluation trace
	Store string // run log database
}

// EvalResult is the payload of eval.
type EvalResult struct {
	RunID     string              `json:"run_id"`
	ID        string              `json:"id"`
	Container string              `json:"container"`
	Count     int                 `json:"count"`
	Result    any                 `json:"result"`
	Trace     []engine.TraceEvent `json:"trace,omitempty"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <comprehension>",
		Short: "Evaluate a comprehension",
		Long: `Evaluate a comprehension and print the materialized result.

Expressions are CUE. CUE has no % operator: write mod(x, 2) == 0, not
x % 2 == 0 (div, quo and rem are builtins too).

Globals and named sources come from a dataset file (--data): values become
variables, sources are ranges, literal lists or SQLite queries pulled one
row at a time. A lazy comprehension over an
infinite source needs --limit.

Exit codes:
  0 - Evaluated
  1 - Evaluation failed (runtime error)
  2 - Command error (malformed comprehension, bad dataset, etc.)

Examples:
  comprehend eval 'sequence; for x in [1, 2, 3, 4] => x * 2, if mod(x, 2) == 0'
  comprehend eval 'mapping; for {customer, total} in orders => customer, total' --data shop.yaml
  comprehend eval 'for n in naturals => n * n' --data numbers.yaml --limit 5 --trace`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.applyConfig(cmd)
			return runEval(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Data, "data", "d", "", "dataset file (YAML or JSON)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "stop after n values (0 = no limit)")
	cmd.Flags().BoolVar(&opts.Trace, "trace", false, "print the evaluation trace")
	cmd.Flags().StringVar(&opts.Store, "store", "", "append the run to this SQLite run log")

	return cmd
}

func (o *EvalOptions) applyConfig(cmd *cobra.Command) {
	flags := cmd.Flags()
	if !flags.Changed("data") {
		o.Data = o.Config.Data
	}
	if !flags.Changed("limit") {
		o.Limit = o.Config.Limit
	}
	if !flags.Changed("store") {
		o.Store = o.Config.Store
	}
}

func runEval(ctx context.Context, opts *EvalOptions, src string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Limit < 0 {
		_ = formatter.Error(ErrCodeInvalid, "--limit must be non-negative", nil)
		return NewExitError(ExitCommandError, "--limit must be non-negative")
	}

	spec := &dataset.Spec{}
	if opts.Data != "" {
		loaded, err := dataset.Load(opts.Data)
		if err != nil {
			_ = formatter.Error(ErrCodeDataset, err.Error(), nil)
			return WrapExitError(ExitCommandError, "loading dataset", err)
		}
		spec = loaded
		formatter.VerboseLog("loaded dataset %s: %d value(s), %d source(s)", opts.Data, len(spec.Values), len(spec.Sources))
	}

	ev := expr.New()
	bound, err := dataset.Bind(ctx, spec, ev)
	if err != nil {
		_ = formatter.Error(ErrCodeDataset, err.Error(), nil)
		return WrapExitError(ExitCommandError, "binding dataset", err)
	}
	defer bound.Close()

	runID := engine.UUIDv7Generator{}.Generate()
	programOpts := []engine.Option{
		engine.WithGlobals(bound.Globals),
		engine.WithLimit(opts.Limit),
		engine.WithIDGenerator(engine.NewFixedGenerator(runID)),
	}
	rec := &engine.Recorder{}
	if opts.Trace {
		programOpts = append(programOpts, engine.WithTracer(rec))
	}

	p, err := engine.PrepareText(src, ev, programOpts...)
	if err != nil {
		return formatter.comprehensionError(err)
	}

	value, count, runErr := evaluate(ctx, p)

	if opts.Store != "" {
		if err := recordRun(ctx, opts.Store, p, runID, value, count, runErr); err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "recording run", err)
		}
		formatter.VerboseLog("run %s recorded in %s", runID, opts.Store)
	}

	if runErr != nil {
		return formatter.comprehensionError(runErr)
	}

	result := EvalResult{
		RunID:     runID,
		ID:        p.Plan().ID,
		Container: p.Plan().Container.String(),
		Count:     count,
		Result:    value,
	}
	if opts.Trace {
		result.Trace = rec.Events()
	}

	if formatter.Format == "json" {
		return formatter.SuccessWithTrace(result, runID)
	}

	formatter.VerboseLog("run %s: %s, %d value(s)", runID, result.Container, count)
	fmt.Fprintln(formatter.Writer, canonical(value))
	if opts.Trace {
		w := formatter.Writer
		fmt.Fprintln(w, "trace:")
		for _, e := range result.Trace {
			fmt.Fprintf(w, "  [%d] %-5s depth=%d", e.Seq, e.Kind, e.Depth)
			if e.Expr != "" {
				fmt.Fprintf(w, " %s", e.Expr)
			}
			fmt.Fprintf(w, " => %s\n", canonical(traceValue(e.Value)))
		}
	}
	return nil
}

// evaluate runs p and returns its plain value and element count.
func evaluate(ctx context.Context, p *engine.Program) (any, int, error) {
	res, err := p.Run(ctx)
	if err != nil {
		return nil, 0, err
	}
	value, err := res.Collect(0)
	if err != nil {
		return nil, 0, err
	}
	count := res.Len()
	if items, ok := value.([]any); ok && p.Plan().Container == ir.Lazy {
		count = len(items)
	}
	return value, count, nil
}

func traceValue(v any) any {
	if e, ok := v.(engine.Entry); ok {
		return []any{e.Key, e.Value}
	}
	return v
}

func recordRun(ctx context.Context, path string, p *engine.Program, runID string, value any, count int, runErr error) error {
	st, err := store.OpenRunLog(path)
	if err != nil {
		return err
	}
	defer st.Close()

	rec := store.RunRecord{
		ID:              runID,
		ComprehensionID: p.Plan().ID,
		Source:          p.Comprehension().String(),
		Container:       p.Plan().Container.String(),
		ItemCount:       int64(count),
		EngineVersion:   ir.EngineVersion,
		IRVersion:       ir.IRVersion,
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	} else {
		rec.Result = canonical(value)
	}
	return st.RecordRun(ctx, rec)
}
