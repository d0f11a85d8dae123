package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/comprehend/internal/compiler"
	"github.com/roach88/comprehend/internal/expr"
	"github.com/roach88/comprehend/internal/ir"
	"github.com/roach88/comprehend/internal/pipeline"
)

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
	NoCheck bool // skip expression syntax checks
}

// ParseResult is the JSON payload of parse.
type ParseResult struct {
	ID            string            `json:"id"`
	Canonical     string            `json:"canonical"`
	Comprehension *ir.Comprehension `json:"comprehension"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse <comprehension>",
		Short: "Parse a comprehension and print its structure",
		Long: `Parse a comprehension and print its clauses, guard, mapper and
content-addressed id. Every expression is syntax-checked as CUE unless
--no-check is given.

Examples:
  comprehend parse 'sequence; for x in xs => x * 2, if x > 1'
  comprehend parse 'mapping; for (k, v) in pairs => k, v' --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.NoCheck, "no-check", false, "do not syntax-check expressions")

	return cmd
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

func parseComprehension(src string, check bool) (*ir.Comprehension, error) {
	if !check {
		return compiler.Parse(src)
	}
	return compiler.Compile(src, expr.New())
}

func runParse(opts *ParseOptions, src string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	c, err := parseComprehension(src, !opts.NoCheck)
	if err != nil {
		return formatter.comprehensionError(err)
	}
	id := ir.MustComprehensionID(c)
	formatter.VerboseLog("parsed %d clause(s), id %s", c.Chain.Depth(), id)

	if formatter.Format == "json" {
		return formatter.Success(ParseResult{ID: id, Canonical: c.String(), Comprehension: c})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ %s\n\n", c.String())
	fmt.Fprintf(w, "id:        %s\n", id)
	fmt.Fprintf(w, "container: %s\n", c.Container)
	fmt.Fprintln(w, "clauses:")
	for i, clause := range c.Chain.Clauses {
		fmt.Fprintf(w, "  %d. %s in %s", i+1, clause.Binding, clause.Source.Text)
		if names := clause.Binding.Names(); len(names) > 0 {
			fmt.Fprintf(w, "   (binds %s)", strings.Join(names, ", "))
		}
		fmt.Fprintln(w)
	}
	if c.Chain.Guard != nil {
		fmt.Fprintf(w, "guard:     %s\n", c.Chain.Guard.Text)
	}
	if c.Chain.Mapper.Arity() == 2 {
		fmt.Fprintf(w, "key:       %s\n", c.Chain.Mapper.Key().Text)
		fmt.Fprintf(w, "value:     %s\n", c.Chain.Mapper.Value().Text)
	} else {
		fmt.Fprintf(w, "mapper:    %s\n", c.Chain.Mapper.Value().Text)
	}
	return nil
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain <comprehension>",
		Short: "Show the pipeline a comprehension expands into",
		Long: `Show the expansion of a comprehension: one flat_map per outer clause
and a fused filter_map for the innermost clause, with the guard evaluated
before the mapper.

Example:
  comprehend explain 'vec; for row in rows; for col in row => col, if col > 0'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runExplain(opts *RootOptions, src string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	c, err := parseComprehension(src, true)
	if err != nil {
		return formatter.comprehensionError(err)
	}
	plan, err := pipeline.Build(c)
	if err != nil {
		return formatter.comprehensionError(err)
	}

	if formatter.Format == "json" {
		return formatter.Success(plan)
	}
	fmt.Fprint(formatter.Writer, pipeline.Explain(plan))
	return nil
}
