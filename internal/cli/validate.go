package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/roach88/comprehend/internal/compiler"
	"github.com/roach88/comprehend/internal/expr"
	"github.com/roach88/comprehend/internal/ir"
)

// ValidationResult holds validation results for one file.
type ValidationResult struct {
	Valid          bool                `json:"valid"`
	Comprehensions []ValidatedEntry    `json:"comprehensions"`
	Errors         []ValidationProblem `json:"errors,omitempty"`
}

// ValidatedEntry is one comprehension that parsed and checked cleanly.
type ValidatedEntry struct {
	Line      int    `json:"line"`
	ID        string `json:"id"`
	Canonical string `json:"canonical"`
}

// ValidationProblem is one invalid comprehension.
type ValidationProblem struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Message string `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check every comprehension in a file",
		Long: `Parse and syntax-check a file holding one comprehension per line.
Blank lines and lines starting with # are skipped. Every problem is
reported, not just the first.

Exit codes:
  0 - All comprehensions are valid
  1 - One or more comprehensions are invalid
  2 - Command error (file not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		code := ErrCodeGeneric
		if errors.Is(err, os.ErrNotExist) {
			code = ErrCodeNotFound
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitCommandError, "reading file", err)
	}

	entries, parseErr := compiler.ParseAll(string(data), expr.New())

	result := ValidationResult{Valid: parseErr == nil, Comprehensions: []ValidatedEntry{}}
	for _, e := range entries {
		result.Comprehensions = append(result.Comprehensions, ValidatedEntry{
			Line:      e.Line,
			ID:        ir.MustComprehensionID(e.Comprehension),
			Canonical: e.Comprehension.String(),
		})
	}
	result.Errors = problems(parseErr)
	formatter.VerboseLog("%s: %d valid, %d invalid", path, len(result.Comprehensions), len(result.Errors))

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputValidateText(formatter, path, result)
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}
	return nil
}

func problems(err error) []ValidationProblem {
	if err == nil {
		return nil
	}
	errs := []error{err}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		errs = merr.Errors
	}

	out := make([]ValidationProblem, 0, len(errs))
	for _, e := range errs {
		var cerr *compiler.CompileError
		if !errors.As(e, &cerr) {
			out = append(out, ValidationProblem{Code: ErrCodeGeneric, Message: e.Error()})
			continue
		}
		out = append(out, ValidationProblem{
			Code:    cerr.Code,
			Field:   cerr.Field,
			Line:    cerr.Pos.Line,
			Column:  cerr.Pos.Column,
			Message: cerr.Message,
		})
	}
	return out
}

func outputValidateText(formatter *OutputFormatter, path string, result ValidationResult) {
	w := formatter.Writer
	if result.Valid {
		fmt.Fprintf(w, "✓ %s: %d comprehension(s) valid\n", path, len(result.Comprehensions))
		return
	}

	fmt.Fprintf(w, "✗ %s: %d error(s)\n\n", path, len(result.Errors))
	for _, p := range result.Errors {
		if p.Line > 0 {
			fmt.Fprintf(w, "%s:%d:%d\n", path, p.Line, p.Column)
		}
		fmt.Fprintf(w, "  %s: %s\n\n", p.Code, p.Message)
	}
}
