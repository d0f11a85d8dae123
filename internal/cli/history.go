package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/comprehend/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Store string
	ID    string // comprehension id filter
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List runs recorded by eval --store",
		Long: `List comprehension runs from a SQLite run log, oldest first.

Examples:
  comprehend history --store runs.db
  comprehend history --store runs.db --id <comprehension-id> --limit 10`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("store") {
				opts.Store = opts.Config.Store
			}
			return runHistory(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Store, "store", "", "run log database")
	cmd.Flags().StringVar(&opts.ID, "id", "", "only runs of this comprehension id")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "show at most n runs (0 = all)")

	return cmd
}

func runHistory(ctx context.Context, opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Store == "" {
		msg := "no run log: pass --store or set store in comprehend.yaml"
		_ = formatter.Error(ErrCodeStore, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}
	if _, err := os.Stat(opts.Store); errors.Is(err, fs.ErrNotExist) {
		msg := fmt.Sprintf("run log not found: %s", opts.Store)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	st, err := store.OpenRunLog(opts.Store)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "opening run log", err)
	}
	defer st.Close()

	runs, err := st.Runs(ctx, opts.ID, opts.Limit)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "reading run log", err)
	}

	if formatter.Format == "json" {
		if runs == nil {
			runs = []store.RunRecord{}
		}
		return formatter.Success(runs)
	}

	w := formatter.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		status := "✓"
		if r.Error != "" {
			status = "✗"
		}
		fmt.Fprintf(w, "%s #%d %s  %s  %d value(s)\n", status, r.Seq, r.ID, r.Container, r.ItemCount)
		fmt.Fprintf(w, "    %s\n", r.Source)
		if r.Error != "" {
			fmt.Fprintf(w, "    error: %s\n", r.Error)
		} else {
			fmt.Fprintf(w, "    result: %s\n", r.Result)
		}
	}
	return nil
}
