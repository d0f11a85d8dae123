package dataset

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"path/filepath"

	"github.com/hashicorp/go-multierror"

	"github.com/roach88/comprehend/internal/expr"
	"github.com/roach88/comprehend/internal/store"
)

// Bound is a dataset attached to an evaluator. Close releases the
// databases its sqlite sources opened.
type Bound struct {
	Globals map[string]any
	stores  []*store.Store
}

// Close closes every opened database.
func (b *Bound) Close() error {
	var result *multierror.Error
	for _, st := range b.stores {
		if err := st.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	b.stores = nil
	return result.ErrorOrNil()
}

// Bind registers the dataset's sources with ev and returns its globals.
// sqlite databases are opened and their setup statements run here; the
// queries run only when a comprehension pulls from the source. Beyond its
// setup statements a source database is only read.
func Bind(ctx context.Context, s *Spec, ev *expr.Evaluator) (*Bound, error) {
	b := &Bound{Globals: make(map[string]any, len(s.Values))}
	for k, v := range s.Values {
		b.Globals[k] = v
	}

	for name, src := range s.Sources {
		switch {
		case src.Range != nil:
			ev.Register(name, rangeSource(src.Range))
		case src.Values != nil:
			ev.Register(name, expr.ValuesSource(src.Values))
		case src.SQLite != nil:
			source, st, err := s.sqliteSource(ctx, src.SQLite)
			if err != nil {
				b.Close()
				return nil, fmt.Errorf("source %s: %w", name, err)
			}
			b.stores = append(b.stores, st)
			ev.Register(name, source)
		}
		slog.Debug("source bound", "name", name, "kind", src.Kind())
	}
	return b, nil
}

func rangeSource(r *RangeSpec) expr.Source {
	step := r.Step
	if step == 0 {
		step = 1
	}
	if r.Stop == nil {
		return expr.CountSource(r.Start, step)
	}
	return expr.RangeSource(r.Start, *r.Stop, step)
}

func (s *Spec) sqliteSource(ctx context.Context, q *SQLiteSpec) (expr.Source, *store.Store, error) {
	path := q.Path
	if path != ":memory:" && !filepath.IsAbs(path) && s.BaseDir != "" {
		path = filepath.Join(s.BaseDir, path)
	}
	st, err := store.OpenSource(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	for _, stmt := range q.Setup {
		if err := st.Exec(ctx, stmt); err != nil {
			st.Close()
			return nil, nil, fmt.Errorf("setup: %w", err)
		}
	}
	return func(ctx context.Context) iter.Seq2[any, error] {
		return st.Values(ctx, q.Query, q.Args...)
	}, st, nil
}
