package store

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"time"
)

// Rows runs query and yields one map per row, column name to value. The
// query runs on first pull and the cursor is closed when the consumer
// stops or the rows run out.
//
// Values are normalized for expression evaluation: integers as int64,
// reals as float64, text and blobs as string, NULL as nil, times as
// RFC 3339 strings.
func (s *Store) Rows(ctx context.Context, query string, args ...any) iter.Seq2[map[string]any, error] {
	return func(yield func(map[string]any, error) bool) {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(nil, fmt.Errorf("query: %w", err))
			return
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			yield(nil, fmt.Errorf("columns: %w", err))
			return
		}

		for rows.Next() {
			row, err := scanRow(rows, cols)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(row, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("rows: %w", err))
		}
	}
}

// Values adapts Rows to the element type comprehension sources use.
func (s *Store) Values(ctx context.Context, query string, args ...any) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		for row, err := range s.Rows(ctx, query, args...) {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

func scanRow(rows *sql.Rows, cols []string) (map[string]any, error) {
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	row := make(map[string]any, len(cols))
	for i, col := range cols {
		row[col] = normalize(values[i])
	}
	return row, nil
}

func normalize(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	default:
		return v
	}
}
