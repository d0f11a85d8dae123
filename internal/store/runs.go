package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
)

// RunRecord is one logged comprehension run.
type RunRecord struct {
	Seq             int64  `json:"seq"`
	ID              string `json:"id"`
	ComprehensionID string `json:"comprehension_id"`
	Source          string `json:"source"`
	Container       string `json:"container"`
	ItemCount       int64  `json:"item_count"`
	Result          string `json:"result,omitempty"` // canonical JSON
	Error           string `json:"error,omitempty"`
	EngineVersion   string `json:"engine_version"`
	IRVersion       string `json:"ir_version"`
}

// RecordRun appends a run to the log. Writing the same run id twice is a
// no-op.
func (s *Store) RecordRun(ctx context.Context, r RunRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, comprehension_id, source, container, item_count, result, error, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		r.ID,
		r.ComprehensionID,
		r.Source,
		r.Container,
		r.ItemCount,
		nullable(r.Result),
		nullable(r.Error),
		r.EngineVersion,
		r.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Runs returns logged runs in insertion order, optionally only those of
// one comprehension id. limit <= 0 returns all of them.
func (s *Store) Runs(ctx context.Context, comprehensionID string, limit int) ([]RunRecord, error) {
	query := `SELECT seq, id, comprehension_id, source, container, item_count,
		COALESCE(result, '') AS result, COALESCE(error, '') AS error,
		engine_version, ir_version
		FROM runs`
	var args []any
	if comprehensionID != "" {
		query += " WHERE comprehension_id = ?"
		args = append(args, comprehensionID)
	}
	query += " ORDER BY seq ASC"
	if limit > 0 {
		query += " LIMIT " + strconv.Itoa(limit)
	}

	records := []RunRecord{}
	for row, err := range s.Rows(ctx, query, args...) {
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		records = append(records, RunRecord{
			Seq:             row["seq"].(int64),
			ID:              row["id"].(string),
			ComprehensionID: row["comprehension_id"].(string),
			Source:          row["source"].(string),
			Container:       row["container"].(string),
			ItemCount:       row["item_count"].(int64),
			Result:          row["result"].(string),
			Error:           row["error"].(string),
			EngineVersion:   row["engine_version"].(string),
			IRVersion:       row["ir_version"].(string),
		})
	}
	return records, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
