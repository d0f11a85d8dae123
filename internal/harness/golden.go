package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/comprehend/internal/engine"
	"github.com/roach88/comprehend/internal/ir"
)

// WithGolden compares each scenario's trace snapshot against
// golden/<name>.golden next to the scenario file. With update the file is
// rewritten instead. Scenarios without a golden file are checked by
// expect and assertions only.
func WithGolden(update bool) Option {
	return func(h *Harness) {
		h.golden = true
		h.update = update
	}
}

// Snapshot renders the scenario outcome as canonical JSON: result or
// error code, then every trace event.
func Snapshot(s *Scenario, r *Result) ([]byte, error) {
	trace := make([]any, len(r.Trace))
	for i, e := range r.Trace {
		event := map[string]any{
			"seq":   e.Seq,
			"kind":  string(e.Kind),
			"depth": e.Depth,
			"value": plain(e.Value),
		}
		if e.Expr != "" {
			event["expr"] = e.Expr
		}
		trace[i] = event
	}

	snapshot := map[string]any{
		"scenario_name": s.Name,
		"comprehension": s.Comprehension,
		"trace":         trace,
	}
	if r.ErrorCode != "" {
		snapshot["error_code"] = r.ErrorCode
	} else {
		snapshot["result"] = plain(r.Value)
	}

	data, err := ir.MarshalCanonical(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

// plain rewrites engine values into canonical-encodable data.
func plain(v any) any {
	switch val := v.(type) {
	case engine.Entry:
		return map[string]any{"key": plain(val.Key), "value": plain(val.Value)}
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = plain(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = plain(e)
		}
		return out
	}
	return v
}

// GoldenPath is where the golden snapshot of s lives.
func GoldenPath(s *Scenario) string {
	return filepath.Join(filepath.Dir(s.Path), "golden", s.Name+".golden")
}

func (h *Harness) checkGolden(s *Scenario, r *Result) error {
	current, err := Snapshot(s, r)
	if err != nil {
		return err
	}
	path := GoldenPath(s)

	if h.update {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create golden directory: %w", err)
		}
		if err := os.WriteFile(path, current, 0o644); err != nil {
			return fmt.Errorf("failed to write golden file: %w", err)
		}
		h.logger.Info("golden file updated", "name", s.Name, "path", path)
		return nil
	}

	want, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read golden file: %w", err)
	}
	if !bytes.Equal(bytes.TrimSpace(want), current) {
		r.AddError(fmt.Sprintf("trace does not match golden file %s (run with --update to regenerate)", path))
	}
	return nil
}

// RunWithGolden runs a scenario and compares its snapshot against
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, s *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(s)
	if err != nil {
		return nil, err
	}
	data, err := Snapshot(s, result)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, data)
	return result, nil
}
