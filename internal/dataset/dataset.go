package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Spec is a decoded dataset document.
type Spec struct {
	Values  map[string]any        `yaml:"values" json:"values,omitempty"`
	Sources map[string]SourceSpec `yaml:"sources" json:"sources,omitempty"`

	// BaseDir resolves relative sqlite paths. Set by Load to the
	// directory of the dataset file.
	BaseDir string `yaml:"-" json:"-"`
}

// SourceSpec describes one named source. Exactly one field is set.
type SourceSpec struct {
	Range  *RangeSpec  `yaml:"range" json:"range,omitempty"`
	SQLite *SQLiteSpec `yaml:"sqlite" json:"sqlite,omitempty"`
	Values []any       `yaml:"values" json:"values,omitempty"`
}

// Kind names the populated field, or "" when none is.
func (s SourceSpec) Kind() string {
	switch {
	case s.Range != nil:
		return "range"
	case s.SQLite != nil:
		return "sqlite"
	case s.Values != nil:
		return "values"
	}
	return ""
}

func (s SourceSpec) kinds() int {
	n := 0
	if s.Range != nil {
		n++
	}
	if s.SQLite != nil {
		n++
	}
	if s.Values != nil {
		n++
	}
	return n
}

// RangeSpec is an arithmetic progression. A nil Stop makes it infinite;
// a zero Step means 1.
type RangeSpec struct {
	Start int64  `yaml:"start" json:"start"`
	Stop  *int64 `yaml:"stop" json:"stop,omitempty"`
	Step  int64  `yaml:"step" json:"step,omitempty"`
}

// SQLiteSpec yields one record per row of Query.
type SQLiteSpec struct {
	Path  string   `yaml:"path" json:"path" validate:"required"`
	Query string   `yaml:"query" json:"query" validate:"required"`
	Args  []any    `yaml:"args" json:"args,omitempty"`
	Setup []string `yaml:"setup" json:"setup,omitempty"` // statements run once on open
}

// Load reads and validates the dataset at path.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	spec, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	spec.BaseDir = filepath.Dir(path)
	return spec, nil
}

// Parse decodes and validates a dataset document. Unknown keys are
// rejected.
func Parse(data []byte) (*Spec, error) {
	var spec Spec
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	spec.Normalize()
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// FromValues builds a dataset of globals only.
func FromValues(values map[string]any) *Spec {
	spec := &Spec{Values: values}
	spec.Normalize()
	return spec
}

// Normalize converts decoded values in place; see NormalizeValue.
func (s *Spec) Normalize() {
	for k, v := range s.Values {
		s.Values[k] = NormalizeValue(v)
	}
	for name, src := range s.Sources {
		for i, v := range src.Values {
			src.Values[i] = NormalizeValue(v)
		}
		if src.SQLite != nil {
			for i, v := range src.SQLite.Args {
				src.SQLite.Args[i] = NormalizeValue(v)
			}
		}
		s.Sources[name] = src
	}
}

// NormalizeValue converts decoded YAML into the value shapes the evaluator
// produces: int64 and float64 numbers, []any lists and map[string]any
// records.
func NormalizeValue(v any) any {
	switch val := v.(type) {
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case uint64:
		return int64(val)
	case float32:
		return float64(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = NormalizeValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = NormalizeValue(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[fmt.Sprint(k)] = NormalizeValue(e)
		}
		return out
	}
	return v
}
