package harness

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/roach88/comprehend/internal/dataset"
	"github.com/roach88/comprehend/internal/engine"
)

// Scenario is one comprehension test case.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// Comprehension is the text under test.
	Comprehension string `yaml:"comprehension"`

	// Data supplies globals and named sources. sqlite paths resolve
	// against the scenario file's directory.
	Data *dataset.Spec `yaml:"data,omitempty"`

	// Limit caps how many values are pulled. Required for a lazy
	// comprehension over an infinite source.
	Limit int `yaml:"limit,omitempty"`

	Expect Expect `yaml:"expect"`

	Assertions []Assertion `yaml:"assertions,omitempty"`

	// Path is the file the scenario was loaded from.
	Path string `yaml:"-"`
}

// Expect is the expected outcome: a result or an error code.
type Expect struct {
	// Result is compared by canonical encoding, so 2 and 2.0 match.
	Result any `yaml:"result,omitempty"`

	// Unordered compares list results as multisets.
	Unordered bool `yaml:"unordered,omitempty"`

	// Error is an error code, e.g. MALFORMED_COMPREHENSION or
	// PATTERN_MISMATCH. When set, Result must be empty.
	Error string `yaml:"error,omitempty"`
}

// Assertion checks the evaluation trace.
type Assertion struct {
	// Type is one of trace_count, guard_before_map or no_evaluation.
	Type string `yaml:"type"`

	// Kind selects events by kind (bind, guard, map, yield) for
	// trace_count.
	Kind string `yaml:"kind,omitempty"`

	// Expr selects events by expression. A bind event matches its source
	// expression as well as its `pattern in source` label.
	Expr string `yaml:"expr,omitempty"`

	// Count is the exact number of matching events (trace_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceCount     = "trace_count"
	AssertGuardBeforeMap = "guard_before_map"
	AssertNoEvaluation   = "no_evaluation"
)

// knownErrorCodes lists the codes an expect.error may name.
var knownErrorCodes = []string{
	"MALFORMED_COMPREHENSION",
	"UNSUPPORTED_CONTAINER_MAPPER_ARITY",
	string(engine.ErrCodeEvaluationFailed),
	string(engine.ErrCodeSourceNotIterable),
	string(engine.ErrCodePatternMismatch),
	string(engine.ErrCodeGuardNotBool),
	string(engine.ErrCodeUnhashableKey),
}

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected.
func LoadScenario(p string) (*Scenario, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	s.Path = p
	if s.Data != nil {
		s.Data.BaseDir = filepath.Dir(p)
	}
	return s, nil
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	s.Expect.Result = dataset.NormalizeValue(s.Expect.Result)
	if s.Data != nil {
		s.Data.Normalize()
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// LoadDir loads every *.yaml and *.yml scenario under dir, sorted by path.
// All load errors are reported together.
func LoadDir(dir string) ([]*Scenario, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if ext := filepath.Ext(p); ext == ".yaml" || ext == ".yml" {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenarios: %w", err)
	}
	slices.Sort(paths)

	var (
		scenarios []*Scenario
		result    *multierror.Error
		seen      = make(map[string]string)
	)
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if prev, dup := seen[s.Name]; dup {
			result = multierror.Append(result, fmt.Errorf("%s: scenario name %q already used by %s", p, s.Name, prev))
			continue
		}
		seen[s.Name] = p
		scenarios = append(scenarios, s)
	}
	return scenarios, result.ErrorOrNil()
}

// Filter keeps scenarios whose name matches the glob pattern. An empty
// pattern keeps everything.
func Filter(scenarios []*Scenario, pattern string) ([]*Scenario, error) {
	if pattern == "" {
		return scenarios, nil
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", pattern, err)
	}
	var out []*Scenario
	for _, s := range scenarios {
		if ok, _ := path.Match(pattern, s.Name); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if strings.TrimSpace(s.Comprehension) == "" {
		return fmt.Errorf("comprehension is required")
	}
	if s.Limit < 0 {
		return fmt.Errorf("limit must be non-negative")
	}
	if s.Expect.Error != "" {
		if !slices.Contains(knownErrorCodes, s.Expect.Error) {
			return fmt.Errorf("expect.error: unknown error code %q", s.Expect.Error)
		}
		if s.Expect.Result != nil {
			return fmt.Errorf("expect: result and error are mutually exclusive")
		}
	}
	if s.Data != nil {
		if err := s.Data.Validate(); err != nil {
			return fmt.Errorf("data: %w", err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceCount:
		if a.Kind != "" && !validKind(a.Kind) {
			return fmt.Errorf("assertions[%d]: unknown event kind %q", index, a.Kind)
		}
		if a.Kind == "" && a.Expr == "" {
			return fmt.Errorf("assertions[%d]: kind or expr is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertGuardBeforeMap:
	case AssertNoEvaluation:
		if a.Kind != "" && !validKind(a.Kind) {
			return fmt.Errorf("assertions[%d]: unknown event kind %q", index, a.Kind)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func validKind(k string) bool {
	switch engine.TraceKind(k) {
	case engine.TraceBind, engine.TraceGuard, engine.TraceMap, engine.TraceYield:
		return true
	}
	return false
}
