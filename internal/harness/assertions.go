package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/comprehend/internal/engine"
)

// AssertionError is returned when an assertion fails. It carries the full
// trace for debugging.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []engine.TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s@%d %s = %v\n", event.Seq, event.Kind, event.Depth, event.Expr, event.Value)
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against trace and returns the
// failures.
func EvaluateAssertions(trace []engine.TraceEvent, assertions []Assertion) []error {
	var errs []error
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceCount:
			err = assertTraceCount(trace, a)
		case AssertGuardBeforeMap:
			err = assertGuardBeforeMap(trace)
		case AssertNoEvaluation:
			err = assertNoEvaluation(trace, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// matches reports whether e is selected by a's kind and expr filters. A
// bind event is labelled `pattern in source`; it matches a's expr by the
// full label or by the source alone.
func matches(e engine.TraceEvent, a Assertion) bool {
	if a.Kind != "" && string(e.Kind) != a.Kind {
		return false
	}
	if a.Expr == "" || e.Expr == a.Expr {
		return true
	}
	return e.Kind == engine.TraceBind && strings.HasSuffix(e.Expr, " in "+a.Expr)
}

func describeFilter(a Assertion) string {
	switch {
	case a.Kind != "" && a.Expr != "":
		return fmt.Sprintf("%s events for %q", a.Kind, a.Expr)
	case a.Kind != "":
		return a.Kind + " events"
	case a.Expr != "":
		return fmt.Sprintf("events for %q", a.Expr)
	}
	return "events"
}

// assertTraceCount checks the number of matching events exactly.
func assertTraceCount(trace []engine.TraceEvent, a Assertion) error {
	count := 0
	for _, e := range trace {
		if matches(e, a) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d %s", a.Count, describeFilter(a)),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertGuardBeforeMap checks that every mapper evaluation follows a guard
// that held for the same binding. A bind event starts a new binding.
func assertGuardBeforeMap(trace []engine.TraceEvent) error {
	var guarded, held bool
	for _, e := range trace {
		switch e.Kind {
		case engine.TraceBind:
			guarded, held = false, false
		case engine.TraceGuard:
			guarded = true
			held, _ = e.Value.(bool)
		case engine.TraceMap:
			if !guarded {
				return &AssertionError{
					Type:     AssertGuardBeforeMap,
					Expected: "guard evaluated before the mapper",
					Actual:   fmt.Sprintf("mapper %q ran without a guard (seq %d)", e.Expr, e.Seq),
					Trace:    trace,
				}
			}
			if !held {
				return &AssertionError{
					Type:     AssertGuardBeforeMap,
					Expected: "mapper evaluated only when the guard holds",
					Actual:   fmt.Sprintf("mapper %q ran after a false guard (seq %d)", e.Expr, e.Seq),
					Trace:    trace,
				}
			}
		}
	}
	return nil
}

// assertNoEvaluation checks that no event matches. Without filters the
// trace must be empty.
func assertNoEvaluation(trace []engine.TraceEvent, a Assertion) error {
	for _, e := range trace {
		if matches(e, a) {
			return &AssertionError{
				Type:     AssertNoEvaluation,
				Expected: "no " + describeFilter(a),
				Actual:   fmt.Sprintf("%s %q at seq %d", e.Kind, e.Expr, e.Seq),
				Trace:    trace,
			}
		}
	}
	return nil
}
