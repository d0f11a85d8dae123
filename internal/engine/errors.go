package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/comprehend/internal/ir"
)

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeEvaluationFailed wraps an error reported by the evaluator.
	ErrCodeEvaluationFailed RuntimeErrorCode = "EVALUATION_FAILED"

	// ErrCodeSourceNotIterable indicates a source expression produced a value
	// that cannot be iterated.
	ErrCodeSourceNotIterable RuntimeErrorCode = "SOURCE_NOT_ITERABLE"

	// ErrCodePatternMismatch indicates an element did not fit the binding
	// pattern of its clause.
	ErrCodePatternMismatch RuntimeErrorCode = "PATTERN_MISMATCH"

	// ErrCodeGuardNotBool indicates a guard evaluated to a non-boolean.
	ErrCodeGuardNotBool RuntimeErrorCode = "GUARD_NOT_BOOL"

	// ErrCodeUnhashableKey indicates a set element or mapping key has no
	// canonical encoding.
	ErrCodeUnhashableKey RuntimeErrorCode = "UNHASHABLE_KEY"
)

// ErrNotIterable is wrapped by evaluators when a source value cannot be
// iterated. The engine reports it as ErrCodeSourceNotIterable.
var ErrNotIterable = errors.New("value is not iterable")

// RuntimeError is an error raised while a comprehension is being pulled.
type RuntimeError struct {
	Code    RuntimeErrorCode
	Message string
	// Expr is the expression being evaluated, when there is one.
	Expr ir.Expr
	// Depth is the 1-based clause level the error was raised at.
	Depth int
	Err   error
}

func (e *RuntimeError) Error() string {
	if e.Expr.Pos.IsValid() {
		return fmt.Sprintf("%s: %s (at %s: %s)", e.Code, e.Message, e.Expr.Pos, e.Expr.Text)
	}
	if e.Expr.Text != "" {
		return fmt.Sprintf("%s: %s (in %s)", e.Code, e.Message, e.Expr.Text)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying evaluator error.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsRuntimeError reports whether err is (or wraps) a RuntimeError.
func IsRuntimeError(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re)
}

// HasCode reports whether err is (or wraps) a RuntimeError with code.
func HasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsPatternMismatch reports whether err is a pattern mismatch.
func IsPatternMismatch(err error) bool {
	return HasCode(err, ErrCodePatternMismatch)
}

// IsUnhashableKey reports whether err is an unhashable set or mapping key.
func IsUnhashableKey(err error) bool {
	return HasCode(err, ErrCodeUnhashableKey)
}

func evalError(e ir.Expr, depth int, err error) *RuntimeError {
	code := ErrCodeEvaluationFailed
	if errors.Is(err, ErrNotIterable) {
		code = ErrCodeSourceNotIterable
	}
	return &RuntimeError{Code: code, Message: err.Error(), Expr: e, Depth: depth, Err: err}
}
