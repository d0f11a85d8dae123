package compiler

import (
	"errors"
	"fmt"

	"github.com/roach88/comprehend/internal/ir"
)

// Error codes carried by CompileError.Code.
const (
	CodeMalformed = "MALFORMED_COMPREHENSION"
	CodeArity     = "UNSUPPORTED_CONTAINER_MAPPER_ARITY"
)

// Sentinels for errors.Is. An arity error matches both: it is a specific
// kind of malformed comprehension.
var (
	ErrMalformedComprehension          = errors.New("malformed comprehension")
	ErrUnsupportedContainerMapperArity = errors.New("unsupported container/mapper arity")
)

// CompileError is an expansion-time error with source position.
type CompileError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Pos     ir.Pos `json:"pos"`
	Token   string `json:"token,omitempty"` // offending token, if any
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%d:%d: %s: %s", e.Pos.Line, e.Pos.Column, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is matches the package sentinels by code.
func (e *CompileError) Is(target error) bool {
	switch target {
	case ErrMalformedComprehension:
		return e.Code == CodeMalformed || e.Code == CodeArity
	case ErrUnsupportedContainerMapperArity:
		return e.Code == CodeArity
	}
	return false
}

// IsMalformed reports whether err is (or wraps) a malformed comprehension
// error, arity errors included.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedComprehension)
}

// IsArityError reports whether err is (or wraps) a container/mapper arity
// mismatch.
func IsArityError(err error) bool {
	return errors.Is(err, ErrUnsupportedContainerMapperArity)
}

func malformed(field string, pos ir.Pos, format string, args ...any) *CompileError {
	return &CompileError{
		Code:    CodeMalformed,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Pos:     pos,
	}
}
