package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/comprehend/internal/compiler"
	"github.com/roach88/comprehend/internal/engine"
	"github.com/roach88/comprehend/internal/ir"
)

func TestOutputFormatter_JSONSuccessWithTrace(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.SuccessWithTrace(map[string]int{"count": 2}, "run-1"))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "run-1", resp.TraceID)
	assert.Equal(t, map[string]any{"count": float64(2)}, resp.Data)
}

func TestOutputFormatter_Error(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		verbose bool
		want    []string
		notWant []string
	}{
		{"text", "text", false, []string{"Error [E001]: boom"}, []string{"Details:"}},
		{"text verbose", "text", true, []string{"Error [E001]: boom", "Details:"}, nil},
		{"json", "json", false, []string{`"status": "error"`, `"code": "E001"`, `"message": "boom"`}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: tt.format, Writer: buf, Verbose: tt.verbose}
			require.NoError(t, formatter.Error("E001", "boom", map[string]string{"file": "x"}))
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
			for _, w := range tt.notWant {
				assert.NotContains(t, buf.String(), w)
			}
		})
	}
}

func TestOutputFormatter_VerboseLogUsesErrWriter(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}

	formatter.VerboseLog("Processing %s", "data.yaml")
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "Processing data.yaml")

	formatter.Verbose = false
	errOut.Reset()
	formatter.VerboseLog("quiet")
	assert.Empty(t, errOut.String())
}

func TestComprehensionError(t *testing.T) {
	_, compileErr := compiler.Parse("for x xs => x")
	runtimeErr := &engine.RuntimeError{
		Code:    engine.ErrCodeGuardNotBool,
		Message: "guard must evaluate to a bool",
		Expr:    ir.Expr{Text: "x"},
		Depth:   1,
	}

	tests := []struct {
		name     string
		err      error
		wantCode string
		wantExit int
	}{
		{"compile", compileErr, compiler.CodeMalformed, ExitCommandError},
		{"runtime", runtimeErr, string(engine.ErrCodeGuardNotBool), ExitFailure},
		{"other", errors.New("disk on fire"), ErrCodeGeneric, ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "json", Writer: buf}

			err := formatter.comprehensionError(tt.err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))
			assert.ErrorIs(t, err, tt.err)

			var resp CLIResponse
			require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "x")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	wrapped := WrapExitError(ExitFailure, "outer", errors.New("inner"))
	assert.Equal(t, "outer: inner", wrapped.Error())
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, `{"a":[1,2],"b":"<x>"}`, canonical(map[string]any{"b": "<x>", "a": []any{int64(1), int64(2)}}))
	assert.Equal(t, "1", canonical(1.0))
}
