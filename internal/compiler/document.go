package compiler

import (
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/roach88/comprehend/internal/ir"
)

// Entry is one comprehension of a document together with its line.
type Entry struct {
	Line          int
	Comprehension *ir.Comprehension
}

// ParseAll parses a document holding one comprehension per line. Blank
// lines and lines starting with # are skipped. Unlike Parse it does not
// stop at the first problem: every line is parsed, the good ones are
// returned, and all errors come back as one *multierror.Error whose
// positions are relative to the document.
func ParseAll(doc string, checker SyntaxChecker) ([]Entry, error) {
	var (
		entries []Entry
		result  *multierror.Error
		offset  int
	)

	for n, line := range strings.SplitAfter(doc, "\n") {
		lineOffset := offset
		offset += len(line)

		text := strings.TrimRight(line, "\r\n")
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		c, err := parseAt(text, ir.Pos{Offset: lineOffset, Line: n + 1, Column: 1})
		if err == nil && checker != nil {
			err = Check(c, checker)
		}
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		entries = append(entries, Entry{Line: n + 1, Comprehension: c})
	}

	return entries, result.ErrorOrNil()
}
