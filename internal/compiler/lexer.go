package compiler

import (
	"go/scanner"
	"go/token"

	"github.com/roach88/comprehend/internal/ir"
)

// lexeme is one token of comprehension text. Only the structural tokens
// (for, in, if, =>, separators and brackets) mean anything to the parser;
// everything else is carried so expressions can be sliced back out of the
// source verbatim.
type lexeme struct {
	tok   token.Token
	lit   string
	start int // byte offset
	end   int // byte offset one past the token
	pos   ir.Pos
}

func (l lexeme) text() string {
	if l.lit != "" {
		return l.lit
	}
	return l.tok.String()
}

func (l lexeme) isIdent(name string) bool {
	return l.tok == token.IDENT && l.lit == name
}

func (l lexeme) opens() bool {
	return l.tok == token.LPAREN || l.tok == token.LBRACK || l.tok == token.LBRACE
}

func (l lexeme) closes() bool {
	return l.tok == token.RPAREN || l.tok == token.RBRACK || l.tok == token.RBRACE
}

// isName reports whether the lexeme can name a binding. Go keywords other
// than the structural ones are plain names in comprehension text.
func (l lexeme) isName() bool {
	if l.tok == token.IDENT {
		return true
	}
	return l.tok.IsKeyword() && l.tok != token.FOR && l.tok != token.IF
}

var closerFor = map[token.Token]token.Token{
	token.LPAREN: token.RPAREN,
	token.LBRACK: token.RBRACK,
	token.LBRACE: token.RBRACE,
}

// lex tokenizes src with the Go scanner. Newline-inserted semicolons are
// dropped so layout never separates clauses, and scanner errors are
// ignored: text the Go scanner dislikes is still an opaque expression.
func lex(src string, base ir.Pos) []lexeme {
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(src))

	var s scanner.Scanner
	s.Init(file, []byte(src), func(token.Position, string) {}, 0)

	var out []lexeme
	for {
		p, tok, lit := s.Scan()
		if tok == token.EOF {
			break
		}
		if tok == token.SEMICOLON && lit == "\n" {
			continue
		}
		position := file.Position(p)
		l := lexeme{
			tok:   tok,
			lit:   lit,
			start: position.Offset,
			pos:   shift(ir.Pos{Offset: position.Offset, Line: position.Line, Column: position.Column}, base),
		}
		l.end = l.start + len(l.text())
		if l.end > len(src) {
			l.end = len(src)
		}
		out = append(out, l)
	}
	return out
}

// shift moves a position found in a fragment to where the fragment sits in
// a larger document.
func shift(p, base ir.Pos) ir.Pos {
	if !base.IsValid() {
		return p
	}
	if p.Line == 1 {
		p.Column += base.Column - 1
	}
	p.Line += base.Line - 1
	p.Offset += base.Offset
	return p
}
