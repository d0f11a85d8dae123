package compiler

import (
	"go/token"
	"strings"

	"github.com/roach88/comprehend/internal/ir"
)

// Parse recognizes comprehension text and returns its structured form.
//
//	[container ;] for p1 in s1 ; ... ; for pn in sn => mapper [, if guard] [,]
//
// Expressions (sources, guard, mapper) are opaque: they are cut out of src
// verbatim, bracket-aware, and never interpreted. Parsing fails fast on the
// first problem with a *CompileError.
func Parse(src string) (*ir.Comprehension, error) {
	return parseAt(src, ir.Pos{})
}

func parseAt(src string, base ir.Pos) (*ir.Comprehension, error) {
	p := &parser{src: src, toks: lex(src, base), base: base}
	c, err := p.parse()
	if err != nil {
		return nil, err
	}
	c.Source = strings.TrimSpace(src)
	return c, nil
}

type parser struct {
	src  string
	toks []lexeme
	i    int
	base ir.Pos
}

func (p *parser) peek(n int) (lexeme, bool) {
	if p.i+n >= len(p.toks) {
		return lexeme{}, false
	}
	return p.toks[p.i+n], true
}

func (p *parser) eofPos() ir.Pos {
	if len(p.toks) == 0 {
		return shift(ir.Pos{Offset: 0, Line: 1, Column: 1}, p.base)
	}
	last := p.toks[len(p.toks)-1]
	pos := last.pos
	pos.Offset += last.end - last.start
	pos.Column += last.end - last.start
	return pos
}

// slice returns the verbatim text spanning toks.
func (p *parser) slice(toks []lexeme) ir.Expr {
	first, last := toks[0], toks[len(toks)-1]
	return ir.Expr{Text: strings.TrimSpace(p.src[first.start:last.end]), Pos: first.pos}
}

func (p *parser) parse() (*ir.Comprehension, error) {
	if len(p.toks) == 0 {
		return nil, malformed("comprehension", p.eofPos(), "empty comprehension")
	}

	c := &ir.Comprehension{Container: ir.Lazy}
	if err := p.parseContainer(c); err != nil {
		return nil, err
	}

	for {
		clause, more, err := p.parseClause()
		if err != nil {
			return nil, err
		}
		c.Chain.Clauses = append(c.Chain.Clauses, clause)
		if !more {
			break
		}
	}

	if err := p.parseTail(c); err != nil {
		return nil, err
	}
	return c, nil
}

// parseContainer consumes an optional `name ;` prefix.
func (p *parser) parseContainer(c *ir.Comprehension) error {
	first, _ := p.peek(0)
	sep, ok := p.peek(1)
	if !ok || sep.tok != token.SEMICOLON {
		return nil
	}
	if first.tok != token.IDENT && first.tok != token.MAP {
		return nil
	}
	kind, known := ir.ParseContainerKind(first.text())
	if !known {
		err := malformed("container", first.pos, "unknown container kind %q (want lazy, sequence, set or mapping)", first.text())
		err.Token = first.text()
		return err
	}
	c.Container = kind
	p.i += 2
	return nil
}

// parseClause consumes `for binding in source` plus its terminator. more
// reports whether another clause follows; otherwise the `=>` has been
// consumed and the tail is next.
func (p *parser) parseClause() (ir.GeneratorClause, bool, error) {
	var clause ir.GeneratorClause

	kw, ok := p.peek(0)
	if !ok {
		return clause, false, malformed("clause", p.eofPos(), "expected 'for'")
	}
	if kw.tok != token.FOR {
		err := malformed("clause", kw.pos, "expected 'for', found %q", kw.text())
		err.Token = kw.text()
		return clause, false, err
	}
	p.i++

	bindStart := p.i
	if err := p.scanTo(func(l lexeme) bool { return l.isIdent("in") }); err != nil {
		return clause, false, err
	}
	if p.i >= len(p.toks) {
		return clause, false, malformed("binding", kw.pos, "missing 'in' after 'for'")
	}
	bindToks := p.toks[bindStart:p.i]
	if len(bindToks) == 0 {
		return clause, false, malformed("binding", p.toks[p.i].pos, "missing binding between 'for' and 'in'")
	}
	binding, err := parseBinding(bindToks)
	if err != nil {
		return clause, false, err
	}
	clause.Binding = binding
	inTok := p.toks[p.i]
	p.i++

	srcStart := p.i
	for {
		l, ok := p.peek(0)
		if !ok {
			if p.i == srcStart {
				return clause, false, malformed("source", inTok.pos, "missing source after 'in'")
			}
			return clause, false, malformed("mapper", p.eofPos(), "missing '=>' and mapper")
		}
		if l.opens() || l.closes() {
			if err := p.scanGroup(); err != nil {
				return clause, false, err
			}
			continue
		}

		switch {
		case l.tok == token.SEMICOLON:
			if err := p.endSource(&clause, srcStart, inTok); err != nil {
				return clause, false, err
			}
			p.i++
			next, ok := p.peek(0)
			if !ok || next.tok != token.FOR {
				return clause, false, malformed("clause", l.pos, "';' must be followed by another 'for' clause")
			}
			return clause, true, nil
		case l.tok == token.COMMA && p.nextIs(1, token.FOR):
			if err := p.endSource(&clause, srcStart, inTok); err != nil {
				return clause, false, err
			}
			p.i++
			return clause, true, nil
		case l.tok == token.COMMA:
			err := malformed("source", l.pos, "unexpected ',' in source; a comma may only separate clauses before 'for'")
			err.Token = ","
			return clause, false, err
		case p.isArrow():
			if err := p.endSource(&clause, srcStart, inTok); err != nil {
				return clause, false, err
			}
			p.i += 2
			return clause, false, nil
		case l.tok == token.FOR:
			err := malformed("source", l.pos, "unexpected 'for' in source; separate clauses with ';'")
			err.Token = "for"
			return clause, false, err
		case l.tok == token.IF:
			err := malformed("source", l.pos, "unexpected 'if' in source; the guard follows the mapper")
			err.Token = "if"
			return clause, false, err
		}
		p.i++
	}
}

func (p *parser) endSource(clause *ir.GeneratorClause, start int, in lexeme) error {
	if p.i == start {
		return malformed("source", in.pos, "missing source after 'in'")
	}
	clause.Source = p.slice(p.toks[start:p.i])
	return nil
}

func (p *parser) nextIs(n int, tok token.Token) bool {
	l, ok := p.peek(n)
	return ok && l.tok == tok
}

// isArrow reports whether `=>` starts at the cursor. The Go scanner splits
// it into `=` and `>`; they must touch.
func (p *parser) isArrow() bool {
	eq, ok := p.peek(0)
	if !ok || eq.tok != token.ASSIGN {
		return false
	}
	gt, ok := p.peek(1)
	return ok && gt.tok == token.GTR && gt.start == eq.end
}

// scanGroup consumes a balanced bracket group starting at the cursor.
func (p *parser) scanGroup() error {
	open := p.toks[p.i]
	if open.closes() {
		err := malformed("comprehension", open.pos, "unbalanced %q", open.text())
		err.Token = open.text()
		return err
	}
	stack := []lexeme{open}
	p.i++
	for len(stack) > 0 {
		l, ok := p.peek(0)
		if !ok {
			top := stack[len(stack)-1]
			err := malformed("comprehension", top.pos, "unclosed %q", top.text())
			err.Token = top.text()
			return err
		}
		switch {
		case l.opens():
			stack = append(stack, l)
		case l.closes():
			top := stack[len(stack)-1]
			if closerFor[top.tok] != l.tok {
				err := malformed("comprehension", l.pos, "mismatched %q closes %q at %s", l.text(), top.text(), top.pos)
				err.Token = l.text()
				return err
			}
			stack = stack[:len(stack)-1]
		}
		p.i++
	}
	return nil
}

// scanTo advances until stop reports true for a token at bracket depth
// zero, or to the end of input.
func (p *parser) scanTo(stop func(l lexeme) bool) error {
	for p.i < len(p.toks) {
		l := p.toks[p.i]
		if l.opens() || l.closes() {
			if err := p.scanGroup(); err != nil {
				return err
			}
			continue
		}
		if stop(l) {
			return nil
		}
		p.i++
	}
	return nil
}

// parseTail splits everything after `=>` on top-level commas into mapper
// expressions and an optional trailing `if guard`.
func (p *parser) parseTail(c *ir.Comprehension) error {
	arrow := p.toks[p.i-2]

	var segments [][]lexeme
	start := p.i
	for p.i < len(p.toks) {
		l := p.toks[p.i]
		if l.opens() || l.closes() {
			if err := p.scanGroup(); err != nil {
				return err
			}
			continue
		}
		switch {
		case l.tok == token.COMMA:
			segments = append(segments, p.toks[start:p.i])
			start = p.i + 1
		case p.isArrow():
			return malformed("mapper", l.pos, "unexpected '=>' after the mapper")
		case l.tok == token.FOR:
			return malformed("mapper", l.pos, "unexpected 'for' after '=>'; clauses come before the mapper")
		case l.tok == token.IF && p.i != start:
			return malformed("guard", l.pos, "'if' must directly follow a comma")
		}
		p.i++
	}
	segments = append(segments, p.toks[start:])
	if len(segments) == 1 && len(segments[0]) == 0 {
		return malformed("mapper", arrow.pos, "missing mapper expression after '=>'")
	}

	// One trailing comma is allowed.
	if n := len(segments); n > 1 && len(segments[n-1]) == 0 {
		segments = segments[:n-1]
	}

	var mappers []ir.Expr
	for idx, seg := range segments {
		if len(seg) == 0 {
			return malformed("mapper", p.segmentPos(segments, idx, arrow), "empty expression")
		}
		if seg[0].tok != token.IF {
			if c.Chain.Guard != nil {
				return malformed("guard", c.Chain.Guard.Pos, "the guard must be the last element")
			}
			mappers = append(mappers, p.slice(seg))
			continue
		}
		if c.Chain.Guard != nil {
			return malformed("guard", seg[0].pos, "only one guard is allowed")
		}
		if len(seg) == 1 {
			return malformed("guard", seg[0].pos, "missing guard expression after 'if'")
		}
		guard := p.slice(seg[1:])
		c.Chain.Guard = &guard
	}

	if len(mappers) == 0 {
		return malformed("mapper", arrow.pos, "missing mapper expression after '=>'")
	}
	if len(mappers) > 2 {
		return malformed("mapper", mappers[2].Pos, "too many mapper expressions (%d); want one, or key and value", len(mappers))
	}
	if len(mappers) != c.Container.MapperArity() {
		return &CompileError{
			Code:    CodeArity,
			Field:   "mapper",
			Message: arityMessage(c.Container, len(mappers)),
			Pos:     mappers[0].Pos,
		}
	}
	c.Chain.Mapper = ir.Mapper{Exprs: mappers}
	return nil
}

func (p *parser) segmentPos(segments [][]lexeme, idx int, arrow lexeme) ir.Pos {
	for i := idx - 1; i >= 0; i-- {
		if seg := segments[i]; len(seg) > 0 {
			return seg[len(seg)-1].pos
		}
	}
	return arrow.pos
}

func arityMessage(kind ir.ContainerKind, got int) string {
	if kind == ir.Mapping {
		return "mapping requires a key and a value expression (=> key, value)"
	}
	if got == 2 {
		return kind.String() + " takes a single mapper expression; key/value form requires the mapping container"
	}
	return kind.String() + " takes a single mapper expression"
}
