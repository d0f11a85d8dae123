package compiler

import (
	"go/token"
	"strconv"

	"github.com/roach88/comprehend/internal/ir"
)

// parseBinding parses the tokens between `for` and `in`. A top-level comma
// list (`for k, v in m`) is a tuple pattern.
func parseBinding(toks []lexeme) (ir.Pattern, error) {
	pp := &patternParser{toks: toks}
	elems, trailing, err := pp.list(token.ILLEGAL)
	if err != nil {
		return ir.Pattern{}, err
	}
	if pp.i < len(toks) {
		return ir.Pattern{}, unexpected(toks[pp.i])
	}

	var pat ir.Pattern
	if len(elems) == 1 && !trailing {
		pat = elems[0]
	} else {
		pat = ir.Tuple(elems...)
		pat.Pos = toks[0].pos
	}
	if err := checkDuplicates(pat); err != nil {
		return ir.Pattern{}, err
	}
	return pat, nil
}

type patternParser struct {
	toks []lexeme
	i    int
}

func (pp *patternParser) peek() (lexeme, bool) {
	if pp.i >= len(pp.toks) {
		return lexeme{}, false
	}
	return pp.toks[pp.i], true
}

// list parses comma separated patterns until the closer (or end of input
// when closer is ILLEGAL). trailing reports a comma right before the end.
func (pp *patternParser) list(closer token.Token) (elems []ir.Pattern, trailing bool, err error) {
	for {
		l, ok := pp.peek()
		if !ok || l.tok == closer {
			return elems, trailing, nil
		}
		p, err := pp.pattern()
		if err != nil {
			return nil, false, err
		}
		elems = append(elems, p)
		trailing = false

		l, ok = pp.peek()
		if !ok || l.tok == closer {
			return elems, false, nil
		}
		if l.tok != token.COMMA {
			return nil, false, unexpected(l)
		}
		pp.i++
		trailing = true
	}
}

func (pp *patternParser) pattern() (ir.Pattern, error) {
	l, _ := pp.peek()
	switch {
	case l.isName():
		pp.i++
		p := ir.Ident(l.text())
		p.Pos = l.pos
		return p, nil
	case l.tok == token.LPAREN || l.tok == token.LBRACK:
		closer := closerFor[l.tok]
		pp.i++
		elems, trailing, err := pp.list(closer)
		if err != nil {
			return ir.Pattern{}, err
		}
		if err := pp.expect(closer, l); err != nil {
			return ir.Pattern{}, err
		}
		// (p) is grouping, (p,) is a one-element tuple.
		if l.tok == token.LPAREN && len(elems) == 1 && !trailing {
			return elems[0], nil
		}
		p := ir.Tuple(elems...)
		p.Pos = l.pos
		return p, nil
	case l.tok == token.LBRACE:
		pp.i++
		p, err := pp.record(l)
		if err != nil {
			return ir.Pattern{}, err
		}
		return p, pp.expect(token.RBRACE, l)
	default:
		return ir.Pattern{}, unexpected(l)
	}
}

// record parses `name` and `field: pattern` entries.
func (pp *patternParser) record(open lexeme) (ir.Pattern, error) {
	var fields []ir.FieldPattern
	for {
		l, ok := pp.peek()
		if !ok || l.tok == token.RBRACE {
			break
		}

		var name string
		switch {
		case l.isName():
			name = l.text()
		case l.tok == token.STRING:
			unq, err := strconv.Unquote(l.lit)
			if err != nil {
				return ir.Pattern{}, unexpected(l)
			}
			name = unq
		default:
			return ir.Pattern{}, unexpected(l)
		}
		pp.i++

		field := ir.FieldPattern{Field: name, Pattern: ir.Ident(name)}
		field.Pattern.Pos = l.pos
		if next, ok := pp.peek(); ok && next.tok == token.COLON {
			pp.i++
			sub, err := pp.pattern()
			if err != nil {
				return ir.Pattern{}, err
			}
			field.Pattern = sub
		} else if l.tok == token.STRING {
			return ir.Pattern{}, malformed("binding", l.pos, "quoted field %s needs a pattern (%s: name)", l.lit, l.lit)
		}
		fields = append(fields, field)

		next, ok := pp.peek()
		if !ok || next.tok == token.RBRACE {
			break
		}
		if next.tok != token.COMMA {
			return ir.Pattern{}, unexpected(next)
		}
		pp.i++
	}
	p := ir.Record(fields...)
	p.Pos = open.pos
	return p, nil
}

func (pp *patternParser) expect(tok token.Token, open lexeme) error {
	l, ok := pp.peek()
	if !ok {
		err := malformed("binding", open.pos, "unclosed %q in binding", open.text())
		err.Token = open.text()
		return err
	}
	if l.tok != tok {
		return unexpected(l)
	}
	pp.i++
	return nil
}

func unexpected(l lexeme) *CompileError {
	err := malformed("binding", l.pos, "unexpected %q in binding pattern", l.text())
	err.Token = l.text()
	return err
}

func checkDuplicates(p ir.Pattern) error {
	seen := make(map[string]bool)
	for _, name := range p.Names() {
		if seen[name] {
			return malformed("binding", p.Pos, "%q is bound more than once", name)
		}
		seen[name] = true
	}
	return nil
}
