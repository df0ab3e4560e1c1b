// parser.go - pass B/C: top-level construct dispatch, scope brackets,
// variable splicing, and macro expansion to a fixed point

package asm

import (
	"strings"

	"github.com/little32vm/little32/internal/isa"
)

type parser struct {
	a    *Assembler
	toks []Token
	pos  int
}

func (p *parser) peek() Token {
	if p.pos >= len(p.toks) {
		return Token{Kind: KindEOF}
	}
	return p.toks[p.pos]
}

func (p *parser) peekAt(off int) Token {
	if p.pos+off >= len(p.toks) {
		return Token{Kind: KindEOF}
	}
	return p.toks[p.pos+off]
}

func (p *parser) next() Token {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) skipEOLs() {
	for p.peek().Kind == KindEOL {
		p.next()
	}
}

// statementTokens collects every token up to (not including) the next
// end-of-line or end-of-file.
func (p *parser) statementTokens() []Token {
	var out []Token
	for p.peek().Kind != KindEOL && p.peek().Kind != KindEOF {
		out = append(out, p.next())
	}
	if p.peek().Kind == KindEOL {
		p.next()
	}
	return out
}

// run drives the whole of passes B/C/D over the token stream.
func (p *parser) run() error {
	for {
		p.skipEOLs()
		if p.peek().Kind == KindEOF {
			return nil
		}

		tok := p.peek()
		switch {
		case tok.Is("#"):
			if err := p.parseDirective(); err != nil {
				return err
			}
		case tok.Is("@{"):
			p.next()
			p.a.pushScope()
		case tok.Is("}@"):
			p.next()
			p.a.popScope()
		case tok.Is("${"):
			p.next()
			p.a.pushScope()
		case tok.Is("}$"):
			p.next()
			p.a.popScope()
		case tok.Is(":{"):
			p.next()
			p.a.pushScope()
		case tok.Is("}:"):
			p.next()
			p.a.popScope()
		case tok.Is("?{"):
			if err := p.parseCondScope(); err != nil {
				return err
			}
		case tok.Is("@") && p.peekAt(1).Kind == KindText:
			if err := p.parseMacroDef(); err != nil {
				return err
			}
		case tok.Is("$") && p.peekAt(1).Kind == KindText && p.peekAt(2).Is("="):
			if err := p.parseVarAssign(); err != nil {
				return err
			}
		case tok.Kind == KindText && p.peekAt(1).Is(":"):
			name := p.next().Text
			p.next() // ':'
			if err := p.a.defineLabel(name, p.a.curAddr()); err != nil {
				return p.a.errf(tok, "%s", err.Error())
			}
		default:
			stmt := p.statementTokens()
			if len(stmt) == 0 {
				continue
			}
			if err := p.dispatchStatement(stmt); err != nil {
				return err
			}
		}
	}
}

// dispatchStatement handles whatever is left after the structural
// forms above: data literals and instructions (after variable splicing
// and macro expansion to a fixed point).
func (p *parser) dispatchStatement(stmt []Token) error {
	stmt = p.a.expandVars(stmt, map[string]bool{})
	if len(stmt) == 0 {
		return nil
	}

	if stmt[0].Kind == KindInt || stmt[0].Kind == KindString || stmt[0].Is("(") || stmt[0].Is(".") || stmt[0].Is("-") {
		return p.a.emitDataLiteral(stmt)
	}

	if stmt[0].Kind != KindText {
		return p.a.errf(stmt[0], "unexpected token %s", stmt[0].String())
	}

	expanded, err := p.a.expandMacros(stmt, map[string]bool{})
	if err != nil {
		return err
	}
	return p.a.encodeInstruction(expanded)
}

// parseVarAssign handles `$name = tokens...`.
func (p *parser) parseVarAssign() error {
	p.next() // '$'
	name := p.next().Text
	p.next() // '='
	val := p.statementTokens()
	p.a.top().vars[name] = val
	return nil
}

// parseCondScope handles `?{ COND stmts... }?`; nesting is forbidden,
// and any enclosed instruction/macro that already names a condition is
// a hard error (checked in encodeInstruction).
func (p *parser) parseCondScope() error {
	open := p.next() // '?{'
	if _, nested := p.a.activeCond(); nested {
		return p.a.errf(open, "nested ?{ }? condition scopes are forbidden")
	}
	condTok := p.next()
	cond, ok := isa.CondByName(strings.ToUpper(condTok.Text))
	if !ok {
		return p.a.errf(condTok, "unknown condition %q", condTok.Text)
	}
	p.a.pushScope()
	p.a.top().cond = &cond

	for {
		p.skipEOLs()
		if p.peek().Is("}?") {
			p.next()
			break
		}
		if p.peek().Kind == KindEOF {
			return p.a.errf(open, "unterminated ?{ }? scope")
		}
		save := p.pos
		_ = save
		if err := p.runOne(); err != nil {
			return err
		}
	}
	p.a.popScope()
	return nil
}

// runOne executes a single top-level statement iteration, factored out
// of run() so parseCondScope can drive the same dispatch inside its
// bracket without re-entering the outer loop's EOF check.
func (p *parser) runOne() error {
	tok := p.peek()
	switch {
	case tok.Is("#"):
		return p.parseDirective()
	case tok.Is("@{"), tok.Is("${"), tok.Is(":{"):
		p.next()
		p.a.pushScope()
		return nil
	case tok.Is("}@"), tok.Is("}$"), tok.Is("}:"):
		p.next()
		p.a.popScope()
		return nil
	case tok.Is("@") && p.peekAt(1).Kind == KindText:
		return p.parseMacroDef()
	case tok.Is("$") && p.peekAt(1).Kind == KindText && p.peekAt(2).Is("="):
		return p.parseVarAssign()
	case tok.Kind == KindText && p.peekAt(1).Is(":"):
		name := p.next().Text
		p.next()
		return p.a.defineLabel(name, p.a.curAddr())
	default:
		stmt := p.statementTokens()
		if len(stmt) == 0 {
			return nil
		}
		return p.dispatchStatement(stmt)
	}
}
