// macro.go - variable splicing and user-macro expansion to a fixed point

package asm

import "strings"

// parseMacroDef handles `@NAME<K> body...` / `@NAME<...> body...` /
// `@NAME body...` (the last two are both variadic).
func (p *parser) parseMacroDef() error {
	p.next() // '@'
	nameTok := p.next()
	if nameTok.Kind != KindText {
		return p.a.errf(nameTok, "expected macro name after '@'")
	}
	if nameTok.Text != strings.ToUpper(nameTok.Text) {
		return p.a.errf(nameTok, "macro names must be all-uppercase: %s", nameTok.Text)
	}
	if strings.HasPrefix(nameTok.Text, "N") || strings.HasSuffix(nameTok.Text, "S") {
		return p.a.errf(nameTok, "macro name %q collides with the N/S flag-letter convention", nameTok.Text)
	}

	m := &Macro{Name: nameTok.Text}
	if p.peek().Is("<") {
		p.next()
		if p.peek().Is("...") {
			p.next()
			m.Variadic = true
		} else {
			arityTok := p.next()
			if arityTok.Kind != KindInt {
				return p.a.errf(arityTok, "expected arity integer or '...' inside '<>'")
			}
			m.Arity = int(arityTok.Int)
		}
		if !p.peek().Is(">") {
			return p.a.errf(p.peek(), "expected '>' closing macro arity")
		}
		p.next()
	} else {
		m.Variadic = true
	}

	m.Body = p.statementTokens()
	p.a.top().macros[m.Name] = m
	return nil
}

// expandVars splices every `$name` reference in toks with the token
// list bound to name in the visible scope stack, recursively, with a
// visited-name guard against a variable whose body (directly or
// transitively) references itself.
func (a *Assembler) expandVars(toks []Token, visited map[string]bool) []Token {
	var out []Token
	for i := 0; i < len(toks); i++ {
		if toks[i].Is("$") && i+1 < len(toks) && toks[i+1].Kind == KindText {
			name := toks[i+1].Text
			if val, ok := a.lookupVar(name); ok && !visited[name] {
				child := map[string]bool{name: true}
				for k := range visited {
					child[k] = true
				}
				out = append(out, a.expandVars(val, child)...)
				i++
				continue
			}
		}
		out = append(out, toks[i])
	}
	return out
}

// splitArgs breaks a macro-invocation argument list on top-level commas
// (commas nested inside (), [], {} are not separators).
func splitArgs(toks []Token) [][]Token {
	if len(toks) == 0 {
		return nil
	}
	var args [][]Token
	var cur []Token
	depth := 0
	for _, t := range toks {
		switch {
		case t.Is("(") || t.Is("[") || t.Is("{"):
			depth++
		case t.Is(")") || t.Is("]") || t.Is("}"):
			depth--
		}
		if depth == 0 && t.Is(",") {
			args = append(args, cur)
			cur = nil
			continue
		}
		cur = append(cur, t)
	}
	args = append(args, cur)
	return args
}

func joinArgs(args [][]Token) []Token {
	var out []Token
	for i, a := range args {
		if i > 0 {
			out = append(out, Token{Kind: KindPunct, Text: ","})
		}
		out = append(out, a...)
	}
	return out
}

// expandMacros re-matches stmt against the visible macro stack until a
// fixed point (stmt[0] no longer names a macro) or a cycle (the same
// macro definition revisited), which is a recursive-expansion error.
func (a *Assembler) expandMacros(stmt []Token, visited map[string]bool) ([]Token, error) {
	if len(stmt) == 0 || stmt[0].Kind != KindText {
		return stmt, nil
	}
	m, ok := a.lookupMacro(stmt[0].Text)
	if !ok {
		return stmt, nil
	}
	if visited[m.Name] {
		return nil, &Error{Line: stmt[0].Line, Col: stmt[0].Col, Message: "recursive macro expansion: " + m.Name}
	}

	args := splitArgs(stmt[1:])
	if !m.Variadic && len(args) != m.Arity {
		return nil, &Error{Line: stmt[0].Line, Col: stmt[0].Col,
			Message: "macro " + m.Name + " expects " + itoa(m.Arity) + " argument(s), got " + itoa(len(args))}
	}

	var out []Token
	for i := 0; i < len(m.Body); i++ {
		t := m.Body[i]
		if t.Is("@") && i+1 < len(m.Body) && m.Body[i+1].Kind == KindInt {
			idx := int(m.Body[i+1].Int)
			if idx < 0 || idx >= len(args) {
				return nil, &Error{Line: t.Line, Col: t.Col, Message: "macro argument @" + itoa(idx) + " out of range"}
			}
			out = append(out, args[idx]...)
			i++
			continue
		}
		if t.Is("...") {
			out = append(out, joinArgs(args)...)
			continue
		}
		out = append(out, t)
	}

	child := map[string]bool{m.Name: true}
	for k := range visited {
		child[k] = true
	}
	return a.expandMacros(out, child)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
