// lexer.go - pass A: source text to token stream

package asm

import (
	"strconv"
	"strings"

	"github.com/little32vm/little32/internal/isa"
)

// punctuators is tried longest-first so multi-character operators never
// get split by a greedy single-character match. ROTL/ROTR are
// identifier-shaped and handled as a special case in lexIdent instead,
// since the identifier branch runs before this table is consulted.
var punctuators = []string{
	"${", "}$", "@{", "}@", "?{", "}?", ":{", "}:",
	"<<", ">>", "...", "<", ">",
	",", "(", ")", "[", "]", "{", "}",
	"+", "-", "*", "/", "%", "|", "&", "^", "~",
	".", "$", "@", "?", ":", "#", "=",
}

type lexer struct {
	src  string
	pos  int
	line int
	col  int
}

func newLexer(src string) *lexer { return &lexer{src: src, line: 1, col: 1} }

func (l *lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) peekByteAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *lexer) advance() byte {
	b := l.src[l.pos]
	l.pos++
	if b == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return b
}

// tokenize runs the whole of pass A over src, erasing comments and
// returning the flat token stream terminated by a single KindEOF.
func tokenize(src string) ([]Token, error) {
	l := newLexer(src)
	var toks []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == KindEOF {
			return toks, nil
		}
	}
}

func (l *lexer) next() (Token, error) {
	for {
		l.skipSpaces()
		if l.pos >= len(l.src) {
			return Token{Kind: KindEOF, Line: l.line, Col: l.col}, nil
		}
		if l.peekByte() == '/' && l.peekByteAt(1) == '/' {
			for l.pos < len(l.src) && l.peekByte() != '\n' {
				l.advance()
			}
			continue
		}
		if l.peekByte() == '/' && l.peekByteAt(1) == '*' {
			startLine, startCol := l.line, l.col
			l.advance()
			l.advance()
			closed := false
			for l.pos < len(l.src) {
				if l.peekByte() == '*' && l.peekByteAt(1) == '/' {
					l.advance()
					l.advance()
					closed = true
					break
				}
				l.advance()
			}
			if !closed {
				return Token{}, &Error{Line: startLine, Col: startCol, Message: "unterminated block comment"}
			}
			continue
		}
		break
	}

	line, col := l.line, l.col
	b := l.peekByte()

	if b == '\n' {
		l.advance()
		return Token{Kind: KindEOL, Text: "\\n", Line: line, Col: col}, nil
	}

	if b == '"' {
		return l.lexString(line, col)
	}

	if isDigit(b) {
		return l.lexNumber(line, col)
	}

	if isIdentStart(b) {
		return l.lexIdent(line, col)
	}

	for _, p := range punctuators {
		if strings.HasPrefix(l.src[l.pos:], p) {
			for range p {
				l.advance()
			}
			return Token{Kind: KindPunct, Text: p, Line: line, Col: col}, nil
		}
	}

	return Token{}, &Error{Line: line, Col: col, Message: "stray character '" + string(b) + "'"}
}

func (l *lexer) skipSpaces() {
	for l.pos < len(l.src) {
		switch l.peekByte() {
		case ' ', '\t', '\r':
			l.advance()
		default:
			return
		}
	}
}

func isDigit(b byte) bool      { return b >= '0' && b <= '9' }
func isIdentStart(b byte) bool { return b == '_' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') }
func isIdentCont(b byte) bool  { return isIdentStart(b) || isDigit(b) }

func (l *lexer) lexIdent(line, col int) (Token, error) {
	start := l.pos
	for l.pos < len(l.src) && isIdentCont(l.peekByte()) {
		l.advance()
	}
	text := l.src[start:l.pos]
	if text == "ROTL" || text == "ROTR" {
		return Token{Kind: KindPunct, Text: text, Line: line, Col: col}, nil
	}
	if reg, ok := isa.RegByName(strings.ToUpper(text)); ok && text == strings.ToUpper(text) {
		return Token{Kind: KindRegister, Text: text, Reg: reg, Line: line, Col: col}, nil
	}
	return Token{Kind: KindText, Text: text, Line: line, Col: col}, nil
}

func (l *lexer) lexNumber(line, col int) (Token, error) {
	start := l.pos
	isFloat := false

	if l.peekByte() == '0' && (l.peekByteAt(1) == 'x' || l.peekByteAt(1) == 'X') {
		l.advance()
		l.advance()
		for l.pos < len(l.src) && (isHex(l.peekByte()) || l.peekByte() == '_') {
			l.advance()
		}
		text := strings.ReplaceAll(l.src[start+2:l.pos], "_", "")
		v, err := strconv.ParseUint(text, 16, 64)
		if err != nil {
			return Token{}, &Error{Line: line, Col: col, Message: "invalid hex literal"}
		}
		return Token{Kind: KindInt, Int: int64(v), Text: l.src[start:l.pos], Line: line, Col: col}, nil
	}
	if l.peekByte() == '0' && (l.peekByteAt(1) == 'b' || l.peekByteAt(1) == 'B') {
		l.advance()
		l.advance()
		for l.pos < len(l.src) && (l.peekByte() == '0' || l.peekByte() == '1' || l.peekByte() == '_') {
			l.advance()
		}
		text := strings.ReplaceAll(l.src[start+2:l.pos], "_", "")
		v, err := strconv.ParseUint(text, 2, 64)
		if err != nil {
			return Token{}, &Error{Line: line, Col: col, Message: "invalid binary literal"}
		}
		return Token{Kind: KindInt, Int: int64(v), Text: l.src[start:l.pos], Line: line, Col: col}, nil
	}

	leadingZero := l.peekByte() == '0'
	for l.pos < len(l.src) && (isDigit(l.peekByte()) || l.peekByte() == '_') {
		l.advance()
	}
	if l.peekByte() == '.' && isDigit(l.peekByteAt(1)) {
		isFloat = true
		l.advance()
		for l.pos < len(l.src) && (isDigit(l.peekByte()) || l.peekByte() == '_') {
			l.advance()
		}
	}
	text := strings.ReplaceAll(l.src[start:l.pos], "_", "")
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Token{}, &Error{Line: line, Col: col, Message: "invalid float literal"}
		}
		return Token{Kind: KindFloat, Float: f, Text: text, Line: line, Col: col}, nil
	}
	if leadingZero && len(text) > 1 {
		return Token{}, &Error{Line: line, Col: col, Message: "leading-zero decimal literal is rejected: " + text}
	}
	v, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return Token{}, &Error{Line: line, Col: col, Message: "invalid integer literal"}
	}
	return Token{Kind: KindInt, Int: int64(v), Text: text, Line: line, Col: col}, nil
}

func isHex(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func (l *lexer) lexString(line, col int) (Token, error) {
	l.advance() // opening quote
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return Token{}, &Error{Line: line, Col: col, Message: "unterminated string literal"}
		}
		b := l.peekByte()
		if b == '"' {
			l.advance()
			break
		}
		if b == '\n' {
			return Token{}, &Error{Line: line, Col: col, Message: "unterminated string literal"}
		}
		if b == '\\' {
			l.advance()
			esc := l.advance()
			switch esc {
			case 'a':
				sb.WriteByte(0x07)
			case 'b':
				sb.WriteByte(0x08)
			case 'f':
				sb.WriteByte(0x0C)
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case 'v':
				sb.WriteByte(0x0B)
			case '0':
				sb.WriteByte(0)
			case '\\':
				sb.WriteByte('\\')
			case '"':
				sb.WriteByte('"')
			case 'x':
				hi := l.advance()
				lo := l.advance()
				v, err := strconv.ParseUint(string([]byte{hi, lo}), 16, 8)
				if err != nil {
					return Token{}, &Error{Line: line, Col: col, Message: "invalid \\x escape"}
				}
				sb.WriteByte(byte(v))
			default:
				sb.WriteByte(esc)
			}
			continue
		}
		sb.WriteByte(b)
		l.advance()
	}
	return Token{Kind: KindString, Text: sb.String(), Line: line, Col: col}, nil
}
