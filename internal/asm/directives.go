// directives.go - pass B preprocessor directives (#NAME args...)

package asm

import (
	"strings"

	"github.com/little32vm/little32/internal/isa"
)

func (p *parser) parseDirective() error {
	p.next() // '#'
	nameTok := p.next()
	if nameTok.Kind != KindText {
		return p.a.errf(nameTok, "expected directive name after '#'")
	}
	name := strings.ToUpper(nameTok.Text)
	args := p.statementTokens()
	a := p.a

	switch name {
	case "ALIGN":
		n, _, err := a.evalExpr(args, a.curAddr())
		if err != nil {
			return err
		}
		width := uint32(n.Int64())
		if width == 0 {
			return a.errf(nameTok, "#ALIGN width must be nonzero")
		}
		rem := a.curOffset % width
		if rem != 0 {
			a.advance(width - rem)
		}
		return nil

	case "ASCII", "ASCIZ":
		if len(args) != 1 || args[0].Kind != KindString {
			return a.errf(nameTok, "#%s expects a single string literal", name)
		}
		for _, ch := range []byte(args[0].Text) {
			a.storeAt(a.curAddr(), uint32(ch), 1)
			a.advance(1)
		}
		if name == "ASCIZ" {
			a.storeAt(a.curAddr(), 0, 1)
			a.advance(1)
		}
		return nil

	case "ASSEMBLE":
		if len(args) != 1 || args[0].Kind != KindString {
			return a.errf(nameTok, "#ASSEMBLE expects a single string path")
		}
		if a.loader == nil {
			return a.errf(nameTok, "#ASSEMBLE used but no file loader is configured")
		}
		src, err := a.loader(args[0].Text)
		if err != nil {
			return a.errf(args[0], "cannot read %q: %v", args[0].Text, err)
		}
		return a.Assemble(args[0].Text, src)

	case "BLOCK":
		n, _, err := a.evalExpr(args, a.curAddr())
		if err != nil {
			return err
		}
		count := n.Int64()
		for i := int64(0); i < count; i++ {
			a.storeAt(a.curAddr(), 0, 1)
			a.advance(1)
		}
		return nil

	case "BYTE":
		a.byteMode = true
		return nil
	case "WORD":
		a.byteMode = false
		return nil

	case "DATA":
		a.curRegion = "DATA"
		a.curOffset = 0
		return nil
	case "PROGRAM":
		a.curRegion = "PROGRAM"
		a.curOffset = 0
		return nil

	case "ENTRY":
		if a.entrySet {
			return a.errf(nameTok, "duplicate #ENTRY")
		}
		if a.curAddr()%4 != 0 {
			return a.errf(nameTok, "#ENTRY address must be word-aligned")
		}
		a.entrySet = true
		a.entry = a.curAddr()
		return nil

	case "RAM":
		return p.selectRegion("RAM", args, nameTok)
	case "ROM":
		return p.selectRegion("ROM", args, nameTok)

	case "RANDOM":
		n, _, err := a.evalExpr(args, a.curAddr())
		if err != nil {
			return err
		}
		for i := int64(0); i < n.Int64(); i++ {
			a.storeAt(a.curAddr(), uint32(a.nextRandom()), 1)
			a.advance(1)
		}
		return nil

	case "SEED":
		if len(args) == 0 {
			a.randState = 0x2545F4914F6CDD1D
			return nil
		}
		n, _, err := a.evalExpr(args, a.curAddr())
		if err != nil {
			return err
		}
		a.randState = uint64(n.Int64())
		return nil

	case "FILE":
		return p.fileDirective(nameTok, args)
	case "LINES":
		return p.linesDirective(nameTok, args)

	default:
		return a.errf(nameTok, "unknown directive #%s", nameTok.Text)
	}
}

// selectRegion switches the cursor to a configured region, honoring an
// optional trailing FORCE keyword that demands the region exist.
func (p *parser) selectRegion(name string, args []Token, nameTok Token) error {
	_ = args // FORCE is accepted but region absence is always fatal either way
	if _, ok := p.a.regions[name]; !ok {
		return p.a.errf(nameTok, "no %s region configured", name)
	}
	p.a.curRegion = name
	p.a.curOffset = 0
	return nil
}

// fileDirective implements #FILE "path": a 4-byte length word followed by
// the file's raw bytes and a trailing NUL, word-aligned at the cursor,
// reusing the same a.loader host hook #ASSEMBLE already goes through.
func (p *parser) fileDirective(nameTok Token, args []Token) error {
	a := p.a
	if a.loader == nil {
		return a.errf(nameTok, "#FILE used but no file loader is configured")
	}
	if len(args) != 1 || args[0].Kind != KindString {
		return a.errf(nameTok, "#FILE expects a single string path")
	}
	if a.curAddr()%4 != 0 {
		return a.errf(nameTok, "#FILE must start word-aligned")
	}
	contents, err := a.loader(args[0].Text)
	if err != nil {
		return a.errf(args[0], "cannot read %q: %v", args[0].Text, err)
	}

	a.storeAt(a.curAddr(), uint32(len(contents)), 4)
	a.advance(4)
	for _, ch := range []byte(contents) {
		a.storeAt(a.curAddr(), uint32(ch), 1)
		a.advance(1)
	}
	a.storeAt(a.curAddr(), 0, 1)
	a.advance(1)
	return nil
}

// linesDirective implements #LINES "path": a line count word, followed by
// one absolute pointer word per line, followed by the lines themselves
// packed back-to-back as NUL-terminated byte strings right after the
// pointer array — the same layout the original's two-cursor (pointer,
// then string-data) packing produces.
func (p *parser) linesDirective(nameTok Token, args []Token) error {
	a := p.a
	if a.loader == nil {
		return a.errf(nameTok, "#LINES used but no file loader is configured")
	}
	if len(args) != 1 || args[0].Kind != KindString {
		return a.errf(nameTok, "#LINES expects a single string path")
	}
	if a.curAddr()%4 != 0 {
		return a.errf(nameTok, "#LINES must start word-aligned")
	}
	contents, err := a.loader(args[0].Text)
	if err != nil {
		return a.errf(args[0], "cannot read %q: %v", args[0].Text, err)
	}
	lines := splitLines(contents)

	r := a.regions[a.curRegion]
	a.storeAt(a.curAddr(), uint32(len(lines)), 4)
	a.advance(4)

	arrayStart := a.curOffset
	strOffset := arrayStart + isa.Word(4*len(lines))
	for i, line := range lines {
		ptrAddr := r.Base + arrayStart + isa.Word(4*i)
		lineAddr := r.Base + strOffset
		a.storeAt(ptrAddr, uint32(lineAddr), 4)

		for _, ch := range []byte(line) {
			a.storeAt(r.Base+strOffset, uint32(ch), 1)
			strOffset++
		}
		a.storeAt(r.Base+strOffset, 0, 1)
		strOffset++
	}
	a.advance(strOffset - arrayStart)
	return nil
}

// splitLines mirrors std::getline's line splitting: CRLF and LF both
// terminate a line, and a file with no trailing newline still yields its
// last partial line (but a trailing newline does not yield one more,
// empty, line after it).
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

// nextRandom is a small xorshift64* generator, deterministic from
// #SEED so assembled #RANDOM blocks are reproducible across runs.
func (a *Assembler) nextRandom() uint64 {
	x := a.randState
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	a.randState = x
	return x * 0x2545F4914F6CDD1D
}
