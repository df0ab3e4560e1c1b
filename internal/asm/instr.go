// instr.go - pass D: instruction and data-literal encoding

package asm

import (
	"strings"

	"github.com/little32vm/little32/internal/isa"
)

// emitDataLiteral writes one literal (or queues a fixup for one still
// depending on a forward label) at the cursor and advances it.
func (a *Assembler) emitDataLiteral(stmt []Token) error {
	if len(stmt) == 1 && stmt[0].Kind == KindString {
		width := 1
		if !a.byteMode {
			width = 4
		}
		for _, ch := range []byte(stmt[0].Text) {
			a.storeAt(a.curAddr(), uint32(ch), width)
			a.advance(isa.Word(width))
		}
		return nil
	}

	width := 4
	if a.byteMode {
		width = 1
	}
	if width == 4 && a.curAddr()%4 != 0 {
		return a.errf(stmt[0], "word data must be word-aligned")
	}
	if err := a.tryResolveData(stmt, a.curAddr(), width); err != nil {
		return err
	}
	a.advance(isa.Word(width))
	return nil
}

// tryResolveData evaluates toks at addr; if a label is still missing it
// queues (or re-queues) a fixup under that label's name instead of
// failing, so an expression naming two different not-yet-defined
// labels resolves correctly once both become visible.
func (a *Assembler) tryResolveData(toks []Token, addr isa.Word, width int) error {
	v, missing, err := a.evalExpr(toks, addr)
	if err != nil {
		return err
	}
	if missing != "" {
		a.top().dataFixups[missing] = append(a.top().dataFixups[missing], dataFixup{Label: missing, Addr: addr, Toks: toks, Width: width})
		return nil
	}
	if width == 1 {
		if _, ok := v.TryToUN(8); !ok {
			if _, ok := v.TryToIN(8); !ok {
				return &Error{Message: "byte literal out of range"}
			}
		}
	}
	a.storeAt(addr, uint32(v.Int64()), width)
	return nil
}

// parsedInstr is the canonical shape pass B reduces an instruction
// statement to, per §4.4 pass B's instruction record.
type parsedInstr struct {
	mnemonic string
	hasCond  bool
	cond     isa.Cond
	n        bool
	s        bool
	shift    uint8
	args     []Token // comma-split raw operand token groups, flattened with separators kept for register-list parsing
}

// parseInstrHead splits the mnemonic, optional "?COND" token, and N/S
// flag letters off of stmt, returning the remaining raw argument
// tokens (still containing their separating commas).
func (a *Assembler) parseInstrHead(stmt []Token) (parsedInstr, []Token, error) {
	var pi parsedInstr
	mnemTok := stmt[0]
	rest := stmt[1:]

	text := mnemTok.Text
	if len(rest) > 0 && rest[0].Is("?") && len(rest) > 1 && rest[1].Kind == KindText {
		cond, ok := isa.CondByName(strings.ToUpper(rest[1].Text))
		if !ok {
			return pi, nil, a.errf(rest[1], "unknown condition %q", rest[1].Text)
		}
		pi.hasCond = true
		pi.cond = cond
		rest = rest[2:]
	}

	branch := text == "B" || text == "BL" || text == "RET" || text == "RFE"

	if !branch {
		if strings.HasPrefix(text, "N") {
			if _, ok := isa.OpcodeByName(text[1:]); ok {
				pi.n = true
				text = text[1:]
			} else if _, ok := isa.FPUOpByName(text[1:]); ok {
				pi.n = true
				text = text[1:]
			}
		}
		if strings.HasSuffix(text, "S") && len(text) > 1 {
			if _, ok := isa.OpcodeByName(text[:len(text)-1]); ok {
				pi.s = true
				text = text[:len(text)-1]
			}
		}
	}
	pi.mnemonic = text
	return pi, rest, nil
}

func isFPUMnemonic(name string) bool {
	_, ok := isa.FPUOpByName(name)
	return ok
}

// resolveCond merges the instruction's own ?COND (if any) with an
// enclosing ?{ }? scope's condition; specifying both is a hard error.
func (a *Assembler) resolveCond(pi parsedInstr, tok Token) (isa.Cond, error) {
	scopeCond, hasScope := a.activeCond()
	switch {
	case pi.hasCond && hasScope:
		return 0, a.errf(tok, "condition specified both on the instruction and by an enclosing ?{ }? scope")
	case pi.hasCond:
		return pi.cond, nil
	case hasScope:
		return scopeCond, nil
	default:
		return isa.CondAL, nil
	}
}

// encodeInstruction is the normal (non-fixup-resolution) entry point:
// it reserves the next instruction word, attempts to encode it, and
// advances the cursor regardless of whether encoding fully resolved
// (an outstanding fixup will overwrite the placeholder word later).
func (a *Assembler) encodeInstruction(stmt []Token) error {
	if a.curAddr()%4 != 0 {
		return a.errf(stmt[0], "instruction address must be word-aligned")
	}
	addr := a.curAddr()
	if err := a.tryEncodeInstruction(stmt, addr); err != nil {
		return err
	}
	a.advance(4)
	return nil
}

// tryEncodeInstruction fully parses and encodes stmt at addr. If an
// operand expression names a still-undefined label, the raw statement
// is queued as an instrFixup under that label instead of failing.
func (a *Assembler) tryEncodeInstruction(stmt []Token, addr isa.Word) error {
	pi, argToks, err := a.parseInstrHead(stmt)
	if err != nil {
		return err
	}
	cond, err := a.resolveCond(pi, stmt[0])
	if err != nil {
		return err
	}

	switch pi.mnemonic {
	case "B", "BL":
		return a.encodeBranch(pi, cond, argToks, addr, stmt)
	case "RET", "RFE":
		return a.encodeReturn(pi, cond, stmt[0])
	}
	if isFPUMnemonic(pi.mnemonic) {
		return a.encodeFPU(pi, cond, argToks, addr, stmt)
	}
	if pi.mnemonic == "SWR" || pi.mnemonic == "SRR" {
		return a.encodeRegList(pi, cond, argToks, addr, stmt)
	}
	if pi.mnemonic == "MVM" || pi.mnemonic == "SWP" {
		return a.encodeMoveSwap(pi, cond, argToks, addr, stmt)
	}
	if op, ok := isa.OpcodeByName(pi.mnemonic); ok {
		return a.encodeArith(pi, op, cond, argToks, addr, stmt)
	}
	if pi.mnemonic == "RRW" || pi.mnemonic == "RWW" || pi.mnemonic == "RRB" || pi.mnemonic == "RWB" {
		return a.encodeLoadStore(pi, cond, argToks, addr, stmt)
	}
	return a.errf(stmt[0], "unknown mnemonic %q", pi.mnemonic)
}

// queueInstrFixup defers stmt's encoding until label resolves, used by
// every encode* helper below the moment evalExpr reports a forward
// reference instead of a value.
func (a *Assembler) queueInstrFixup(label string, addr isa.Word, stmt []Token) {
	a.top().instrFixups[label] = append(a.top().instrFixups[label], instrFixup{Label: label, Addr: addr, Toks: stmt})
}
