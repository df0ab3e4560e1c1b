// operands.go - pass D step 3/4: register lists, bracketed memory
// operands, flex-operand resolution, and the per-class encoders

package asm

import (
	"github.com/little32vm/little32/internal/isa"
)

// parseRegList expands `{R0, R2-R5}` into a 16-bit bitmask. toks must
// span the full brace group, braces included.
func (a *Assembler) parseRegList(toks []Token) (uint16, error) {
	if len(toks) < 2 || !toks[0].Is("{") || !toks[len(toks)-1].Is("}") {
		return 0, a.errf(toks[0], "expected register list in { }")
	}
	inner := toks[1 : len(toks)-1]
	var mask uint16
	for _, group := range splitArgs(inner) {
		if len(group) == 0 {
			continue
		}
		if group[0].Kind != KindRegister {
			return 0, a.errf(group[0], "expected register in list")
		}
		if len(group) == 1 {
			mask |= 1 << group[0].Reg
			continue
		}
		if len(group) == 3 && group[1].Is("-") && group[2].Kind == KindRegister {
			lo, hi := group[0].Reg, group[2].Reg
			if lo > hi {
				lo, hi = hi, lo
			}
			for r := lo; r <= hi; r++ {
				mask |= 1 << r
			}
			continue
		}
		return 0, a.errf(group[0], "malformed register list entry")
	}
	return mask, nil
}

// bracketOperand is the canonicalized form of `[R, +off]`.
type bracketOperand struct {
	base    isa.Reg
	neg     bool
	isReg   bool
	offReg  isa.Reg
	offToks []Token // offset expression tokens, when !isReg
}

func (a *Assembler) parseBracket(toks []Token) (bracketOperand, error) {
	var b bracketOperand
	if len(toks) < 2 || !toks[0].Is("[") || !toks[len(toks)-1].Is("]") {
		return b, a.errf(toks[0], "expected memory operand in [ ]")
	}
	inner := toks[1 : len(toks)-1]
	if len(inner) == 0 || inner[0].Kind != KindRegister {
		return b, a.errf(toks[0], "expected base register in [ ]")
	}
	b.base = inner[0].Reg
	rest := inner[1:]
	if len(rest) == 0 {
		return b, nil
	}
	if !rest[0].Is(",") {
		return b, a.errf(rest[0], "expected ',' after base register")
	}
	rest = rest[1:]
	if len(rest) > 0 && (rest[0].Is("+") || rest[0].Is("-")) {
		b.neg = rest[0].Is("-")
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return b, a.errf(toks[0], "expected offset after ','")
	}
	if len(rest) == 1 && rest[0].Kind == KindRegister {
		b.isReg = true
		b.offReg = rest[0].Reg
		return b, nil
	}
	b.offToks = rest
	return b, nil
}

// flexResult is what resolving a flex operand (register-or-immediate,
// both with an even barrel rotate) produces.
type flexResult struct {
	isReg      bool
	reg        isa.Reg
	rotateIdx  uint8
	immField   uint32
	missing    string
	complement bool // true: caller must swap to op.Complement
}

// rotateSuffix consumes a trailing "ROTL"/"ROTR" rotate-amount suffix
// on a register flex operand; the amount must be a resolvable constant
// and even (only 4 bits of rotate field are available). The field holds
// a left rotation, so ROTR n is stored as ROTL 32-n.
func (a *Assembler) rotateSuffix(toks []Token, addr isa.Word) (uint8, error) {
	if len(toks) == 0 {
		return 0, nil
	}
	if !toks[0].Is("ROTL") && !toks[0].Is("ROTR") {
		return 0, a.errf(toks[0], "unexpected token after register operand")
	}
	v, missing, err := a.evalExpr(toks[1:], addr)
	if err != nil {
		return 0, err
	}
	if missing != "" {
		return 0, a.errf(toks[0], "rotate amount must be a resolvable constant")
	}
	amt := v.Int64()
	if amt < 0 || amt > 30 || amt%2 != 0 {
		return 0, a.errf(toks[0], "register rotate must be even and in 0..30")
	}
	if toks[0].Is("ROTR") && amt != 0 {
		amt = 32 - amt
	}
	return uint8(amt / 2), nil
}

// resolveFlex interprets one operand token group as a flex operand:
// bare register, register with an explicit ROTL/ROTR amount, or a
// constant expression packed through the immediate-fit search.
func (a *Assembler) resolveFlex(toks []Token, addr isa.Word, width uint, complementOK bool) (flexResult, error) {
	var r flexResult
	if len(toks) > 0 && toks[0].Kind == KindRegister {
		r.isReg = true
		r.reg = toks[0].Reg
		idx, err := a.rotateSuffix(toks[1:], addr)
		if err != nil {
			return r, err
		}
		r.rotateIdx = idx
		return r, nil
	}

	v, missing, err := a.evalExpr(toks, addr)
	if err != nil {
		return r, err
	}
	if missing != "" {
		r.missing = missing
		return r, nil
	}
	raw := uint32(v.Int64())
	if field, idx, ok := isa.RotateSearch(raw, width); ok {
		r.immField = field
		r.rotateIdx = idx
		return r, nil
	}
	if complementOK {
		neg := uint32(-v.Int64())
		if field, idx, ok := isa.RotateSearch(neg, width); ok {
			r.immField = field
			r.rotateIdx = idx
			r.complement = true
			return r, nil
		}
	}
	return r, a.errf(toks[0], "immediate out of range after rotate search")
}

// encodeArith assembles any of the 16 arithmetic/logic mnemonics.
func (a *Assembler) encodeArith(pi parsedInstr, op isa.Opcode, cond isa.Cond, argToks []Token, addr isa.Word, stmt []Token) error {
	groups := splitArgs(argToks)
	tok := stmt[0]

	if pi.s && !op.AllowS {
		return a.errf(tok, "S is not valid on %s", op.Mnemonic)
	}

	var rd Token
	var operandToks []Token
	var width uint
	var packing isa.Packing

	switch {
	case len(groups) == 3 && op.Packing3 != isa.PackNone:
		packing = op.Packing3
		width = 8
	case len(groups) == 2 && op.Packing2 != isa.PackNone:
		packing = op.Packing2
		width = 12
	default:
		return a.errf(tok, "wrong argument count for %s", op.Mnemonic)
	}

	if groups[0][0].Kind != KindRegister {
		return a.errf(groups[0][0], "expected destination register")
	}
	rd = groups[0][0]

	var rn isa.Reg = isa.RegUnused
	if packing == op.Packing3 && op.Packing3 != isa.PackNone {
		if groups[1][0].Kind != KindRegister {
			return a.errf(groups[1][0], "expected source register")
		}
		rn = groups[1][0].Reg
		operandToks = groups[2]
	} else {
		operandToks = groups[1]
	}

	flex, err := a.resolveFlex(operandToks, addr, width, op.Complement != "")
	if err != nil {
		return err
	}
	if flex.missing != "" {
		a.queueInstrFixup(flex.missing, addr, stmt)
		return nil
	}

	opcodeValue := op.Value
	if flex.complement {
		comp, _ := isa.OpcodeByName(op.Complement)
		opcodeValue = comp.Value
	}

	f := isa.Fields{
		Kind:        isa.KindArith,
		Cond:        cond,
		N:           pi.n,
		OpcodeValue: opcodeValue,
		S:           pi.s,
		Rd:          rd.Reg,
		Rn:          rn,
		Rotate:      flex.rotateIdx,
	}
	if flex.isReg {
		f.Immediate = false
		f.Rm = flex.reg
	} else {
		f.Immediate = true
		f.Imm = flex.immField
	}

	a.storeAt(addr, isa.Encode(f), 4)
	return nil
}

// encodeBranch assembles B/BL, deriving N automatically from whether
// the target lies before or after the instruction.
func (a *Assembler) encodeBranch(pi parsedInstr, cond isa.Cond, argToks []Token, addr isa.Word, stmt []Token) error {
	if len(argToks) == 0 {
		return a.errf(stmt[0], "branch requires a target")
	}
	v, missing, err := a.evalExpr(argToks, addr)
	if err != nil {
		return err
	}
	if missing != "" {
		a.queueInstrFixup(missing, addr, stmt)
		return nil
	}
	diff := (v.Int64() - int64(addr) - 4) / 4
	neg := diff < 0
	if neg {
		diff = -diff
	}
	f := isa.Fields{
		Kind:   isa.KindBranch,
		Cond:   cond,
		N:      neg,
		Link:   pi.mnemonic == "BL",
		Offset: uint32(diff) & 0x00FFFFFF,
	}
	a.storeAt(addr, isa.Encode(f), 4)
	return nil
}

func (a *Assembler) encodeReturn(pi parsedInstr, cond isa.Cond, tok Token) error {
	f := isa.Fields{
		Kind:     isa.KindBranch,
		Cond:     cond,
		N:        true,
		Link:     pi.mnemonic == "RET",
		Offset:   0,
		IsReturn: true,
	}
	a.storeAt(a.curAddr(), isa.Encode(f), 4)
	return nil
}

// encodeLoadStore assembles RRW/RWW/RRB/RWB: `OP Rd, [Rn, +-off]`.
func (a *Assembler) encodeLoadStore(pi parsedInstr, cond isa.Cond, argToks []Token, addr isa.Word, stmt []Token) error {
	groups := splitArgs(argToks)
	if len(groups) != 2 {
		return a.errf(stmt[0], "%s expects (register, [base, offset])", pi.mnemonic)
	}
	if groups[0][0].Kind != KindRegister {
		return a.errf(groups[0][0], "expected data register")
	}
	rd := groups[0][0].Reg

	b, err := a.parseBracket(groups[1])
	if err != nil {
		return err
	}

	f := isa.Fields{
		Kind:  isa.KindLoadStore,
		Cond:  cond,
		N:     b.neg,
		Byte:  pi.mnemonic == "RRB" || pi.mnemonic == "RWB",
		Write: pi.mnemonic == "RWW" || pi.mnemonic == "RWB",
		Rd:    rd,
		Rn:    b.base,
	}
	switch {
	case b.isReg:
		f.Immediate = false
		f.Rm = b.offReg
	case len(b.offToks) == 0:
		f.Immediate = true
	default:
		v, missing, err := a.evalExpr(b.offToks, addr)
		if err != nil {
			return err
		}
		if missing != "" {
			a.queueInstrFixup(missing, addr, stmt)
			return nil
		}
		field, idx, ok := isa.RotateSearch(uint32(v.Int64()), 8)
		if !ok {
			return a.errf(stmt[0], "load/store offset out of range after rotate search")
		}
		f.Immediate = true
		f.Imm = field
		f.Rotate = idx
	}

	a.storeAt(addr, isa.Encode(f), 4)
	return nil
}

// encodeRegList assembles SWR/SRR: `OP Rbase, {list}`.
func (a *Assembler) encodeRegList(pi parsedInstr, cond isa.Cond, argToks []Token, addr isa.Word, stmt []Token) error {
	groups := splitArgs(argToks)
	if len(groups) != 2 {
		return a.errf(stmt[0], "%s expects (base register, {list})", pi.mnemonic)
	}
	if groups[0][0].Kind != KindRegister {
		return a.errf(groups[0][0], "expected base register")
	}
	list, err := a.parseRegList(groups[1])
	if err != nil {
		return err
	}
	f := isa.Fields{
		Kind:  isa.KindRegList,
		Cond:  cond,
		N:     pi.n,
		Write: pi.mnemonic == "SWR",
		Base:  groups[0][0].Reg,
		List:  list,
	}
	a.storeAt(addr, isa.Encode(f), 4)
	return nil
}

// encodeMoveSwap assembles MVM (`MVM Rbase, {list}`) and SWP
// (`SWP Rbase, Rm`, optionally with a ROTL/ROTR on Rm).
func (a *Assembler) encodeMoveSwap(pi parsedInstr, cond isa.Cond, argToks []Token, addr isa.Word, stmt []Token) error {
	groups := splitArgs(argToks)
	if len(groups) != 2 {
		return a.errf(stmt[0], "%s expects two operands", pi.mnemonic)
	}
	if groups[0][0].Kind != KindRegister {
		return a.errf(groups[0][0], "expected base register")
	}
	f := isa.Fields{
		Kind: isa.KindMoveSwap,
		Cond: cond,
		N:    pi.n,
		Base: groups[0][0].Reg,
		Swap: pi.mnemonic == "SWP",
	}
	if f.Swap {
		if groups[1][0].Kind != KindRegister {
			return a.errf(groups[1][0], "expected second register")
		}
		f.Rm2 = groups[1][0].Reg
		idx, err := a.rotateSuffix(groups[1][1:], addr)
		if err != nil {
			return err
		}
		f.Rotate = idx
	} else {
		list, err := a.parseRegList(groups[1])
		if err != nil {
			return err
		}
		f.List = list
	}
	a.storeAt(addr, isa.Encode(f), 4)
	return nil
}

// encodeFPU assembles ADDF/SUBF/MULF/DIVF (Rd, Rn, Rm) and
// ITOF/FTOI/CMPF/CMPFI (Rd, Rm), with an optional ROTL/ROTR on Rm.
func (a *Assembler) encodeFPU(pi parsedInstr, cond isa.Cond, argToks []Token, addr isa.Word, stmt []Token) error {
	op, _ := isa.FPUOpByName(pi.mnemonic)
	groups := splitArgs(argToks)

	f := isa.Fields{Kind: isa.KindFPU, Cond: cond, N: pi.n, FPUOp: op.Value}

	switch op.Packing {
	case isa.PackReg3:
		if len(groups) != 3 {
			return a.errf(stmt[0], "%s expects three registers", pi.mnemonic)
		}
		if groups[0][0].Kind != KindRegister || groups[1][0].Kind != KindRegister || groups[2][0].Kind != KindRegister {
			return a.errf(stmt[0], "%s operands must be registers", pi.mnemonic)
		}
		f.Rd, f.Rn, f.Rm = groups[0][0].Reg, groups[1][0].Reg, groups[2][0].Reg
		idx, err := a.rotateSuffix(groups[2][1:], addr)
		if err != nil {
			return err
		}
		f.Rotate = idx
	case isa.PackReg2:
		if len(groups) != 2 {
			return a.errf(stmt[0], "%s expects two registers", pi.mnemonic)
		}
		if groups[0][0].Kind != KindRegister || groups[1][0].Kind != KindRegister {
			return a.errf(stmt[0], "%s operands must be registers", pi.mnemonic)
		}
		f.Rd, f.Rm = groups[0][0].Reg, groups[1][0].Reg
		idx, err := a.rotateSuffix(groups[1][1:], addr)
		if err != nil {
			return err
		}
		f.Rotate = idx
	}

	a.storeAt(addr, isa.Encode(f), 4)
	return nil
}
