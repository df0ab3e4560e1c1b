// disasm.go - instruction word to mnemonic text, one switch over Kind

package isa

import "fmt"

func condSuffix(c Cond) string {
	if c == CondAL {
		return ""
	}
	return " ?" + CondNames[c]
}

func regOrImm(immediate bool, r Reg, imm uint32, rotate uint8) string {
	if !immediate {
		if rotate != 0 {
			return fmt.Sprintf("%s ROTL %d", RegNames[r], int(rotate)*2)
		}
		return RegNames[r]
	}
	v := RotateReconstruct(imm, rotate)
	return fmt.Sprintf("0x%X", v)
}

// Disassemble renders w as one line of Little32 assembly text, grounded
// on the same opcode/condition tables the assembler encodes from and the
// teacher's one-switch-over-instruction-class disassembler shape.
func Disassemble(w Word) string {
	f := Decode(w)
	switch f.Kind {
	case KindArith:
		op := Opcodes[f.OpcodeValue]
		name := op.Mnemonic
		if f.N {
			name = "N" + name
		}
		if f.S && op.AllowS {
			name += "S"
		}
		if op.Packing2 != PackNone {
			f2 := Decode2Op(w)
			return fmt.Sprintf("%s%s %s, %s", name, condSuffix(f.Cond), RegNames[f2.Rd], regOrImm(f2.Immediate, f2.Rm, f2.Imm, f2.Rotate))
		}
		return fmt.Sprintf("%s%s %s, %s, %s", name, condSuffix(f.Cond), RegNames[f.Rd], RegNames[f.Rn], regOrImm(f.Immediate, f.Rm, f.Imm, f.Rotate))

	case KindBranch:
		if f.IsReturn {
			if f.Link {
				return "RET" + condSuffix(f.Cond)
			}
			return "RFE" + condSuffix(f.Cond)
		}
		name := "B"
		if f.Link {
			name = "BL"
		}
		sign := ""
		if f.N {
			sign = "-"
		}
		return fmt.Sprintf("%s%s %s0x%X", name, condSuffix(f.Cond), sign, f.Offset*4)

	case KindLoadStore:
		name := map[[2]bool]string{
			{false, false}: "RRW", {false, true}: "RWW",
			{true, false}: "RRB", {true, true}: "RWB",
		}[[2]bool{f.Byte, f.Write}]
		sign := "+"
		if f.N {
			sign = "-"
		}
		if f.Immediate {
			v := RotateReconstruct(f.Imm, f.Rotate)
			return fmt.Sprintf("%s%s %s, [%s, %s0x%X]", name, condSuffix(f.Cond), RegNames[f.Rd], RegNames[f.Rn], sign, v)
		}
		return fmt.Sprintf("%s%s %s, [%s, %s]", name, condSuffix(f.Cond), RegNames[f.Rd], RegNames[f.Rn], RegNames[f.Rm])

	case KindRegList:
		name := "SRR"
		if f.Write {
			name = "SWR"
		}
		return fmt.Sprintf("%s%s %s, {%s}", name, condSuffix(f.Cond), RegNames[f.Base], regListText(f.List))

	case KindMoveSwap:
		if f.Swap {
			rot := ""
			if f.Rotate != 0 {
				rot = fmt.Sprintf(" ROTL %d", int(f.Rotate)*2)
			}
			return fmt.Sprintf("SWP%s %s, %s%s", condSuffix(f.Cond), RegNames[f.Base], RegNames[f.Rm2], rot)
		}
		return fmt.Sprintf("MVM%s %s, {%s}", condSuffix(f.Cond), RegNames[f.Base], regListText(f.List))

	case KindFPU:
		op := FPUOps[f.FPUOp]
		name := op.Mnemonic
		if f.N {
			name = "N" + name
		}
		if op.Packing == PackReg2 {
			return fmt.Sprintf("%s%s %s, %s", name, condSuffix(f.Cond), RegNames[f.Rd], RegNames[f.Rm])
		}
		return fmt.Sprintf("%s%s %s, %s, %s", name, condSuffix(f.Cond), RegNames[f.Rd], RegNames[f.Rn], RegNames[f.Rm])

	default:
		return "NOP" // undefined encoding, executed as a no-op (§4.2)
	}
}

func regListText(list uint16) string {
	s := ""
	for r := 0; r < 16; r++ {
		if list&(1<<r) == 0 {
			continue
		}
		if s != "" {
			s += ", "
		}
		s += RegNames[r]
	}
	return s
}
