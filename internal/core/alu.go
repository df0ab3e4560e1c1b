// alu.go - arithmetic/logic class dispatch and flag computation

package core

import "github.com/little32vm/little32/internal/isa"

// addWithCarry adds a, b, and carryIn (0 or 1) using sign-extended 33-bit
// arithmetic so the carry-out and signed-overflow flags fall out exactly
// as described in §4.3's flag-setting rule: C is the carry out of bit 32,
// V is set when the sign of the full-precision signed result disagrees
// with the sign of the truncated 32-bit result.
func addWithCarry(a, b, carryIn isa.Word) (result isa.Word, c, v bool) {
	usum := uint64(a) + uint64(b) + uint64(carryIn)
	result = isa.Word(usum)
	c = usum>>32 != 0
	full := int64(int32(a)) + int64(int32(b)) + int64(carryIn)
	v = full != int64(int32(result))
	return
}

// subWithBorrow computes a - b - borrowIn via the standard two's
// complement identity a + ^b + (1 - borrowIn), reusing addWithCarry so
// its carry/overflow computation stays in one place.
func subWithBorrow(a, b, borrowIn isa.Word) (result isa.Word, c, v bool) {
	return addWithCarry(a, ^b, 1-borrowIn)
}

func (c *Core) carryIn() isa.Word {
	if c.flags.C {
		return 1
	}
	return 0
}

func negMask(n bool) isa.Word {
	if n {
		return 0xFFFFFFFF
	}
	return 0
}

// execArith dispatches every arithmetic/logic mnemonic. word is the raw
// instruction, needed to re-decode the 2-operand layout when the
// mnemonic in question doesn't take 3 operands (Decode always populates
// the 3-operand fields; Decode2Op corrects Rn/Imm/Rm for the 2-operand
// layout, where the immediate spans bits 15..4 instead of 11..4).
func (c *Core) execArith(f isa.Fields, word isa.Word) {
	op := isa.Opcodes[f.OpcodeValue]
	if op.Packing3 == isa.PackNone {
		f = isa.Decode2Op(word)
	}

	operand := c.flexOperand(f)

	var a isa.Word
	if op.Packing3 != isa.PackNone {
		a = c.regs[f.Rn]
	} else {
		a = c.regs[f.Rd]
	}

	var result isa.Word
	var setFlags func()

	switch op.Mnemonic {
	case "ADD", "CMN":
		sum, carry, overflow := addWithCarry(a, operand, 0)
		if f.N {
			sum = -sum
		}
		result = sum
		setFlags = func() {
			c.flags.N = result>>31 == 1
			c.flags.Z = result == 0
			c.flags.C = carry
			c.flags.V = overflow
		}
	case "SUB", "CMP":
		diff, carry, overflow := subWithBorrow(a, operand, 0)
		if f.N {
			diff = -diff
		}
		result = diff
		setFlags = func() {
			c.flags.N = result>>31 == 1
			c.flags.Z = result == 0
			c.flags.C = carry
			c.flags.V = overflow
		}
	case "ADC":
		sum, carry, overflow := addWithCarry(a, operand, c.carryIn())
		if f.N {
			sum = -sum
		}
		result = sum
		setFlags = func() {
			c.flags.N = result>>31 == 1
			c.flags.Z = result == 0
			c.flags.C = carry
			c.flags.V = overflow
		}
	case "SBB":
		diff, carry, overflow := subWithBorrow(a, operand, 1-c.carryIn())
		if f.N {
			diff = -diff
		}
		result = diff
		setFlags = func() {
			c.flags.N = result>>31 == 1
			c.flags.Z = result == 0
			c.flags.C = carry
			c.flags.V = overflow
		}
	case "ASL":
		shift := operand & 31
		shifted := a << shift
		if f.N {
			shifted = -shifted
		}
		result = shifted
		setFlags = func() {
			c.flags.N = result>>31 == 1
			c.flags.Z = result == 0
			c.flags.C = shift != 0 && (a>>(32-shift)) != 0
			c.flags.V = result>>31 != a>>31
		}
	case "ASR":
		shift := operand & 31
		shifted := isa.Word(int32(a) >> shift)
		if f.N {
			shifted = -shifted
		}
		result = shifted
		setFlags = func() {
			c.flags.N = result>>31 == 1
			c.flags.Z = result == 0
			c.flags.C = shift != 0 && (a>>(shift-1))&1 != 0
			c.flags.V = result>>31 != a>>31
		}
	case "LSL":
		shift := operand & 31
		shifted := a << shift
		if f.N {
			shifted = -shifted
		}
		result = shifted
		setFlags = func() {
			c.flags.N = result>>31 == 1
			c.flags.Z = result == 0
			c.flags.C = shift != 0 && (a>>(32-shift)) != 0
			c.flags.V = result>>31 != a>>31
		}
	case "LSR":
		shift := operand & 31
		shifted := a >> shift
		if f.N {
			shifted = -shifted
		}
		result = shifted
		setFlags = func() {
			c.flags.N = result>>31 == 1
			c.flags.Z = result == 0
			c.flags.C = shift != 0 && (a>>(shift-1))&1 != 0
			c.flags.V = result>>31 != a>>31
		}
	case "ORR":
		result = (a | operand) ^ negMask(f.N)
		setFlags = func() {
			c.flags.N = result>>31 == 1
			c.flags.Z = result == 0
			c.flags.C = false
			c.flags.V = false
		}
	case "AND":
		result = (a & operand) ^ negMask(f.N)
		setFlags = func() {
			c.flags.N = result>>31 == 1
			c.flags.Z = result == 0
			c.flags.C = false
			c.flags.V = false
		}
	case "XOR":
		result = (a ^ operand) ^ negMask(f.N)
		setFlags = func() {
			c.flags.N = result>>31 == 1
			c.flags.Z = result == 0
			c.flags.C = false
			c.flags.V = false
		}
	case "TST":
		result = a & (operand ^ negMask(f.N))
		setFlags = func() {
			c.flags.N = result>>31 == 1
			c.flags.Z = result == 0
			c.flags.C = false
			c.flags.V = false
		}
	case "MOV":
		result = operand ^ negMask(f.N)
		setFlags = func() {
			c.flags.N = result>>31 == 1
			c.flags.Z = result == 0
			c.flags.C = false
			c.flags.V = result>>31 != operand>>31
		}
	case "INV":
		negated := -operand
		result = negated ^ negMask(f.N)
		setFlags = func() {
			c.flags.N = result>>31 == 1
			c.flags.Z = result == 0
			c.flags.C = false
			c.flags.V = result>>31 != negated>>31
		}
	default:
		return
	}

	if op.AlwaysFlags || f.S {
		setFlags()
	}
	if !op.AlwaysFlags {
		c.regs[f.Rd] = result
	}
}
