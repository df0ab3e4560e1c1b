// encoding.go - class selection, opcode table, and flex-operand packing

package isa

import "math/bits"

// Kind identifies which instruction-word layout a word uses. Bit 24's
// "memory/stack/move-multi" supergroup is split into its three sub-kinds
// here so callers never re-derive the subselect bits themselves.
type Kind int

const (
	KindArith Kind = iota
	KindBranch
	KindLoadStore
	KindRegList  // SWR (push) / SRR (pop), selected by bit 20
	KindMoveSwap // MVM (bit21=1,bit20=0) / SWP (bit21=1,bit20=1)
	KindFPU
	KindUndefined
)

// bit is a one-bit mask helper for the field tests below.
func bit(n uint) Word { return 1 << n }

// KindOf inspects the class-selector bits of w and reports which layout
// applies. Mirrors §4.2/§6: bit26 arith, else bit25 branch, else bit24
// selects the memory/stack/move-multi supergroup (further split by bit23
// into load/store vs {reglist, move/swap}, then by bit21 between the
// latter two), else bit23 FPU, else undefined (executed as NOP).
func KindOf(w Word) Kind {
	switch {
	case w&bit(26) != 0:
		return KindArith
	case w&bit(25) != 0:
		return KindBranch
	case w&bit(24) != 0:
		if w&bit(23) != 0 {
			return KindLoadStore
		}
		if w&bit(21) != 0 {
			return KindMoveSwap
		}
		return KindRegList
	case w&bit(23) != 0:
		return KindFPU
	default:
		return KindUndefined
	}
}

// Packing identifies how the assembler maps parsed argument tokens onto
// an instruction's bit-fields.
type Packing int

const (
	PackNone Packing = iota
	PackBranchOffset
	PackReg3
	PackFlex3
	PackFlex3i
	PackFlex2
	PackFlex2i
	PackReg2
	PackRegList
)

// Arity reports how many source-level operands a packing type consumes.
// The assembler does not call it; each of its encoders checks its own
// operand count.
func (p Packing) Arity() int {
	switch p {
	case PackNone:
		return 0
	case PackBranchOffset:
		return 1
	case PackReg3, PackFlex3, PackFlex3i:
		return 3
	case PackFlex2, PackFlex2i, PackReg2:
		return 2
	case PackRegList:
		return 2 // base register, {list}
	default:
		return 0
	}
}

// Opcode describes one arithmetic/logic mnemonic: its 4-bit field value
// and the per-mnemonic policy flags named in spec.md §4.2. Packing3/
// Packing2 are PackNone when the mnemonic doesn't support that operand
// count at all (e.g. ADD is 3-operand only, MOV is 2-operand only).
// Complement names the mnemonic this one trades places with when the
// assembler's immediate-fit search finds a negative operand easier to
// encode as the sign-flipped complementary opcode (ADD<->SUB, CMP<->CMN,
// MOV<->INV); empty when the mnemonic has no such partner.
type Opcode struct {
	Mnemonic    string
	Value       uint8 // 0..15, bits 25..22
	AllowN      bool
	AllowS      bool
	AllowShift  bool
	AlwaysFlags bool // CMP/CMN/TST: flags always computed regardless of S
	Packing3    Packing
	Packing2    Packing
	Complement  string
}

// Opcodes is the 16-entry arithmetic/logic table, indexed by Value.
var Opcodes = [16]Opcode{
	{Mnemonic: "ADD", Value: 0, AllowN: true, AllowS: true, AllowShift: true, Packing3: PackFlex3i, Complement: "SUB"},
	{Mnemonic: "SUB", Value: 1, AllowN: true, AllowS: true, AllowShift: true, Packing3: PackFlex3i, Complement: "ADD"},
	{Mnemonic: "ADC", Value: 2, AllowN: true, AllowS: true, AllowShift: true, Packing3: PackFlex3},
	{Mnemonic: "SBB", Value: 3, AllowN: true, AllowS: true, AllowShift: true, Packing3: PackFlex3},
	{Mnemonic: "ASL", Value: 4, AllowN: true, AllowS: true, AllowShift: true, Packing3: PackFlex3},
	{Mnemonic: "ASR", Value: 5, AllowN: true, AllowS: true, AllowShift: true, Packing3: PackFlex3},
	{Mnemonic: "CMP", Value: 6, AllowN: true, AllowS: false, AllowShift: false, AlwaysFlags: true, Packing2: PackFlex2i, Complement: "CMN"},
	{Mnemonic: "CMN", Value: 7, AllowN: true, AllowS: false, AllowShift: false, AlwaysFlags: true, Packing2: PackFlex2i, Complement: "CMP"},
	{Mnemonic: "ORR", Value: 8, AllowN: true, AllowS: true, AllowShift: true, Packing3: PackFlex3},
	{Mnemonic: "AND", Value: 9, AllowN: true, AllowS: true, AllowShift: true, Packing3: PackFlex3},
	{Mnemonic: "XOR", Value: 10, AllowN: true, AllowS: true, AllowShift: true, Packing3: PackFlex3},
	{Mnemonic: "TST", Value: 11, AllowN: true, AllowS: false, AllowShift: true, AlwaysFlags: true, Packing2: PackFlex2},
	{Mnemonic: "LSL", Value: 12, AllowN: true, AllowS: true, AllowShift: true, Packing3: PackFlex3},
	{Mnemonic: "LSR", Value: 13, AllowN: true, AllowS: true, AllowShift: true, Packing3: PackFlex3},
	{Mnemonic: "MOV", Value: 14, AllowN: true, AllowS: true, AllowShift: true, Packing2: PackFlex2i, Complement: "INV"},
	{Mnemonic: "INV", Value: 15, AllowN: true, AllowS: true, AllowShift: true, Packing2: PackFlex2i, Complement: "MOV"},
}

// OpcodeByName finds an arithmetic/logic opcode, with N stripped (MOV vs
// MVN is the same opcode value with N=1) and S stripped by the caller.
func OpcodeByName(mnemonic string) (Opcode, bool) {
	for _, op := range Opcodes {
		if op.Mnemonic == mnemonic {
			return op, true
		}
	}
	return Opcode{}, false
}

// FPUOp describes one floating point opcode (3-bit ppp field). FPU
// operands are always registers; Packing is Reg3 (rd, rn, rm) for the
// binary ops or Reg2 (rd, rm) for the unary/compare ones.
type FPUOp struct {
	Mnemonic string
	Value    uint8 // 0..7, bits 22..20
	Packing  Packing
}

// FPUOps is the FPU class opcode table.
var FPUOps = [8]FPUOp{
	{"ADDF", 0, PackReg3},
	{"SUBF", 1, PackReg3},
	{"MULF", 2, PackReg3},
	{"DIVF", 3, PackReg3},
	{"ITOF", 4, PackReg2},
	{"FTOI", 5, PackReg2},
	{"CMPF", 6, PackReg2},
	{"CMPFI", 7, PackReg2},
}

// FPUOpByName finds an FPU opcode.
func FPUOpByName(mnemonic string) (FPUOp, bool) {
	for _, op := range FPUOps {
		if op.Mnemonic == mnemonic {
			return op, true
		}
	}
	return FPUOp{}, false
}

// RotateSearch implements the immediate-fit policy of §4.2: it searches the
// 16 possible even rotations (0, 2, .. 30) and returns the rotation index
// (0..15) and the raw field value such that rotating field left by
// index*2 bits reproduces v, preferring the smallest raw magnitude that
// fits in width bits. ok is false when no rotation fits.
//
// The field is found by rotating v RIGHT by the candidate amount — the
// inverse of RotateReconstruct's left rotation — so that reconstruction
// actually undoes the search, matching the original's rotr-to-encode,
// rotl-to-decode pairing.
func RotateSearch(v uint32, width uint) (field uint32, rotateIdx uint8, ok bool) {
	limit := uint32(1) << width
	bestFound := false
	var bestField uint32
	var bestIdx uint8
	for i := 0; i < 16; i++ {
		rot := uint(i) * 2
		candidate := bits.RotateLeft32(v, -int(rot))
		if candidate < limit {
			if !bestFound || candidate < bestField {
				bestFound = true
				bestField = candidate
				bestIdx = uint8(i)
			}
		}
	}
	if !bestFound {
		return 0, 0, false
	}
	return bestField, bestIdx, true
}

// RotateReconstruct undoes RotateSearch: given the packed field and the
// rotate index, it reproduces the original rotated operand value, exactly
// as the decoder would. This is also used by RotateSearch's round-trip
// tests.
func RotateReconstruct(field uint32, rotateIdx uint8) uint32 {
	return bits.RotateLeft32(field, int(rotateIdx)*2)
}
