// isa.go - Little32 instruction word layout

/*
Package isa describes the canonical 32-bit Little32 instruction word: field
layout, condition codes, the opcode table, packing types, and the register
and condition name tables. Nothing in this package executes an instruction
or emits one from source text; internal/core decodes and dispatches against
this table, internal/asm encodes against it, so the bit layout is defined
exactly once.

Field layout (see the instruction word diagrams for the per-class detail):
- bits 31..28: condition
- bit 27: N (context-sensitive sign/invert modifier)
- bits 26..24: class selector
- remaining bits: opcode/S/i/registers/immediate/rotate, per class
*/
package isa

import "fmt"

// Word is the machine's native 32-bit data unit.
type Word = uint32

// Reg is a register index in 0..15.
type Reg uint8

// Architectural register indices.
const (
	R0 Reg = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	R8
	R9
	R10
	R11
	R12
	SP
	LR
	PC
)

// RegNames is indexed by Reg; mirrors the original's regNames table.
var RegNames = [16]string{
	"R0", "R1", "R2", "R3", "R4", "R5", "R6", "R7",
	"R8", "R9", "R10", "R11", "R12", "SP", "LR", "PC",
}

// RegByName resolves a register name to its index. Comparison is
// case-sensitive; names are reserved identifiers per the source language.
func RegByName(name string) (Reg, bool) {
	for i, n := range RegNames {
		if n == name {
			return Reg(i), true
		}
	}
	return 0, false
}

// Cond is a 4-bit condition-code field.
type Cond uint8

// Condition encodings (Table 1). Values match the nibble a branch/flag
// instruction carries in bits 31..28.
const (
	CondAL Cond = iota
	CondGT
	CondGE
	CondHI
	CondCS // HS synonym
	CondZS // EQ synonym
	CondNS // MI synonym
	CondVS
	CondVC
	CondNC // PL synonym
	CondZC // NE synonym
	CondCC // LO synonym
	CondLS
	CondLT
	CondLE
	CondNV
)

// CondNames gives the canonical mnemonic for each condition nibble.
var CondNames = [16]string{
	"AL", "GT", "GE", "HI", "CS", "ZS", "NS", "VS",
	"VC", "NC", "ZC", "CC", "LS", "LT", "LE", "NV",
}

// condSynonyms maps every accepted spelling (canonical and synonym) onto
// its nibble value, for the parser's B<cond> aliases and ?{ COND }? scopes.
var condSynonyms = map[string]Cond{
	"AL": CondAL,
	"GT": CondGT,
	"GE": CondGE,
	"HI": CondHI,
	"CS": CondCS, "HS": CondCS,
	"ZS": CondZS, "EQ": CondZS,
	"NS": CondNS, "MI": CondNS,
	"VS": CondVS,
	"VC": CondVC,
	"NC": CondNC, "PL": CondNC,
	"ZC": CondZC, "NE": CondZC,
	"CC": CondCC, "LO": CondCC,
	"LS": CondLS,
	"LT": CondLT,
	"LE": CondLE,
	"NV": CondNV,
}

// CondByName resolves any accepted condition spelling.
func CondByName(name string) (Cond, bool) {
	c, ok := condSynonyms[name]
	return c, ok
}

// Flags holds the four architectural status bits.
type Flags struct {
	N, Z, C, V bool
}

// Packed bit positions within the NZCV word saved/restored by interrupts.
const (
	FlagN Word = 1 << 3
	FlagZ Word = 1 << 2
	FlagC Word = 1 << 1
	FlagV Word = 1 << 0
)

// Pack encodes the four flags into the low nibble of a word.
func (f Flags) Pack() Word {
	var w Word
	if f.N {
		w |= FlagN
	}
	if f.Z {
		w |= FlagZ
	}
	if f.C {
		w |= FlagC
	}
	if f.V {
		w |= FlagV
	}
	return w
}

// Unpack populates the flags from the low nibble of a packed word.
func (f *Flags) Unpack(w Word) {
	f.N = w&FlagN != 0
	f.Z = w&FlagZ != 0
	f.C = w&FlagC != 0
	f.V = w&FlagV != 0
}

// Test evaluates the given condition against these flags (Table 1).
func (f Flags) Test(c Cond) bool {
	switch c {
	case CondAL:
		return true
	case CondGT:
		return f.N == f.V && !f.Z
	case CondGE:
		return f.N == f.V
	case CondHI:
		return f.C && !f.Z
	case CondCS:
		return f.C
	case CondZS:
		return f.Z
	case CondNS:
		return f.N
	case CondVS:
		return f.V
	case CondVC:
		return !f.V
	case CondNC:
		return !f.N
	case CondZC:
		return !f.Z
	case CondCC:
		return !f.C
	case CondLS:
		return !f.C || f.Z
	case CondLT:
		return f.N != f.V
	case CondLE:
		return f.N != f.V || f.Z
	case CondNV:
		return false
	default:
		return false
	}
}

func (c Cond) String() string {
	if int(c) < len(CondNames) {
		return CondNames[c]
	}
	return fmt.Sprintf("COND(%d)", c)
}

func (r Reg) String() string {
	if int(r) < len(RegNames) {
		return RegNames[r]
	}
	return fmt.Sprintf("R?(%d)", r)
}
