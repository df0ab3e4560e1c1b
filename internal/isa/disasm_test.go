package isa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisassembleArith3OpImmediate(t *testing.T) {
	w := Encode(Fields{Kind: KindArith, Cond: CondAL, OpcodeValue: 0, Rd: R0, Rn: R1, Immediate: true, Imm: 5})
	assert.Equal(t, "ADD R0, R1, 0x5", Disassemble(w))
}

func TestDisassembleArith2OpWithCondition(t *testing.T) {
	eq, _ := CondByName("EQ")
	w := Encode(Fields{Kind: KindArith, Cond: eq, OpcodeValue: 14, Rd: R2, Immediate: true, Imm: 1, Rn: RegUnused})
	assert.Equal(t, "MOV ?ZS R2, 0x1", Disassemble(w))
}

func TestDisassembleBranchAndReturn(t *testing.T) {
	b := Encode(Fields{Kind: KindBranch, Cond: CondAL, Link: true, Offset: 4})
	assert.Equal(t, "BL 0x10", Disassemble(b))

	ret := Encode(Fields{Kind: KindBranch, Cond: CondAL, N: true, Link: true, IsReturn: true})
	assert.Equal(t, "RET", Disassemble(ret))

	rfe := Encode(Fields{Kind: KindBranch, Cond: CondAL, N: true, Link: false, IsReturn: true})
	assert.Equal(t, "RFE", Disassemble(rfe))
}

func TestDisassembleLoadStore(t *testing.T) {
	st := Encode(Fields{Kind: KindLoadStore, Cond: CondAL, Write: true, Rd: R3, Rn: R4, Immediate: true, Imm: 8})
	assert.Equal(t, "RWW R3, [R4, +0x8]", Disassemble(st))

	ld := Encode(Fields{Kind: KindLoadStore, Cond: CondAL, Write: false, Byte: true, Rd: R3, Rn: R4, Immediate: false, Rm: R5})
	assert.Equal(t, "RRB R3, [R4, R5]", Disassemble(ld))
}

func TestDisassembleRegList(t *testing.T) {
	w := Encode(Fields{Kind: KindRegList, Cond: CondAL, Write: true, Base: SP, List: (1 << R0) | (1 << R2)})
	assert.Equal(t, "SWR SP, {R0, R2}", Disassemble(w))
}

func TestDisassembleFPU(t *testing.T) {
	w := Encode(Fields{Kind: KindFPU, Cond: CondAL, FPUOp: 0, Rd: R0, Rn: R1, Rm: R2})
	assert.Equal(t, "ADDF R0, R1, R2", Disassemble(w))
}

func TestDisassembleUndefinedIsNOP(t *testing.T) {
	assert.Equal(t, "NOP", Disassemble(0))
}
