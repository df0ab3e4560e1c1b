package isa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeArith3OpRegister(t *testing.T) {
	f := Fields{
		Kind: KindArith, Cond: CondAL,
		OpcodeValue: 2, // ADC
		S:           true,
		Rd:          R3, Rn: R4, Rm: R5,
		Rotate: 3,
	}
	w := Encode(f)
	got := Decode(w)
	assert.Equal(t, KindArith, got.Kind)
	assert.Equal(t, uint8(2), got.OpcodeValue)
	assert.True(t, got.S)
	assert.Equal(t, Reg(R3), got.Rd)
	assert.Equal(t, Reg(R4), got.Rn)
	assert.Equal(t, Reg(R5), got.Rm)
	assert.Equal(t, uint8(3), got.Rotate)
}

func TestEncodeDecodeArith3OpImmediate(t *testing.T) {
	f := Fields{
		Kind: KindArith, Cond: CondZS,
		OpcodeValue: 0, // ADD
		Immediate:   true,
		Rd:          R1, Rn: R2,
		Imm:    0xAB,
		Rotate: 7,
	}
	w := Encode(f)
	got := Decode(w)
	assert.Equal(t, CondZS, got.Cond)
	assert.True(t, got.Immediate)
	assert.Equal(t, uint32(0xAB), got.Imm)
	assert.Equal(t, Reg(R2), got.Rn)
}

func TestEncodeDecode2OpImmediate(t *testing.T) {
	f := Fields{
		Kind: KindArith, Cond: CondAL,
		OpcodeValue: 14, // MOV
		Immediate:   true,
		Rd:          R7,
		Rn:          RegUnused,
		Imm:         0xABC,
		Rotate:      1,
	}
	w := Encode(f)
	got := Decode2Op(w)
	assert.Equal(t, uint32(0xABC), got.Imm)
	assert.Equal(t, RegUnused, got.Rn)
	assert.Equal(t, Reg(R7), got.Rd)
}

func TestEncodeDecodeBranch(t *testing.T) {
	f := Fields{Kind: KindBranch, Cond: CondGT, Link: true, Offset: 0x123}
	w := Encode(f)
	got := Decode(w)
	assert.Equal(t, KindBranch, got.Kind)
	assert.True(t, got.Link)
	assert.Equal(t, uint32(0x123), got.Offset)
	assert.False(t, got.IsReturn)
}

func TestEncodeDecodeReturn(t *testing.T) {
	f := Fields{Kind: KindBranch, Cond: CondAL, N: true, Link: true, Offset: 0}
	got := Decode(Encode(f))
	assert.True(t, got.IsReturn)
	assert.True(t, got.Link)
}

func TestEncodeDecodeLoadStore(t *testing.T) {
	f := Fields{
		Kind: KindLoadStore, Cond: CondAL,
		Byte: true, Write: true,
		Rd: R2, Rn: R3,
		Immediate: true, Imm: 0x10, Rotate: 0,
	}
	w := Encode(f)
	got := Decode(w)
	assert.Equal(t, KindLoadStore, got.Kind)
	assert.True(t, got.Byte)
	assert.True(t, got.Write)
	assert.Equal(t, Reg(R2), got.Rd)
	assert.Equal(t, Reg(R3), got.Rn)
	assert.Equal(t, uint32(0x10), got.Imm)
}

func TestEncodeDecodeRegList(t *testing.T) {
	f := Fields{Kind: KindRegList, Cond: CondAL, Write: true, Base: SP, List: 0xBEEF}
	got := Decode(Encode(f))
	assert.Equal(t, KindRegList, got.Kind)
	assert.True(t, got.Write)
	assert.Equal(t, Reg(SP), got.Base)
	assert.Equal(t, uint16(0xBEEF), got.List)
}

func TestEncodeDecodeSwap(t *testing.T) {
	f := Fields{Kind: KindMoveSwap, Cond: CondAL, Swap: true, Base: R1, Rm2: R2, Rotate: 5}
	got := Decode(Encode(f))
	assert.Equal(t, KindMoveSwap, got.Kind)
	assert.True(t, got.Swap)
	assert.Equal(t, Reg(R1), got.Base)
	assert.Equal(t, Reg(R2), got.Rm2)
	assert.Equal(t, uint8(5), got.Rotate)
}

func TestEncodeDecodeFPU(t *testing.T) {
	f := Fields{Kind: KindFPU, Cond: CondAL, FPUOp: 2, Rd: R4, Rn: R5, Rm: R6, Rotate: 2}
	got := Decode(Encode(f))
	assert.Equal(t, KindFPU, got.Kind)
	assert.Equal(t, uint8(2), got.FPUOp)
	assert.Equal(t, Reg(R4), got.Rd)
	assert.Equal(t, Reg(R5), got.Rn)
	assert.Equal(t, Reg(R6), got.Rm)
}
