package core

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/little32vm/little32/internal/isa"
)

// flatBus is a minimal MemoryBus backed by a byte slice, enough to drive
// Core in isolation without internal/bus's device-routing machinery.
type flatBus struct {
	mem []byte
}

func newFlatBus(size int) *flatBus { return &flatBus{mem: make([]byte, size)} }

func (b *flatBus) Read(addr isa.Word) isa.Word {
	return isa.Word(b.mem[addr]) | isa.Word(b.mem[addr+1])<<8 | isa.Word(b.mem[addr+2])<<16 | isa.Word(b.mem[addr+3])<<24
}
func (b *flatBus) Write(addr isa.Word, v isa.Word) {
	b.mem[addr] = byte(v)
	b.mem[addr+1] = byte(v >> 8)
	b.mem[addr+2] = byte(v >> 16)
	b.mem[addr+3] = byte(v >> 24)
}
func (b *flatBus) ReadByte(addr isa.Word) uint8       { return b.mem[addr] }
func (b *flatBus) WriteByte(addr isa.Word, v uint8)   { b.mem[addr] = v }

func (b *flatBus) putWord(addr isa.Word, w isa.Word) { b.Write(addr, w) }

func encodeArith3(cond isa.Cond, n bool, opcode uint8, s bool, rd, rn, rm isa.Reg) isa.Word {
	return isa.Encode(isa.Fields{
		Kind: isa.KindArith, Cond: cond, N: n,
		OpcodeValue: opcode, S: s,
		Rd: rd, Rn: rn, Rm: rm,
	})
}

func encodeArith3Imm(cond isa.Cond, opcode uint8, s bool, rd, rn isa.Reg, imm uint32) isa.Word {
	return isa.Encode(isa.Fields{
		Kind: isa.KindArith, Cond: cond,
		OpcodeValue: opcode, S: s, Immediate: true,
		Rd: rd, Rn: rn, Imm: imm,
	})
}

func TestStepAddSetsFlagsAndAdvancesPC(t *testing.T) {
	bus := newFlatBus(64)
	// R1 = 5, R2 = 3, R0 = R1 + R2, S=1
	bus.putWord(0, encodeArith3(isa.CondAL, false, 0, true, isa.R0, isa.R1, isa.R2))
	c := New(bus, 0, 32, nil)
	c.SetReg(isa.R1, 5)
	c.SetReg(isa.R2, 3)

	c.Step()

	assert.Equal(t, isa.Word(8), c.Reg(isa.R0))
	assert.Equal(t, isa.Word(4), c.Reg(isa.PC))
	assert.False(t, c.Flags().Z)
	assert.False(t, c.Flags().N)
}

func TestStepAddZeroSetsZeroFlag(t *testing.T) {
	bus := newFlatBus(64)
	bus.putWord(0, encodeArith3(isa.CondAL, false, 0, true, isa.R0, isa.R1, isa.R2))
	c := New(bus, 0, 32, nil)
	c.SetReg(isa.R1, 5)
	c.SetReg(isa.R2, 0xFFFFFFFB) // -5

	c.Step()

	assert.Equal(t, isa.Word(0), c.Reg(isa.R0))
	assert.True(t, c.Flags().Z)
	assert.True(t, c.Flags().C) // unsigned carry out
}

func TestStepConditionalSkip(t *testing.T) {
	bus := newFlatBus(64)
	// Only runs when Z is set; Z starts false, so this should be skipped.
	bus.putWord(0, encodeArith3(isa.CondZS, false, 0, true, isa.R0, isa.R1, isa.R2))
	c := New(bus, 0, 32, nil)
	c.SetReg(isa.R0, 99)
	c.SetReg(isa.R1, 1)
	c.SetReg(isa.R2, 1)

	c.Step()

	assert.Equal(t, isa.Word(99), c.Reg(isa.R0), "conditional instruction must not execute")
	assert.Equal(t, isa.Word(4), c.Reg(isa.PC), "PC still advances on a skipped instruction")
}

func TestMemoryRoundTrip(t *testing.T) {
	bus := newFlatBus(128)
	// STR R1, [R2, #0]; LDR R3, [R2, #0]
	store := isa.Encode(isa.Fields{
		Kind: isa.KindLoadStore, Cond: isa.CondAL, Write: true,
		Rd: isa.R1, Rn: isa.R2, Immediate: true, Imm: 0,
	})
	load := isa.Encode(isa.Fields{
		Kind: isa.KindLoadStore, Cond: isa.CondAL, Write: false,
		Rd: isa.R3, Rn: isa.R2, Immediate: true, Imm: 0,
	})
	bus.putWord(0, store)
	bus.putWord(4, load)

	c := New(bus, 0, 64, nil)
	c.SetReg(isa.R1, 0xCAFEBABE)
	c.SetReg(isa.R2, 32)

	c.Step()
	c.Step()

	assert.Equal(t, isa.Word(0xCAFEBABE), c.Reg(isa.R3))
}

func TestRegListPushPop(t *testing.T) {
	bus := newFlatBus(128)
	push := isa.Encode(isa.Fields{
		Kind: isa.KindRegList, Cond: isa.CondAL, Write: true,
		Base: isa.R5, List: (1 << isa.R1) | (1 << isa.R2),
	})
	pop := isa.Encode(isa.Fields{
		Kind: isa.KindRegList, Cond: isa.CondAL, Write: false,
		Base: isa.R5, List: (1 << isa.R1) | (1 << isa.R2),
	})
	bus.putWord(0, push)
	bus.putWord(4, pop)

	c := New(bus, 0, 64, nil)
	c.SetReg(isa.R5, 64)
	c.SetReg(isa.R1, 0x11)
	c.SetReg(isa.R2, 0x22)

	c.Step() // push
	assert.Equal(t, isa.Word(56), c.Reg(isa.R5))

	c.SetReg(isa.R1, 0)
	c.SetReg(isa.R2, 0)
	c.Step() // pop

	assert.Equal(t, isa.Word(64), c.Reg(isa.R5))
	assert.Equal(t, isa.Word(0x11), c.Reg(isa.R1))
	assert.Equal(t, isa.Word(0x22), c.Reg(isa.R2))
}

func TestInterruptEntryHappensBetweenInstructions(t *testing.T) {
	bus := newFlatBus(128)
	// ADD R0, R0, #1 at address 0
	bus.putWord(0, encodeArith3Imm(isa.CondAL, 0, false, isa.R0, isa.R0, 1))
	c := New(bus, 0, 64, nil)

	c.Interrupt(0x40)
	c.Step()

	assert.Equal(t, isa.Word(1), c.Reg(isa.R0), "in-flight instruction still retires")
	assert.Equal(t, isa.Word(0x40), c.Reg(isa.PC), "PC jumped to the handler after retiring")
	assert.Equal(t, isa.Word(56), c.Reg(isa.SP), "two words pushed: flags and return PC")
	assert.Equal(t, isa.Word(4), bus.Read(56), "return address is the address after the retired instruction")
}

func TestBranchLinkAndReturn(t *testing.T) {
	bus := newFlatBus(128)
	bl := isa.Encode(isa.Fields{Kind: isa.KindBranch, Cond: isa.CondAL, Link: true, Offset: 2})
	ret := isa.Encode(isa.Fields{Kind: isa.KindBranch, Cond: isa.CondAL, N: true, Link: true, Offset: 0})
	bus.putWord(0, bl)
	bus.putWord(12, ret)

	c := New(bus, 0, 64, nil)
	c.Step() // BL +2 words -> PC = 4 + 8 = 12; LR = 4

	assert.Equal(t, isa.Word(12), c.Reg(isa.PC))
	assert.Equal(t, isa.Word(4), c.Reg(isa.LR))

	c.Step() // RET -> PC = LR = 4
	assert.Equal(t, isa.Word(4), c.Reg(isa.PC))
}

func TestSoftResetPreservesRegisters(t *testing.T) {
	bus := newFlatBus(64)
	c := New(bus, 100, 200, nil)
	c.SetReg(isa.R3, 77)
	c.SetReg(isa.PC, 999)
	c.SetReg(isa.SP, 999)

	c.SoftReset()

	assert.Equal(t, isa.Word(100), c.Reg(isa.PC))
	assert.Equal(t, isa.Word(200), c.Reg(isa.SP))
	assert.Equal(t, isa.Word(77), c.Reg(isa.R3))
}
