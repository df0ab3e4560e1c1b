package asm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/little32vm/little32/internal/isa"
)

// fakeWriter is the minimal MemoryWriter a test needs: word/byte writes
// land in a flat map, with no device-range checking.
type fakeWriter struct {
	words map[isa.Word]isa.Word
	bytes map[isa.Word]uint8
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{words: map[isa.Word]isa.Word{}, bytes: map[isa.Word]uint8{}}
}

func (w *fakeWriter) WriteWordForced(addr isa.Word, v isa.Word) { w.words[addr] = v }
func (w *fakeWriter) WriteByteForced(addr isa.Word, v uint8)    { w.bytes[addr] = v }

func newTestAssembler(bus *fakeWriter) *Assembler {
	regions := map[string]*Region{
		"PROGRAM": {Name: "PROGRAM", Base: 0, Size: 0x1000},
		"DATA":    {Name: "DATA", Base: 0x1000, Size: 0x1000},
		"RAM":     {Name: "RAM", Base: 0x2000, Size: 0x1000},
		"ROM":     {Name: "ROM", Base: 0, Size: 0x1000},
	}
	return New(bus, regions, nil, nil)
}

func TestEncodeArithImmediate(t *testing.T) {
	w := newFakeWriter()
	a := newTestAssembler(w)
	require.NoError(t, a.Assemble("t.asm", "#PROGRAM\nADD R0, R0, 1\n"))

	want := isa.Encode(isa.Fields{
		Kind: isa.KindArith, Cond: isa.CondAL, OpcodeValue: 0,
		Rd: isa.R0, Rn: isa.R0, Immediate: true, Imm: 1,
	})
	assert.Equal(t, want, w.words[0])
}

func TestEncodeBranchBackwardToLabel(t *testing.T) {
	w := newFakeWriter()
	a := newTestAssembler(w)
	src := "#PROGRAM\nloop:\nADD R0, R0, 1\nB ?NE loop\n"
	require.NoError(t, a.Assemble("t.asm", src))

	wantADD := isa.Encode(isa.Fields{
		Kind: isa.KindArith, Cond: isa.CondAL, OpcodeValue: 0,
		Rd: isa.R0, Rn: isa.R0, Immediate: true, Imm: 1,
	})
	assert.Equal(t, wantADD, w.words[0])

	cond, ok := isa.CondByName("NE")
	require.True(t, ok)
	wantB := isa.Encode(isa.Fields{
		Kind: isa.KindBranch, Cond: cond, N: true, Link: false, Offset: 2,
	})
	assert.Equal(t, wantB, w.words[4])
}

func TestLoadStoreAliasMacros(t *testing.T) {
	w := newFakeWriter()
	a := newTestAssembler(w)
	require.NoError(t, a.Assemble("t.asm", "#PROGRAM\nSTR R0, [R1]\nLDR R2, [R1]\n"))

	wantStore := isa.Encode(isa.Fields{
		Kind: isa.KindLoadStore, Cond: isa.CondAL, Write: true,
		Rd: isa.R0, Rn: isa.R1, Immediate: true,
	})
	wantLoad := isa.Encode(isa.Fields{
		Kind: isa.KindLoadStore, Cond: isa.CondAL, Write: false,
		Rd: isa.R2, Rn: isa.R1, Immediate: true,
	})
	assert.Equal(t, wantStore, w.words[0])
	assert.Equal(t, wantLoad, w.words[4])
}

func TestPushPopAliasMacros(t *testing.T) {
	w := newFakeWriter()
	a := newTestAssembler(w)
	require.NoError(t, a.Assemble("t.asm", "#PROGRAM\nPUSH {R0, R2, R5}\nPOP {R0, R2, R5}\n"))

	list := uint16(1<<isa.R0 | 1<<isa.R2 | 1<<isa.R5)
	wantPush := isa.Encode(isa.Fields{
		Kind: isa.KindRegList, Cond: isa.CondAL, Write: true, Base: isa.SP, List: list,
	})
	wantPop := isa.Encode(isa.Fields{
		Kind: isa.KindRegList, Cond: isa.CondAL, Write: false, Base: isa.SP, List: list,
	})
	assert.Equal(t, wantPush, w.words[0])
	assert.Equal(t, wantPop, w.words[4])
}

func TestUserMacroExpansion(t *testing.T) {
	w := newFakeWriter()
	a := newTestAssembler(w)
	src := "@INC<1> ADD @0, @0, 1\n#PROGRAM\nINC R3\n"
	require.NoError(t, a.Assemble("t.asm", src))

	want := isa.Encode(isa.Fields{
		Kind: isa.KindArith, Cond: isa.CondAL, OpcodeValue: 0,
		Rd: isa.R3, Rn: isa.R3, Immediate: true, Imm: 1,
	})
	assert.Equal(t, want, w.words[0])
}

func TestConditionScopeAppliesToEveryEnclosedInstruction(t *testing.T) {
	w := newFakeWriter()
	a := newTestAssembler(w)
	src := "#PROGRAM\n?{ EQ\nADD R0, R0, 1\nSUB R1, R1, 1\n}?\n"
	require.NoError(t, a.Assemble("t.asm", src))

	eq, _ := isa.CondByName("EQ")
	assert.Equal(t, eq, isa.Decode(w.words[0]).Cond)
	assert.Equal(t, eq, isa.Decode(w.words[4]).Cond)
}

func TestConditionScopeForbidsInnerConditionCollision(t *testing.T) {
	w := newFakeWriter()
	a := newTestAssembler(w)
	src := "#PROGRAM\n?{ EQ\nADD ?NE R0, R0, 1\n}?\n"
	err := a.Assemble("t.asm", src)
	require.Error(t, err)
}

func TestDuplicateLabelIsError(t *testing.T) {
	w := newFakeWriter()
	a := newTestAssembler(w)
	err := a.Assemble("t.asm", "#PROGRAM\nfoo:\nfoo:\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate label")
}

func TestUnresolvedLabelAtRootIsFatal(t *testing.T) {
	w := newFakeWriter()
	a := newTestAssembler(w)
	err := a.Assemble("t.asm", "#PROGRAM\nB missing\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unresolved label")
}

func TestRecursiveMacroExpansionIsError(t *testing.T) {
	w := newFakeWriter()
	a := newTestAssembler(w)
	err := a.Assemble("t.asm", "@FOO<0> FOO\n#PROGRAM\nFOO\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recursive macro expansion")
}

func TestRecursiveAssembleCycleIsError(t *testing.T) {
	w := newFakeWriter()
	a := newTestAssembler(w)
	loader := func(path string) (string, error) {
		return "#ASSEMBLE \"self.asm\"\n", nil
	}
	a.loader = loader
	err := a.Assemble("self.asm", "#ASSEMBLE \"self.asm\"\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recursive")
}

func TestForwardReferenceToSingleLabelResolvesOnDefine(t *testing.T) {
	w := newFakeWriter()
	a := newTestAssembler(w)
	src := "#PROGRAM\nB ahead\nahead:\nADD R0, R0, 1\n"
	require.NoError(t, a.Assemble("t.asm", src))

	wantB := isa.Encode(isa.Fields{
		Kind: isa.KindBranch, Cond: isa.CondAL, N: false, Link: false, Offset: 0,
	})
	assert.Equal(t, wantB, w.words[0])
}

func TestRegisterListRangeNotation(t *testing.T) {
	w := newFakeWriter()
	a := newTestAssembler(w)
	require.NoError(t, a.Assemble("t.asm", "#PROGRAM\nSWR SP, {R0, R2-R5}\n"))

	list := uint16(1<<isa.R0 | 1<<isa.R2 | 1<<isa.R3 | 1<<isa.R4 | 1<<isa.R5)
	want := isa.Encode(isa.Fields{
		Kind: isa.KindRegList, Cond: isa.CondAL, Write: true, Base: isa.SP, List: list,
	})
	assert.Equal(t, want, w.words[0])
}

func TestImmediateComplementSubstitution(t *testing.T) {
	w := newFakeWriter()
	a := newTestAssembler(w)
	// -1 doesn't fit an 8-bit unsigned rotate-search field directly but
	// its negation does, so ADD swaps to SUB per the complement policy.
	require.NoError(t, a.Assemble("t.asm", "#PROGRAM\nADD R0, R0, -1\n"))

	f := isa.Decode(w.words[0])
	sub, _ := isa.OpcodeByName("SUB")
	assert.Equal(t, sub.Value, f.OpcodeValue)
	assert.Equal(t, isa.Word(1), f.Imm)
}

func TestFPUAdd(t *testing.T) {
	w := newFakeWriter()
	a := newTestAssembler(w)
	require.NoError(t, a.Assemble("t.asm", "#PROGRAM\nADDF R0, R1, R2\n"))

	want := isa.Encode(isa.Fields{
		Kind: isa.KindFPU, Cond: isa.CondAL, FPUOp: 0, Rd: isa.R0, Rn: isa.R1, Rm: isa.R2,
	})
	assert.Equal(t, want, w.words[0])
}
