package isa

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfClassSelectors(t *testing.T) {
	assert.Equal(t, KindArith, KindOf(bit(26)))
	assert.Equal(t, KindBranch, KindOf(bit(25)))
	assert.Equal(t, KindLoadStore, KindOf(bit(24)|bit(23)))
	assert.Equal(t, KindMoveSwap, KindOf(bit(24)|bit(21)))
	assert.Equal(t, KindRegList, KindOf(bit(24)))
	assert.Equal(t, KindFPU, KindOf(bit(23)))
	assert.Equal(t, KindUndefined, KindOf(0))
}

func TestOpcodeTablePackingSplit(t *testing.T) {
	threeOpOnly := []string{"ADC", "SBB", "ASL", "ASR", "ORR", "AND", "XOR", "LSL", "LSR"}
	for _, name := range threeOpOnly {
		op, ok := OpcodeByName(name)
		assert.True(t, ok, name)
		assert.Equal(t, PackFlex3, op.Packing3, name)
		assert.Equal(t, PackNone, op.Packing2, name)
		assert.Empty(t, op.Complement, name)
	}

	twoOpOnly := map[string]string{
		"CMP": "CMN", "CMN": "CMP",
		"MOV": "INV", "INV": "MOV",
	}
	for name, complement := range twoOpOnly {
		op, ok := OpcodeByName(name)
		assert.True(t, ok, name)
		assert.Equal(t, PackNone, op.Packing3, name)
		assert.Equal(t, complement, op.Complement, name)
	}

	tst, ok := OpcodeByName("TST")
	assert.True(t, ok)
	assert.Equal(t, PackFlex2, tst.Packing2)
	assert.Empty(t, tst.Complement)

	for _, name := range []string{"ADD", "SUB"} {
		op, ok := OpcodeByName(name)
		assert.True(t, ok, name)
		assert.Equal(t, PackFlex3i, op.Packing3, name)
	}
}

func TestRotateSearchRoundTrips(t *testing.T) {
	cases := []uint32{0, 1, 0xFF, 0xFF00, 0x000000FF, 0x80000001}
	for _, v := range cases {
		field, idx, ok := RotateSearch(v, 8)
		if !ok {
			continue
		}
		assert.Equal(t, v, RotateReconstruct(field, idx), "value %#x", v)
	}
}

func TestRotateSearchFindsExactFit(t *testing.T) {
	field, idx, ok := RotateSearch(0xFF000000, 8)
	assert.True(t, ok)
	assert.Equal(t, uint32(0xFF), field)
	assert.Equal(t, uint32(0xFF000000), RotateReconstruct(field, idx))
}

func TestRotateSearchRejectsUnfittable(t *testing.T) {
	_, _, ok := RotateSearch(0x12345678, 8)
	assert.False(t, ok)
}
