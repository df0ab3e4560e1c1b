// fpu.go - binary32 floating point class dispatch

package core

import (
	"math"
	"math/bits"

	"github.com/little32vm/little32/internal/isa"
)

func toFloat(w isa.Word) float32   { return math.Float32frombits(uint32(w)) }
func fromFloat(f float32) isa.Word { return isa.Word(math.Float32bits(f)) }

// execFPU reinterprets register contents as binary32 (or, for ITOF/FTOI,
// as a signed 32-bit integer) and performs the selected operation. reg2
// is never rotated; reg3 (the second binary-op operand, and the sole
// operand of the unary/compare forms) always is, matching the flex-
// operand convention used everywhere else in the encoding.
func (c *Core) execFPU(f isa.Fields) {
	reg2 := c.regs[f.Rn]
	reg3s := bits.RotateLeft32(c.regs[f.Rm], int(f.Rotate)*2)
	sign := int32(1)
	if f.N {
		sign = -1
	}

	switch f.FPUOp {
	case 0: // ADDF
		c.regs[f.Rd] = fromFloat((toFloat(reg2) + toFloat(reg3s)) * float32(sign))
	case 1: // SUBF
		c.regs[f.Rd] = fromFloat((toFloat(reg2) - toFloat(reg3s)) * float32(sign))
	case 2: // MULF
		c.regs[f.Rd] = fromFloat((toFloat(reg2) * toFloat(reg3s)) * float32(sign))
	case 3: // DIVF
		c.regs[f.Rd] = fromFloat((toFloat(reg2) / toFloat(reg3s)) * float32(sign))
	case 4: // ITOF
		c.regs[f.Rd] = fromFloat(float32(int32(reg3s) * sign))
	case 5: // FTOI
		c.regs[f.Rd] = isa.Word(int32(toFloat(reg3s) * float32(sign)))
	case 6: // CMPF
		a := toFloat(c.regs[f.Rd])
		b := toFloat(reg3s)
		cmp := (a - b) * float32(sign)
		c.flags.N = cmp < 0
		c.flags.Z = cmp == 0
		c.flags.C = false
		c.flags.V = (a < 0) != (b < 0) && math.Abs(float64(b)) > math.MaxFloat64-math.Abs(float64(a))
	case 7: // CMPFI
		a := toFloat(c.regs[f.Rd])
		b := int32(reg3s)
		cmp := (a - float32(b)) * float32(sign)
		c.flags.N = cmp < 0
		c.flags.Z = cmp == 0
		c.flags.C = false
		c.flags.V = (a < 0) != (b < 0) && math.Abs(float64(b)) > math.MaxFloat64-math.Abs(float64(a))
	}
}
