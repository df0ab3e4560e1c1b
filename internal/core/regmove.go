// regmove.go - register-list push/pop and multi-move/swap dispatch

package core

import (
	"math/bits"

	"github.com/little32vm/little32/internal/isa"
)

// pushTo/popFrom implement the same pre-decrement/post-increment stack
// discipline as push/pop, but against an arbitrary base register rather
// than the architectural SP — SWR/SRR name their own stack pointer.
func (c *Core) pushTo(base isa.Reg, v isa.Word) {
	c.regs[base] -= 4
	c.bus.Write(c.regs[base], v)
}

func (c *Core) popFrom(base isa.Reg) isa.Word {
	v := c.bus.Read(c.regs[base])
	c.regs[base] += 4
	return v
}

// execRegList handles SWR (push, f.Write) and SRR (pop). The list is
// scanned MSB to LSB on push and LSB to MSB on pop, so register 15 ends
// deepest (highest address), register 0 ends on top, and register 0 is
// always restored first - the conventional "push high, pop low" discipline.
func (c *Core) execRegList(f isa.Fields) {
	if f.Write {
		for i := 15; i >= 0; i-- {
			if f.List&(1<<uint(i)) == 0 {
				continue
			}
			v := c.regs[i]
			if f.N {
				v = -v
			}
			c.pushTo(f.Base, v)
		}
		return
	}
	for i := 0; i < 16; i++ {
		if f.List&(1<<uint(i)) == 0 {
			continue
		}
		v := c.popFrom(f.Base)
		if f.N {
			v = -v
		}
		c.regs[i] = v
	}
}

// execMoveSwap handles MVM (broadcast one register's value to every
// register named in the list) and SWP (exchange two registers, rotating
// the value moving into Base; with N set, both exchanged values are
// negated).
func (c *Core) execMoveSwap(f isa.Fields) {
	if f.Swap {
		tmp := c.regs[f.Base]
		rotated := bits.RotateLeft32(c.regs[f.Rm2], int(f.Rotate)*2)
		if f.N {
			rotated = -rotated
			tmp = -tmp
		}
		c.regs[f.Base] = rotated
		c.regs[f.Rm2] = tmp
		return
	}

	v := c.regs[f.Base]
	if f.N {
		v = -v
	}
	for i := 15; i >= 0; i-- {
		if f.List&(1<<uint(i)) != 0 {
			c.regs[i] = v
		}
	}
}
