// mem.go - load/store class dispatch

package core

import (
	"math/bits"

	"github.com/little32vm/little32/internal/isa"
)

// execLoadStore computes the rotated, optionally-negated flex offset and
// performs the single byte or word transfer the class selects.
func (c *Core) execLoadStore(f isa.Fields) {
	var off isa.Word
	if f.Immediate {
		off = bits.RotateLeft32(f.Imm, int(f.Rotate)*2)
	} else {
		off = bits.RotateLeft32(c.regs[f.Rm], int(f.Rotate)*2)
	}
	if f.N {
		off = -off
	}
	addr := c.regs[f.Rn] + off

	if f.Byte {
		if f.Write {
			c.bus.WriteByte(addr, uint8(c.regs[f.Rd]))
		} else {
			c.regs[f.Rd] = isa.Word(c.bus.ReadByte(addr))
		}
		return
	}
	if f.Write {
		c.bus.Write(addr, c.regs[f.Rd])
	} else {
		c.regs[f.Rd] = c.bus.Read(addr)
	}
}
