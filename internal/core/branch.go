// branch.go - B/BL/RET/RFE dispatch

package core

import "github.com/little32vm/little32/internal/isa"

// execBranch handles the four forms the branch class encodes: plain and
// linking relative branches, return-from-subroutine, and return-from-
// exception. It is solely responsible for PC after it runs (unlike every
// other exec* method, whose caller adds the uniform +4).
func (c *Core) execBranch(f isa.Fields) {
	if f.IsReturn {
		if f.Link {
			// RET: resume at the return address left in LR by BL.
			c.regs[isa.PC] = c.regs[isa.LR]
		} else {
			// RFE: undo the interrupt-entry protocol in reverse order.
			c.regs[isa.PC] = c.pop()
			c.flags.Unpack(c.pop())
		}
		return
	}

	next := c.regs[isa.PC] + 4
	var target isa.Word
	if f.N {
		target = next - f.Offset*4
	} else {
		target = next + f.Offset*4
	}
	if f.Link {
		c.regs[isa.LR] = next
	}
	c.regs[isa.PC] = target
}
