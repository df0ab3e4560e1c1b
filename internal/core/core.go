// core.go - the Little32 fetch-decode-execute loop

/*
Package core implements the Little32 executor: the sixteen-register file,
the NZCV flags, and the per-instruction dispatch over every class the
encoding defines (arithmetic/logic, branch, load/store, register-list,
multi-move/swap, FPU). A Core never advances time on its own; its host
(internal/bus.Bus) calls Step once per tick, matching the cooperative,
single-threaded model of the machine.
*/
package core

import (
	"log/slog"
	"math/bits"

	"github.com/little32vm/little32/internal/isa"
)

// MemoryBus is the subset of bus.Bus the core depends on. Declared
// locally so this package never imports internal/bus (internal/bus
// depends on core's Step/SoftReset through its own bus.Core interface,
// not the other way around).
type MemoryBus interface {
	Read(addr isa.Word) isa.Word
	Write(addr isa.Word, v isa.Word)
	ReadByte(addr isa.Word) uint8
	WriteByte(addr isa.Word, v uint8)
}

// Core holds the sixteen architectural registers, the flags, and a
// reference to the bus it fetches from and reads/writes through.
type Core struct {
	regs  [16]isa.Word
	flags isa.Flags

	bus MemoryBus
	log *slog.Logger

	startPC, startSP isa.Word

	interruptPending bool
	interruptAddr    isa.Word
}

// New creates a Core wired to bus, with PC and SP initialized to startPC
// and startSP (also recorded as the soft-reset targets).
func New(bus MemoryBus, startPC, startSP isa.Word, log *slog.Logger) *Core {
	if log == nil {
		log = slog.Default()
	}
	c := &Core{bus: bus, log: log, startPC: startPC, startSP: startSP}
	c.SoftReset()
	return c
}

// Reg reads a register by index.
func (c *Core) Reg(r isa.Reg) isa.Word { return c.regs[r] }

// SetReg writes a register by index.
func (c *Core) SetReg(r isa.Reg, v isa.Word) { c.regs[r] = v }

// Flags returns the current status flags.
func (c *Core) Flags() isa.Flags { return c.flags }

// SoftReset restores PC and SP to their construction-time values; all
// other registers and the flags are left untouched, per §4.1.
func (c *Core) SoftReset() {
	c.regs[isa.PC] = c.startPC
	c.regs[isa.SP] = c.startSP
}

// Interrupt is the synchronous entry point a device's Clock() calls to
// request an interrupt. The core does not act on it immediately: entry
// happens at the next instruction boundary, inside the Step() call that
// is already in flight or the next one, matching §4.3/§5/§9's "interrupt
// entry happens between instructions only".
func (c *Core) Interrupt(address isa.Word) {
	c.interruptPending = true
	c.interruptAddr = address
}

// Step fetches, decodes, and executes exactly one instruction, then
// services a pending interrupt request if one arrived. Every non-branch
// path advances PC by 4; branch paths set PC directly and must not have
// +4 applied afterward, so the KindBranch case below adds nothing.
func (c *Core) Step() {
	word := c.bus.Read(c.regs[isa.PC])
	f := isa.Decode(word)

	if !c.flags.Test(f.Cond) {
		c.regs[isa.PC] += 4
	} else {
		switch f.Kind {
		case isa.KindArith:
			c.execArith(f, word)
			c.regs[isa.PC] += 4
		case isa.KindBranch:
			c.execBranch(f)
		case isa.KindLoadStore:
			c.execLoadStore(f)
			c.regs[isa.PC] += 4
		case isa.KindRegList:
			c.execRegList(f)
			c.regs[isa.PC] += 4
		case isa.KindMoveSwap:
			c.execMoveSwap(f)
			c.regs[isa.PC] += 4
		case isa.KindFPU:
			c.execFPU(f)
			c.regs[isa.PC] += 4
		default:
			// Unknown/undefined encodings execute as NOP (§4.3 failure modes).
			c.regs[isa.PC] += 4
		}
	}

	c.serviceInterrupt()
}

// serviceInterrupt performs the interrupt-entry protocol of §4.3 if one
// was requested: push NZCV (packed), push PC, clear NZCV, jump to the
// handler. At most one interrupt is serviced per Step.
func (c *Core) serviceInterrupt() {
	if !c.interruptPending {
		return
	}
	c.interruptPending = false
	c.push(c.flags.Pack())
	c.push(c.regs[isa.PC])
	c.flags = isa.Flags{}
	c.regs[isa.PC] = c.interruptAddr
}

// push/pop implement the pre-decrement/post-increment word stack on SP
// used by interrupt entry (serviceInterrupt) and RFE. BL uses LR, not the
// stack; register-list push/pop go through pushTo/popFrom instead.
func (c *Core) push(v isa.Word) {
	c.regs[isa.SP] -= 4
	c.bus.Write(c.regs[isa.SP], v)
}

func (c *Core) pop() isa.Word {
	v := c.bus.Read(c.regs[isa.SP])
	c.regs[isa.SP] += 4
	return v
}

// flexOperand evaluates a rotated register-or-immediate operand, per the
// barrel-rotate rule of §4.3: rotate left by Rotate*2.
func (c *Core) flexOperand(f isa.Fields) isa.Word {
	if f.Immediate {
		return bits.RotateLeft32(f.Imm, int(f.Rotate)*2)
	}
	return bits.RotateLeft32(c.regs[f.Rm], int(f.Rotate)*2)
}
