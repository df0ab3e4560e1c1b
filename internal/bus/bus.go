// bus.go - the address-space bus and device/clockable contracts

/*
Package bus implements the Little32 address-space bus: a flat collection
of memory-mapped devices addressed by an overlapping-range OR/fan-out
rule, plus the tick-driven clocking contract that advances both
"clockable" peripherals and the CPU core once per tick.

The bus never short-circuits on the first matching device (§4.1): reads
OR together every covering device's contribution, writes fan out to all
of them. This lets a read-only introspection device (internal/device's
ComputerInfo) sit at an address range that legitimately overlaps other
devices without suppressing them.
*/
package bus

import (
	"log/slog"

	"github.com/little32vm/little32/internal/isa"
)

// Device is anything the bus can route reads and writes to.
type Device interface {
	AddressStart() isa.Word
	Range() isa.Word
	Kind() isa.Word // device-kind tag, see isa.Device* constants

	ReadWord(offset isa.Word) isa.Word
	ReadByte(offset isa.Word) uint8
	WriteWord(offset isa.Word, v isa.Word)
	WriteByte(offset isa.Word, v uint8)

	// Forced variants bypass read-only protection; used by the
	// assembler to populate ROM-like devices at build time.
	WriteWordForced(offset isa.Word, v isa.Word)
	WriteByteForced(offset isa.Word, v uint8)
}

// Clockable is a peripheral that does something once per tick, independent
// of being read or written (a timer, a keyboard scanner, ...).
type Clockable interface {
	Clock()
	Reset()
}

// Core is the subset of internal/core.Core the bus needs to drive: one
// instruction's worth of execution per tick, plus the soft reset (a hard
// reset of the bus also soft-resets the core).
type Core interface {
	Step()
	SoftReset()
}

// Bus owns the device list, the clockable list, and the one core it
// drives. Devices and clockables are independent registrations: a device
// can also be clockable (it implements both interfaces) by being added to
// both lists.
type Bus struct {
	devices    []Device
	clockables []Clockable
	core       Core
	log        *slog.Logger
}

// New creates an empty bus driving core. A nil logger falls back to
// slog.Default(), matching the rest of this module's ambient logging.
func New(core Core, log *slog.Logger) *Bus {
	if log == nil {
		log = slog.Default()
	}
	return &Bus{core: core, log: log}
}

// AddDevice registers a mapped device. Registration order is the order
// OR-reduction and fan-out visit devices in; callers that rely on
// deterministic enumeration (ComputerInfo) should register in the order
// they want reported.
func (b *Bus) AddDevice(d Device) {
	b.devices = append(b.devices, d)
	b.log.Debug("bus: device registered", "kind", d.Kind(), "start", d.AddressStart(), "range", d.Range())
}

// AddClockable registers a peripheral to be ticked every cycle.
func (b *Bus) AddClockable(c Clockable) {
	b.clockables = append(b.clockables, c)
	b.log.Debug("bus: clockable registered")
}

// Devices returns the registered devices in registration order, used by
// internal/device.ComputerInfo to enumerate the machine.
func (b *Bus) Devices() []Device {
	return b.devices
}

func covers(d Device, addr isa.Word, width isa.Word) (offset isa.Word, ok bool) {
	start := d.AddressStart()
	rng := d.Range()
	if addr < start || addr+width > start+rng {
		return 0, false
	}
	return addr - start, true
}

// Read performs a 32-bit OR-reduction read across every covering device.
// A misaligned address is routed to the byte path instead, per the
// documented (and deliberately preserved) unaligned-load behavior — see
// DESIGN.md's "unaligned word loads" entry.
func (b *Bus) Read(addr isa.Word) isa.Word {
	if addr%4 != 0 {
		return isa.Word(b.ReadByte(addr))
	}
	var result isa.Word
	for _, d := range b.devices {
		if off, ok := covers(d, addr, 4); ok {
			result |= d.ReadWord(off)
		}
	}
	return result
}

// Write fans a 32-bit write out to every covering device.
func (b *Bus) Write(addr isa.Word, v isa.Word) {
	if addr%4 != 0 {
		b.WriteByte(addr, uint8(v))
		return
	}
	for _, d := range b.devices {
		if off, ok := covers(d, addr, 4); ok {
			d.WriteWord(off, v)
		}
	}
}

// ReadByte performs an 8-bit OR-reduction read.
func (b *Bus) ReadByte(addr isa.Word) uint8 {
	var result uint8
	for _, d := range b.devices {
		if off, ok := covers(d, addr, 1); ok {
			result |= d.ReadByte(off)
		}
	}
	return result
}

// WriteByte fans an 8-bit write out to every covering device.
func (b *Bus) WriteByte(addr isa.Word, v uint8) {
	for _, d := range b.devices {
		if off, ok := covers(d, addr, 1); ok {
			d.WriteByte(off, v)
		}
	}
}

// WriteWordForced and WriteByteForced are the assembler's privileged
// population path: they still go through address resolution (so an
// out-of-range write is silently dropped, same as normal writes) but
// reach every covering device's forced setter, bypassing read-only
// protection on ROM-like devices.
func (b *Bus) WriteWordForced(addr isa.Word, v isa.Word) {
	for _, d := range b.devices {
		if off, ok := covers(d, addr, 4); ok {
			d.WriteWordForced(off, v)
		}
	}
}

func (b *Bus) WriteByteForced(addr isa.Word, v uint8) {
	for _, d := range b.devices {
		if off, ok := covers(d, addr, 1); ok {
			d.WriteByteForced(off, v)
		}
	}
}

// Tick clocks every registered clockable once, in registration order,
// then steps the core exactly once (§5's ordering guarantee).
func (b *Bus) Tick() {
	for _, c := range b.clockables {
		c.Clock()
	}
	b.core.Step()
}

// TickN calls Tick exactly n times.
func (b *Bus) TickN(n int) {
	for i := 0; i < n; i++ {
		b.Tick()
	}
}

// SoftReset restores only the core's PC/SP to their start values.
func (b *Bus) SoftReset() {
	b.core.SoftReset()
}

// HardReset performs a soft reset and additionally resets every
// clockable.
func (b *Bus) HardReset() {
	b.core.SoftReset()
	for _, c := range b.clockables {
		c.Reset()
	}
}
