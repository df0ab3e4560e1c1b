package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/little32vm/little32/internal/isa"
)

// fakeDevice is a minimal in-memory Device, enough to exercise Bus's
// routing without pulling in internal/device.
type fakeDevice struct {
	start, size isa.Word
	kind        isa.Word
	mem         []byte
	forcedOnly  bool // true: WriteWord/WriteByte are no-ops, like ROM
}

func newFakeDevice(kind isa.Word, start, size isa.Word) *fakeDevice {
	return &fakeDevice{start: start, size: size, kind: kind, mem: make([]byte, size)}
}

func (d *fakeDevice) AddressStart() isa.Word { return d.start }
func (d *fakeDevice) Range() isa.Word        { return d.size }
func (d *fakeDevice) Kind() isa.Word         { return d.kind }

func (d *fakeDevice) ReadWord(off isa.Word) isa.Word {
	return isa.Word(d.mem[off]) | isa.Word(d.mem[off+1])<<8 | isa.Word(d.mem[off+2])<<16 | isa.Word(d.mem[off+3])<<24
}
func (d *fakeDevice) ReadByte(off isa.Word) uint8 { return d.mem[off] }
func (d *fakeDevice) WriteWord(off isa.Word, v isa.Word) {
	if d.forcedOnly {
		return
	}
	d.WriteWordForced(off, v)
}
func (d *fakeDevice) WriteByte(off isa.Word, v uint8) {
	if d.forcedOnly {
		return
	}
	d.mem[off] = v
}
func (d *fakeDevice) WriteWordForced(off isa.Word, v isa.Word) {
	d.mem[off] = byte(v)
	d.mem[off+1] = byte(v >> 8)
	d.mem[off+2] = byte(v >> 16)
	d.mem[off+3] = byte(v >> 24)
}
func (d *fakeDevice) WriteByteForced(off isa.Word, v uint8) { d.mem[off] = v }

type fakeCore struct {
	steps     int
	softReset int
}

func (c *fakeCore) Step()      { c.steps++ }
func (c *fakeCore) SoftReset() { c.softReset++ }

type fakeClockable struct {
	clocks int
	resets int

	core         *fakeCore // when set, Clock records core.steps
	stepsAtClock []int
}

func (c *fakeClockable) Clock() {
	c.clocks++
	if c.core != nil {
		c.stepsAtClock = append(c.stepsAtClock, c.core.steps)
	}
}
func (c *fakeClockable) Reset() { c.resets++ }

func TestReadWriteRoundTrip(t *testing.T) {
	core := &fakeCore{}
	b := New(core, nil)
	ram := newFakeDevice(isa.DeviceRAM, 0, 64)
	b.AddDevice(ram)

	b.Write(0, 0xCAFEBABE)
	assert.Equal(t, isa.Word(0xCAFEBABE), b.Read(0))
}

func TestOverlappingDevicesOrReduceOnRead(t *testing.T) {
	core := &fakeCore{}
	b := New(core, nil)
	a := newFakeDevice(isa.DeviceRAM, 0, 16)
	o := newFakeDevice(isa.DeviceComputerInfo, 0, 16)
	b.AddDevice(a)
	b.AddDevice(o)

	a.WriteWordForced(0, 0x0000FF00)
	o.WriteWordForced(0, 0x000000FF)

	assert.Equal(t, isa.Word(0x0000FFFF), b.Read(0), "reads OR together every covering device")
}

func TestWriteFansOutToEveryCoveringDevice(t *testing.T) {
	core := &fakeCore{}
	b := New(core, nil)
	a := newFakeDevice(isa.DeviceRAM, 0, 16)
	c := newFakeDevice(isa.DeviceRAM, 0, 16)
	b.AddDevice(a)
	b.AddDevice(c)

	b.Write(0, 42)

	assert.Equal(t, isa.Word(42), a.ReadWord(0))
	assert.Equal(t, isa.Word(42), c.ReadWord(0))
}

func TestUnalignedWordReadFallsBackToByte(t *testing.T) {
	core := &fakeCore{}
	b := New(core, nil)
	ram := newFakeDevice(isa.DeviceRAM, 0, 16)
	b.AddDevice(ram)

	ram.WriteByteForced(1, 0x77)

	assert.Equal(t, isa.Word(0x77), b.Read(1), "misaligned word reads degrade to a single byte, zero-extended")
}

func TestWriteForcedBypassesReadOnlyDevice(t *testing.T) {
	core := &fakeCore{}
	b := New(core, nil)
	rom := newFakeDevice(isa.DeviceROM, 0, 16)
	rom.forcedOnly = true
	b.AddDevice(rom)

	b.Write(0, 0xDEAD) // ordinary write: ignored
	require.Equal(t, isa.Word(0), rom.ReadWord(0))

	b.WriteWordForced(0, 0xDEAD) // assembler's populate path
	assert.Equal(t, isa.Word(0xDEAD), rom.ReadWord(0))
}

func TestTickClocksPeripheralsThenStepsCore(t *testing.T) {
	core := &fakeCore{}
	b := New(core, nil)
	clk := &fakeClockable{core: core}
	b.AddClockable(clk)

	b.TickN(3)

	assert.Equal(t, 3, clk.clocks)
	assert.Equal(t, 3, core.steps)
	assert.Equal(t, []int{0, 1, 2}, clk.stepsAtClock, "each tick clocks peripherals before stepping the core")
}

func TestHardResetResetsClockablesSoftResetDoesNot(t *testing.T) {
	core := &fakeCore{}
	b := New(core, nil)
	clk := &fakeClockable{}
	b.AddClockable(clk)

	b.SoftReset()
	assert.Equal(t, 1, core.softReset)
	assert.Equal(t, 0, clk.resets)

	b.HardReset()
	assert.Equal(t, 2, core.softReset)
	assert.Equal(t, 1, clk.resets)
}

func TestDevicesReturnsRegistrationOrder(t *testing.T) {
	core := &fakeCore{}
	b := New(core, nil)
	first := newFakeDevice(isa.DeviceRAM, 0, 16)
	second := newFakeDevice(isa.DeviceROM, 16, 16)
	b.AddDevice(first)
	b.AddDevice(second)

	got := b.Devices()
	require.Len(t, got, 2)
	assert.Same(t, Device(first), got[0])
	assert.Same(t, Device(second), got[1])
}

func TestOutOfRangeAddressReadsZero(t *testing.T) {
	core := &fakeCore{}
	b := New(core, nil)
	ram := newFakeDevice(isa.DeviceRAM, 0, 16)
	b.AddDevice(ram)

	assert.Equal(t, isa.Word(0), b.Read(0x1000))
}
