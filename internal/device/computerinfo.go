// computerinfo.go - read-only device-list enumeration

package device

import (
	"github.com/little32vm/little32/internal/bus"
	"github.com/little32vm/little32/internal/isa"
)

// Lister is the subset of bus.Bus that ComputerInfo needs: the list of
// devices registered on it at the time ComputerInfo is constructed.
// Registering ComputerInfo after every other device gives a complete
// enumeration; this package takes a snapshot rather than a live view so
// its Range (and therefore its bus address coverage) is fixed once and
// for all, as the bus's address-covers check requires.
type Lister interface {
	Devices() []bus.Device
}

// ComputerInfo is a read-only device enumerating the machine: three
// words per listed device (kind, address_start, range), per spec §6.
type ComputerInfo struct {
	base
	entries []bus.Device
}

// NewComputerInfo snapshots bus's current device list. Register
// ComputerInfo last so the snapshot is complete.
func NewComputerInfo(start isa.Word, b Lister) *ComputerInfo {
	entries := append([]bus.Device(nil), b.Devices()...)
	return &ComputerInfo{
		base:    base{start, isa.Word(len(entries)) * 3 * 4},
		entries: entries,
	}
}

func (c *ComputerInfo) Kind() isa.Word { return isa.DeviceComputerInfo }

func (c *ComputerInfo) wordAt(index isa.Word) isa.Word {
	entry := c.entries[index/3]
	switch index % 3 {
	case 0:
		return entry.Kind()
	case 1:
		return entry.AddressStart()
	default:
		return entry.Range()
	}
}

func (c *ComputerInfo) ReadWord(off isa.Word) isa.Word {
	return c.wordAt(off / 4)
}

func (c *ComputerInfo) ReadByte(off isa.Word) uint8 {
	w := c.wordAt(off / 4)
	lane := off % 4
	return uint8(w >> (8 * lane))
}

func (c *ComputerInfo) WriteByte(isa.Word, uint8)          {}
func (c *ComputerInfo) WriteWord(isa.Word, isa.Word)       {}
func (c *ComputerInfo) WriteByteForced(isa.Word, uint8)    {}
func (c *ComputerInfo) WriteWordForced(isa.Word, isa.Word) {}
