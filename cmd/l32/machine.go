// machine.go - shared bus/device/core wiring every subcommand builds from

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/little32vm/little32/internal/asm"
	"github.com/little32vm/little32/internal/bus"
	"github.com/little32vm/little32/internal/core"
	"github.com/little32vm/little32/internal/device"
	"github.com/little32vm/little32/internal/isa"
)

// machineConfig is the address map every subcommand builds its machine
// from, driven by the root command's --rom-base/--rom-size/--ram-base/
// --ram-size/--sp flags.
type machineConfig struct {
	ROMBase, ROMSize isa.Word
	RAMBase, RAMSize isa.Word
	StartPC, StartSP isa.Word
}

func defaultMachineConfig() machineConfig {
	return machineConfig{
		ROMBase: 0, ROMSize: 0x10000,
		RAMBase: 0x10000, RAMSize: 0x10000,
		StartPC: 0, StartSP: 0x20000,
	}
}

// parseWord accepts decimal or 0x-prefixed hex, matching the rest of this
// module's --flag=0x... conventions.
func parseWord(s string) (isa.Word, error) {
	s = strings.TrimSpace(s)
	base := 10
	if strings.HasPrefix(strings.ToLower(s), "0x") {
		s = s[2:]
		base = 16
	}
	v, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid address/size %q: %w", s, err)
	}
	return isa.Word(v), nil
}

// coreSlot lets the bus hold a *core.Core that does not exist yet at the
// point bus.New runs: core.New needs the bus as its MemoryBus, and bus.New
// needs the core as its bus.Core, so one side has to start out empty and
// get filled in once the other is built.
type coreSlot struct{ c *core.Core }

func (s *coreSlot) Step()      { s.c.Step() }
func (s *coreSlot) SoftReset() { s.c.SoftReset() }

// machine bundles everything a subcommand needs to assemble into and/or
// execute a program.
type machine struct {
	cfg  machineConfig
	bus  *bus.Bus
	rom  *device.ROM
	ram  *device.RAM
	core *core.Core
	info *device.ComputerInfo
}

// buildMachine wires ROM, RAM, and a ComputerInfo enumerator onto a bus
// driving one core. ComputerInfo is registered last so its snapshot of
// the device list is complete, per internal/device's own requirement.
func buildMachine(cfg machineConfig, log *slog.Logger) *machine {
	slot := &coreSlot{}
	b := bus.New(slot, log)

	rom := device.NewROM(cfg.ROMBase, cfg.ROMSize)
	ram := device.NewRAM(cfg.RAMBase, cfg.RAMSize)
	b.AddDevice(rom)
	b.AddDevice(ram)

	c := core.New(b, cfg.StartPC, cfg.StartSP, log)
	slot.c = c

	info := device.NewComputerInfo(cfg.RAMBase+cfg.RAMSize, b)
	b.AddDevice(info)

	return &machine{cfg: cfg, bus: b, rom: rom, ram: ram, core: c, info: info}
}

// assemblerRegions maps the assembler's #ROM/#RAM/#PROGRAM/#DATA cursor
// directives onto this machine's address map: PROGRAM and ROM share the
// ROM region (code assembles where it will run, read-only once booted),
// DATA and RAM share the RAM region.
func (m *machine) assemblerRegions() map[string]*asm.Region {
	return map[string]*asm.Region{
		"PROGRAM": {Name: "PROGRAM", Base: m.cfg.ROMBase, Size: m.cfg.ROMSize},
		"ROM":     {Name: "ROM", Base: m.cfg.ROMBase, Size: m.cfg.ROMSize},
		"DATA":    {Name: "DATA", Base: m.cfg.RAMBase, Size: m.cfg.RAMSize},
		"RAM":     {Name: "RAM", Base: m.cfg.RAMBase, Size: m.cfg.RAMSize},
	}
}

// newAssembler builds an assembler targeting this machine's bus directly:
// bus.Bus already satisfies asm.MemoryWriter, so the assembled image lands
// straight in the same ROM/RAM devices the core will execute against.
func (m *machine) newAssembler(loader asm.FileLoader, log *slog.Logger) *asm.Assembler {
	return asm.New(m.bus, m.assemblerRegions(), loader, log)
}

// readFileLoader is the default asm.FileLoader: #ASSEMBLE/#FILE/#LINES
// paths resolve relative to the process's working directory.
func readFileLoader(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
