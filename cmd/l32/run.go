// run.go - "l32 run": execute an assembled program, optionally under an
// interactive single-step monitor

package main

import (
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/little32vm/little32/internal/isa"
)

func newRunCmd() *cobra.Command {
	var image string
	var loadAddr string
	var debug bool
	var cycles int

	cmd := &cobra.Command{
		Use:   "run <source.l32>",
		Short: "Assemble and execute a program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := machineConfigFromFlags()
			if err != nil {
				return err
			}
			log := slog.Default()
			m := buildMachine(cfg, log)

			if image != "" {
				base, err := parseWord(loadAddr)
				if err != nil {
					return err
				}
				data, err := os.ReadFile(image)
				if err != nil {
					return fmt.Errorf("reading %s: %w", image, err)
				}
				for i, b := range data {
					m.bus.WriteByteForced(base+isa.Word(i), b)
				}
			} else {
				src, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("reading %s: %w", args[0], err)
				}
				a := m.newAssembler(readFileLoader, log)
				if err := a.Assemble(args[0], string(src)); err != nil {
					return err
				}
			}

			if debug {
				return runDebugREPL(m)
			}
			m.bus.TickN(cycles)
			printRegisters(m)
			return nil
		},
	}

	cmd.Flags().StringVar(&image, "image", "", "load a raw binary image instead of assembling <source.l32>")
	cmd.Flags().StringVar(&loadAddr, "load-addr", "0x0", "address the --image is loaded at")
	cmd.Flags().BoolVar(&debug, "debug", false, "step through execution under an interactive monitor")
	cmd.Flags().IntVar(&cycles, "cycles", 1000, "number of ticks to run (ignored with --debug)")
	return cmd
}

func printRegisters(m *machine) {
	for r := 0; r < 16; r++ {
		fmt.Printf("%-3s=%08X ", isa.RegNames[r], m.core.Reg(isa.Reg(r)))
		if r%4 == 3 {
			fmt.Println()
		}
	}
	f := m.core.Flags()
	fmt.Printf("flags: N=%v Z=%v C=%v V=%v\n", f.N, f.Z, f.C, f.V)
}

// runDebugREPL drives a raw-mode single-step monitor, grounded on the
// pack's own raw-mode stdin handling: 's' steps one instruction, 'n'
// steps ten, 'r' dumps registers, 'q' quits.
func runDebugREPL(m *machine) error {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("entering raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	fmt.Print("l32 debug monitor: s=step n=step10 r=regs d=disasm q=quit\r\n")
	buf := make([]byte, 1)
	for {
		next := m.core.Reg(isa.PC)
		word := m.bus.Read(next)
		fmt.Printf("\r\nPC=%08X  %08X  %s\r\n", next, word, isa.Disassemble(word))

		n, err := syscall.Read(fd, buf)
		if err != nil || n == 0 {
			return nil
		}
		switch buf[0] {
		case 's', '\r', '\n':
			m.bus.Tick()
		case 'n':
			m.bus.TickN(10)
		case 'r':
			fmt.Print("\r\n")
			printRegistersRaw(m)
		case 'd':
			word := m.bus.Read(m.core.Reg(isa.PC))
			fmt.Printf("\r\n%s\r\n", isa.Disassemble(word))
		case 'q':
			return nil
		}
	}
}

// printRegistersRaw is printRegisters with \r\n line endings, needed
// while the terminal is in raw mode (no local newline translation).
func printRegistersRaw(m *machine) {
	for r := 0; r < 16; r++ {
		fmt.Printf("%-3s=%08X ", isa.RegNames[r], m.core.Reg(isa.Reg(r)))
		if r%4 == 3 {
			fmt.Print("\r\n")
		}
	}
	f := m.core.Flags()
	fmt.Printf("flags: N=%v Z=%v C=%v V=%v\r\n", f.N, f.Z, f.C, f.V)
}
