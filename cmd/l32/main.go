// main.go - l32: assemble, run, disassemble, and lint Little32 programs

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootFlags mirrors the pattern set by the pack's other cobra CLIs: plain
// package-level vars bound once in main, read by each RunE.
var rootFlags struct {
	romBase, romSize string
	ramBase, ramSize string
	sp               string
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "l32",
		Short: "l32 - assembler, disassembler, and runner for the Little32 VM",
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.romBase, "rom-base", "0x0", "ROM region start address")
	pf.StringVar(&rootFlags.romSize, "rom-size", "0x10000", "ROM region size in bytes")
	pf.StringVar(&rootFlags.ramBase, "ram-base", "0x10000", "RAM region start address")
	pf.StringVar(&rootFlags.ramSize, "ram-size", "0x10000", "RAM region size in bytes")
	pf.StringVar(&rootFlags.sp, "sp", "0x20000", "initial stack pointer")

	rootCmd.AddCommand(newAsmCmd(), newDisasmCmd(), newRunCmd(), newLintCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// machineConfigFromFlags turns the persistent address-map flags into a
// machineConfig, failing fast on an unparsable address/size.
func machineConfigFromFlags() (machineConfig, error) {
	cfg := defaultMachineConfig()
	var err error
	if cfg.ROMBase, err = parseWord(rootFlags.romBase); err != nil {
		return cfg, err
	}
	if cfg.ROMSize, err = parseWord(rootFlags.romSize); err != nil {
		return cfg, err
	}
	if cfg.RAMBase, err = parseWord(rootFlags.ramBase); err != nil {
		return cfg, err
	}
	if cfg.RAMSize, err = parseWord(rootFlags.ramSize); err != nil {
		return cfg, err
	}
	if cfg.StartSP, err = parseWord(rootFlags.sp); err != nil {
		return cfg, err
	}
	cfg.StartPC = cfg.ROMBase
	return cfg, nil
}
