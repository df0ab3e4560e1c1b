// disasm.go - "l32 disasm": print one mnemonic line per instruction word

package main

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/little32vm/little32/internal/isa"
)

func newDisasmCmd() *cobra.Command {
	var base string

	cmd := &cobra.Command{
		Use:   "disasm <image.bin>",
		Short: "Disassemble a flat binary image word by word",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			baseAddr, err := parseWord(base)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			for off := 0; off+4 <= len(data); off += 4 {
				w := isa.Word(binary.LittleEndian.Uint32(data[off : off+4]))
				addr := baseAddr + isa.Word(off)
				fmt.Printf("%08X: %08X  %s\n", addr, w, isa.Disassemble(w))
			}
			if rem := len(data) % 4; rem != 0 {
				fmt.Fprintf(os.Stderr, "warning: %d trailing byte(s) not a whole word, skipped\n", rem)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&base, "base", "0x0", "address of the image's first word, for the printed address column")
	return cmd
}
