// asm.go - "l32 asm": assemble a source file into a flat ROM image

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func newAsmCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "asm <source.l32>",
		Short: "Assemble a source file into a flat ROM image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := machineConfigFromFlags()
			if err != nil {
				return err
			}
			src, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			log := slog.Default()
			m := buildMachine(cfg, log)
			a := m.newAssembler(readFileLoader, log)
			if err := a.Assemble(args[0], string(src)); err != nil {
				return err
			}

			if output == "" {
				output = args[0] + ".bin"
			}
			if err := os.WriteFile(output, m.rom.Bytes(), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}
			fmt.Printf("wrote %s (%d bytes)\n", output, len(m.rom.Bytes()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output image path (default: <source>.bin)")
	return cmd
}
