// lint.go - "l32 lint": assemble N files concurrently, reporting every
// failure rather than stopping at the first

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/little32vm/little32/internal/asm"
)

func newLintCmd() *cobra.Command {
	var jobs int

	cmd := &cobra.Command{
		Use:   "lint <source.l32>...",
		Short: "Assemble one or more sources without producing an image, reporting every failure",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := machineConfigFromFlags()
			if err != nil {
				return err
			}

			// errgroup.SetLimit caps concurrency; each file gets its own
			// machine and assembler since Assembler is not safe for
			// concurrent use from multiple goroutines.
			g := new(errgroup.Group)
			if jobs > 0 {
				g.SetLimit(jobs)
			}

			results := make([]error, len(args))
			for i, path := range args {
				i, path := i, path
				g.Go(func() error {
					log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
					m := buildMachine(cfg, log)
					src, err := os.ReadFile(path)
					if err != nil {
						results[i] = fmt.Errorf("reading %s: %w", path, err)
						return nil
					}
					a := m.newAssembler(readFileLoader, log)
					results[i] = a.Assemble(path, string(src))
					return nil
				})
			}
			_ = g.Wait() // individual failures are reported per file below, not propagated

			failed := false
			for i, path := range args {
				if results[i] != nil {
					failed = true
					if e, ok := results[i].(*asm.Error); ok {
						fmt.Fprintln(os.Stderr, e.Error())
					} else {
						fmt.Fprintf(os.Stderr, "%s: %v\n", path, results[i])
					}
					continue
				}
				fmt.Printf("%s: OK\n", path)
			}
			if failed {
				return fmt.Errorf("lint found errors")
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&jobs, "jobs", 0, "maximum concurrent assemblies (0 = unlimited)")
	return cmd
}
