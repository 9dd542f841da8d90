package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/kalininskiy/bk0010emu/internal/debug"
)

var (
	disasmOrigin uint16
	disasmCount  int
)

var disasmCmd = &cobra.Command{
	Use:   "disasm <file>",
	Short: "disassemble a flat binary as K1801VM1 instructions",
	Args:  cobra.ExactArgs(1),
	RunE:  runDisasm,
}

func init() {
	disasmCmd.Flags().Uint16Var(&disasmOrigin, "origin", 0o1000, "address the first byte of the file loads at (octal-friendly, e.g. 0o1000)")
	disasmCmd.Flags().IntVar(&disasmCount, "count", 0, "number of instructions to print (0 = until the file is exhausted)")
}

// flatMemory is a debug.MemoryReader over a byte slice mapped starting at
// base; everything outside the slice reads as zero, matching an
// unpopulated RAM page.
type flatMemory struct {
	base uint16
	data []byte
}

func (f flatMemory) ReadWord(addr uint16) uint16 {
	off := int(addr - f.base)
	if off < 0 || off+1 >= len(f.data) {
		return 0
	}
	return uint16(f.data[off]) | uint16(f.data[off+1])<<8
}

func runDisasm(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrap(err, "reading binary")
	}

	mem := flatMemory{base: disasmOrigin, data: data}
	pc := disasmOrigin
	end := disasmOrigin + uint16(len(data))

	printed := 0
	for pc < end {
		if disasmCount > 0 && printed >= disasmCount {
			break
		}
		text, words := debug.Decode(mem, pc)
		fmt.Fprintf(cmd.OutOrStdout(), "%06o  %s\n", pc, text)
		if words <= 0 {
			words = 1
		}
		pc += uint16(words) * 2
		printed++
	}
	return nil
}
