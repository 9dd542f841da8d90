package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kalininskiy/bk0010emu/internal/debug"
	"github.com/kalininskiy/bk0010emu/internal/machine"
	"github.com/kalininskiy/bk0010emu/internal/memory"
)

var debugROMPath string

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "load a ROM and single-step it from the terminal (C12 inspector)",
	Long: "debug puts the terminal into raw mode and reads single keypresses: " +
		"space steps one instruction, c continues to the next breakpoint, q quits.",
	RunE: runDebug,
}

func init() {
	debugCmd.Flags().StringVar(&debugROMPath, "rom", "", "path to a ROM image (required)")
	debugCmd.MarkFlagRequired("rom")
	rootCmd.AddCommand(debugCmd)
}

func runDebug(cmd *cobra.Command, args []string) error {
	romBytes, err := os.ReadFile(debugROMPath)
	if err != nil {
		return errors.Wrap(err, "reading ROM image")
	}

	m := machine.New(machine.Config{Model: memory.ModelBK0010Basic})
	m.LoadROM(romBytes)
	m.Reset()
	m.Debugger.Pause()

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return errors.Wrap(err, "putting terminal into raw mode")
	}
	defer term.Restore(fd, oldState)

	out := cmd.OutOrStdout()
	buf := make([]byte, 1)
	for {
		pc := m.CPU.PC()
		text, _ := debug.Decode(m.Bus, pc)
		fmt.Fprintf(out, "\r\n%06o  %-24s regs=%v\r\n", pc, text, registerSnapshot(m))
		fmt.Fprint(out, "[space]=step [c]=continue [q]=quit > \r\n")

		if _, err := os.Stdin.Read(buf); err != nil {
			return errors.Wrap(err, "reading a keypress")
		}

		switch buf[0] {
		case 'q', 'Q', 3: // 3 = Ctrl-C
			return nil
		case 'c', 'C':
			// Run until the debugger reports a breakpoint, checking
			// ShouldBreak before each Step as RunFrame does, but without a
			// cycle budget and without RunFrame's tape-load hook.
			for {
				if m.Debugger.ShouldBreak(m.CPU.PC()) {
					break
				}
				m.CPU.Step()
			}
		default: // anything else, including space, single-steps
			m.Debugger.Step()
			for !m.Debugger.IsPaused() {
				if m.Debugger.ShouldBreak(m.CPU.PC()) {
					break
				}
				m.CPU.Step()
			}
		}
	}
}

func registerSnapshot(m *machine.Machine) [8]uint16 {
	var regs [8]uint16
	for i := range regs {
		regs[i] = m.CPU.Reg(i)
	}
	return regs
}
