package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bkemu",
	Short: "bkemu is a headless Elektronika BK-0010/BK-0011M emulator core",
	Long:  "bkemu drives the emulator core from the command line: run a ROM for a fixed number of frames, disassemble a binary, or inspect disk/tape images.",
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(disasmCmd)
	rootCmd.AddCommand(diskCmd)
	rootCmd.AddCommand(tapeCmd)
}

// Execute runs bkemu according to the user's command/subcommand/flags.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
