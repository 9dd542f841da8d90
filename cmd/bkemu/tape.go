package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var tapeCmd = &cobra.Command{
	Use:   "tape",
	Short: "inspect tape BIN files",
}

var tapeInfoCmd = &cobra.Command{
	Use:   "info <file.bin>",
	Short: "print a tape BIN file's load address and length (§6.4 payload layout)",
	Args:  cobra.ExactArgs(1),
	RunE:  runTapeInfo,
}

func init() {
	tapeCmd.AddCommand(tapeInfoCmd)
}

// The §6.4 BIN payload layout: a little-endian 2-byte load address, a
// little-endian 2-byte length, then the data. The filename the monitor's
// parameter block wants is supplied out of band (the tape hook's Arm takes
// it as a separate argument), not embedded in the file.
const binHeaderLen = 4

func runTapeInfo(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrap(err, "reading BIN file")
	}
	if len(data) < binHeaderLen {
		return errors.Errorf("%s is too short to be a tape BIN file (%d bytes)", args[0], len(data))
	}

	loadAddr := uint16(data[0]) | uint16(data[1])<<8
	length := uint16(data[2]) | uint16(data[3])<<8

	fmt.Fprintf(cmd.OutOrStdout(), "load=%06o length=%06o payload_bytes=%d\n",
		loadAddr, length, len(data)-binHeaderLen)
	return nil
}
