package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/kalininskiy/bk0010emu/internal/floppy"
)

var diskCmd = &cobra.Command{
	Use:   "disk",
	Short: "inspect and normalize floppy disk images",
}

var diskInfoCmd = &cobra.Command{
	Use:   "info <image>",
	Short: "print a disk image's size after normalizing to the standard 800 KiB geometry",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiskInfo,
}

func init() {
	diskCmd.AddCommand(diskInfoCmd)
}

func runDiskInfo(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return errors.Wrap(err, "reading disk image")
	}

	d := floppy.NewDrive()
	d.Insert(raw)
	exported := d.Export()

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bytes on disk, %d bytes after normalizing to standard geometry\n",
		args[0], len(raw), len(exported))
	return nil
}
