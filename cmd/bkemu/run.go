package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/kalininskiy/bk0010emu/internal/machine"
	"github.com/kalininskiy/bk0010emu/internal/memory"
	"github.com/kalininskiy/bk0010emu/internal/video"
)

var (
	runROMPath     string
	runDiskPaths   [4]string
	runTapePath    string
	runFrames      int
	runModel       string
	runSnapshotPPM string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "load a ROM and run it headlessly for a fixed number of frames",
	RunE:  runMachine,
}

func init() {
	runCmd.Flags().StringVar(&runROMPath, "rom", "", "path to a ROM image (required)")
	runCmd.Flags().StringVar(&runDiskPaths[0], "disk0", "", "disk image for drive A")
	runCmd.Flags().StringVar(&runDiskPaths[1], "disk1", "", "disk image for drive B")
	runCmd.Flags().StringVar(&runDiskPaths[2], "disk2", "", "disk image for drive C")
	runCmd.Flags().StringVar(&runDiskPaths[3], "disk3", "", "disk image for drive D")
	runCmd.Flags().StringVar(&runTapePath, "tape", "", "BIN file to arm for fast tape load")
	runCmd.Flags().IntVar(&runFrames, "frames", 60, "number of frames to run")
	runCmd.Flags().StringVar(&runModel, "model", "bk0010-basic", "model: bk0010-base, bk0010-basic, bk0010-focal, bk0010-fdd, bk0011m, bk0011m-fdd")
	runCmd.Flags().StringVar(&runSnapshotPPM, "snapshot", "", "write the final frame as a PPM image to this path")
	runCmd.MarkFlagRequired("rom")
}

func parseModel(name string) (memory.Model, error) {
	switch name {
	case "bk0010-base":
		return memory.ModelBK0010Base, nil
	case "bk0010-basic":
		return memory.ModelBK0010Basic, nil
	case "bk0010-focal":
		return memory.ModelBK0010Focal, nil
	case "bk0010-fdd":
		return memory.ModelBK0010Fdd, nil
	case "bk0011m":
		return memory.ModelBK0011M, nil
	case "bk0011m-fdd":
		return memory.ModelBK0011MFdd, nil
	}
	return 0, errors.Errorf("unknown model %q", name)
}

func runMachine(cmd *cobra.Command, args []string) error {
	model, err := parseModel(runModel)
	if err != nil {
		return err
	}

	romBytes, err := os.ReadFile(runROMPath)
	if err != nil {
		return errors.Wrap(err, "reading ROM image")
	}

	m := machine.New(machine.Config{Model: model})
	m.LoadROM(romBytes)
	m.Reset()

	for i, path := range runDiskPaths {
		if path == "" {
			continue
		}
		diskBytes, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "reading disk image for drive %d", i)
		}
		m.InsertDisk(i, diskBytes)
	}

	if runTapePath != "" {
		tapeBytes, err := os.ReadFile(runTapePath)
		if err != nil {
			return errors.Wrap(err, "reading tape BIN file")
		}
		m.ArmTapeLoad(runTapePath, tapeBytes)
	}

	for i := 0; i < runFrames; i++ {
		m.RunFrame()
	}

	fmt.Fprintf(cmd.OutOrStdout(), "ran %d frames, cpu cycles = %d\n", runFrames, m.CPU.Cycles)

	if runSnapshotPPM != "" {
		if err := writePPM(runSnapshotPPM, m.SnapshotFramebuffer(), video.Width, video.Height); err != nil {
			return errors.Wrap(err, "writing snapshot")
		}
	}
	return nil
}

// writePPM dumps an RGBA frame as a plain PPM (P6), dropping the alpha
// channel; good enough for a quick headless visual check without pulling
// in an image-encoding dependency the rest of the module has no other use
// for.
func writePPM(path string, rgba []byte, width, height int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "P6\n%d %d\n255\n", width, height); err != nil {
		return err
	}
	rgb := make([]byte, width*height*3)
	for i, j := 0, 0; i < len(rgba); i, j = i+4, j+3 {
		rgb[j], rgb[j+1], rgb[j+2] = rgba[i], rgba[i+1], rgba[i+2]
	}
	_, err = f.Write(rgb)
	return err
}
