package debug

import (
	"fmt"
	"os"
	"sync"
)

// VideoStateReader reads the video engine's display-relevant state (to
// avoid an import cycle with internal/video).
type VideoStateReader interface {
	GetMode() int
	GetScroll() uint16
}

// AudioStateReader reads the audio engine's mixer state (to avoid an
// import cycle with internal/audio).
type AudioStateReader interface {
	GetSpeakerOn() bool
	GetCovoxValue() int8
}

// CPUStateSnapshot is the flat-address-space CPU state captured once per
// logged cycle (§4.12).
type CPUStateSnapshot struct {
	R0, R1, R2, R3, R4, R5, SP, PC uint16
	PSW                            uint16
	Cycles                         uint64
}

// CycleLogger writes one line per CPU step to a file, for post-mortem
// analysis of timing-sensitive bugs. Mirrors the per-cycle trace file
// pattern but keyed to the flat 16-bit address space and the BK's video
// and audio engines rather than a banked-memory PPU/APU pair.
type CycleLogger struct {
	file         *os.File
	maxCycles    uint64
	startCycle   uint64
	currentCycle uint64
	totalCycles  uint64
	enabled      bool
	mu           sync.Mutex

	video VideoStateReader
	audio AudioStateReader
}

// NewCycleLogger creates a cycle logger writing to filename. maxCycles==0
// means unlimited; startCycle delays logging until that many cycles have
// elapsed.
func NewCycleLogger(filename string, maxCycles, startCycle uint64, video VideoStateReader, audio AudioStateReader) (*CycleLogger, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create cycle log file: %w", err)
	}

	logger := &CycleLogger{
		file:       file,
		maxCycles:  maxCycles,
		startCycle: startCycle,
		enabled:    true,
		video:      video,
		audio:      audio,
	}

	fmt.Fprintf(file, "Cycle-by-Cycle Debug Log\n========================\n\n")
	if startCycle > 0 {
		fmt.Fprintf(file, "Start cycle offset: %d\n", startCycle)
	}
	if maxCycles > 0 {
		fmt.Fprintf(file, "Max cycles to log: %d\n", maxCycles)
	}
	fmt.Fprintf(file, "\nFormat: Cycle | PC | Registers (R0-R5,SP) | PSW (N Z V C T) | Video | Audio\n\n")

	return logger, nil
}

// LogCycle logs one CPU step snapshot.
func (c *CycleLogger) LogCycle(s *CPUStateSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		return
	}
	c.totalCycles++
	if c.totalCycles < c.startCycle {
		return
	}
	if c.maxCycles > 0 && c.currentCycle >= c.maxCycles {
		c.enabled = false
		return
	}
	c.currentCycle++

	psw := s.PSW
	fmt.Fprintf(c.file, "Cycle %8d | PC %06o | R0:%06o R1:%06o R2:%06o R3:%06o R4:%06o R5:%06o SP:%06o | ",
		s.Cycles, s.PC, s.R0, s.R1, s.R2, s.R3, s.R4, s.R5, s.SP)
	fmt.Fprintf(c.file, "PSW:%04X (N:%d Z:%d V:%d C:%d T:%d) | ",
		psw, (psw>>3)&1, (psw>>2)&1, (psw>>1)&1, psw&1, (psw>>4)&1)

	if c.video != nil {
		fmt.Fprintf(c.file, "Video:mode=%d scroll=%04X | ", c.video.GetMode(), c.video.GetScroll())
	}
	if c.audio != nil {
		fmt.Fprintf(c.file, "Audio:spk=%v dac=%d", c.audio.GetSpeakerOn(), c.audio.GetCovoxValue())
	}
	fmt.Fprintln(c.file)
}

func (c *CycleLogger) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

func (c *CycleLogger) Toggle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = !c.enabled
}

func (c *CycleLogger) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = false
	if c.file != nil {
		fmt.Fprintf(c.file, "\n\nLog complete. Total cycles logged: %d\n", c.currentCycle)
		err := c.file.Close()
		c.file = nil
		return err
	}
	return nil
}

func (c *CycleLogger) IsEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled && (c.maxCycles == 0 || c.currentCycle < c.maxCycles)
}

func (c *CycleLogger) GetStatus() (enabled bool, currentCycle, totalCycles, maxCycles uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled, c.currentCycle, c.totalCycles, c.maxCycles
}
