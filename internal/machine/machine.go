// Package machine wires the bus, CPU, and every device into the aggregate
// the host drives through the API of §6.6: reset, run a frame's worth of
// cycles, feed input, load media, and pull the audio/video output.
package machine

import (
	"github.com/kalininskiy/bk0010emu/internal/audio"
	"github.com/kalininskiy/bk0010emu/internal/clock"
	"github.com/kalininskiy/bk0010emu/internal/cpu"
	"github.com/kalininskiy/bk0010emu/internal/debug"
	"github.com/kalininskiy/bk0010emu/internal/floppy"
	"github.com/kalininskiy/bk0010emu/internal/hostio"
	"github.com/kalininskiy/bk0010emu/internal/keyboard"
	"github.com/kalininskiy/bk0010emu/internal/memory"
	"github.com/kalininskiy/bk0010emu/internal/sysregs"
	"github.com/kalininskiy/bk0010emu/internal/tape"
	"github.com/kalininskiy/bk0010emu/internal/timer"
	"github.com/kalininskiy/bk0010emu/internal/video"
)

// entryAddr is where every model's ApplyPreset maps its first ROM image
// (page 4, the 0x8000 base) — the address a cold reset jumps to.
const entryAddr = 0x8000

const (
	defaultTargetHz  = 3000000
	defaultFPS       = 20
	defaultSampleHz  = 44100
)

// Config mirrors the configuration options of §6.6.
type Config struct {
	Model       memory.Model
	CovoxMode   audio.CovoxMode
	SynthMixed  bool
	TargetHz    uint64
	FPS         float64
	AudioRateHz uint64
}

// Machine is the complete emulated BK-0010/BK-0011M, the single object a
// host integration talks to.
type Machine struct {
	Mapper   *memory.Mapper
	Bus      *memory.Bus
	CPU      *cpu.CPU
	Keyboard *keyboard.Keyboard
	Timer    *timer.Timer
	Floppy   *floppy.Controller
	SysRegs  *sysregs.SysRegs
	Video    *video.Engine
	Audio    *audio.Engine
	Tape     *tape.Hook
	Scheduler *clock.Scheduler
	Debugger *debug.Debugger
	Logger   *debug.Logger

	cpuLog *cpu.CPULoggerAdapter

	joystickState uint16

	// Keys, if set, is drained once per RunFrame (§4.10 step 3). Hosts that
	// prefer to call PressKey/SetJoystick directly may leave it nil.
	Keys hostio.KeyEventSource

	// Raster, if set, receives the frame at the end of every RunFrame
	// (§4.10 step 8). Hosts that prefer to pull via SnapshotFramebuffer on
	// their own schedule may leave it nil.
	Raster hostio.RasterSink
}

// noTapeInput satisfies memory.TapeStatus: the core has no real tape-audio
// input, only the fast-load hook (§4.11), so the bit is always false.
type noTapeInput struct{}

func (noTapeInput) TapeBit() bool { return false }

// New builds a fully wired machine for the given configuration.
func New(cfg Config) *Machine {
	if cfg.TargetHz == 0 {
		cfg.TargetHz = defaultTargetHz
	}
	if cfg.FPS == 0 {
		cfg.FPS = defaultFPS
	}
	if cfg.AudioRateHz == 0 {
		cfg.AudioRateHz = defaultSampleHz
	}

	m := &Machine{
		Mapper:   memory.NewMapper(cfg.Model),
		Keyboard: keyboard.New(),
		Timer:    timer.New(),
		Floppy:   floppy.NewController(),
		SysRegs:  sysregs.New(),
		Video:    video.New(),
		Audio:    audio.New(cfg.TargetHz, cfg.AudioRateHz),
		Tape:     tape.NewHook(cfg.Model),
		Scheduler: clock.NewScheduler(cfg.TargetHz, cfg.FPS),
		Debugger: debug.NewDebugger(),
		Logger:   debug.NewLogger(10000),
	}

	m.Floppy.SetLogger(m.Logger)
	m.Video.SetLogger(m.Logger)
	m.Audio.SetLogger(m.Logger)
	m.Timer.SetLogger(m.Logger)

	m.Audio.SetCovoxMode(cfg.CovoxMode)
	m.Audio.SetMixed(cfg.SynthMixed)

	m.Bus = memory.NewBus(m.Mapper)
	m.Bus.Video = m.Video
	m.Bus.Audio = m.Audio
	m.Bus.Joystick = m.Keyboard
	m.Bus.Tape = noTapeInput{}
	m.Bus.KeyDown = m.Keyboard.KeyDown

	m.Bus.RegisterDevice(m.Timer)
	m.Bus.RegisterDevice(m.Keyboard)
	m.Bus.RegisterDevice(m.Floppy)
	m.Bus.RegisterDevice(m.SysRegs)

	m.Floppy.Reconfigure = func(systemConfig uint8) {
		m.Mapper.ApplyPreset()
	}

	m.cpuLog = cpu.NewCPULoggerAdapter(m.Logger, cpu.CPULogNone)
	m.CPU = cpu.NewCPU(m.Bus, m.cpuLog)
	m.CPU.SetPC(entryAddr)

	m.wireInterruptSources()

	return m
}

// wireInterruptSources rebuilds the CPU's polled interrupt-source list from
// the bus's registered devices, in registration order (§4.3).
func (m *Machine) wireInterruptSources() {
	sources := make([]cpu.Interrupt, 0, len(m.Bus.Devices))
	for _, d := range m.Bus.Devices {
		sources = append(sources, d)
	}
	m.CPU.SetInterruptSources(sources)
}

// Reset implements §6.6 reset(): reapplies the model's page layout, resets
// the CPU and the frame scheduler, and jumps the CPU back to the ROM entry
// point. A pending tape load is discarded (§5). The keyboard, timer,
// floppy, video and audio devices keep their state.
func (m *Machine) Reset() {
	m.Mapper.ApplyPreset()
	m.CPU.Reset()
	m.CPU.SetPC(entryAddr)
	m.Tape.Disarm()
	m.Scheduler.Reset()
}

// NMI implements §6.6 nmi(): the STOP key.
func (m *Machine) NMI() { m.CPU.RaiseNMI() }

// CycleVideoMode implements §6.6 cycle_video_mode().
func (m *Machine) CycleVideoMode() { m.Video.CycleMode() }

// SetVideoMode implements §6.6 set_video_mode(0|1|2).
func (m *Machine) SetVideoMode(mode int) { m.Video.SetMode(mode) }

// SetTargetClock implements §6.6 set_target_clock(hz).
func (m *Machine) SetTargetClock(hz uint64) { m.Scheduler.SetTargetClock(hz) }

// SetAudioRate implements §6.6 set_audio_rate(hz).
func (m *Machine) SetAudioRate(hz uint64) { m.Audio.SetSampleRate(hz) }

// SetJoystick implements §6.6 set_joystick(state).
func (m *Machine) SetJoystick(state uint16) { m.joystickState = state }

// PressKey implements §6.6 press_key(scan_code, down). isAR2 selects the
// AR2-modified keyboard interrupt vector (§6.2).
func (m *Machine) PressKey(scanCode byte, down bool, isAR2 bool) {
	if down {
		m.Keyboard.Punch(scanCode, isAR2)
	} else {
		m.Keyboard.Release()
	}
}

// LoadROM implements §6.6 load_rom(name, bytes): auto-detects the ROM kind
// by size and maps it in.
func (m *Machine) LoadROM(bytes []byte) {
	kind := memory.DetectROMKind(bytes)
	m.Mapper.LoadROM(kind, bytes)
}

// InsertDisk implements §6.6 insert_disk(drive_index, name, bytes).
func (m *Machine) InsertDisk(driveIndex int, bytes []byte) {
	if driveIndex < 0 || driveIndex >= len(m.Floppy.Drives) {
		return
	}
	m.Floppy.Drives[driveIndex].Insert(bytes)
}

// EjectDisk implements §6.6 eject_disk.
func (m *Machine) EjectDisk(driveIndex int) {
	if driveIndex < 0 || driveIndex >= len(m.Floppy.Drives) {
		return
	}
	m.Floppy.Drives[driveIndex].Eject()
}

// ExportDisk implements §6.6 export_disk.
func (m *Machine) ExportDisk(driveIndex int) []byte {
	if driveIndex < 0 || driveIndex >= len(m.Floppy.Drives) {
		return nil
	}
	return m.Floppy.Drives[driveIndex].Export()
}

// ArmTapeLoad implements §6.6 arm_tape_load(name, bytes).
func (m *Machine) ArmTapeLoad(name string, bytes []byte) {
	m.Tape.Arm(name, bytes)
}

// SnapshotFramebuffer implements §6.6 snapshot_framebuffer().
func (m *Machine) SnapshotFramebuffer() []byte { return m.Video.Frame() }

// PullAudio implements §6.6 pull_audio(buffer).
func (m *Machine) PullAudio(buf []float32) int { return m.Audio.PullSamples(buf) }

// RunFrame implements the per-tick algorithm of §4.10: compute the
// adaptively-paced cycle budget, poll input, run the CPU to budget while
// interleaving the debugger and tape hooks, update the timed devices,
// renormalize the cycle counters, and present the frame.
func (m *Machine) RunFrame() {
	if m.Debugger.IsPaused() {
		return
	}

	budget := m.Scheduler.CyclesPerFrame()

	m.drainKeyEvents()
	m.Keyboard.SetJoystick(m.joystickState)

	start := m.CPU.Cycles
	for m.CPU.Cycles-start < budget {
		pc := m.CPU.PC()

		if m.Tape.Check(m.Bus, m.CPU, pc) {
			continue
		}
		if m.Debugger.ShouldBreak(pc) {
			break
		}

		m.CPU.Step()
	}
	ran := m.CPU.Cycles - start
	m.Scheduler.Observe(ran)

	m.Audio.Update(m.CPU.Cycles)
	m.Timer.Update(m.CPU.Cycles)
	m.Floppy.Update(m.CPU.Cycles)
	m.serviceTimerIRQ()

	m.renormalize()

	if m.Raster != nil {
		m.Raster.PresentFrame(m.Video.Frame(), video.Width, video.Height)
	}
}

// serviceTimerIRQ folds the timer's sticky overflow flag into a real CPU
// interrupt on BK-0011M models (§4.4, §4.10 step 6), gating on PSW priority
// the same way an ordinary bus device would; if priority is too low to
// take it now, the flag is left set for the next frame to retry.
func (m *Machine) serviceTimerIRQ() {
	if !m.Mapper.Model.IsBK0011M() || !m.Timer.Overflowed() {
		return
	}
	if m.CPU.Priority() >= cpu.DevicePriority {
		return
	}
	m.CPU.ServiceInterrupt(cpu.VectorIRQ)
	m.Timer.AcknowledgeOverflow()
}

// drainKeyEvents implements §4.10 step 3: ordinary key transitions go to
// the keyboard device, pseudo-keys are intercepted here.
func (m *Machine) drainKeyEvents() {
	if m.Keys == nil {
		return
	}
	for _, ev := range m.Keys.PollKeyEvents() {
		switch ev.Pseudo {
		case hostio.PseudoStop:
			m.CPU.RaiseNMI()
		case hostio.PseudoCycleVideoMode:
			m.Video.CycleMode()
		case hostio.PseudoReset:
			m.Reset()
		case hostio.PseudoNone:
			m.PressKey(ev.ScanCode, ev.Down, false)
		}
	}
}

// renormalizeThreshold is chosen far below the uint64 ceiling but high
// enough that ordinary sessions never reach it; renormalizing is a rare
// maintenance pass, not a per-frame one (doing it every frame would make
// the CPU cycle counter non-monotonic across frame boundaries, violating
// the "strictly monotonic across step() calls" invariant).
const renormalizeThreshold = 1 << 40

// renormalize implements §4.10 step 7: once the CPU's cycle counter passes
// a high watermark, subtract the common offset all the lazily-updated
// device counters share with it, so none of them drift toward overflow
// over a very long session.
func (m *Machine) renormalize() {
	if m.CPU.Cycles < renormalizeThreshold {
		return
	}
	offset := clock.Renormalize(m.CPU.Cycles, m.Timer.Cycles(), m.Floppy.Cycles(), m.Audio.Cycles())
	if offset == 0 {
		return
	}
	m.CPU.Cycles -= offset
	m.Timer.Rebase(offset)
	m.Floppy.Rebase(offset)
	m.Audio.Rebase(offset)
}
