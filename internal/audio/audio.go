// Package audio implements the audio engine (C9): the speaker bit, an
// 8-bit DAC ("Covox"), and a three-channel PSG, mixed through a
// fixed-point resampler driven by the CPU's cycle counter.
package audio

import "github.com/kalininskiy/bk0010emu/internal/debug"

const (
	accumScale = 4096

	speakerAmplitude = 16
	dacScale         = 64

	slewStep = 32

	chipCyclesPerTick = 16
)

type CovoxMode int

const (
	CovoxOff CovoxMode = iota
	CovoxDirect
	CovoxSmart
)

// Engine mixes the three sources into either a mono stream or three
// parallel PSG streams, resampled from the CPU clock to a configured
// output rate (§4.9).
type Engine struct {
	psg *PSG

	speakerOn bool
	dacValue  int8
	covoxMode CovoxMode
	prevDAC   int8

	mixed bool // true = mono mix, false = 3 separate PSG channels

	cpuHz       uint64
	sampleHz    uint64
	accumulator int64

	lastCycle     uint64
	chipAccum     uint64 // fractional CPU cycles toward the next chip tick
	cpuPerChip    uint64

	current int32 // slewing mono output, previous sample value

	ring      []float32
	ringMono  bool
	clearAtBoundary bool

	logger *debug.Logger
}

func New(cpuHz, sampleHz uint64) *Engine {
	e := &Engine{
		psg:        NewPSG(),
		cpuHz:      cpuHz,
		sampleHz:   sampleHz,
		mixed:      true,
		cpuPerChip: chipCyclesPerTick,
	}
	return e
}

// SetLogger attaches a logger the engine reports covox mode changes through
// (ComponentAudio); nil (the zero value) is valid and simply suppresses
// logging.
func (e *Engine) SetLogger(logger *debug.Logger) { e.logger = logger }

func (e *Engine) SetCovoxMode(m CovoxMode) {
	if e.logger != nil && m != e.covoxMode {
		e.logger.LogAudiof(debug.LogLevelInfo, "covox mode change %d -> %d", e.covoxMode, m)
	}
	e.covoxMode = m
}
func (e *Engine) SetMixed(mixed bool) {
	if mixed != e.mixed && len(e.ring) > 0 {
		// Discard the queued samples so the ring never holds mono and
		// three-channel frames together.
		e.ring = e.ring[:0]
	}
	e.mixed = mixed
}

func (e *Engine) SetSampleRate(hz uint64) { e.sampleHz = hz }

func (e *Engine) cyclesPerSample() uint64 {
	if e.sampleHz == 0 {
		return 1
	}
	return e.cpuHz / e.sampleHz
}

// StrobeWrite implements memory.AudioPorts: the PSG register-select/write
// protocol plus, on the low byte, the DAC write (both share the I/O-write
// port per §6.1).
func (e *Engine) StrobeWrite(highByte bool, value uint8) {
	e.psg.Strobe(highByte, value)
	if !highByte {
		e.prevDAC = e.dacValue
		e.dacValue = int8(int16(value) - 128)
	}
}

func (e *Engine) SpeakerBit(on bool) { e.speakerOn = on }

// GetSpeakerOn and GetCovoxValue implement debug.AudioStateReader for the
// cycle logger.
func (e *Engine) GetSpeakerOn() bool   { return e.speakerOn }
func (e *Engine) GetCovoxValue() int8  { return e.dacValue }

// Update advances the engine to cpuCycles, running chip ticks and emitting
// samples as the fixed-point accumulator crosses thresholds (§4.9).
func (e *Engine) Update(cpuCycles uint64) {
	if cpuCycles <= e.lastCycle {
		return
	}
	elapsed := cpuCycles - e.lastCycle
	e.lastCycle = cpuCycles

	e.chipAccum += elapsed
	for e.chipAccum >= e.cpuPerChip {
		e.psg.Tick()
		e.chipAccum -= e.cpuPerChip
	}

	threshold := int64(e.cyclesPerSample()) * accumScale
	// §4.9: accumulate elapsed cycles in a fixed-point accumulator scaled by
	// 4096, emitting a sample each time it crosses cycles_per_sample*4096.
	e.accumulator += int64(elapsed) * accumScale

	for e.accumulator >= threshold {
		e.emitSample()
		e.accumulator -= threshold
	}
}

func (e *Engine) targetValue() int32 {
	var speaker, dac int32
	if e.speakerOn {
		speaker = speakerAmplitude
	}
	if e.covoxMode != CovoxOff {
		dac = int32(e.dacValue) * dacScale / 128
	}
	return speaker + dac
}

func (e *Engine) emitSample() {
	if !e.mixed {
		c0, c1, c2 := e.psg.Sample()
		e.ring = append(e.ring, float32(c0)/255, float32(c1)/255, float32(c2)/255)
		return
	}

	c0, c1, c2 := e.psg.Sample()
	psgMono := int32(c0) + int32(c1) + int32(c2)
	target := e.targetValue() + psgMono

	delta := target - e.current
	if delta > slewStep {
		delta = slewStep
	} else if delta < -slewStep {
		delta = -slewStep
	}
	e.current += delta

	out := e.current
	if out > -1 && out < 1 {
		out = 0
	}

	e.ring = append(e.ring, float32(out)/512)
}

// PullSamples implements hostio.AudioSink: it fills buf with resampled
// output, zero-order-holding the last sample on underrun (§4.9).
func (e *Engine) PullSamples(buf []float32) int {
	n := copy(buf, e.ring)
	if n > 0 {
		e.ring = e.ring[n:]
	}
	if n < len(buf) {
		var last float32
		if n > 0 {
			last = buf[n-1]
		}
		for i := n; i < len(buf); i++ {
			buf[i] = last
		}
	}
	if e.clearAtBoundary && len(e.ring) == 0 {
		e.clearAtBoundary = false
	}
	return n
}

// Cycles returns the cycle count the engine has caught up to, used by the
// scheduler's long-session counter renormalization (§4.10 step 7).
func (e *Engine) Cycles() uint64 { return e.lastCycle }

// Rebase subtracts offset from the engine's cycle counter.
func (e *Engine) Rebase(offset uint64) {
	if offset > e.lastCycle {
		e.lastCycle = 0
		return
	}
	e.lastCycle -= offset
}

func (e *Engine) Clear() {
	if len(e.ring) == 0 {
		e.ring = e.ring[:0]
		return
	}
	e.clearAtBoundary = true
}
