// Package clock implements the frame-budget scheduler (C10): a pure
// cycles-per-frame calculation with adaptive pacing, driven once per
// external tick by the machine that owns the actual devices.
package clock

const (
	adjustStep      = 30
	adjustThreshold = 2000
	maxDrift        = 1500000
)

// Scheduler tracks the target clock and visual frame rate and derives the
// CPU cycle budget for one frame, nudging it toward the true target_hz once
// per second's worth of frames (§4.10's adaptive-pacing rule).
type Scheduler struct {
	targetHz uint64
	fps      float64

	baseCyclesPerFrame uint64
	drift              int64 // signed adjustment applied on top of the baseline, clamped to ±maxDrift

	ticksPerSecond   uint64
	framesThisWindow uint64
	cyclesThisWindow uint64
}

// NewScheduler builds a scheduler for the given target clock (Hz) and
// visual frame rate (e.g. 20 for the default mode, 60 for animation mode).
func NewScheduler(targetHz uint64, fps float64) *Scheduler {
	s := &Scheduler{targetHz: targetHz, fps: fps}
	s.recompute()
	return s
}

func (s *Scheduler) recompute() {
	if s.fps <= 0 {
		s.baseCyclesPerFrame = s.targetHz
	} else {
		s.baseCyclesPerFrame = uint64(float64(s.targetHz) / s.fps)
	}
	s.ticksPerSecond = uint64(s.fps + 0.5)
	if s.ticksPerSecond == 0 {
		s.ticksPerSecond = 1
	}
}

// SetTargetClock changes target_hz, re-deriving the baseline budget but
// keeping the accumulated adaptive drift (§6.6 set_target_clock).
func (s *Scheduler) SetTargetClock(hz uint64) {
	s.targetHz = hz
	s.recompute()
}

func (s *Scheduler) SetFPS(fps float64) {
	s.fps = fps
	s.recompute()
}

func (s *Scheduler) TargetClock() uint64 { return s.targetHz }

// CyclesPerFrame returns this frame's cycle budget (§4.10 step 2).
func (s *Scheduler) CyclesPerFrame() uint64 {
	budget := int64(s.baseCyclesPerFrame) + s.drift
	if budget < 0 {
		return 0
	}
	return uint64(budget)
}

// Observe records the cycles actually run this frame. Once ticksPerSecond
// frames have been observed, it compares the realized total against
// target_hz and adjusts the per-frame budget by ±adjustStep if the error
// exceeds adjustThreshold, capped at ±maxDrift total.
func (s *Scheduler) Observe(cyclesRan uint64) {
	s.cyclesThisWindow += cyclesRan
	s.framesThisWindow++
	if s.framesThisWindow < s.ticksPerSecond {
		return
	}

	errCycles := int64(s.cyclesThisWindow) - int64(s.targetHz)
	if errCycles > adjustThreshold {
		s.adjust(-adjustStep)
	} else if errCycles < -adjustThreshold {
		s.adjust(adjustStep)
	}

	s.framesThisWindow = 0
	s.cyclesThisWindow = 0
}

func (s *Scheduler) adjust(delta int64) {
	s.drift += delta
	if s.drift > maxDrift {
		s.drift = maxDrift
	} else if s.drift < -maxDrift {
		s.drift = -maxDrift
	}
}

// Reset clears the adaptive-pacing window and drift, used when the host
// resets the machine or changes the target clock wholesale.
func (s *Scheduler) Reset() {
	s.drift = 0
	s.framesThisWindow = 0
	s.cyclesThisWindow = 0
}

// Renormalize returns the offset the caller should subtract from every
// cycle counter it tracks (CPU, timer, audio, floppy) to avoid integer
// overflow over a long session (§4.10 step 7): the minimum of counters, so
// no counter goes below zero and their differences are unchanged by the
// subtraction. With no counters it returns 0.
func Renormalize(counters ...uint64) uint64 {
	if len(counters) == 0 {
		return 0
	}
	min := counters[0]
	for _, c := range counters[1:] {
		if c < min {
			min = c
		}
	}
	return min
}
