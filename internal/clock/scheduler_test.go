package clock

import "testing"

func TestCyclesPerFrameBaseline(t *testing.T) {
	s := NewScheduler(4000000, 20)
	if got := s.CyclesPerFrame(); got != 200000 {
		t.Fatalf("CyclesPerFrame() = %d, want 200000", got)
	}
}

func TestObserveAdjustsDownWhenRunningHot(t *testing.T) {
	s := NewScheduler(4000000, 20)
	base := s.CyclesPerFrame()
	for i := 0; i < 20; i++ {
		s.Observe(base + 10000) // total this window: way over target_hz
	}
	if s.CyclesPerFrame() >= base {
		t.Fatalf("expected budget to shrink after a hot second, got %d (base %d)", s.CyclesPerFrame(), base)
	}
}

func TestObserveIgnoresSmallError(t *testing.T) {
	s := NewScheduler(4000000, 20)
	base := s.CyclesPerFrame()
	for i := 0; i < 20; i++ {
		s.Observe(base) // exactly on target
	}
	if s.CyclesPerFrame() != base {
		t.Fatalf("budget drifted with zero error: got %d, want %d", s.CyclesPerFrame(), base)
	}
}

func TestDriftClampedToMaxDrift(t *testing.T) {
	s := NewScheduler(4000000, 20)
	for i := 0; i < 100000; i++ {
		s.Observe(0) // always way under target_hz, pushing drift positive every window
	}
	base := uint64(200000)
	if s.CyclesPerFrame() > base+maxDrift {
		t.Fatalf("drift exceeded cap: CyclesPerFrame=%d", s.CyclesPerFrame())
	}
}

func TestRenormalizeReturnsMinimum(t *testing.T) {
	if got := Renormalize(500, 300, 700); got != 300 {
		t.Fatalf("Renormalize = %d, want 300", got)
	}
}

func TestSetTargetClockRecomputesBaseline(t *testing.T) {
	s := NewScheduler(4000000, 20)
	s.SetTargetClock(3000000)
	if got := s.CyclesPerFrame(); got != 150000 {
		t.Fatalf("CyclesPerFrame() after retarget = %d, want 150000", got)
	}
}
