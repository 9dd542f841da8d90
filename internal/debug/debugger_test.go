package debug

import "testing"

func TestBreakpointHitAndMiss(t *testing.T) {
	d := NewDebugger()
	d.SetBreakpoint(0x1000)
	if !d.ShouldBreak(0x1000) {
		t.Fatalf("expected breakpoint hit at 0x1000")
	}
	if d.ShouldBreak(0x1002) {
		t.Fatalf("unexpected breakpoint hit at 0x1002")
	}
	bps := d.GetAllBreakpoints()
	if bps[key(0x1000)].HitCount != 1 {
		t.Fatalf("hit count = %d, want 1", bps[key(0x1000)].HitCount)
	}
}

func TestStepOverArmsImplicitBreakpointAndClearsAfterHit(t *testing.T) {
	d := NewDebugger()
	d.StepOver(0x2000)
	if !d.ShouldBreak(0x2000) {
		t.Fatalf("expected step-over target to break")
	}
	if d.ShouldBreak(0x2000) {
		t.Fatalf("implicit breakpoint should have been cleared after the first hit")
	}
}

func TestStepRunsExactlyOneInstruction(t *testing.T) {
	d := NewDebugger()
	d.Step()
	if d.ShouldBreak(0x100) {
		t.Fatalf("expected the stepped instruction to run, not break immediately")
	}
	if d.IsPaused() {
		t.Fatalf("should not be paused before the stepped instruction completes")
	}
	if !d.ShouldBreak(0x102) {
		t.Fatalf("expected a break once the single step's instruction has run")
	}
	if !d.IsPaused() {
		t.Fatalf("expected paused after a single step exhausted")
	}
}

func TestWatchesRoundTrip(t *testing.T) {
	d := NewDebugger()
	d.AddWatch("R0")
	d.AddWatch("0x2000")
	if len(d.GetWatches()) != 2 {
		t.Fatalf("expected 2 watches")
	}
	d.RemoveWatch(0)
	if len(d.GetWatches()) != 1 {
		t.Fatalf("expected 1 watch after removal")
	}
}
