package audio

import "testing"

func TestEngineSpeakerProducesNonZeroTarget(t *testing.T) {
	e := New(1000000, 44100)
	if e.targetValue() != 0 {
		t.Fatalf("target should be 0 before speaker is asserted")
	}
	e.SpeakerBit(true)
	if e.targetValue() == 0 {
		t.Fatalf("target should be non-zero once the speaker bit is set")
	}
}

func TestEngineStrobeWriteDelegatesToPSG(t *testing.T) {
	e := New(1000000, 44100)
	e.StrobeWrite(true, 0xFF) // select register 0 (bits inverted)
	e.StrobeWrite(false, 0x42)
	if e.psg.regs[0] != 0x42 {
		t.Fatalf("StrobeWrite did not reach the PSG")
	}
}

func TestEngineDACWriteTracksPreviousValue(t *testing.T) {
	e := New(1000000, 44100)
	e.covoxMode = CovoxDirect
	e.StrobeWrite(false, 0x80)
	if e.dacValue != 0 {
		t.Fatalf("dacValue = %d, want 0 for input 0x80", e.dacValue)
	}
	e.StrobeWrite(false, 0xFF)
	if e.prevDAC != 0 {
		t.Fatalf("prevDAC should carry the prior sample")
	}
}

func TestEngineUpdateEmitsSamplesOverTime(t *testing.T) {
	e := New(1000000, 44100)
	e.SpeakerBit(true)
	e.Update(e.cyclesPerSample() * 10)
	if len(e.ring) == 0 {
		t.Fatalf("no samples emitted after 10 sample periods")
	}
}

func TestEnginePullZeroOrderHoldsOnUnderrun(t *testing.T) {
	e := New(1000000, 44100)
	e.SpeakerBit(true)
	e.Update(e.cyclesPerSample() * 2)

	buf := make([]float32, 16)
	n := e.PullSamples(buf)
	if n >= len(buf) {
		t.Fatalf("expected underrun with only 2 samples emitted")
	}
	last := buf[n-1]
	for i := n; i < len(buf); i++ {
		if buf[i] != last {
			t.Fatalf("buf[%d] = %v, want zero-order hold of %v", i, buf[i], last)
		}
	}
}

func TestEngineDeterministicAcrossRuns(t *testing.T) {
	run := func() []float32 {
		e := New(1000000, 44100)
		e.StrobeWrite(true, 0xFF)
		e.StrobeWrite(false, 0x40)
		e.StrobeWrite(true, 0xF8)
		e.StrobeWrite(false, 0x00)
		e.SpeakerBit(true)
		e.Update(e.cyclesPerSample() * 50)
		buf := make([]float32, 50)
		e.PullSamples(buf)
		return buf
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d diverged: %v vs %v", i, a[i], b[i])
		}
	}
}
