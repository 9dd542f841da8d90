package video

import "testing"

// S5. mode=0 (mono), scroll=0, video base=0x2000. Write 0x80 to byte
// 0x2000 (even/low byte of word 0). Pixel (7,0) is white, (6,0) is black.
func TestMonoPixelEmission(t *testing.T) {
	e := New()
	e.SetMode(0)
	e.WriteScroll(0)

	e.WriteVRAM(0, 0x0080)

	frame := e.Frame()
	px := func(x, y int) (r, g, b, a byte) {
		i := (y*Width + x) * 4
		return frame[i], frame[i+1], frame[i+2], frame[i+3]
	}

	r, g, b, _ := px(7, 0)
	if r != 255 || g != 255 || b != 255 {
		t.Fatalf("pixel (7,0) = (%d,%d,%d), want white", r, g, b)
	}
	r, g, b, _ = px(6, 0)
	if r != 0 || g != 0 || b != 0 {
		t.Fatalf("pixel (6,0) = (%d,%d,%d), want black", r, g, b)
	}
}

func TestVideoDeterminism(t *testing.T) {
	e1, e2 := New(), New()
	e1.SetMode(2)
	e2.SetMode(2)
	e1.WritePalette(0x0300)
	e2.WritePalette(0x0300)

	for _, e := range []*Engine{e1, e2} {
		e.WriteVRAM(10, 0x1234)
		e.WriteVRAM(200, 0xFFFF)
	}

	f1, f2 := e1.Frame(), e2.Frame()
	if len(f1) != len(f2) {
		t.Fatalf("frame length mismatch")
	}
	for i := range f1 {
		if f1[i] != f2[i] {
			t.Fatalf("frames diverged at byte %d", i)
			break
		}
	}
}

func TestCycleModeWraps(t *testing.T) {
	e := New()
	e.SetMode(0)
	e.CycleMode()
	e.CycleMode()
	e.CycleMode()
	if e.Mode() != 0 {
		t.Fatalf("mode = %d after 3 cycles, want wraparound to 0", e.Mode())
	}
}
