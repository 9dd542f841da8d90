package timer

import "testing"

// S3. start=4, config=0x1C (enable + int-enable + stop-on-overflow),
// advance CPU by 5*128=640 cycles. Expected: overflow set, enable
// cleared, count = 4.
func TestUnderflowStopOnOverflow(t *testing.T) {
	tm := New()
	tm.WriteWord(addrStart, 4)
	tm.WriteWord(addrConfig, 0x1C)

	tm.Update(640)

	if !tm.Overflowed() {
		t.Fatalf("overflow flag not set")
	}
	if tm.config&bitEnable != 0 {
		t.Fatalf("enable bit not cleared")
	}
	if tm.ReadWord(addrCount) != 4 {
		t.Fatalf("count = %d, want 4", tm.ReadWord(addrCount))
	}
}

func TestConfigHighBytePinned(t *testing.T) {
	tm := New()
	tm.WriteWord(addrConfig, 0x00FF)
	if tm.ReadWord(addrConfig)&0xFF00 != 0xFF00 {
		t.Fatalf("config high byte not pinned: %#x", tm.ReadWord(addrConfig))
	}
}

func TestReloadModeFreezesAtStart(t *testing.T) {
	tm := New()
	tm.WriteWord(addrStart, 10)
	tm.WriteWord(addrConfig, bitReload|bitEnable)
	tm.Update(uint64(basePeriod) * 3)
	if tm.ReadWord(addrCount) != 10 {
		t.Fatalf("count = %d, want 10 (reload mode freezes)", tm.ReadWord(addrCount))
	}
}

func TestPrescalerCombines(t *testing.T) {
	tm := New()
	tm.WriteWord(addrConfig, bitPrescaleX4|bitPrescaleX16)
	if tm.period() != basePeriod*64 {
		t.Fatalf("period = %d, want %d", tm.period(), basePeriod*64)
	}
}
