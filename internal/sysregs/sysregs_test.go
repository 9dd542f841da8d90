package sysregs

import "testing"

func TestFixedValuesAndIgnoredWrites(t *testing.T) {
	s := New()
	if s.ReadWord(addr0) != value0 || s.ReadWord(addr1) != value1 || s.ReadWord(addr2) != value2 {
		t.Fatalf("unexpected identification values")
	}
	s.WriteWord(addr0, 0x1234)
	if s.ReadWord(addr0) != value0 {
		t.Fatalf("write changed a read-only register")
	}
	if s.Pending() {
		t.Fatalf("sysregs must never raise an interrupt")
	}
}
