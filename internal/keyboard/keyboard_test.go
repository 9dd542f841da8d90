package keyboard

import "testing"

// S6. Keyboard interrupt: enable IE, punch 0x41, expect vector 0o60
// pending; reading data returns 0x41 and drops the interrupt line.
func TestKeyboardInterruptRoundTrip(t *testing.T) {
	k := New()
	k.WriteWord(addrStatus, statusIEBit)

	k.Punch(0x41, false)

	if !k.Pending() {
		t.Fatalf("interrupt not pending after punch with IE set")
	}
	if k.Vector() != vectorKeyboard {
		t.Fatalf("vector = %#o, want %#o", k.Vector(), vectorKeyboard)
	}

	v := k.ReadWord(addrData)
	if v != 0x41 {
		t.Fatalf("data = %#x, want 0x41", v)
	}
	if k.Pending() {
		t.Fatalf("interrupt still pending after data read")
	}
	if k.ReadWord(addrStatus)&statusReady != 0 {
		t.Fatalf("ready bit still set after data read")
	}
}

func TestNoInterruptWithoutIE(t *testing.T) {
	k := New()
	k.Punch(0x20, false)
	if k.Pending() {
		t.Fatalf("interrupt pending without IE set")
	}
}

func TestJoystickPinout(t *testing.T) {
	k := New()
	k.SetJoystick(JoyUp | JoyFire1)
	v := k.ReadPort()
	if v&JoyUp == 0 || v&JoyFire1 == 0 {
		t.Fatalf("joystick bits not preserved: %#x", v)
	}
}
