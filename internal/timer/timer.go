// Package timer implements the programmable downcounter (C4): a
// START/COUNT/CONFIG register triple with a prescaled countdown that is
// lazily caught up to the CPU's cycle count on every access.
package timer

import "github.com/kalininskiy/bk0010emu/internal/debug"

const (
	addrStart  = 0xFEC6
	addrCount  = 0xFEC8
	addrConfig = 0xFECA

	basePeriod = 128 // CPU cycles per tick at prescaler ×1

	bitReload         = 1 << 0
	bitHold           = 1 << 1
	bitInterruptArmed = 1 << 2
	bitStopOnOverflow = 1 << 3
	bitEnable         = 1 << 4
	bitPrescaleX16    = 1 << 5
	bitPrescaleX4     = 1 << 6
	bitOverflow       = 1 << 7

	configHighBytePinned = 0xFF00
)

// Timer is the K1801VM1 programmable interval timer. It never asserts a
// vector directly; the scheduler folds its overflow flag into the
// BK-0011M IRQ path (§4.10).
type Timer struct {
	start  uint16
	count  uint16
	config uint16

	lastUpdateCycle uint64

	logger *debug.Logger
}

func New() *Timer {
	return &Timer{config: configHighBytePinned}
}

// SetLogger attaches a logger the timer reports overflow through
// (ComponentTimer); nil (the zero value) is valid and simply suppresses
// logging.
func (t *Timer) SetLogger(logger *debug.Logger) { t.logger = logger }

// period returns the current prescaled tick period in CPU cycles.
func (t *Timer) period() uint64 {
	p := uint64(basePeriod)
	if t.config&bitPrescaleX4 != 0 {
		p *= 4
	}
	if t.config&bitPrescaleX16 != 0 {
		p *= 16
	}
	return p
}

// catchUp advances count by however many whole ticks have elapsed since the
// last update, applying reload/hold/stop-on-overflow semantics per tick.
// cpuCycles is the CPU's current absolute cycle count; the invariant
// device.cycles <= cpu.cycles holds after this call (§5).
func (t *Timer) catchUp(cpuCycles uint64) {
	if cpuCycles <= t.lastUpdateCycle {
		return
	}
	elapsed := cpuCycles - t.lastUpdateCycle
	period := t.period()
	ticks := elapsed / period
	t.lastUpdateCycle += ticks * period

	if ticks == 0 {
		return
	}

	if t.config&bitReload != 0 {
		t.count = t.start
		return
	}
	if t.config&bitEnable == 0 {
		return
	}
	if t.config&bitHold != 0 {
		return
	}

	for ticks > 0 {
		if t.count == 0 {
			t.onUnderflow()
			if t.config&bitEnable == 0 {
				return
			}
		}
		step := ticks
		if uint64(t.count) < step {
			step = uint64(t.count)
		}
		if step == 0 {
			step = 1
		}
		t.count -= uint16(step)
		ticks -= step
	}
}

func (t *Timer) onUnderflow() {
	if t.config&bitInterruptArmed != 0 {
		t.config |= bitOverflow
		if t.logger != nil {
			t.logger.LogTimerf(debug.LogLevelDebug, "overflow, reload=%d stopOnOverflow=%v",
				t.start, t.config&bitStopOnOverflow != 0)
		}
	}
	if t.config&bitStopOnOverflow != 0 {
		t.config &^= bitEnable
		t.count = t.start
		return
	}
	if t.start == 0 {
		t.count = 0
		return
	}
	t.count = t.start
}

// Overflowed reports the sticky overflow flag, which the scheduler reads to
// decide whether to route a BK-0011M IRQ (§4.4, §4.10).
func (t *Timer) Overflowed() bool { return t.config&bitOverflow != 0 }

// AcknowledgeOverflow clears the sticky overflow flag once the scheduler
// has folded it into an IRQ dispatch.
func (t *Timer) AcknowledgeOverflow() { t.config &^= bitOverflow }

// Pending always reports false: per §4.4 the timer never asserts a bus
// device interrupt directly, it only sets the overflow flag the scheduler
// polls via Overflowed. It still implements memory.Device so it can be
// registered on the bus for register access.
func (t *Timer) Pending() bool { return false }

func (t *Timer) Contains(addr uint16) bool {
	return addr == addrStart || addr == addrCount || addr == addrConfig
}

func (t *Timer) Update(cpuCycles uint64) { t.catchUp(cpuCycles) }

func (t *Timer) ReadWord(addr uint16) uint16 {
	switch addr {
	case addrStart:
		return t.start
	case addrCount:
		return t.count
	case addrConfig:
		return t.config | configHighBytePinned
	}
	return 0
}

func (t *Timer) ReadByte(addr uint16) uint8 {
	w := t.ReadWord(addr &^ 1)
	if addr&1 == 1 {
		return uint8(w >> 8)
	}
	return uint8(w)
}

func (t *Timer) WriteWord(addr uint16, v uint16) {
	switch addr {
	case addrStart:
		t.start = v
	case addrConfig:
		t.config = (v &^ configHighBytePinned) | configHighBytePinned
	}
}

func (t *Timer) WriteByteAsWord(addr uint16, v uint8) {
	base := addr &^ 1
	cur := t.ReadWord(base)
	if addr&1 == 1 {
		cur = (cur & 0x00FF) | uint16(v)<<8
	} else {
		cur = (cur & 0xFF00) | uint16(v)
	}
	t.WriteWord(base, cur)
}

// Vector is unused: the timer never asserts a bus-level device interrupt.
func (t *Timer) Vector() uint16 { return 0 }

// Cycles returns the cycle count the timer has caught up to, used by the
// scheduler's long-session counter renormalization (§4.10 step 7).
func (t *Timer) Cycles() uint64 { return t.lastUpdateCycle }

// Rebase subtracts offset from the timer's cycle counter, keeping it in
// step with the CPU counter the scheduler just rebased by the same amount.
func (t *Timer) Rebase(offset uint64) {
	if offset > t.lastUpdateCycle {
		t.lastUpdateCycle = 0
		return
	}
	t.lastUpdateCycle -= offset
}
