// Package cpu implements the K1801VM1 / PDP-11 subset instruction
// interpreter (C3): eight registers plus PSW, the standard PDP-11
// addressing modes, synchronous traps and device interrupts, and a
// monotonically increasing cycle counter.
package cpu

// Bus is the memory interface the CPU drives. It is satisfied by
// *memory.Bus; the CPU never imports the memory package directly so the
// two can be tested independently.
type Bus interface {
	ReadWord(addr uint16) uint16
	ReadByte(addr uint16) uint8
	WriteWord(addr uint16, v uint16)
	WriteByte(addr uint16, v uint8)
}

// Logger receives one call per retired instruction. Passing nil disables
// logging entirely.
type Logger interface {
	LogInstruction(state State, opcode uint16, cyclesAdded uint64)
}

// Interrupt is something the CPU can service between instructions: a
// device interrupt (polled off the bus) or the scheduler's NMI.
type Interrupt interface {
	Pending() bool
	Vector() uint16
}

// Register indices. R6 is the stack pointer, R7 the program counter.
const (
	SP = 6
	PC = 7
)

// PSW flag bits, matching the real PDP-11 layout.
const (
	FlagC uint16 = 1 << 0
	FlagV uint16 = 1 << 1
	FlagZ uint16 = 1 << 2
	FlagN uint16 = 1 << 3
	FlagT uint16 = 1 << 4 // trace bit
)

const priorityShift = 5

// Synchronous trap vectors (§6.2). The header there is explicit that the
// table is octal, so these are written the same way to stay literal.
const (
	VectorBusError = 0o4
	VectorIllegal  = 0o10
	VectorBPT      = 0o14
	VectorIOT      = 0o16
	VectorPowerFail = 0o20
	VectorEMT      = 0o24
	VectorTrap     = 0o30
	VectorKeyboard = 0o60
	VectorIRQ      = 0o100
	VectorKeyboardAR2 = 0o274
)

// State is a read-only snapshot of the CPU's architectural state, handed
// to the logger and the debug inspector.
type State struct {
	Regs   [8]uint16
	PSW    uint16
	Cycles uint64
}

// CPU is the emulated K1801VM1. It owns its register file and PSW
// exclusively; the bus is the only thing it reaches outside of itself.
type CPU struct {
	regs [8]uint16
	psw  uint16

	Cycles uint64

	Bus Bus
	Log Logger

	halted bool

	// NMI is latched by the scheduler (STOP key) and serviced before any
	// bus-device interrupt, unconditionally of PSW priority.
	nmiPending bool

	// interrupts is polled once per Step call; devices are supplied by the
	// scheduler via SetInterruptSources.
	interrupts []Interrupt
}

// NewCPU creates a CPU wired to bus, already reset (not halted); callers
// set the entry point with SetPC.
func NewCPU(bus Bus, log Logger) *CPU {
	c := &CPU{Bus: bus, Log: log}
	c.Reset()
	return c
}

// Reset clears R0-R5, PSW and the halted/NMI latches, per the
// Running -> Stopped -> (reset) -> Running state machine in §4.3. It does
// not touch SP or PC: callers set the entry point with SetPC after a ROM load,
// matching the teacher's pattern of never letting Reset clobber a
// freshly-mapped entry point.
func (c *CPU) Reset() {
	for i := 0; i < 6; i++ {
		c.regs[i] = 0
	}
	c.psw = 0
	c.halted = false
	c.nmiPending = false
}

// SetInterruptSources installs the devices the CPU polls for pending
// interrupts, in registration order (§4.3: "first device whose pending
// predicate holds is dispatched").
func (c *CPU) SetInterruptSources(sources []Interrupt) {
	c.interrupts = sources
}

// RaiseNMI latches an unconditional NMI, serviced before the next
// instruction regardless of PSW priority (§4.3, §4.10 STOP key).
func (c *CPU) RaiseNMI() { c.nmiPending = true }

// Reg returns register i (0-7).
func (c *CPU) Reg(i int) uint16 { return c.regs[i] }

// SetReg writes register i (0-7).
func (c *CPU) SetReg(i int, v uint16) { c.regs[i] = v }

// PC returns the program counter (R7).
func (c *CPU) PC() uint16 { return c.regs[PC] }

// SetPC sets the program counter (R7), used by reset/entry-point setup
// and by trap/interrupt dispatch.
func (c *CPU) SetPC(v uint16) { c.regs[PC] = v }

// PSW returns the full processor status word.
func (c *CPU) PSW() uint16 { return c.psw }

// SetPSW replaces the full processor status word.
func (c *CPU) SetPSW(v uint16) { c.psw = v }

// Flag reports whether a single PSW bit is set.
func (c *CPU) Flag(mask uint16) bool { return c.psw&mask != 0 }

// SetFlag sets or clears a single PSW bit.
func (c *CPU) SetFlag(mask uint16, v bool) {
	if v {
		c.psw |= mask
	} else {
		c.psw &^= mask
	}
}

// Priority returns the current PSW interrupt priority level (0-7).
func (c *CPU) Priority() uint8 { return uint8((c.psw >> priorityShift) & 7) }

// Halted reports whether the CPU is in the Stopped state (§4.3).
func (c *CPU) Halted() bool { return c.halted }

// State snapshots the CPU's architectural state for logging/inspection.
func (c *CPU) State() State {
	return State{Regs: c.regs, PSW: c.psw, Cycles: c.Cycles}
}

func (c *CPU) fetchWord() uint16 {
	w := c.Bus.ReadWord(c.regs[PC])
	c.regs[PC] += 2
	return w
}

func (c *CPU) push(v uint16) {
	c.regs[SP] -= 2
	c.Bus.WriteWord(c.regs[SP], v)
}

func (c *CPU) pop() uint16 {
	v := c.Bus.ReadWord(c.regs[SP])
	c.regs[SP] += 2
	return v
}

// trap pushes PSW and PC, then loads both from the vector pair. This is
// the one dispatch path used by synchronous traps, device interrupts and
// NMI alike (§4.3).
func (c *CPU) trap(vector uint16) {
	savedPSW := c.psw
	savedPC := c.regs[PC]
	c.push(savedPSW)
	c.push(savedPC)
	newPC := c.Bus.ReadWord(vector)
	newPSW := c.Bus.ReadWord(vector + 2)
	c.regs[PC] = newPC
	c.psw = newPSW
	c.halted = false
}

// Step executes exactly one instruction, or services one pending
// interrupt/trap in its place, and adds the cycles consumed to the
// monotonic counter (TESTABLE PROPERTIES #3, #9).
func (c *CPU) Step() error {
	if c.nmiPending {
		c.nmiPending = false
		c.trap(VectorIRQ) // NMI reuses the IRQ vector slot's dispatch path but is unconditional
		c.Cycles += baselineTrapCycles
		return nil
	}

	if c.halted {
		// A halted CPU still consumes a nominal number of cycles so wall
		// clock pacing downstream (timer, audio) keeps moving.
		c.Cycles += haltedStepCycles
		return nil
	}

	if dev, ok := c.pendingInterrupt(); ok {
		c.trap(dev.Vector())
		c.Cycles += baselineTrapCycles
		return nil
	}

	start := c.regs[PC]
	opcode := c.fetchWord()
	cyclesAdded := c.execute(opcode)
	c.Cycles += cyclesAdded

	if c.Log != nil {
		c.Log.LogInstruction(c.State(), opcode, cyclesAdded)
	}
	_ = start
	return nil
}

// ServiceInterrupt drives the trap-dispatch path for a vector sourced
// outside the CPU's own polled device list, used by the scheduler to fold
// the timer's BK-0011M IRQ into the normal PSW/PC-save dispatch once it has
// decided (by priority) that the interrupt should be taken now rather than
// left pending (§4.10 step 6).
func (c *CPU) ServiceInterrupt(vector uint16) {
	c.trap(vector)
	c.Cycles += baselineTrapCycles
}

func (c *CPU) pendingInterrupt() (Interrupt, bool) {
	priority := c.Priority()
	for _, d := range c.interrupts {
		if d.Pending() {
			// K1801VM1 devices run at priority 6; only a CPU already at a
			// lower priority accepts the interrupt (§4.3).
			if priority < devicePriority {
				return d, true
			}
		}
	}
	return nil, false
}

const (
	devicePriority      = 6
	baselineTrapCycles  = 18
	haltedStepCycles    = 4
)

// DevicePriority is devicePriority, exported so external interrupt sources
// the scheduler services directly (the timer's BK-0011M IRQ) gate on the
// same priority rule ordinary bus devices do.
const DevicePriority = devicePriority
