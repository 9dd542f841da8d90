// Package tape implements the fast tape-load hook (C11): a transparent
// intercept of the monitor's "load from tape" routine that copies a BIN
// payload straight into memory instead of demodulating audio.
package tape

import "github.com/kalininskiy/bk0010emu/internal/memory"

// Bus is the subset of memory.Bus the hook needs to read the monitor's
// parameter block and deposit the payload.
type Bus interface {
	ReadWord(addr uint16) uint16
	WriteWord(addr uint16, v uint16)
	ReadByte(addr uint16) uint8
	WriteByte(addr uint16, v uint8)
}

// CPU is the subset of cpu.CPU the hook needs to recognise the entry point
// and emulate the RTS that completes it.
type CPU interface {
	PC() uint16
	SetPC(v uint16)
	Reg(i int) uint16
	SetReg(i int, v uint16)
}

// paramBlock describes the monitor's tape-parameter-block layout, which
// differs between BK-0010 and BK-0011M (§4.11 "fields at different offsets
// per model"). These offsets are opaque constants read off the monitor ROM
// disassembly, the same way MonitorEntryBK0010/BK0011M are.
type paramBlock struct {
	entry       uint16
	command     uint16 // offset of the tape-command byte
	readCommand uint16 // command value meaning "read"
	loadAddr    uint16 // offset of the 16-bit load address field
	length      uint16 // offset of the 16-bit length field
	filename    uint16 // offset of the 16-byte filename field
}

var bk0010Block = paramBlock{
	entry:       memory.MonitorEntryBK0010,
	command:     0o30,
	readCommand: 1,
	loadAddr:    0o32,
	length:      0o34,
	filename:    0o36,
}

var bk0011mBlock = paramBlock{
	entry:       memory.MonitorEntryBK0011M,
	command:     0o40,
	readCommand: 1,
	loadAddr:    0o42,
	length:      0o44,
	filename:    0o46,
}

// Hook holds one armed tape payload and knows how to splice it into memory
// when the CPU reaches the model's ROM tape entry point.
type Hook struct {
	armed bool
	model memory.Model

	name    string
	payload []byte // §6.4 format: load address (2) + length (2) + data
}

func NewHook(model memory.Model) *Hook {
	return &Hook{model: model}
}

// Arm loads a BIN payload for the next tape-load the monitor performs. A
// reset discards any pending arm (§5 "a pending tape load is discarded on
// reset"), which Machine.Reset does by calling Disarm.
func (h *Hook) Arm(name string, payload []byte) {
	h.name = name
	h.payload = payload
	h.armed = len(payload) >= 4
}

func (h *Hook) Disarm() { h.armed = false }

func (h *Hook) Armed() bool { return h.armed }

func (h *Hook) block() paramBlock {
	if h.model.IsBK0011M() {
		return bk0011mBlock
	}
	return bk0010Block
}

// EntryAddr returns the ROM address the scheduler must compare the CPU's PC
// against before every instruction (§4.11 step 0).
func (h *Hook) EntryAddr() uint16 { return h.block().entry }

// Check runs the hook's full body if the hook is armed and pc matches the
// model's tape entry point; it reports whether it fired (and therefore
// control has already been transferred via the emulated RTS).
func (h *Hook) Check(bus Bus, c CPU, pc uint16) bool {
	if !h.armed || pc != h.EntryAddr() {
		return false
	}

	pb := h.block()
	if bus.ReadByte(pb.command) != byte(pb.readCommand) {
		return false
	}

	loadAddr := uint16(h.payload[0]) | uint16(h.payload[1])<<8
	length := uint16(h.payload[2]) | uint16(h.payload[3])<<8
	data := h.payload[4:]
	if int(length) > len(data) {
		length = uint16(len(data))
	}

	for i := uint16(0); i < length; i++ {
		bus.WriteByte(loadAddr+i, data[i])
	}

	bus.WriteWord(pb.loadAddr, loadAddr)
	bus.WriteWord(pb.length, length)
	writeFilename(bus, pb.filename, h.name)

	bus.WriteByte(pb.command, 0)

	// Emulate RTS: pop PC from the stack pointer in R6 (§4.11 step 6).
	sp := c.Reg(6)
	newPC := bus.ReadWord(sp)
	c.SetReg(6, sp+2)
	c.SetPC(newPC)

	h.armed = false
	return true
}

// writeFilename copies up to 16 bytes of name into the block, space-padded
// (§4.11 step 4).
func writeFilename(bus Bus, addr uint16, name string) {
	const fieldLen = 16
	for i := 0; i < fieldLen; i++ {
		var b byte = ' '
		if i < len(name) {
			b = name[i]
		}
		bus.WriteByte(addr+uint16(i), b)
	}
}
