package tape

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kalininskiy/bk0010emu/internal/memory"
)

type fakeBus struct {
	mem map[uint16]byte
}

func newFakeBus() *fakeBus { return &fakeBus{mem: make(map[uint16]byte)} }

func (b *fakeBus) ReadByte(addr uint16) uint8     { return b.mem[addr] }
func (b *fakeBus) WriteByte(addr uint16, v uint8) { b.mem[addr] = v }
func (b *fakeBus) ReadWord(addr uint16) uint16 {
	return uint16(b.mem[addr]) | uint16(b.mem[addr+1])<<8
}
func (b *fakeBus) WriteWord(addr uint16, v uint16) {
	b.mem[addr] = byte(v)
	b.mem[addr+1] = byte(v >> 8)
}

type fakeCPU struct {
	pc   uint16
	regs [8]uint16
}

func (c *fakeCPU) PC() uint16             { return c.pc }
func (c *fakeCPU) SetPC(v uint16)         { c.pc = v }
func (c *fakeCPU) Reg(i int) uint16       { return c.regs[i] }
func (c *fakeCPU) SetReg(i int, v uint16) { c.regs[i] = v }

func TestHookFiresOnlyAtEntryWhenArmed(t *testing.T) {
	h := NewHook(memory.ModelBK0010Base)
	h.Arm("TEST", []byte{0x00, 0x10, 2, 0, 0xAB, 0xCD})
	bus := newFakeBus()
	bus.WriteByte(bk0010Block.command, 1)
	cpu := &fakeCPU{}

	require.False(t, h.Check(bus, cpu, 0), "should not fire away from the entry point")
	require.True(t, h.Check(bus, cpu, bk0010Block.entry), "expected the hook to fire at the entry point")
	require.False(t, h.Armed(), "hook should disarm itself after firing")
}

func TestHookCopiesPayloadAndPatchesBlock(t *testing.T) {
	h := NewHook(memory.ModelBK0010Base)
	h.Arm("HI", []byte{0x00, 0x10, 2, 0, 0xAB, 0xCD})
	bus := newFakeBus()
	bus.WriteByte(bk0010Block.command, 1)
	bus.WriteWord(0x1000, 0) // seed the stack word at SP; the payload load overwrites it before the emulated RTS pops it
	cpu := &fakeCPU{}
	cpu.SetReg(6, 0x1000)

	h.Check(bus, cpu, bk0010Block.entry)

	require.Equal(t, uint8(0xAB), bus.ReadByte(0x1000))
	require.Equal(t, uint8(0xCD), bus.ReadByte(0x1001))
	require.Equal(t, uint16(0x1000), bus.ReadWord(bk0010Block.loadAddr), "load address not written back")
	require.Equal(t, uint16(2), bus.ReadWord(bk0010Block.length), "length not written back")
	require.Equal(t, uint8(0), bus.ReadByte(bk0010Block.command), "command byte not zeroed")
	require.Equal(t, uint16(0x1002), cpu.Reg(6), "SP not advanced by the emulated RTS")
}

func TestHookIgnoresNonReadCommand(t *testing.T) {
	h := NewHook(memory.ModelBK0010Base)
	h.Arm("X", []byte{0, 0, 0, 0})
	bus := newFakeBus()
	bus.WriteByte(bk0010Block.command, 9)
	cpu := &fakeCPU{}

	require.False(t, h.Check(bus, cpu, bk0010Block.entry), "should not fire when the command byte isn't 'read'")
	require.True(t, h.Armed(), "hook should remain armed when it declines to fire")
}

func TestHookUsesModelSpecificEntry(t *testing.T) {
	h := NewHook(memory.ModelBK0011M)
	require.Equal(t, uint16(memory.MonitorEntryBK0011M), h.EntryAddr())
}
