package debug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeMem struct {
	words map[uint16]uint16
}

func (m fakeMem) ReadWord(addr uint16) uint16 { return m.words[addr] }

func TestDecodeHalt(t *testing.T) {
	mem := fakeMem{words: map[uint16]uint16{0: 0}}
	text, length := Decode(mem, 0)
	require.Equal(t, "HALT", text)
	require.Equal(t, 1, length)
}

func TestDecodeMovImmediateToRegister(t *testing.T) {
	// MOV #5,R0: opcode 0o012700, extension word 5.
	mem := fakeMem{words: map[uint16]uint16{
		0x400: 0o012700,
		0x402: 5,
	}}
	text, length := Decode(mem, 0x400)
	require.True(t, strings.HasPrefix(text, "MOV"), "got %q, want MOV mnemonic", text)
	require.Equal(t, 2, length, "opcode + immediate word")
}

func TestDecodeClrRegister(t *testing.T) {
	// CLR R1: opcode 0o005001.
	mem := fakeMem{words: map[uint16]uint16{0x400: 0o005001}}
	text, length := Decode(mem, 0x400)
	require.True(t, strings.HasPrefix(text, "CLR"), "got %q, want CLR mnemonic", text)
	require.Equal(t, 1, length)
}

func TestDecodeRts(t *testing.T) {
	mem := fakeMem{words: map[uint16]uint16{0x400: 0o000207}}
	text, _ := Decode(mem, 0x400)
	require.Equal(t, "RTS PC", text)
}

func TestDecodeBranch(t *testing.T) {
	// BR +2 words forward: opcode 0o000401 (offset 1).
	mem := fakeMem{words: map[uint16]uint16{0x400: 0o000401}}
	text, length := Decode(mem, 0x400)
	require.True(t, strings.HasPrefix(text, "BR"), "got %q, want BR mnemonic", text)
	require.Equal(t, 1, length)
}
