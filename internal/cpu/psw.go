package cpu

// setNZWord sets N and Z from a 16-bit result, leaving V and C untouched
// (callers that need V/C set them separately per §4.3).
func (c *CPU) setNZWord(result uint16) {
	c.SetFlag(FlagN, result&0x8000 != 0)
	c.SetFlag(FlagZ, result == 0)
}

func (c *CPU) setNZByte(result uint8) {
	c.SetFlag(FlagN, result&0x80 != 0)
	c.SetFlag(FlagZ, result == 0)
}

// addWord computes a+b+carryIn as a 16-bit result and sets N,Z,V,C per the
// PDP-11 ADD rules: V on signed overflow, C on unsigned carry out.
func (c *CPU) addWord(a, b uint16, carryIn uint16) uint16 {
	sum := uint32(a) + uint32(b) + uint32(carryIn)
	result := uint16(sum)
	c.setNZWord(result)
	signA, signB, signR := a&0x8000 != 0, b&0x8000 != 0, result&0x8000 != 0
	c.SetFlag(FlagV, signA == signB && signA != signR)
	c.SetFlag(FlagC, sum > 0xFFFF)
	return result
}

// subWord computes a-b-borrowIn and sets N,Z,V,C per the PDP-11 SUB/CMP
// rules. Note CMP computes src-dst but discards the result.
func (c *CPU) subWord(a, b uint16, borrowIn uint16) uint16 {
	diff := uint32(a) - uint32(b) - uint32(borrowIn)
	result := uint16(diff)
	c.setNZWord(result)
	signA, signB, signR := a&0x8000 != 0, b&0x8000 != 0, result&0x8000 != 0
	c.SetFlag(FlagV, signA != signB && signA != signR)
	c.SetFlag(FlagC, uint32(a) < uint32(b)+uint32(borrowIn))
	return result
}

func (c *CPU) addByte(a, b uint8, carryIn uint16) uint8 {
	sum := uint16(a) + uint16(b) + carryIn
	result := uint8(sum)
	c.setNZByte(result)
	signA, signB, signR := a&0x80 != 0, b&0x80 != 0, result&0x80 != 0
	c.SetFlag(FlagV, signA == signB && signA != signR)
	c.SetFlag(FlagC, sum > 0xFF)
	return result
}

func (c *CPU) subByte(a, b uint8, borrowIn uint16) uint8 {
	diff := int(a) - int(b) - int(borrowIn)
	result := uint8(diff)
	c.setNZByte(result)
	signA, signB, signR := a&0x80 != 0, b&0x80 != 0, result&0x80 != 0
	c.SetFlag(FlagV, signA != signB && signA != signR)
	c.SetFlag(FlagC, diff < 0)
	return result
}
