package cpu

// execute decodes and runs one instruction, returning the number of cycles
// it consumed. Any opcode this table doesn't recognize traps through the
// illegal-opcode vector and returns the trap's own cost; per §7 this is
// never fatal, the CPU just keeps running from the vector.
func (c *CPU) execute(opcode uint16) uint64 {
	if opcode == 0 {
		c.halted = true
		return cyclesHalt
	}

	switch opcode {
	case 0o000001: // WAIT
		return cyclesWait
	case 0o000002: // RTI
		c.regs[PC] = c.pop()
		c.psw = c.pop()
		return cyclesRTI
	case 0o000003: // BPT
		c.trap(VectorBPT)
		return cyclesTrap
	case 0o000004: // IOT
		c.trap(VectorIOT)
		return cyclesTrap
	case 0o000005: // RESET
		return cyclesReset
	case 0o000006: // RTT
		c.regs[PC] = c.pop()
		c.psw = c.pop()
		return cyclesRTI
	}

	top4 := opcode >> 12

	switch {
	case top4 >= 1 && top4 <= 6, top4 >= 9 && top4 <= 14:
		return c.execDoubleOperand(opcode)
	case top4 == 7:
		return c.execEIS(opcode)
	case top4 == 0:
		return c.execMiscLow(opcode)
	case top4 == 8:
		return c.execMiscHigh(opcode)
	}

	c.trap(VectorIllegal)
	return cyclesTrap
}

// execDoubleOperand handles groups 1-6 (top nibble): MOV/CMP/BIT/BIC/BIS/ADD
// in word form, MOVB/CMPB/BITB/BICB/BISB/SUB split by the byte bit (§4.3).
func (c *CPU) execDoubleOperand(opcode uint16) uint64 {
	isByte := opcode&0x8000 != 0
	group := (opcode >> 12) & 0x7
	srcField := (opcode >> 6) & 0x3F
	dstField := opcode & 0x3F

	src := c.decodeOperand(srcField, isByte && group != 6) // SUB is a word op

	switch group {
	case 1: // MOV / MOVB
		if isByte {
			v := c.readByte(src)
			c.setNZByte(v)
			c.SetFlag(FlagV, false)
			dst := c.decodeOperand(dstField, true)
			if dst.Kind == OperandRegister {
				c.writeByteSignExtend(dst, v)
			} else {
				c.writeByte(dst, v)
			}
		} else {
			v := c.readWord(src)
			c.setNZWord(v)
			c.SetFlag(FlagV, false)
			dst := c.decodeOperand(dstField, false)
			c.writeWord(dst, v)
		}
		return cyclesDoubleOperand

	case 2: // CMP / CMPB
		dst := c.decodeOperand(dstField, isByte)
		if isByte {
			a, b := c.readByte(src), c.readByte(dst)
			c.subByte(a, b, 0)
		} else {
			a, b := c.readWord(src), c.readWord(dst)
			c.subWord(a, b, 0)
		}
		return cyclesDoubleOperand

	case 3: // BIT / BITB (logical AND, result discarded, NZ only, V=0)
		dst := c.decodeOperand(dstField, isByte)
		if isByte {
			r := c.readByte(src) & c.readByte(dst)
			c.setNZByte(r)
		} else {
			r := c.readWord(src) & c.readWord(dst)
			c.setNZWord(r)
		}
		c.SetFlag(FlagV, false)
		return cyclesDoubleOperand

	case 4: // BIC / BICB (clear bits of src in dst)
		dst := c.decodeOperand(dstField, isByte)
		if isByte {
			r := c.readByte(dst) &^ c.readByte(src)
			c.setNZByte(r)
			c.SetFlag(FlagV, false)
			c.writeByte(dst, r)
		} else {
			r := c.readWord(dst) &^ c.readWord(src)
			c.setNZWord(r)
			c.SetFlag(FlagV, false)
			c.writeWord(dst, r)
		}
		return cyclesDoubleOperand

	case 5: // BIS / BISB (logical OR)
		dst := c.decodeOperand(dstField, isByte)
		if isByte {
			r := c.readByte(dst) | c.readByte(src)
			c.setNZByte(r)
			c.SetFlag(FlagV, false)
			c.writeByte(dst, r)
		} else {
			r := c.readWord(dst) | c.readWord(src)
			c.setNZWord(r)
			c.SetFlag(FlagV, false)
			c.writeWord(dst, r)
		}
		return cyclesDoubleOperand

	case 6: // ADD (word only) / SUB (byte bit set means this group is SUB)
		dst := c.decodeOperand(dstField, false)
		if isByte {
			a, b := c.readWord(src), c.readWord(dst)
			r := c.subWord(b, a, 0)
			c.writeWord(dst, r)
		} else {
			a, b := c.readWord(src), c.readWord(dst)
			r := c.addWord(b, a, 0)
			c.writeWord(dst, r)
		}
		return cyclesDoubleOperand
	}

	c.trap(VectorIllegal)
	return cyclesTrap
}

// execMiscLow handles the top-nibble-0 space: branches BR..BLE (0x0100-
// 0x07FF) and everything else below 0x1000 (JMP, RTS, condition codes and
// SWAB under 0x0100; JSR and the word single-operand group from 0x0800).
func (c *CPU) execMiscLow(opcode uint16) uint64 {
	if opcode >= 0x0100 && opcode < 0x0800 {
		return c.execBranch(opcode, false)
	}
	return c.execSingleOperandWord(opcode)
}

// execMiscHigh handles the top-nibble-8 space: the byte-branch group
// (0x8000-0x87FF), EMT/TRAP (0x8800/0x8900), then byte single-operand ops
// (0x8A00+).
func (c *CPU) execMiscHigh(opcode uint16) uint64 {
	if opcode >= 0x8000 && opcode < 0x8800 {
		return c.execBranch(opcode, true)
	}
	if opcode&0xFF00 == 0x8800 {
		c.trap(VectorEMT)
		return cyclesTrap
	}
	if opcode&0xFF00 == 0x8900 {
		c.trap(VectorTrap)
		return cyclesTrap
	}
	return c.execSingleOperandByte(opcode)
}

// execBranch covers both branch groups: BR/BNE/BEQ/BGE/BLT/BGT/BLE in the
// low group, BPL/BMI/BHI/BLOS/BVC/BVS/BCC(BHIS)/BCS(BLO) in the high one.
func (c *CPU) execBranch(opcode uint16, high bool) uint64 {
	cond := (opcode >> 8) & 0x7
	offset := int8(opcode & 0xFF)
	disp := int16(offset) * 2

	n, z, v, cc := c.Flag(FlagN), c.Flag(FlagZ), c.Flag(FlagV), c.Flag(FlagC)
	var take bool

	if !high {
		switch cond {
		case 1: // BR
			take = true
		case 2: // BNE
			take = !z
		case 3: // BEQ
			take = z
		case 4: // BGE
			take = n == v
		case 5: // BLT
			take = n != v
		case 6: // BGT
			take = !z && n == v
		case 7: // BLE
			take = z || n != v
		}
	} else {
		switch cond {
		case 0: // BPL
			take = !n
		case 1: // BMI
			take = n
		case 2: // BHI
			take = !cc && !z
		case 3: // BLOS
			take = cc || z
		case 4: // BVC
			take = !v
		case 5: // BVS
			take = v
		case 6: // BCC / BHIS
			take = !cc
		case 7: // BCS / BLO
			take = cc
		}
	}

	if take {
		c.regs[PC] = uint16(int32(c.regs[PC]) + int32(disp))
	}
	return cyclesBranch
}

// execSingleOperandWord covers SWAB, JMP, RTS, SCC/CCC, JSR, and the
// CLR..SXT word single-operand table (0x0A00-0x0DFF).
func (c *CPU) execSingleOperandWord(opcode uint16) uint64 {
	if opcode&0xFFC0 == 0x00C0 { // SWAB
		field := opcode & 0x3F
		op := c.decodeOperand(field, false)
		v := c.readWord(op)
		r := (v >> 8) | (v << 8)
		c.writeWord(op, r)
		c.setNZByte(uint8(r))
		c.SetFlag(FlagV, false)
		c.SetFlag(FlagC, false)
		return cyclesSingleOperand
	}

	if opcode&0xFFC0 == 0x0040 { // JMP
		field := opcode & 0x3F
		op := c.decodeOperand(field, false)
		if op.Kind == OperandRegister {
			c.trap(VectorIllegal) // JMP to a register operand is illegal
			return cyclesTrap
		}
		c.regs[PC] = op.Addr
		return cyclesJump
	}

	if opcode&0xFFF8 == 0x0080 { // RTS
		reg := int(opcode & 7)
		c.regs[PC] = c.regs[reg]
		c.regs[reg] = c.pop()
		return cyclesJump
	}

	if opcode&0xFFE0 == 0x00A0 { // SCC/CCC
		set := opcode&0x10 != 0
		if opcode&0x8 != 0 {
			c.SetFlag(FlagN, set)
		}
		if opcode&0x4 != 0 {
			c.SetFlag(FlagZ, set)
		}
		if opcode&0x2 != 0 {
			c.SetFlag(FlagV, set)
		}
		if opcode&0x1 != 0 {
			c.SetFlag(FlagC, set)
		}
		return cyclesCC
	}

	if opcode&0xFE00 == 0x0800 { // JSR
		reg := int((opcode >> 6) & 7)
		field := opcode & 0x3F
		op := c.decodeOperand(field, false)
		if op.Kind == OperandRegister {
			c.trap(VectorIllegal)
			return cyclesTrap
		}
		c.push(c.regs[reg])
		c.regs[reg] = c.regs[PC]
		c.regs[PC] = op.Addr
		return cyclesJump
	}

	base := opcode & 0xFFC0
	field := opcode & 0x3F

	switch base {
	case 0x0A00: // CLR
		op := c.decodeOperand(field, false)
		c.writeWord(op, 0)
		c.SetFlag(FlagN, false)
		c.SetFlag(FlagZ, true)
		c.SetFlag(FlagV, false)
		c.SetFlag(FlagC, false)
	case 0x0A40: // COM
		op := c.decodeOperand(field, false)
		r := ^c.readWord(op)
		c.writeWord(op, r)
		c.setNZWord(r)
		c.SetFlag(FlagV, false)
		c.SetFlag(FlagC, true)
	case 0x0A80: // INC
		op := c.decodeOperand(field, false)
		v := c.readWord(op)
		r := v + 1
		c.writeWord(op, r)
		c.setNZWord(r)
		c.SetFlag(FlagV, v == 0x7FFF)
	case 0x0AC0: // DEC
		op := c.decodeOperand(field, false)
		v := c.readWord(op)
		r := v - 1
		c.writeWord(op, r)
		c.setNZWord(r)
		c.SetFlag(FlagV, v == 0x8000)
	case 0x0B00: // NEG
		op := c.decodeOperand(field, false)
		v := c.readWord(op)
		r := c.subWord(0, v, 0)
		c.writeWord(op, r)
		c.SetFlag(FlagC, r != 0)
	case 0x0B40: // ADC
		op := c.decodeOperand(field, false)
		carry := uint16(0)
		if c.Flag(FlagC) {
			carry = 1
		}
		v := c.readWord(op)
		r := c.addWord(v, 0, carry)
		c.writeWord(op, r)
	case 0x0B80: // SBC
		op := c.decodeOperand(field, false)
		borrow := uint16(0)
		if c.Flag(FlagC) {
			borrow = 1
		}
		v := c.readWord(op)
		r := c.subWord(v, 0, borrow)
		c.writeWord(op, r)
	case 0x0BC0: // TST
		op := c.decodeOperand(field, false)
		v := c.readWord(op)
		c.setNZWord(v)
		c.SetFlag(FlagV, false)
		c.SetFlag(FlagC, false)
	case 0x0C00: // ROR
		op := c.decodeOperand(field, false)
		v := c.readWord(op)
		oldC := c.Flag(FlagC)
		newC := v&1 != 0
		r := v >> 1
		if oldC {
			r |= 0x8000
		}
		c.writeWord(op, r)
		c.setNZWord(r)
		c.SetFlag(FlagC, newC)
		c.SetFlag(FlagV, newC != (r&0x8000 != 0))
	case 0x0C40: // ROL
		op := c.decodeOperand(field, false)
		v := c.readWord(op)
		oldC := c.Flag(FlagC)
		newC := v&0x8000 != 0
		r := v << 1
		if oldC {
			r |= 1
		}
		c.writeWord(op, r)
		c.setNZWord(r)
		c.SetFlag(FlagC, newC)
		c.SetFlag(FlagV, newC != (r&0x8000 != 0))
	case 0x0C80: // ASR
		op := c.decodeOperand(field, false)
		v := c.readWord(op)
		newC := v&1 != 0
		r := (v >> 1) | (v & 0x8000)
		c.writeWord(op, r)
		c.setNZWord(r)
		c.SetFlag(FlagC, newC)
		c.SetFlag(FlagV, newC != (r&0x8000 != 0))
	case 0x0CC0: // ASL
		op := c.decodeOperand(field, false)
		v := c.readWord(op)
		newC := v&0x8000 != 0
		r := v << 1
		c.writeWord(op, r)
		c.setNZWord(r)
		c.SetFlag(FlagC, newC)
		c.SetFlag(FlagV, newC != (r&0x8000 != 0))
	case 0x0D00: // MARK
		nn := opcode & 0x3F
		c.regs[SP] = c.regs[PC] + nn*2
		c.regs[PC] = c.regs[5]
		c.regs[5] = c.pop()
	case 0x0DC0: // SXT
		op := c.decodeOperand(field, false)
		var r uint16
		if c.Flag(FlagN) {
			r = 0xFFFF
		}
		c.writeWord(op, r)
		c.SetFlag(FlagZ, r == 0)
		c.SetFlag(FlagV, false)
	default:
		c.trap(VectorIllegal)
		return cyclesTrap
	}
	return cyclesSingleOperand
}

// execSingleOperandByte covers the byte forms of CLR..ASL (0x8A00-0x8CFF);
// MARK and SXT have no byte encoding.
func (c *CPU) execSingleOperandByte(opcode uint16) uint64 {
	base := opcode & 0xFFC0
	field := opcode & 0x3F

	switch base {
	case 0x8A00: // CLRB
		op := c.decodeOperand(field, true)
		c.writeByte(op, 0)
		c.SetFlag(FlagN, false)
		c.SetFlag(FlagZ, true)
		c.SetFlag(FlagV, false)
		c.SetFlag(FlagC, false)
	case 0x8A40: // COMB
		op := c.decodeOperand(field, true)
		r := ^c.readByte(op)
		c.writeByte(op, r)
		c.setNZByte(r)
		c.SetFlag(FlagV, false)
		c.SetFlag(FlagC, true)
	case 0x8A80: // INCB
		op := c.decodeOperand(field, true)
		v := c.readByte(op)
		r := v + 1
		c.writeByte(op, r)
		c.setNZByte(r)
		c.SetFlag(FlagV, v == 0x7F)
	case 0x8AC0: // DECB
		op := c.decodeOperand(field, true)
		v := c.readByte(op)
		r := v - 1
		c.writeByte(op, r)
		c.setNZByte(r)
		c.SetFlag(FlagV, v == 0x80)
	case 0x8B00: // NEGB
		op := c.decodeOperand(field, true)
		v := c.readByte(op)
		r := c.subByte(0, v, 0)
		c.writeByte(op, r)
		c.SetFlag(FlagC, r != 0)
	case 0x8B40: // ADCB
		op := c.decodeOperand(field, true)
		carry := uint16(0)
		if c.Flag(FlagC) {
			carry = 1
		}
		v := c.readByte(op)
		r := c.addByte(v, 0, carry)
		c.writeByte(op, r)
	case 0x8B80: // SBCB
		op := c.decodeOperand(field, true)
		borrow := uint16(0)
		if c.Flag(FlagC) {
			borrow = 1
		}
		v := c.readByte(op)
		r := c.subByte(v, 0, borrow)
		c.writeByte(op, r)
	case 0x8BC0: // TSTB
		op := c.decodeOperand(field, true)
		v := c.readByte(op)
		c.setNZByte(v)
		c.SetFlag(FlagV, false)
		c.SetFlag(FlagC, false)
	case 0x8C00: // RORB
		op := c.decodeOperand(field, true)
		v := c.readByte(op)
		oldC := c.Flag(FlagC)
		newC := v&1 != 0
		r := v >> 1
		if oldC {
			r |= 0x80
		}
		c.writeByte(op, r)
		c.setNZByte(r)
		c.SetFlag(FlagC, newC)
		c.SetFlag(FlagV, newC != (r&0x80 != 0))
	case 0x8C40: // ROLB
		op := c.decodeOperand(field, true)
		v := c.readByte(op)
		oldC := c.Flag(FlagC)
		newC := v&0x80 != 0
		r := v << 1
		if oldC {
			r |= 1
		}
		c.writeByte(op, r)
		c.setNZByte(r)
		c.SetFlag(FlagC, newC)
		c.SetFlag(FlagV, newC != (r&0x80 != 0))
	case 0x8C80: // ASRB
		op := c.decodeOperand(field, true)
		v := c.readByte(op)
		newC := v&1 != 0
		r := (v >> 1) | (v & 0x80)
		c.writeByte(op, r)
		c.setNZByte(r)
		c.SetFlag(FlagC, newC)
		c.SetFlag(FlagV, newC != (r&0x80 != 0))
	case 0x8CC0: // ASLB
		op := c.decodeOperand(field, true)
		v := c.readByte(op)
		newC := v&0x80 != 0
		r := v << 1
		c.writeByte(op, r)
		c.setNZByte(r)
		c.SetFlag(FlagC, newC)
		c.SetFlag(FlagV, newC != (r&0x80 != 0))
	default:
		c.trap(VectorIllegal)
		return cyclesTrap
	}
	return cyclesSingleOperand
}

// execEIS handles the top-nibble-7 space: MUL, DIV, ASH, ASHC, XOR and SOB
// (§4.3's EIS/SOB category).
func (c *CPU) execEIS(opcode uint16) uint64 {
	sub := (opcode >> 9) & 0x7

	if sub == 0x7 { // SOB
		reg := int((opcode >> 6) & 7)
		offset := opcode & 0x3F
		c.regs[reg]--
		if c.regs[reg] != 0 {
			c.regs[PC] -= offset * 2
		}
		return cyclesSOB
	}

	reg := int((opcode >> 6) & 7)
	srcField := opcode & 0x3F
	src := c.decodeOperand(srcField, false)

	switch sub {
	case 0x0: // MUL
		a := int32(int16(c.regs[reg]))
		b := int32(int16(c.readWord(src)))
		product := a * b
		if reg&1 == 0 {
			c.regs[reg] = uint16(product >> 16)
			c.regs[reg+1] = uint16(product)
		} else {
			c.regs[reg] = uint16(product)
		}
		c.SetFlag(FlagN, product < 0)
		c.SetFlag(FlagZ, product == 0)
		c.SetFlag(FlagV, false)
		c.SetFlag(FlagC, product < -32768 || product > 32767)
		return cyclesMulDiv

	case 0x1: // DIV
		dividend := int32(c.regs[reg])<<16 | int32(c.regs[reg+1])
		divisor := int32(int16(c.readWord(src)))
		if divisor == 0 {
			c.SetFlag(FlagC, true)
			c.SetFlag(FlagV, true)
			return cyclesMulDiv
		}
		q := dividend / divisor
		r := dividend % divisor
		if q > 32767 || q < -32768 {
			c.SetFlag(FlagV, true)
			return cyclesMulDiv
		}
		c.regs[reg] = uint16(q)
		c.regs[reg+1] = uint16(r)
		c.SetFlag(FlagN, q < 0)
		c.SetFlag(FlagZ, q == 0)
		c.SetFlag(FlagV, false)
		c.SetFlag(FlagC, false)
		return cyclesMulDiv

	case 0x2: // ASH
		shift := int8(c.readWord(src)&0x3F) << 2 >> 2 // sign-extend 6-bit field
		v := int16(c.regs[reg])
		var r int16
		if shift >= 0 {
			r = v << uint(shift)
		} else {
			r = v >> uint(-shift)
		}
		c.regs[reg] = uint16(r)
		c.setNZWord(uint16(r))
		return cyclesShift

	case 0x3: // ASHC
		shift := int8(c.readWord(src)&0x3F) << 2 >> 2
		combined := uint32(c.regs[reg])<<16 | uint32(c.regs[reg+1])
		var r uint32
		if shift >= 0 {
			r = combined << uint(shift)
		} else {
			r = combined >> uint(-shift)
		}
		c.regs[reg] = uint16(r >> 16)
		c.regs[reg+1] = uint16(r)
		c.setNZWord(c.regs[reg])
		return cyclesShift

	case 0x4: // XOR
		v := c.regs[reg] ^ c.readWord(src)
		c.writeWord(src, v)
		c.setNZWord(v)
		c.SetFlag(FlagV, false)
		return cyclesDoubleOperand
	}

	c.trap(VectorIllegal)
	return cyclesTrap
}

const (
	cyclesDoubleOperand = 4
	cyclesSingleOperand = 3
	cyclesBranch        = 2
	cyclesJump          = 3
	cyclesCC            = 2
	cyclesHalt          = 4
	cyclesWait          = 4
	cyclesRTI           = 6
	cyclesTrap          = 18
	cyclesReset         = 4
	cyclesMulDiv        = 8
	cyclesShift         = 6
	cyclesSOB           = 3
)
