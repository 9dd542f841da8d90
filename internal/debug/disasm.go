package debug

import "fmt"

// MemoryReader is the read-only view of the bus the disassembler needs;
// satisfied by *memory.Bus without an import cycle.
type MemoryReader interface {
	ReadWord(addr uint16) uint16
}

var registerNames = [8]string{"R0", "R1", "R2", "R3", "R4", "R5", "SP", "PC"}

// operandText decodes one 6-bit (mode,reg) field into its assembly text
// and reports how many extra words (0 or 1) it consumes, fetching any
// extension word itself from mem at extAddr.
func operandText(mem MemoryReader, field uint16, extAddr uint16) (text string, extraWords int) {
	mode := (field >> 3) & 7
	reg := int(field & 7)
	rn := registerNames[reg]

	switch mode {
	case 0:
		return rn, 0
	case 1:
		return fmt.Sprintf("(%s)", rn), 0
	case 2:
		if reg == 7 {
			return fmt.Sprintf("#%06o", mem.ReadWord(extAddr)), 1
		}
		return fmt.Sprintf("(%s)+", rn), 0
	case 3:
		if reg == 7 {
			return fmt.Sprintf("@#%06o", mem.ReadWord(extAddr)), 1
		}
		return fmt.Sprintf("@(%s)+", rn), 0
	case 4:
		return fmt.Sprintf("-(%s)", rn), 0
	case 5:
		return fmt.Sprintf("@-(%s)", rn), 0
	case 6:
		disp := mem.ReadWord(extAddr)
		if reg == 7 {
			return fmt.Sprintf("%06o", extAddr+2+disp), 1
		}
		return fmt.Sprintf("%06o(%s)", disp, rn), 1
	case 7:
		disp := mem.ReadWord(extAddr)
		return fmt.Sprintf("@%06o(%s)", disp, rn), 1
	}
	return "?", 0
}

var doubleOperandMnemonics = map[uint16]string{
	1: "MOV", 2: "CMP", 3: "BIT", 4: "BIC", 5: "BIS", 6: "ADD",
}

var doubleOperandByteMnemonics = map[uint16]string{
	1: "MOVB", 2: "CMPB", 3: "BITB", 4: "BICB", 5: "BISB", 6: "SUB",
}

var singleOperandMnemonics = map[uint16]string{
	0o050: "CLR", 0o051: "COM", 0o052: "INC", 0o053: "DEC", 0o054: "NEG",
	0o055: "ADC", 0o056: "SBC", 0o057: "TST", 0o060: "ROR", 0o061: "ROL",
	0o062: "ASR", 0o063: "ASL", 0o064: "MARK", 0o067: "SXT",
}

var singleOperandByteMnemonics = map[uint16]string{
	0o050: "CLRB", 0o051: "COMB", 0o052: "INCB", 0o053: "DECB", 0o054: "NEGB",
	0o055: "ADCB", 0o056: "SBCB", 0o057: "TSTB", 0o060: "RORB", 0o061: "ROLB",
	0o062: "ASRB", 0o063: "ASLB",
}

var branchMnemonicsLow = [8]string{"", "BR", "BNE", "BEQ", "BGE", "BLT", "BGT", "BLE"}
var branchMnemonicsHigh = [8]string{"BPL", "BMI", "BHI", "BLOS", "BVC", "BVS", "BHIS", "BLO"}

var eisMnemonics = [8]string{"MUL", "DIV", "ASH", "ASHC", "XOR", "", "", "SOB"}

// Decode disassembles one instruction at pc, returning its text and length
// in words (1..3), matching the template-table approach of §4.12: one
// entry per opcode category, placeholders expanded from the decoded
// operands.
func Decode(mem MemoryReader, pc uint16) (text string, lengthWords int) {
	opcode := mem.ReadWord(pc)
	words := uint16(1)
	extAddr := pc + 2

	switch {
	case opcode == 0:
		return "HALT", 1
	case opcode == 1:
		return "WAIT", 1
	case opcode == 2:
		return "RTI", 1
	case opcode == 3:
		return "BPT", 1
	case opcode == 4:
		return "IOT", 1
	case opcode == 5:
		return "RESET", 1
	case opcode == 6:
		return "RTT", 1
	case opcode == 0o000240:
		return "NOP", 1
	case opcode&0o177770 == 0o000200:
		return fmt.Sprintf("RTS %s", registerNames[opcode&7]), 1
	case opcode&0o177700 == 0o000100:
		dst, extra := operandText(mem, opcode&0o77, extAddr)
		return fmt.Sprintf("JMP %s", dst), int(words) + extra
	case opcode&0o177700 == 0o000300:
		dst, extra := operandText(mem, opcode&0o77, extAddr)
		return fmt.Sprintf("SWAB %s", dst), int(words) + extra
	case opcode&0o177000 == 0o004000:
		reg := registerNames[(opcode>>6)&7]
		dst, extra := operandText(mem, opcode&0o77, extAddr)
		return fmt.Sprintf("JSR %s,%s", reg, dst), int(words) + extra
	case (opcode>>12)&7 >= 1 && (opcode>>12)&7 <= 6:
		group := (opcode >> 12) & 7
		isByte := opcode&0o100000 != 0
		var mnem string
		var ok bool
		if isByte {
			mnem, ok = doubleOperandByteMnemonics[group]
		} else {
			mnem, ok = doubleOperandMnemonics[group]
		}
		if !ok {
			mnem = "???"
		}
		srcField := (opcode >> 6) & 0o77
		dstField := opcode & 0o77
		src, extra1 := operandText(mem, srcField, extAddr)
		dstAddr := extAddr + uint16(extra1)*2
		dst, extra2 := operandText(mem, dstField, dstAddr)
		return fmt.Sprintf("%s %s,%s", mnem, src, dst), int(words) + extra1 + extra2
	case opcode >= 0x0100 && opcode < 0x0800:
		cond := (opcode >> 8) & 7
		off := int8(opcode & 0xFF)
		target := pc + 2 + uint16(int16(off)*2)
		return fmt.Sprintf("%s %06o", branchMnemonicsLow[cond], target), 1
	case opcode >= 0x8000 && opcode < 0x8800:
		cond := (opcode >> 8) & 7
		off := int8(opcode & 0xFF)
		target := pc + 2 + uint16(int16(off)*2)
		return fmt.Sprintf("%s %06o", branchMnemonicsHigh[cond], target), 1
	case opcode&0o177700 == 0o000240 && opcode&0o000017 != 0:
		return fmt.Sprintf("SCC/CCC %#o", opcode&0o17), 1
	case opcode&0o170000 == 0o070000:
		sub := (opcode >> 9) & 7
		reg := registerNames[(opcode>>6)&7]
		if sub == 7 {
			off := opcode & 0o77
			target := pc + 2 - uint16(off)*2
			return fmt.Sprintf("SOB %s,%06o", reg, target), 1
		}
		field := opcode & 0o77
		src, extra := operandText(mem, field, extAddr)
		return fmt.Sprintf("%s %s,%s", eisMnemonics[sub], reg, src), int(words) + extra
	case opcode&0o070000 == 0 && opcode&0o007700 != 0 && opcode&0o177000 != 0o104000:
		base := opcode & 0o177700
		key := (base >> 6) & 0o77
		isByte := opcode&0o100000 != 0
		var mnem string
		var ok bool
		if isByte {
			mnem, ok = singleOperandByteMnemonics[key]
		} else {
			mnem, ok = singleOperandMnemonics[key]
		}
		if ok {
			field := opcode & 0o77
			dst, extra := operandText(mem, field, extAddr)
			return fmt.Sprintf("%s %s", mnem, dst), int(words) + extra
		}
	case opcode == 0o104000:
		return "EMT", 1
	case opcode&0o177400 == 0o104000:
		return fmt.Sprintf("EMT %#o", opcode&0xFF), 1
	case opcode&0o177400 == 0o104400:
		return fmt.Sprintf("TRAP %#o", opcode&0xFF), 1
	}

	return fmt.Sprintf("???(%06o)", opcode), 1
}
