package audio

// PSG is the three-channel programmable sound generator: three tone
// channels, a shared noise channel, and an envelope generator, driven by a
// "chip tick" every 16 CPU-derived chip cycles (§4.9).
type PSG struct {
	regs [16]uint8

	selectedReg uint8
	haveIndex   bool

	tonePeriod  [3]uint16
	toneCounter [3]uint16
	toneFlip    [3]bool

	noiseCounter uint16
	lfsr         uint32

	envCounter uint16
	envPhase   int
	envHolding bool
}

var volumeTable = [16]uint8{0, 1, 2, 3, 5, 7, 11, 15, 22, 31, 45, 63, 90, 127, 180, 255}

func NewPSG() *PSG {
	p := &PSG{lfsr: 1}
	return p
}

// Strobe implements the register-write protocol of §4.9: writing the high
// byte selects a register index (with bits inverted, a documented hardware
// quirk), writing the low byte stores data to the selected register.
func (p *PSG) Strobe(highByte bool, value uint8) {
	if highByte {
		p.selectedReg = (^value) & 0x0F
		p.haveIndex = true
		return
	}
	if !p.haveIndex {
		return
	}
	p.regs[p.selectedReg] = value
}

func (p *PSG) tonePeriodReg(ch int) uint16 {
	return uint16(p.regs[2*ch]) | uint16(p.regs[2*ch+1])<<8
}

func (p *PSG) noisePeriodReg() uint16 { return uint16(p.regs[6]&0x1F) * 2 }

func (p *PSG) envPeriodReg() uint16 { return uint16(p.regs[11]) | uint16(p.regs[12])<<8 }

// Tick runs one "chip tick" (§4.9: "every 16 chip cycles"). Callers
// determine how many chip ticks correspond to elapsed CPU cycles.
func (p *PSG) Tick() {
	for ch := 0; ch < 3; ch++ {
		if p.toneCounter[ch] == 0 {
			p.toneCounter[ch] = p.tonePeriodReg(ch)
			p.toneFlip[ch] = !p.toneFlip[ch]
		} else {
			p.toneCounter[ch]--
		}
	}

	if p.noiseCounter == 0 {
		p.noiseCounter = p.noisePeriodReg()
		if p.lfsr&1 != 0 {
			p.lfsr ^= 0x12000
		}
		p.lfsr >>= 1
	} else {
		p.noiseCounter--
	}

	if p.envCounter == 0 {
		p.envCounter = p.envPeriodReg()
		if !p.envHolding {
			p.envPhase = (p.envPhase + 1) % 16
			if p.envPhase == 0 {
				p.applyEnvelopeShape()
			}
		}
	} else {
		p.envCounter--
	}
}

func (p *PSG) applyEnvelopeShape() {
	shape := p.regs[13]
	continueBit := shape&0x8 != 0
	alternate := shape&0x4 != 0
	hold := shape&0x1 != 0
	_ = alternate
	if !continueBit {
		p.envHolding = true
		return
	}
	if hold {
		p.envHolding = true
	}
}

func (p *PSG) envelopeLevel() uint8 {
	level := p.envPhase
	if level > 15 {
		level = 15
	}
	return volumeTable[level]
}

// Sample returns the current tone/noise mix for each of the three
// channels, gated by R7's tone/noise enable bits and R8..R10's amplitude
// fields (§4.9).
func (p *PSG) Sample() (ch0, ch1, ch2 int16) {
	mixer := p.regs[7]
	out := [3]int16{}
	noiseBit := p.lfsr&1 != 0

	for ch := 0; ch < 3; ch++ {
		toneEnabled := mixer&(1<<uint(ch)) == 0
		noiseEnabled := mixer&(1<<uint(ch+3)) == 0

		active := false
		if toneEnabled && p.toneFlip[ch] {
			active = true
		}
		if noiseEnabled && noiseBit {
			active = true
		}

		amp := p.regs[8+ch]
		var level uint8
		if amp&0x10 != 0 {
			level = p.envelopeLevel()
		} else {
			level = volumeTable[amp&0xF]
		}

		if active {
			out[ch] = int16(level)
		}
	}
	return out[0], out[1], out[2]
}

func (p *PSG) Reset() {
	*p = PSG{lfsr: 1}
}
