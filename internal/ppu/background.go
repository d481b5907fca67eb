package ppu

// Background rendering: the nametable/attribute/pattern fetch sequence and
// the 16-bit pattern / 8-bit-expanded attribute shift registers that feed
// the per-dot pixel mux. The fetch cadence (2 cycles per byte, 4 bytes per
// tile, one tile lookahead) mirrors the hardware sequence documented for
// the 2C02: NT, AT, pattern-low, pattern-high, repeating across cycles
// 1-256 and 321-336 of every rendered scanline.

func (p *PPU) stepBackground() {
	if !p.renderingEnabled() {
		return
	}

	c := p.cycle
	switch {
	case c >= 1 && c <= 256, c >= 321 && c <= 336:
		p.shiftBackgroundRegisters()
		switch c % 8 {
		case 1:
			p.loadBackgroundShifters()
			p.bgNextTileID = p.fetchNametableByte()
		case 3:
			p.bgNextAttrib = p.fetchAttributeByte()
		case 5:
			p.bgNextLo = p.fetchPatternByte(false)
		case 7:
			p.bgNextHi = p.fetchPatternByte(true)
		case 0:
			p.incrementCoarseX()
		}
		if c == 256 {
			p.incrementFineY()
		}
	case c == 257:
		p.shiftBackgroundRegisters()
		p.loadBackgroundShifters()
		p.copyHorizontalBits()
	case c >= 280 && c <= 304:
		if p.scanline == -1 {
			p.copyVerticalBits()
		}
	case c == 337 || c == 339:
		p.bgNextTileID = p.fetchNametableByte()
	}
}

func (p *PPU) fetchNametableByte() uint8 {
	addr := 0x2000 | (p.v & 0x0FFF)
	return p.memory.Read(addr)
}

func (p *PPU) fetchAttributeByte() uint8 {
	addr := 0x23C0 | (p.v & 0x0C00) | ((p.v >> 4) & 0x38) | ((p.v >> 2) & 0x07)
	raw := p.memory.Read(addr)
	shift := ((p.v >> 4) & 0x04) | (p.v & 0x02)
	return (raw >> shift) & 0x03
}

func (p *PPU) fetchPatternByte(high bool) uint8 {
	base := uint16(0x0000)
	if p.ppuCtrl&0x10 != 0 {
		base = 0x1000
	}
	fineY := (p.v >> 12) & 0x07
	addr := base + uint16(p.bgNextTileID)*16 + fineY
	if high {
		addr += 8
	}
	return p.memory.Read(addr)
}

func (p *PPU) loadBackgroundShifters() {
	p.bgShiftLo = (p.bgShiftLo & 0xFF00) | uint16(p.bgNextLo)
	p.bgShiftHi = (p.bgShiftHi & 0xFF00) | uint16(p.bgNextHi)

	var lo, hi uint16
	if p.bgNextAttrib&0x01 != 0 {
		lo = 0xFF
	}
	if p.bgNextAttrib&0x02 != 0 {
		hi = 0xFF
	}
	p.bgShiftAttrLo = (p.bgShiftAttrLo & 0xFF00) | lo
	p.bgShiftAttrHi = (p.bgShiftAttrHi & 0xFF00) | hi
}

func (p *PPU) shiftBackgroundRegisters() {
	if !p.backgroundEnabled {
		return
	}
	p.bgShiftLo <<= 1
	p.bgShiftHi <<= 1
	p.bgShiftAttrLo <<= 1
	p.bgShiftAttrHi <<= 1
}

// backgroundPixel returns the colour index (0-3, 0 == transparent) and
// palette (0-3) selected for the current dot by fine X scroll.
func (p *PPU) backgroundPixel() (colorIndex, palette uint8) {
	if !p.backgroundEnabled {
		return 0, 0
	}
	if p.cycle <= 8 && !p.showBGLeft {
		return 0, 0
	}
	mux := uint16(0x8000) >> p.x
	bit0 := boolBit(p.bgShiftLo&mux != 0)
	bit1 := boolBit(p.bgShiftHi&mux != 0)
	palBit0 := boolBit(p.bgShiftAttrLo&mux != 0)
	palBit1 := boolBit(p.bgShiftAttrHi&mux != 0)
	return (bit1 << 1) | bit0, (palBit1 << 1) | palBit0
}

func boolBit(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// renderPixel composites the background and sprite pixel for the current
// dot and writes it to the frame buffer.
func (p *PPU) renderPixel() {
	bgColor, bgPalette := p.backgroundPixel()
	spColor, spPalette, spPriorityBehind, spIsZero, spFound := p.spritePixel()

	if spFound && spColor != 0 && bgColor != 0 {
		p.checkSprite0Hit(spIsZero)
	}

	var paletteAddr uint16
	switch {
	case (!spFound || spColor == 0) && bgColor == 0:
		paletteAddr = 0x3F00
	case spFound && spColor != 0 && (bgColor == 0 || !spPriorityBehind):
		paletteAddr = 0x3F10 + uint16(spPalette)*4 + uint16(spColor)
	default:
		paletteAddr = 0x3F00 + uint16(bgPalette)*4 + uint16(bgColor)
	}

	nesIndex := p.memory.Read(paletteAddr)
	rgb := NESColorToRGB(nesIndex)

	x := p.cycle - 1
	y := p.scanline
	if x >= 0 && x < 256 && y >= 0 && y < 240 {
		p.frameBuffer[y*256+x] = rgb
	}
}

func (p *PPU) checkSprite0Hit(isZeroSprite bool) {
	if p.sprite0Hit || !isZeroSprite {
		return
	}
	if !p.backgroundEnabled || !p.spritesEnabled {
		return
	}
	x := p.cycle - 1
	if x >= 255 {
		return
	}
	if x < 8 && (!p.showBGLeft || !p.showSpritesLeft) {
		return
	}
	p.sprite0Hit = true
	p.ppuStatus |= 0x40
}
