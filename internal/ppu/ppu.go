// Package ppu implements the Picture Processing Unit for the NES (2C02
// NTSC and 2C07 PAL).
//
// Rendering is dot-accurate: Step advances exactly one PPU dot (the
// scheduler calls it three times per CPU cycle on NTSC, or at a 16/5
// average ratio on PAL), and the background/sprite pixel pipelines are
// built from the same shift registers and fetch sequence the real
// hardware uses, rather than a lazy per-pixel lookup computed once a
// scanline is needed. Sprite evaluation and sprite pattern fetch are the
// exception: they run as one pass at dot 257 (see sprites.go). The only region-dependent state is the frame's
// total scanline count and the NTSC-only odd-frame dot skip; the
// visible 240 lines, register behavior, and palette are shared.
package ppu

import "nescore/internal/memory"

// Region selects the television timing standard the PPU runs at. It
// changes the total scanline count per frame and whether the NTSC
// odd-frame dot skip applies; visible area, register behavior, and the
// palette are the same on both.
type Region int

const (
	RegionNTSC Region = iota // 2C02, 262 scanlines/frame, odd-frame dot skip
	RegionPAL                // 2C07, 312 scanlines/frame, no dot skip
)

// ScanlinesPerFrame returns the total pre-render-through-post-render
// scanline count for the region (262 NTSC, 312 PAL).
func (r Region) ScanlinesPerFrame() int {
	if r == RegionPAL {
		return 312
	}
	return 262
}

// PPU represents the NES Picture Processing Unit (2C02).
type PPU struct {
	// CPU-visible register latches
	ppuCtrl   uint8 // $2000
	ppuMask   uint8 // $2001
	ppuStatus uint8 // $2002
	oamAddr   uint8 // $2003

	// Loopy scroll/address registers. v and t are 15 bits:
	// yyy NN YYYYY XXXXX (fine Y, nametable, coarse Y, coarse X).
	v uint16
	t uint16
	x uint8 // fine X scroll, 3 bits
	w bool  // write-toggle latch shared by $2005/$2006

	memory *memory.PPUMemory

	region   Region
	scanline int // -1 (pre-render) through region.ScanlinesPerFrame()-2
	cycle    int // 0 through 340
	oddFrame bool

	openBus     uint8 // last byte driven onto the CPU-visible register bus
	readBuffer  uint8 // $2007 read-buffer for non-palette VRAM
	suppressVBL bool  // set by a $2002 read on the exact VBL-set dot
	nmiLinePrev bool

	oam [256]uint8

	// Background pipeline
	bgNextTileID  uint8
	bgNextAttrib  uint8
	bgNextLo      uint8
	bgNextHi      uint8
	bgShiftLo     uint16
	bgShiftHi     uint16
	bgShiftAttrLo uint16
	bgShiftAttrHi uint16

	// Sprite pipeline (see sprites.go)
	secondaryOAM   [32]uint8
	spriteCount    uint8
	spriteShiftLo  [8]uint8
	spriteShiftHi  [8]uint8
	spriteX        [8]uint8
	spriteAttrib   [8]uint8
	spriteIsZero   [8]bool
	spriteOutColor [8]uint8
	spriteOutReady [8]bool
	spriteOverflow bool
	sprite0Hit     bool

	backgroundEnabled bool
	spritesEnabled    bool
	showBGLeft        bool
	showSpritesLeft   bool

	frameBuffer [256 * 240]uint32
	frameCount  uint64

	nmiCallback           func()
	frameCompleteCallback func()
	scanlineCallback       func() // driven at dot 260 of each visible scanline while rendering (mapper IRQ counters)
}

// New creates a PPU at the power-on pre-render scanline.
func New() *PPU {
	return &PPU{scanline: -1}
}

// Reset returns the PPU to its power-on state, preserving the wiring
// (memory, callbacks, region) a cartridge swap doesn't need to redo.
func (p *PPU) Reset() {
	*p = PPU{
		scanline:              -1,
		memory:                p.memory,
		region:                p.region,
		nmiCallback:           p.nmiCallback,
		frameCompleteCallback: p.frameCompleteCallback,
		scanlineCallback:      p.scanlineCallback,
	}
}

// SetMemory wires the PPU's own bus (nametables, palette, CHR via mapper).
func (p *PPU) SetMemory(m *memory.PPUMemory) { p.memory = m }

// SetRegion switches the PPU between NTSC's 262-scanline frame (with its
// odd-frame dot skip) and PAL's 312-scanline frame (no skip). Safe to
// call before or after Reset; takes effect on the next advanceDot.
func (p *PPU) SetRegion(r Region) { p.region = r }

// GetRegion returns the PPU's configured region.
func (p *PPU) GetRegion() Region { return p.region }

// SetNMICallback installs the function invoked on the VBL/NMI edge.
func (p *PPU) SetNMICallback(cb func()) { p.nmiCallback = cb }

// SetFrameCompleteCallback installs the function invoked once per frame.
func (p *PPU) SetFrameCompleteCallback(cb func()) { p.frameCompleteCallback = cb }

// SetScanlineCallback installs the function invoked once per rendered
// scanline (used to drive a mapper's scanline IRQ counter, e.g. MMC3).
func (p *PPU) SetScanlineCallback(cb func()) { p.scanlineCallback = cb }

// ReadRegister reads a CPU-visible PPU register ($2000-$2007).
func (p *PPU) ReadRegister(address uint16) uint8 {
	switch address & 0x07 {
	case 2: // PPUSTATUS
		result := (p.ppuStatus & 0xE0) | (p.openBus & 0x1F)
		p.ppuStatus &^= 0x80
		p.w = false
		if p.scanline == 241 && p.cycle == 1 {
			p.suppressVBL = true
		}
		p.openBus = result
		return result
	case 4: // OAMDATA
		v := p.oam[p.oamAddr]
		p.openBus = v
		return v
	case 7: // PPUDATA
		v := p.readPPUData()
		p.openBus = v
		return v
	default: // write-only registers read back open bus
		return p.openBus
	}
}

// WriteRegister writes a CPU-visible PPU register ($2000-$2007).
func (p *PPU) WriteRegister(address uint16, value uint8) {
	p.openBus = value
	switch address & 0x07 {
	case 0: // PPUCTRL
		p.ppuCtrl = value
		p.t = (p.t & 0xF3FF) | ((uint16(value) & 0x03) << 10)
	case 1: // PPUMASK
		p.ppuMask = value
		p.updateRenderingFlags()
	case 3: // OAMADDR
		p.oamAddr = value
	case 4: // OAMDATA
		p.oam[p.oamAddr] = value
		p.oamAddr++
	case 5: // PPUSCROLL
		if !p.w {
			p.t = (p.t & 0xFFE0) | (uint16(value) >> 3)
			p.x = value & 0x07
		} else {
			p.t = (p.t &^ 0x73E0) | ((uint16(value) & 0x07) << 12) | ((uint16(value) & 0xF8) << 2)
		}
		p.w = !p.w
	case 6: // PPUADDR
		if !p.w {
			p.t = (p.t & 0x00FF) | ((uint16(value) & 0x3F) << 8)
		} else {
			p.t = (p.t & 0xFF00) | uint16(value)
			p.v = p.t
		}
		p.w = !p.w
	case 7: // PPUDATA
		p.writePPUData(value)
	}
}

// WriteOAM writes directly into OAM, used by CPU OAM DMA ($4014).
func (p *PPU) WriteOAM(address uint8, value uint8) { p.oam[address] = value }

func (p *PPU) readPPUData() uint8 {
	var data uint8
	if p.memory != nil {
		if p.v >= 0x3F00 {
			data = p.memory.Read(p.v)
			p.readBuffer = p.memory.Read(p.v & 0x2FFF)
		} else {
			data = p.readBuffer
			p.readBuffer = p.memory.Read(p.v)
		}
	}
	p.advanceVRAMAddress()
	return data
}

func (p *PPU) writePPUData(value uint8) {
	if p.memory != nil {
		p.memory.Write(p.v, value)
	}
	p.advanceVRAMAddress()
}

func (p *PPU) advanceVRAMAddress() {
	if p.ppuCtrl&0x04 != 0 {
		p.v += 32
	} else {
		p.v++
	}
	p.v &= 0x3FFF
}

func (p *PPU) updateRenderingFlags() {
	p.backgroundEnabled = p.ppuMask&0x08 != 0
	p.spritesEnabled = p.ppuMask&0x10 != 0
	p.showBGLeft = p.ppuMask&0x02 != 0
	p.showSpritesLeft = p.ppuMask&0x04 != 0
}

func (p *PPU) renderingEnabled() bool { return p.backgroundEnabled || p.spritesEnabled }

// Step advances the PPU by exactly one dot.
func (p *PPU) Step() {
	if p.scanline >= -1 && p.scanline < 240 {
		p.stepBackground()
		if p.scanline >= 0 {
			p.stepSprites()
		}
		if p.cycle == 257 && p.renderingEnabled() {
			p.evaluateAndFetchSprites()
		}
	}

	if p.scanline >= 0 && p.scanline < 240 && p.cycle >= 1 && p.cycle <= 256 {
		p.renderPixel()
	}

	if p.scanline == -1 && p.cycle == 1 {
		p.ppuStatus &^= 0xE0 // clear VBL, sprite 0 hit, sprite overflow
		p.sprite0Hit = false
		p.spriteOverflow = false
	}
	if p.scanline == 241 && p.cycle == 1 {
		if !p.suppressVBL {
			p.ppuStatus |= 0x80
		}
		p.suppressVBL = false
	}
	if p.scanline >= 0 && p.scanline < 240 && p.cycle == 260 && p.renderingEnabled() {
		if p.scanlineCallback != nil {
			p.scanlineCallback()
		}
	}

	p.checkNMIEdge()
	p.advanceDot()
}

func (p *PPU) checkNMIEdge() {
	line := (p.ppuStatus&0x80 != 0) && (p.ppuCtrl&0x80 != 0)
	if line && !p.nmiLinePrev && p.nmiCallback != nil {
		p.nmiCallback()
	}
	p.nmiLinePrev = line
}

func (p *PPU) advanceDot() {
	p.cycle++
	// Odd-frame dot skip: the pre-render line's last cycle is elided on
	// odd frames when rendering is on. The 2C07 (PAL) doesn't do this —
	// its frame is already an exact 341*312 dots with no skip needed.
	if p.region == RegionNTSC && p.scanline == -1 && p.cycle == 340 && p.oddFrame && p.renderingEnabled() {
		p.cycle = 341
	}
	if p.cycle > 340 {
		p.cycle = 0
		p.scanline++
		if p.scanline > p.region.ScanlinesPerFrame()-2 {
			p.scanline = -1
			p.oddFrame = !p.oddFrame
			p.frameCount++
			if p.frameCompleteCallback != nil {
				p.frameCompleteCallback()
			}
		}
	}
}

// --- loopy v/t manipulation, ppudev-standard bit twiddling ---

func (p *PPU) incrementCoarseX() {
	if p.v&0x001F == 31 {
		p.v &^= 0x001F
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

func (p *PPU) incrementFineY() {
	if p.v&0x7000 != 0x7000 {
		p.v += 0x1000
		return
	}
	p.v &^= 0x7000
	y := (p.v & 0x03E0) >> 5
	switch y {
	case 29:
		y = 0
		p.v ^= 0x0800
	case 31:
		y = 0
	default:
		y++
	}
	p.v = (p.v &^ 0x03E0) | (y << 5)
}

func (p *PPU) copyHorizontalBits() { p.v = (p.v &^ 0x041F) | (p.t & 0x041F) }
func (p *PPU) copyVerticalBits()   { p.v = (p.v &^ 0x7BE0) | (p.t & 0x7BE0) }

// --- frame buffer / accessors ---

func (p *PPU) GetFrameBuffer() [256 * 240]uint32 { return p.frameBuffer }
func (p *PPU) GetFrameCount() uint64             { return p.frameCount }
func (p *PPU) GetScanline() int                  { return p.scanline }
func (p *PPU) GetCycle() int                     { return p.cycle }
func (p *PPU) IsRenderingEnabled() bool          { return p.renderingEnabled() }
func (p *PPU) IsVBlank() bool                    { return p.ppuStatus&0x80 != 0 }

var nesColorPalette = [64]uint32{
	0xFF666666, 0xFF002A88, 0xFF1412A7, 0xFF3B00A4, 0xFF5C007E, 0xFF6E0040, 0xFF6C0600, 0xFF561D00,
	0xFF333500, 0xFF0B4800, 0xFF005200, 0xFF004F08, 0xFF00404D, 0xFF000000, 0xFF000000, 0xFF000000,
	0xFFADADAD, 0xFF155FD9, 0xFF4240FF, 0xFF7527FE, 0xFFA01ACC, 0xFFB71E7B, 0xFFB53120, 0xFF994E00,
	0xFF6B6D00, 0xFF388700, 0xFF0C9300, 0xFF008F32, 0xFF007C8D, 0xFF000000, 0xFF000000, 0xFF000000,
	0xFFFFFEFF, 0xFF64B0FF, 0xFF9290FF, 0xFFC676FF, 0xFFF36AFF, 0xFFFE6ECC, 0xFFFE8170, 0xFFEA9E22,
	0xFFBCBE00, 0xFF88D800, 0xFF5CE430, 0xFF45E082, 0xFF48CDDE, 0xFF4F4F4F, 0xFF000000, 0xFF000000,
	0xFFFFFEFF, 0xFFC0DFFF, 0xFFD3D2FF, 0xFFE8C8FF, 0xFFFBC2FF, 0xFFFEC4EA, 0xFFFECCC5, 0xFFF7D8A5,
	0xFFE4E594, 0xFFCFF29B, 0xFFBEFBB3, 0xFFB8F8D8, 0xFFB8F8F8, 0xFF000000, 0xFF000000, 0xFF000000,
}

// NESColorToRGB converts a 2C02 palette index (0-63) to 0x00RRGGBB.
func NESColorToRGB(index uint8) uint32 {
	if index >= 64 {
		return 0
	}
	return nesColorPalette[index] & 0x00FFFFFF
}
