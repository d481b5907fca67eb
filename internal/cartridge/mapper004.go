package cartridge

// Mapper004 implements MMC3 (iNES mapper 4): Super Mario Bros. 2/3, Mega
// Man 3-6, and roughly a quarter of licensed carts. Two independent bank
// windows (2x8KB PRG, 6x1/2KB CHR) are selected through a bank-select/
// bank-data register pair at $8000/$8001, mirroring and PRG-RAM protect at
// $A000/$A001, and a scanline IRQ counter at $C000-$FFFF.
//
// The counter is driven once per visible scanline via Scanline, which the
// PPU calls at dot 260 of each visible scanline while rendering is
// enabled; this is the common scanline-count approximation of the A12
// rising edge, and A12 itself is not watched or filtered.
type Mapper004 struct {
	cart     *Cartridge
	prgBanks uint8
	chrBanks uint8
	prgRAM   []uint8

	bankSelect uint8
	prgMode    uint8
	chrMode    uint8
	registers  [8]uint8

	mirroring MirrorMode

	prgRAMEnabled      bool
	prgRAMWriteProtect bool

	irqLatch      uint8
	irqCounter    uint8
	irqEnabled    bool
	irqPending    bool
	irqReloadFlag bool
}

// NewMapper004 creates an MMC3 mapper over the cartridge's loaded PRG/CHR.
func NewMapper004(cart *Cartridge) *Mapper004 {
	return &Mapper004{
		cart:          cart,
		prgBanks:      uint8(len(cart.prgROM) / 0x2000),
		chrBanks:      uint8(len(cart.chrROM) / 0x400),
		prgRAM:        make([]uint8, 0x2000),
		mirroring:     cart.mirror,
		prgRAMEnabled: true,
	}
}

func (m *Mapper004) ReadPRG(address uint16) uint8 {
	switch {
	case address >= 0x6000 && address < 0x8000:
		if m.prgRAMEnabled {
			return m.prgRAM[address-0x6000]
		}
		return 0
	case address >= 0x8000 && address < 0xA000:
		bank := m.registers[6]
		if m.prgMode != 0 {
			bank = m.prgBanks - 2
		}
		return m.readPRGBank(bank, address-0x8000)
	case address >= 0xA000 && address < 0xC000:
		return m.readPRGBank(m.registers[7], address-0xA000)
	case address >= 0xC000 && address < 0xE000:
		bank := m.prgBanks - 2
		if m.prgMode != 0 {
			bank = m.registers[6]
		}
		return m.readPRGBank(bank, address-0xC000)
	default:
		return m.readPRGBank(m.prgBanks-1, address-0xE000)
	}
}

func (m *Mapper004) readPRGBank(bank uint8, offsetInBank uint16) uint8 {
	offset := uint32(bank)*0x2000 + uint32(offsetInBank)
	if int(offset) < len(m.cart.prgROM) {
		return m.cart.prgROM[offset]
	}
	return 0
}

func (m *Mapper004) WritePRG(address uint16, value uint8) {
	switch {
	case address >= 0x6000 && address < 0x8000:
		if m.prgRAMEnabled && !m.prgRAMWriteProtect {
			m.prgRAM[address-0x6000] = value
		}
	case address >= 0x8000 && address < 0xA000:
		if address&1 == 0 {
			m.bankSelect = value & 0x07
			m.prgMode = (value >> 6) & 0x01
			m.chrMode = (value >> 7) & 0x01
		} else {
			m.registers[m.bankSelect] = value
		}
	case address >= 0xA000 && address < 0xC000:
		if address&1 == 0 {
			if value&1 == 0 {
				m.mirroring = MirrorVertical
			} else {
				m.mirroring = MirrorHorizontal
			}
		} else {
			m.prgRAMWriteProtect = value&0x40 != 0
			m.prgRAMEnabled = value&0x80 != 0
		}
	case address >= 0xC000 && address < 0xE000:
		if address&1 == 0 {
			m.irqLatch = value
		} else {
			m.irqCounter = 0
			m.irqReloadFlag = true
		}
	default:
		if address&1 == 0 {
			m.irqEnabled = false
			m.irqPending = false
		} else {
			m.irqEnabled = true
		}
	}
}

func (m *Mapper004) ReadCHR(address uint16) uint8 {
	offset := m.chrOffset(address)
	if int(offset) < len(m.cart.chrROM) {
		return m.cart.chrROM[offset]
	}
	return 0
}

func (m *Mapper004) WriteCHR(address uint16, value uint8) {
	if !m.cart.hasCHRRAM {
		return
	}
	offset := m.chrOffset(address)
	if int(offset) < len(m.cart.chrROM) {
		m.cart.chrROM[offset] = value
	}
}

func (m *Mapper004) chrOffset(address uint16) uint32 {
	// chrMode 0: 2KB banks at $0000, 1KB banks at $1000; chrMode 1 swaps
	// the two halves, which is MMC3's A12-inversion behavior.
	banks2k := [2]uint8{m.registers[0] &^ 1, m.registers[1] &^ 1}
	banks1k := [4]uint8{m.registers[2], m.registers[3], m.registers[4], m.registers[5]}
	lowIs2K := m.chrMode == 0

	var region uint16
	if lowIs2K {
		region = address / 0x0800
	} else {
		region = address / 0x0400
	}

	if lowIs2K {
		switch region {
		case 0:
			return uint32(banks2k[0])*0x400 + uint32(address)
		case 1:
			return uint32(banks2k[1])*0x400 + uint32(address-0x0800)
		default:
			idx := (address - 0x1000) / 0x0400
			return uint32(banks1k[idx])*0x400 + uint32((address-0x1000)&0x3FF)
		}
	}
	switch {
	case address < 0x1000:
		idx := address / 0x0400
		return uint32(banks1k[idx])*0x400 + uint32(address&0x3FF)
	case address < 0x1800:
		return uint32(banks2k[0])*0x400 + uint32(address-0x1000)
	default:
		return uint32(banks2k[1])*0x400 + uint32(address-0x1800)
	}
}

// Scanline advances the IRQ counter; call once per PPU-A12 rising edge
// (approximated here as once per visible scanline; the pre-render line
// does not clock it).
func (m *Mapper004) Scanline() {
	if m.irqCounter == 0 || m.irqReloadFlag {
		m.irqCounter = m.irqLatch
		m.irqReloadFlag = false
	} else {
		m.irqCounter--
	}
	if m.irqCounter == 0 && m.irqEnabled {
		m.irqPending = true
	}
}

func (m *Mapper004) MirrorOverride() (MirrorMode, bool) { return m.mirroring, true }
func (m *Mapper004) IRQPending() bool                   { return m.irqPending }
func (m *Mapper004) ClearIRQ()                          { m.irqPending = false }
func (m *Mapper004) PRGRAM() []uint8                    { return m.prgRAM }
