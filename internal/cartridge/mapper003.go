package cartridge

// Mapper003 implements CNROM (iNES mapper 3): Arkanoid, Solomon's Key.
// PRG-ROM is fixed (16KB mirrored or 32KB direct); any write to $8000-$FFFF
// selects the 8KB CHR-ROM bank visible at $0000-$1FFF.
type Mapper003 struct {
	cart     *Cartridge
	prgBanks uint8
	chrBanks uint8
	chrBank  uint8
	prgRAM   []uint8
}

// NewMapper003 creates a CNROM mapper over the cartridge's loaded PRG/CHR.
func NewMapper003(cart *Cartridge) *Mapper003 {
	return &Mapper003{
		cart:     cart,
		prgBanks: uint8(len(cart.prgROM) / 0x4000),
		chrBanks: uint8(len(cart.chrROM) / 0x2000),
		prgRAM:   make([]uint8, 0x2000),
	}
}

func (m *Mapper003) ReadPRG(address uint16) uint8 {
	if address >= 0x6000 && address < 0x8000 {
		return m.prgRAM[address-0x6000]
	}
	if address < 0x8000 {
		return 0
	}
	offset := address - 0x8000
	if m.prgBanks == 1 {
		offset &= 0x3FFF
	}
	if int(offset) < len(m.cart.prgROM) {
		return m.cart.prgROM[offset]
	}
	return 0
}

func (m *Mapper003) WritePRG(address uint16, value uint8) {
	if address >= 0x6000 && address < 0x8000 {
		m.prgRAM[address-0x6000] = value
		return
	}
	if address >= 0x8000 && m.chrBanks > 0 {
		m.chrBank = value % m.chrBanks
	}
}

func (m *Mapper003) ReadCHR(address uint16) uint8 {
	offset := uint32(m.chrBank)*0x2000 + uint32(address)
	if int(offset) < len(m.cart.chrROM) {
		return m.cart.chrROM[offset]
	}
	return 0
}

func (m *Mapper003) WriteCHR(address uint16, value uint8) {
	if !m.cart.hasCHRRAM {
		return
	}
	offset := uint32(m.chrBank)*0x2000 + uint32(address)
	if int(offset) < len(m.cart.chrROM) {
		m.cart.chrROM[offset] = value
	}
}

func (m *Mapper003) Scanline()                          {}
func (m *Mapper003) MirrorOverride() (MirrorMode, bool) { return 0, false }
func (m *Mapper003) IRQPending() bool                   { return false }
func (m *Mapper003) ClearIRQ()                          {}
func (m *Mapper003) PRGRAM() []uint8                    { return m.prgRAM }
