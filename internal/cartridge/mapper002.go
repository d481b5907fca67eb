package cartridge

// Mapper002 implements UxROM (iNES mapper 2): Mega Man, Castlevania, Duck
// Tales. A switchable 16KB PRG bank at $8000 plus a bank fixed to the last
// 16KB at $C000, fixed 8KB CHR-RAM, fixed header mirroring.
type Mapper002 struct {
	cart     *Cartridge
	prgBanks uint8
	prgBank  uint8
	prgRAM   []uint8
}

// NewMapper002 creates a UxROM mapper over the cartridge's loaded PRG.
func NewMapper002(cart *Cartridge) *Mapper002 {
	return &Mapper002{
		cart:     cart,
		prgBanks: uint8(len(cart.prgROM) / 0x4000),
		prgRAM:   make([]uint8, 0x2000),
	}
}

func (m *Mapper002) ReadPRG(address uint16) uint8 {
	switch {
	case address >= 0x6000 && address < 0x8000:
		return m.prgRAM[address-0x6000]
	case address >= 0x8000 && address < 0xC000:
		offset := uint32(m.prgBank)*0x4000 + uint32(address-0x8000)
		if int(offset) < len(m.cart.prgROM) {
			return m.cart.prgROM[offset]
		}
	case address >= 0xC000:
		last := m.prgBanks - 1
		offset := uint32(last)*0x4000 + uint32(address-0xC000)
		if int(offset) < len(m.cart.prgROM) {
			return m.cart.prgROM[offset]
		}
	}
	return 0
}

func (m *Mapper002) WritePRG(address uint16, value uint8) {
	switch {
	case address >= 0x6000 && address < 0x8000:
		m.prgRAM[address-0x6000] = value
	case address >= 0x8000:
		if m.prgBanks > 0 {
			m.prgBank = value % m.prgBanks
		}
	}
}

func (m *Mapper002) ReadCHR(address uint16) uint8 {
	if int(address) < len(m.cart.chrROM) {
		return m.cart.chrROM[address]
	}
	return 0
}

func (m *Mapper002) WriteCHR(address uint16, value uint8) {
	if m.cart.hasCHRRAM && int(address) < len(m.cart.chrROM) {
		m.cart.chrROM[address] = value
	}
}

func (m *Mapper002) Scanline()                          {}
func (m *Mapper002) MirrorOverride() (MirrorMode, bool) { return 0, false }
func (m *Mapper002) IRQPending() bool                   { return false }
func (m *Mapper002) ClearIRQ()                          {}
func (m *Mapper002) PRGRAM() []uint8                    { return m.prgRAM }
