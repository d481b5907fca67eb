package cartridge

import "testing"

// newBankedCartridge builds a Cartridge with prgBanks*16KB of PRG-ROM and
// chrBanks*8KB of CHR-ROM, each bank tagged with its own index byte at
// offset 0 so tests can tell which bank got selected.
func newBankedCartridge(prgBanks, chrBanks int, chrRAM bool) *Cartridge {
	cart := &Cartridge{
		prgROM:    make([]uint8, prgBanks*0x4000),
		mirror:    MirrorHorizontal,
		hasCHRRAM: chrRAM,
	}
	for b := 0; b < prgBanks; b++ {
		cart.prgROM[b*0x4000] = uint8(b)
	}
	if chrRAM {
		cart.chrROM = make([]uint8, 0x2000)
	} else {
		cart.chrROM = make([]uint8, chrBanks*0x2000)
		for b := 0; b < chrBanks; b++ {
			cart.chrROM[b*0x2000] = uint8(0x80 + b)
		}
	}
	return cart
}

func TestMapper001_PowerOnState_FixesLastPRGBankAtC000(t *testing.T) {
	cart := newBankedCartridge(4, 2, false)
	m := NewMapper001(cart)

	if got := m.ReadPRG(0xC000); got != 3 {
		t.Errorf("power-on PRG mode should fix bank 3 (last) at $C000, got bank tag %d", got)
	}
}

// writeMMC1 performs the real 5-bit serial write sequence MMC1 requires:
// one bit per write to the target address, LSB first.
func writeMMC1(m *Mapper001, address uint16, value uint8) {
	for i := 0; i < 5; i++ {
		bit := (value >> uint(i)) & 1
		m.WritePRG(address, bit)
	}
}

func TestMapper001_SerialWrite_SelectsPRGBank(t *testing.T) {
	cart := newBankedCartridge(4, 2, false)
	m := NewMapper001(cart)

	writeMMC1(m, 0x8000, 0x0C) // control: PRG mode 3, fix last bank high
	writeMMC1(m, 0xE000, 0x01) // PRG bank register: select bank 1 at $8000

	if got := m.ReadPRG(0x8000); got != 1 {
		t.Errorf("after selecting PRG bank 1, $8000 should read bank tag 1, got %d", got)
	}
	if got := m.ReadPRG(0xC000); got != 3 {
		t.Errorf("$C000 should stay fixed to the last bank (3), got %d", got)
	}
}

func TestMapper001_ResetBit_AbortsShiftAndForcesPRGMode3(t *testing.T) {
	cart := newBankedCartridge(2, 1, false)
	m := NewMapper001(cart)

	m.WritePRG(0x8000, 1) // partial shift, not yet latched
	m.WritePRG(0x8000, 0x80)

	if m.shiftCount != 0 {
		t.Errorf("a write with bit 7 set should reset the shift counter, got %d", m.shiftCount)
	}
	if m.prgMode() != 3 {
		t.Errorf("a write with bit 7 set should force PRG mode 3, got %d", m.prgMode())
	}
}

func TestMapper001_MirrorOverride_TracksControlBits(t *testing.T) {
	cart := newBankedCartridge(2, 1, false)
	m := NewMapper001(cart)

	writeMMC1(m, 0x8000, 0x02) // mirroring = vertical (bits 1:0 = 10)
	if mode, ok := m.MirrorOverride(); !ok || mode != MirrorVertical {
		t.Errorf("control bits 10 should report vertical mirroring, got %v ok=%v", mode, ok)
	}

	writeMMC1(m, 0x8000, 0x03) // mirroring = horizontal (bits 1:0 = 11)
	if mode, ok := m.MirrorOverride(); !ok || mode != MirrorHorizontal {
		t.Errorf("control bits 11 should report horizontal mirroring, got %v ok=%v", mode, ok)
	}
}

func TestMapper002_BankSwitch_LowWindowOnly(t *testing.T) {
	cart := newBankedCartridge(4, 0, true)
	m := NewMapper002(cart)

	m.WritePRG(0x8000, 2)
	if got := m.ReadPRG(0x8000); got != 2 {
		t.Errorf("selecting bank 2 should make $8000 read bank tag 2, got %d", got)
	}
	if got := m.ReadPRG(0xC000); got != 3 {
		t.Errorf("$C000 should always read the last bank (3), got %d", got)
	}
}

func TestMapper002_CHRIsRAMAndWritable(t *testing.T) {
	cart := newBankedCartridge(2, 0, true)
	m := NewMapper002(cart)

	m.WriteCHR(0x0010, 0x55)
	if got := m.ReadCHR(0x0010); got != 0x55 {
		t.Errorf("UxROM CHR-RAM should be writable, want 0x55 got 0x%02x", got)
	}
}

func TestMapper003_CHRBankSwitch_AnyWriteSelectsBank(t *testing.T) {
	cart := newBankedCartridge(1, 4, false)
	m := NewMapper003(cart)

	m.WritePRG(0x8000, 2)
	if got := m.ReadCHR(0x0000); got != 0x82 {
		t.Errorf("selecting CHR bank 2 should make $0000 read its tag byte, want 0x82 got 0x%02x", got)
	}
}

func TestMapper003_SingleBankPRGMirrorsAcross16KBWindows(t *testing.T) {
	cart := newBankedCartridge(1, 1, false)
	m := NewMapper003(cart)

	if m.ReadPRG(0x8000) != m.ReadPRG(0xC000) {
		t.Error("a single 16KB PRG bank should mirror into both $8000 and $C000 windows")
	}
}

// newMMC3Cartridge builds a Cartridge with prgBanks8k*8KB of PRG-ROM, each
// 8KB bank's first byte tagged with its own bank index, matching Mapper004's
// 8KB PRG bank granularity (len(prgROM)/0x2000).
func newMMC3Cartridge(prgBanks8k int) *Cartridge {
	cart := &Cartridge{
		prgROM: make([]uint8, prgBanks8k*0x2000),
		chrROM: make([]uint8, 0x2000),
		mirror: MirrorHorizontal,
	}
	for b := 0; b < prgBanks8k; b++ {
		cart.prgROM[b*0x2000] = uint8(b)
	}
	return cart
}

func TestMapper004_BankSelectRegisterRoutesBankData(t *testing.T) {
	cart := newMMC3Cartridge(16)
	m := NewMapper004(cart)

	m.WritePRG(0x8000, 6) // bank-select: target register 6 (PRG $8000 window)
	m.WritePRG(0x8001, 3) // bank-data: bank 3

	if got := m.ReadPRG(0x8000); got != 3 {
		t.Errorf("register 6 should bank-switch the $8000 PRG window, want tag 3 got %d", got)
	}
	// $C000 stays fixed to the second-to-last bank in PRG mode 0.
	if want := m.prgBanks - 2; m.ReadPRG(0xC000) != want {
		t.Errorf("$C000 should stay fixed to bank %d in PRG mode 0, got %d", want, m.ReadPRG(0xC000))
	}
}

func TestMapper004_PRGModeBitSwapsFixedAndSwitchableWindows(t *testing.T) {
	cart := newMMC3Cartridge(16)
	m := NewMapper004(cart)

	m.WritePRG(0x8000, 6)
	m.WritePRG(0x8001, 3)
	m.WritePRG(0x8000, 0x40) // bank-select with PRG mode bit set: swap $8000/$C000

	if got := m.ReadPRG(0xC000); got != 3 {
		t.Errorf("PRG mode 1 should move the switchable window to $C000, want tag 3 got %d", got)
	}
	if want := m.prgBanks - 2; m.ReadPRG(0x8000) != want {
		t.Errorf("PRG mode 1 should fix $8000 to bank %d, got %d", want, m.ReadPRG(0x8000))
	}
}

func TestMapper004_IRQCounterReloadsAndFires(t *testing.T) {
	cart := newMMC3Cartridge(16)
	m := NewMapper004(cart)

	m.WritePRG(0xC000, 2) // IRQ latch = 2
	m.WritePRG(0xC001, 0) // reload on next scanline
	m.WritePRG(0xE001, 0) // enable IRQ

	m.Scanline() // reload: counter = 2
	if m.IRQPending() {
		t.Fatal("IRQ should not fire on the reload scanline")
	}
	m.Scanline() // counter = 1
	if m.IRQPending() {
		t.Fatal("IRQ should not fire before the counter reaches 0")
	}
	m.Scanline() // counter = 0 -> pending
	if !m.IRQPending() {
		t.Fatal("IRQ should be pending once the counter reaches 0 with IRQs enabled")
	}

	m.ClearIRQ()
	if m.IRQPending() {
		t.Fatal("ClearIRQ should acknowledge the pending IRQ")
	}
}

func TestMapper004_IRQDisable_SuppressesPending(t *testing.T) {
	cart := newMMC3Cartridge(16)
	m := NewMapper004(cart)

	m.WritePRG(0xC000, 0) // latch = 0, so every reload immediately re-fires
	m.WritePRG(0xC001, 0)
	m.WritePRG(0xE001, 0) // enable
	m.Scanline()

	m.WritePRG(0xE000, 0) // disable IRQ and acknowledge
	if m.IRQPending() {
		t.Error("writing $E000 should disable and clear any pending IRQ")
	}
}

func TestMapper004_MirrorOverride_TracksA000Writes(t *testing.T) {
	cart := newMMC3Cartridge(16)
	m := NewMapper004(cart)

	m.WritePRG(0xA000, 0) // even value -> vertical
	if mode, ok := m.MirrorOverride(); !ok || mode != MirrorVertical {
		t.Errorf("want vertical mirroring, got %v ok=%v", mode, ok)
	}
	m.WritePRG(0xA000, 1) // odd value -> horizontal
	if mode, ok := m.MirrorOverride(); !ok || mode != MirrorHorizontal {
		t.Errorf("want horizontal mirroring, got %v ok=%v", mode, ok)
	}
}

func TestCreateMapper_DispatchesEveryRegisteredMapperID(t *testing.T) {
	cart := &Cartridge{prgROM: make([]uint8, 0x8000), chrROM: make([]uint8, 0x2000)}

	if _, ok := createMapper(0, cart).(*Mapper000); !ok {
		t.Error("mapper ID 0 should dispatch to Mapper000")
	}
	if _, ok := createMapper(1, cart).(*Mapper001); !ok {
		t.Error("mapper ID 1 should dispatch to Mapper001")
	}
	if _, ok := createMapper(2, cart).(*Mapper002); !ok {
		t.Error("mapper ID 2 should dispatch to Mapper002")
	}
	if _, ok := createMapper(3, cart).(*Mapper003); !ok {
		t.Error("mapper ID 3 should dispatch to Mapper003")
	}
	if _, ok := createMapper(4, cart).(*Mapper004); !ok {
		t.Error("mapper ID 4 should dispatch to Mapper004")
	}
	if _, ok := createMapper(99, cart).(*Mapper000); !ok {
		t.Error("an unrecognized mapper ID should fall back to Mapper000 (NROM)")
	}
}
