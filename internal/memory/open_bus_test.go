package memory

import "testing"

func TestMemory_OpenBus_LingersAfterUnmappedRead(t *testing.T) {
	ppu := &MockPPU{}
	apu := &MockAPU{}
	cart := &MockCartridge{}
	mem := New(ppu, apu, cart)

	mem.ram[0] = 0x42
	if got := mem.Read(0x0000); got != 0x42 {
		t.Fatalf("Read(0x0000) = %02X, want 0x42", got)
	}

	// $4020-$5FFF (cartridge expansion) is unmapped; it should float to
	// whatever the bus last carried rather than always reading 0.
	if got := mem.Read(0x4020); got != 0x42 {
		t.Errorf("Read(0x4020) = %02X, want open-bus value 0x42", got)
	}
}

func TestMemory_OpenBus_WritesDoNotDriveTheLatch(t *testing.T) {
	ppu := &MockPPU{}
	apu := &MockAPU{}
	cart := &MockCartridge{}
	mem := New(ppu, apu, cart)

	mem.ram[0] = 0x7E
	mem.Read(0x0000) // latch = 0x7E

	mem.Write(0x5000, 0x99) // unmapped write, must not touch the latch
	if got := mem.Read(0x4020); got != 0x7E {
		t.Errorf("an unmapped write should not change the open-bus latch, got %02X want 0x7E", got)
	}
}

func TestPPUMemory_OpenBus_SeparateFromCPUBus(t *testing.T) {
	cart := &MockCartridge{}
	mem := New(&MockPPU{}, &MockAPU{}, cart)
	pm := NewPPUMemory(cart, MirrorHorizontal)

	mem.ram[0] = 0x42
	mem.Read(0x0000) // CPU latch = 0x42

	pm.Write(0x2000, 0x33)
	pm.Read(0x2000)
	if got := pm.OpenBus(); got != 0x33 {
		t.Errorf("PPUMemory.OpenBus() = %02X, want 0x33", got)
	}
	if mem.openBusValue != 0x42 {
		t.Errorf("CPU open-bus latch = %02X after PPU traffic, want 0x42", mem.openBusValue)
	}
}
