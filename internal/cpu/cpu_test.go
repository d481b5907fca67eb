package cpu

import "testing"

// flatBus is a 64KB RAM-backed Bus used for opcode-level tests. It isn't
// meant to model the NES memory map — just to give the CPU somewhere to
// read/write and a place to plant test programs.
type flatBus struct {
	mem [65536]uint8
}

func (b *flatBus) Read(addr uint16) uint8        { return b.mem[addr] }
func (b *flatBus) Write(addr uint16, v uint8)    { b.mem[addr] = v }
func (b *flatBus) load(addr uint16, bytes ...uint8) {
	copy(b.mem[addr:], bytes)
}

func newTestCPU() (*CPU, *flatBus) {
	bus := &flatBus{}
	bus.mem[resetVector] = 0x00
	bus.mem[resetVector+1] = 0x80
	c := New(bus)
	c.PowerOn()
	return c, bus
}

func run(c *CPU, cycles int) {
	for i := 0; i < cycles; i++ {
		c.TickCycle()
	}
}

func TestPowerOnLoadsResetVector(t *testing.T) {
	c, _ := newTestCPU()
	if c.PC != 0x8000 {
		t.Fatalf("PC after power-on = $%04X, want $8000", c.PC)
	}
	if !c.I {
		t.Fatalf("I flag should be set after power-on")
	}
}

func TestLDAImmediateTwoCycles(t *testing.T) {
	c, bus := newTestCPU()
	bus.load(0x8000, 0xA9, 0x42)
	run(c, 2)
	if c.A != 0x42 {
		t.Fatalf("A = $%02X, want $42", c.A)
	}
	if c.Z || c.N {
		t.Fatalf("unexpected flags Z=%v N=%v", c.Z, c.N)
	}
	if len(c.steps) != 0 {
		t.Fatalf("instruction should have completed in exactly 2 cycles")
	}
}

func TestLDAZeroAndNegativeFlags(t *testing.T) {
	c, bus := newTestCPU()
	bus.load(0x8000, 0xA9, 0x00)
	run(c, 2)
	if !c.Z {
		t.Fatalf("Z should be set for A=0")
	}
	bus.load(0x8002, 0xA9, 0x80)
	run(c, 2)
	if !c.N {
		t.Fatalf("N should be set for A=$80")
	}
}

func TestAbsoluteXPageCrossAddsCycle(t *testing.T) {
	c, bus := newTestCPU()
	c.X = 0x01
	bus.load(0x8000, 0xBD, 0xFF, 0x20) // LDA $20FF,X -> $2100, crosses page
	bus.mem[0x2100] = 0x55
	run(c, 4) // no-cross would finish in 4; crossing needs a 5th
	if c.A != 0 {
		t.Fatalf("instruction completed early on a page-crossing access")
	}
	run(c, 1)
	if c.A != 0x55 {
		t.Fatalf("A = $%02X after page-crossing LDA $20FF,X, want $55", c.A)
	}
}

func TestAbsoluteXNoCrossFourCycles(t *testing.T) {
	c, bus := newTestCPU()
	c.X = 0x01
	bus.load(0x8000, 0xBD, 0x00, 0x20) // LDA $2000,X -> $2001, no cross
	bus.mem[0x2001] = 0x77
	run(c, 4)
	if c.A != 0x77 {
		t.Fatalf("A = $%02X, want $77 after exactly 4 cycles", c.A)
	}
}

func TestAbsoluteXWriteAlwaysPaysDummyRead(t *testing.T) {
	c, bus := newTestCPU()
	c.X = 0x01
	c.A = 0x9A
	bus.load(0x8000, 0x9D, 0x00, 0x20) // STA $2000,X, no page cross, still 5 cycles
	run(c, 5)
	if bus.mem[0x2001] != 0x9A {
		t.Fatalf("STA did not write expected value")
	}
}

func TestADCCarryAndOverflow(t *testing.T) {
	c, bus := newTestCPU()
	c.A = 0x7F
	c.C = false
	bus.load(0x8000, 0x69, 0x01) // ADC #1 -> overflow into negative
	run(c, 2)
	if c.A != 0x80 || !c.V || !c.N || c.C {
		t.Fatalf("ADC overflow case: A=$%02X V=%v N=%v C=%v", c.A, c.V, c.N, c.C)
	}
}

func TestSBCBorrow(t *testing.T) {
	c, bus := newTestCPU()
	c.A = 0x00
	c.C = true // no borrow going in
	bus.load(0x8000, 0xE9, 0x01)
	run(c, 2)
	if c.A != 0xFF || c.C {
		t.Fatalf("SBC borrow case: A=$%02X C=%v", c.A, c.C)
	}
}

func TestRMWZeroPageFiveCyclesWithDummyWrite(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[0x10] = 0x80
	bus.load(0x8000, 0x06, 0x10) // ASL $10
	run(c, 5)
	if bus.mem[0x10] != 0x00 || !c.C {
		t.Fatalf("ASL $10 result=$%02X C=%v, want $00 C=true", bus.mem[0x10], c.C)
	}
}

func TestBranchNotTakenTwoCycles(t *testing.T) {
	c, bus := newTestCPU()
	c.Z = false
	bus.load(0x8000, 0xF0, 0x10) // BEQ, not taken
	run(c, 2)
	if c.PC != 0x8002 {
		t.Fatalf("PC = $%04X after not-taken branch, want $8002", c.PC)
	}
}

func TestBranchTakenSamePageThreeCycles(t *testing.T) {
	c, bus := newTestCPU()
	c.Z = true
	bus.load(0x8000, 0xF0, 0x10) // BEQ +16, stays on page 0x80
	run(c, 3)
	if c.PC != 0x8012 {
		t.Fatalf("PC = $%04X after taken same-page branch, want $8012", c.PC)
	}
}

func TestBranchTakenCrossingPageFourCycles(t *testing.T) {
	c, bus := newTestCPU()
	c.Z = true
	bus.load(0x80F0, 0xF0, 0x10) // BEQ +16 from $80F0 -> $8102, crosses page
	c.PC = 0x80F0
	run(c, 4)
	if c.PC != 0x8102 {
		t.Fatalf("PC = $%04X after taken cross-page branch, want $8102", c.PC)
	}
}

// --- Interrupt sequencing, per the documented BRK/NMI/IRQ semantics ---

func TestBRKPushesStatusWithBSet(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[irqVector] = 0x00
	bus.mem[irqVector+1] = 0x90
	bus.load(0x8000, 0x00, 0x00) // BRK + padding byte
	run(c, 7)
	pushedP := bus.mem[stackBase+uint16(c.SP)+1]
	if pushedP&bFlagMask == 0 {
		t.Fatalf("BRK must push status with B set, got $%02X", pushedP)
	}
	if pushedP&unusedMask == 0 {
		t.Fatalf("pushed status must have the unused bit set, got $%02X", pushedP)
	}
	if c.PC != 0x9000 {
		t.Fatalf("PC = $%04X after BRK, want $9000 (IRQ/BRK vector)", c.PC)
	}
	if !c.I {
		t.Fatalf("I must be set after entering the BRK handler")
	}
}

func TestHardwareIRQPushesStatusWithBClear(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[irqVector] = 0x00
	bus.mem[irqVector+1] = 0x90
	bus.load(0x8000, 0xEA) // NOP
	c.I = false
	c.SetIRQ(true)
	run(c, 2)  // NOP completes, its poll latches wantIRQ
	run(c, 7)  // 7-cycle IRQ sequence
	pushedP := bus.mem[stackBase+uint16(c.SP)+1]
	if pushedP&bFlagMask != 0 {
		t.Fatalf("hardware IRQ must push status with B clear, got $%02X", pushedP)
	}
	if c.PC != 0x9000 {
		t.Fatalf("PC = $%04X after IRQ, want $9000", c.PC)
	}
}

func TestNMIHijacksInFlightIRQSequence(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[irqVector] = 0x00
	bus.mem[irqVector+1] = 0x90
	bus.mem[nmiVector] = 0x00
	bus.mem[nmiVector+1] = 0xA0
	bus.load(0x8000, 0xEA)
	c.I = false
	c.SetIRQ(true)
	run(c, 2) // NOP completes, IRQ latched for next beginNext

	// Assert then deassert NMI mid-IRQ-sequence (cycles 4-5 hijack window).
	run(c, 3) // two dummy reads, push PCH
	c.SetNMI(true)
	c.SetNMI(false) // falling edge latches nmiPending
	run(c, 4)        // push PCL, push P, read vector low, read vector high

	if c.PC != 0xA000 {
		t.Fatalf("PC = $%04X, want $A000: NMI should have hijacked the in-flight IRQ", c.PC)
	}
}

func TestNMIEdgeTriggeredNotLevel(t *testing.T) {
	c, bus := newTestCPU()
	bus.load(0x8000, 0xEA, 0xEA, 0xEA, 0xEA)
	c.SetNMI(true) // asserting alone (no falling edge yet) must not latch
	run(c, 2)
	if c.wantNMI || c.nmiPending {
		t.Fatalf("NMI must not trigger on the rising edge alone")
	}
	c.SetNMI(false) // falling edge
	if !c.nmiPending {
		t.Fatalf("NMI should latch pending on the falling edge")
	}
}

func TestCLIDelaysIRQByOneInstruction(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[irqVector] = 0x00
	bus.mem[irqVector+1] = 0x90
	bus.load(0x8000, 0x58, 0xEA, 0xEA) // CLI, NOP, NOP
	c.I = true
	c.SetIRQ(true)

	run(c, 2) // CLI executes; poll at its last cycle uses the pre-CLI I (masked)
	if c.wantIRQ {
		t.Fatalf("IRQ must not be serviced immediately after CLI")
	}
	if c.I {
		t.Fatalf("CLI should have cleared I")
	}

	run(c, 2) // the instruction right after CLI; its poll uses the new I=0
	if !c.wantIRQ {
		t.Fatalf("IRQ should be latched for servicing right after the instruction following CLI")
	}
}

func TestRTIServicesIRQImmediately(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[irqVector] = 0x00
	bus.mem[irqVector+1] = 0x90
	// Build a stack frame as if an interrupt handler is about to RTI with
	// I=0 in the popped status, PC=$8000, and an IRQ still asserted.
	c.SP = 0xFC
	bus.mem[stackBase+0xFD] = 0x00 // P, I clear
	bus.mem[stackBase+0xFE] = 0x00 // PCL
	bus.mem[stackBase+0xFF] = 0x80 // PCH
	bus.load(0x9000, 0x40) // RTI
	c.PC = 0x9000
	c.I = true
	c.SetIRQ(true)

	run(c, 6) // RTI
	if !c.wantIRQ {
		t.Fatalf("RTI must allow an already-pending IRQ to be serviced with no extra delay")
	}
}

func TestPHAandPLARoundTrip(t *testing.T) {
	c, bus := newTestCPU()
	c.A = 0x3C
	bus.load(0x8000, 0x48, 0xA9, 0x00, 0x68) // PHA, LDA #0, PLA
	run(c, 3)
	run(c, 2)
	run(c, 4)
	if c.A != 0x3C {
		t.Fatalf("A = $%02X after PHA/PLA round trip, want $3C", c.A)
	}
}

func TestJSRRTSRoundTrip(t *testing.T) {
	c, bus := newTestCPU()
	bus.load(0x8000, 0x20, 0x00, 0x90) // JSR $9000
	bus.load(0x9000, 0x60)             // RTS
	run(c, 6)
	if c.PC != 0x9000 {
		t.Fatalf("PC = $%04X after JSR, want $9000", c.PC)
	}
	run(c, 6)
	if c.PC != 0x8003 {
		t.Fatalf("PC = $%04X after RTS, want $8003", c.PC)
	}
}

func TestIndirectJMPPageWrapBug(t *testing.T) {
	c, bus := newTestCPU()
	bus.mem[0x30FF] = 0x00
	bus.mem[0x3000] = 0x80 // wraps within the page instead of reading $3100
	bus.mem[0x3100] = 0xFF
	bus.load(0x8000, 0x6C, 0xFF, 0x30) // JMP ($30FF)
	run(c, 5)
	if c.PC != 0x8000 {
		t.Fatalf("PC = $%04X, want $8000: indirect JMP must reproduce the page-wrap bug", c.PC)
	}
}

func TestUnofficialDCP(t *testing.T) {
	c, bus := newTestCPU()
	c.A = 0x10
	bus.mem[0x10] = 0x05
	bus.load(0x8000, 0xC7, 0x10) // DCP $10
	run(c, 5)
	if bus.mem[0x10] != 0x04 {
		t.Fatalf("DCP should decrement memory to $04, got $%02X", bus.mem[0x10])
	}
	if !c.C {
		t.Fatalf("DCP: A($10) >= result($04) should set carry")
	}
}

func TestJAMHaltsAdvancement(t *testing.T) {
	c, bus := newTestCPU()
	bus.load(0x8000, 0x02)
	run(c, 2)
	if !c.Halted() {
		t.Fatalf("opcode $02 should halt the CPU")
	}
	pc := c.PC
	run(c, 5)
	if c.PC != pc {
		t.Fatalf("PC must not advance once halted")
	}
}
