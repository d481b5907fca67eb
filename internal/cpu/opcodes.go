package cpu

// opcodeInfo describes one of the 256 opcode slots: its addressing mode,
// its access flavor (which determines the dummy-read/write shape built
// by addressing.go), and the operation that runs once the operand is
// available. The operation field matching the opcode's kind is the one
// the cycle builder uses; every slot also carries a default implied op.
type opcodeInfo struct {
	name string
	mode AddressingMode
	kind accessKind

	// pollBeforeOp is set for CLI/SEI/PLP: their interrupt poll must see
	// the pre-instruction I value, which the default (poll-after) order
	// would miss since all three change I themselves.
	pollBeforeOp bool

	unofficialHalt bool

	read       func(c *CPU, v uint8)
	writeVal   func(c *CPU) uint8
	rmw        func(c *CPU, v uint8) uint8
	implied    func(c *CPU)
	branchCond func(c *CPU) bool
}

var opcodeTable [256]opcodeInfo

func def(opcode uint8, name string, mode AddressingMode, kind accessKind) *opcodeInfo {
	info := &opcodeTable[opcode]
	info.name = name
	info.mode = mode
	info.kind = kind
	return info
}

func init() {
	// Default every slot to a 1-byte NOP so unused/unstable opcodes are
	// harmless rather than nil-dereferencing; the handful of true JAM
	// opcodes are overridden below to halt instead.
	for i := range opcodeTable {
		def(uint8(i), "NOP", Implied, accImplied).implied = func(c *CPU) {}
	}

	defineLoadStore()
	defineTransfers()
	defineStack()
	defineLogical()
	defineArithmetic()
	defineIncDec()
	defineShifts()
	defineJumps()
	defineBranches()
	defineFlags()
	defineMisc()
	defineUnofficial()
}

func boolBit(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// --- shared ALU helpers, reused by the official ops and the illegal
// combined read-modify-write ops (SLO/RLA/SRE/RRA/DCP/ISB) ---

func adc(c *CPU, v uint8) {
	sum := uint16(c.A) + uint16(v) + uint16(boolBit(c.C))
	result := uint8(sum)
	c.V = (^(c.A^v))&(c.A^result)&0x80 != 0
	c.C = sum > 0xFF
	c.A = result
	c.setZN(c.A)
}

func sbc(c *CPU, v uint8) { adc(c, ^v) }

func compare(c *CPU, reg, v uint8) {
	c.C = reg >= v
	c.setZN(reg - v)
}

func bitOp(c *CPU, v uint8) {
	c.Z = (c.A & v) == 0
	c.V = v&0x40 != 0
	c.N = v&0x80 != 0
}

func aslVal(c *CPU, v uint8) uint8 {
	c.C = v&0x80 != 0
	r := v << 1
	c.setZN(r)
	return r
}

func lsrVal(c *CPU, v uint8) uint8 {
	c.C = v&0x01 != 0
	r := v >> 1
	c.setZN(r)
	return r
}

func rolVal(c *CPU, v uint8) uint8 {
	newC := v&0x80 != 0
	r := (v << 1) | boolBit(c.C)
	c.C = newC
	c.setZN(r)
	return r
}

func rorVal(c *CPU, v uint8) uint8 {
	newC := v&0x01 != 0
	r := (v >> 1) | (boolBit(c.C) << 7)
	c.C = newC
	c.setZN(r)
	return r
}

// --- Load / Store ---

func defineLoadStore() {
	lda := func(c *CPU, v uint8) { c.A = v; c.setZN(c.A) }
	ldx := func(c *CPU, v uint8) { c.X = v; c.setZN(c.X) }
	ldy := func(c *CPU, v uint8) { c.Y = v; c.setZN(c.Y) }

	for _, e := range []struct {
		op   uint8
		mode AddressingMode
	}{
		{0xA9, Immediate}, {0xA5, ZeroPage}, {0xB5, ZeroPageX},
		{0xAD, Absolute}, {0xBD, AbsoluteX}, {0xB9, AbsoluteY},
		{0xA1, IndexedIndirect}, {0xB1, IndirectIndexed},
	} {
		def(e.op, "LDA", e.mode, accRead).read = lda
	}
	for _, e := range []struct {
		op   uint8
		mode AddressingMode
	}{
		{0xA2, Immediate}, {0xA6, ZeroPage}, {0xB6, ZeroPageY},
		{0xAE, Absolute}, {0xBE, AbsoluteY},
	} {
		def(e.op, "LDX", e.mode, accRead).read = ldx
	}
	for _, e := range []struct {
		op   uint8
		mode AddressingMode
	}{
		{0xA0, Immediate}, {0xA4, ZeroPage}, {0xB4, ZeroPageX},
		{0xAC, Absolute}, {0xBC, AbsoluteX},
	} {
		def(e.op, "LDY", e.mode, accRead).read = ldy
	}

	sta := func(c *CPU) uint8 { return c.A }
	stx := func(c *CPU) uint8 { return c.X }
	sty := func(c *CPU) uint8 { return c.Y }
	for _, e := range []struct {
		op   uint8
		mode AddressingMode
	}{
		{0x85, ZeroPage}, {0x95, ZeroPageX}, {0x8D, Absolute},
		{0x9D, AbsoluteX}, {0x99, AbsoluteY}, {0x81, IndexedIndirect}, {0x91, IndirectIndexed},
	} {
		def(e.op, "STA", e.mode, accWrite).writeVal = sta
	}
	def(0x86, "STX", ZeroPage, accWrite).writeVal = stx
	def(0x96, "STX", ZeroPageY, accWrite).writeVal = stx
	def(0x8E, "STX", Absolute, accWrite).writeVal = stx
	def(0x84, "STY", ZeroPage, accWrite).writeVal = sty
	def(0x94, "STY", ZeroPageX, accWrite).writeVal = sty
	def(0x8C, "STY", Absolute, accWrite).writeVal = sty
}

func defineTransfers() {
	def(0xAA, "TAX", Implied, accImplied).implied = func(c *CPU) { c.X = c.A; c.setZN(c.X) }
	def(0x8A, "TXA", Implied, accImplied).implied = func(c *CPU) { c.A = c.X; c.setZN(c.A) }
	def(0xA8, "TAY", Implied, accImplied).implied = func(c *CPU) { c.Y = c.A; c.setZN(c.Y) }
	def(0x98, "TYA", Implied, accImplied).implied = func(c *CPU) { c.A = c.Y; c.setZN(c.A) }
	def(0xBA, "TSX", Implied, accImplied).implied = func(c *CPU) { c.X = c.SP; c.setZN(c.X) }
	def(0x9A, "TXS", Implied, accImplied).implied = func(c *CPU) { c.SP = c.X }
}

func defineStack() {
	def(0x48, "PHA", Implied, accSpecial)
	def(0x08, "PHP", Implied, accSpecial)
	def(0x68, "PLA", Implied, accSpecial)
	def(0x28, "PLP", Implied, accSpecial).pollBeforeOp = true
}

func defineLogical() {
	and := func(c *CPU, v uint8) { c.A &= v; c.setZN(c.A) }
	ora := func(c *CPU, v uint8) { c.A |= v; c.setZN(c.A) }
	eor := func(c *CPU, v uint8) { c.A ^= v; c.setZN(c.A) }

	modes := []struct {
		op   uint8
		mode AddressingMode
	}{
		{0x29, Immediate}, {0x25, ZeroPage}, {0x35, ZeroPageX}, {0x2D, Absolute},
		{0x3D, AbsoluteX}, {0x39, AbsoluteY}, {0x21, IndexedIndirect}, {0x31, IndirectIndexed},
	}
	for _, e := range modes {
		def(e.op, "AND", e.mode, accRead).read = and
	}
	modes = []struct {
		op   uint8
		mode AddressingMode
	}{
		{0x09, Immediate}, {0x05, ZeroPage}, {0x15, ZeroPageX}, {0x0D, Absolute},
		{0x1D, AbsoluteX}, {0x19, AbsoluteY}, {0x01, IndexedIndirect}, {0x11, IndirectIndexed},
	}
	for _, e := range modes {
		def(e.op, "ORA", e.mode, accRead).read = ora
	}
	modes = []struct {
		op   uint8
		mode AddressingMode
	}{
		{0x49, Immediate}, {0x45, ZeroPage}, {0x55, ZeroPageX}, {0x4D, Absolute},
		{0x5D, AbsoluteX}, {0x59, AbsoluteY}, {0x41, IndexedIndirect}, {0x51, IndirectIndexed},
	}
	for _, e := range modes {
		def(e.op, "EOR", e.mode, accRead).read = eor
	}

	def(0x24, "BIT", ZeroPage, accRead).read = bitOp
	def(0x2C, "BIT", Absolute, accRead).read = bitOp
}

func defineArithmetic() {
	modes := []struct {
		op   uint8
		mode AddressingMode
	}{
		{0x69, Immediate}, {0x65, ZeroPage}, {0x75, ZeroPageX}, {0x6D, Absolute},
		{0x7D, AbsoluteX}, {0x79, AbsoluteY}, {0x61, IndexedIndirect}, {0x71, IndirectIndexed},
	}
	for _, e := range modes {
		def(e.op, "ADC", e.mode, accRead).read = adc
	}
	modes = []struct {
		op   uint8
		mode AddressingMode
	}{
		{0xE9, Immediate}, {0xE5, ZeroPage}, {0xF5, ZeroPageX}, {0xED, Absolute},
		{0xFD, AbsoluteX}, {0xF9, AbsoluteY}, {0xE1, IndexedIndirect}, {0xF1, IndirectIndexed},
		{0xEB, Immediate}, // unofficial duplicate of SBC #imm
	}
	for _, e := range modes {
		def(e.op, "SBC", e.mode, accRead).read = sbc
	}

	modes = []struct {
		op   uint8
		mode AddressingMode
	}{
		{0xC9, Immediate}, {0xC5, ZeroPage}, {0xD5, ZeroPageX}, {0xCD, Absolute},
		{0xDD, AbsoluteX}, {0xD9, AbsoluteY}, {0xC1, IndexedIndirect}, {0xD1, IndirectIndexed},
	}
	for _, e := range modes {
		def(e.op, "CMP", e.mode, accRead).read = func(c *CPU, v uint8) { compare(c, c.A, v) }
	}
	def(0xE0, "CPX", Immediate, accRead).read = func(c *CPU, v uint8) { compare(c, c.X, v) }
	def(0xE4, "CPX", ZeroPage, accRead).read = func(c *CPU, v uint8) { compare(c, c.X, v) }
	def(0xEC, "CPX", Absolute, accRead).read = func(c *CPU, v uint8) { compare(c, c.X, v) }
	def(0xC0, "CPY", Immediate, accRead).read = func(c *CPU, v uint8) { compare(c, c.Y, v) }
	def(0xC4, "CPY", ZeroPage, accRead).read = func(c *CPU, v uint8) { compare(c, c.Y, v) }
	def(0xCC, "CPY", Absolute, accRead).read = func(c *CPU, v uint8) { compare(c, c.Y, v) }
}

func defineIncDec() {
	inc := func(c *CPU, v uint8) uint8 { r := v + 1; c.setZN(r); return r }
	dec := func(c *CPU, v uint8) uint8 { r := v - 1; c.setZN(r); return r }
	for _, e := range []struct {
		op   uint8
		mode AddressingMode
	}{{0xE6, ZeroPage}, {0xF6, ZeroPageX}, {0xEE, Absolute}, {0xFE, AbsoluteX}} {
		def(e.op, "INC", e.mode, accRMW).rmw = inc
	}
	for _, e := range []struct {
		op   uint8
		mode AddressingMode
	}{{0xC6, ZeroPage}, {0xD6, ZeroPageX}, {0xCE, Absolute}, {0xDE, AbsoluteX}} {
		def(e.op, "DEC", e.mode, accRMW).rmw = dec
	}
	def(0xE8, "INX", Implied, accImplied).implied = func(c *CPU) { c.X++; c.setZN(c.X) }
	def(0xCA, "DEX", Implied, accImplied).implied = func(c *CPU) { c.X--; c.setZN(c.X) }
	def(0xC8, "INY", Implied, accImplied).implied = func(c *CPU) { c.Y++; c.setZN(c.Y) }
	def(0x88, "DEY", Implied, accImplied).implied = func(c *CPU) { c.Y--; c.setZN(c.Y) }
}

func defineShifts() {
	def(0x0A, "ASL", Accumulator, accImplied).implied = func(c *CPU) { c.A = aslVal(c, c.A) }
	def(0x4A, "LSR", Accumulator, accImplied).implied = func(c *CPU) { c.A = lsrVal(c, c.A) }
	def(0x2A, "ROL", Accumulator, accImplied).implied = func(c *CPU) { c.A = rolVal(c, c.A) }
	def(0x6A, "ROR", Accumulator, accImplied).implied = func(c *CPU) { c.A = rorVal(c, c.A) }

	for _, e := range []struct {
		op   uint8
		mode AddressingMode
	}{{0x06, ZeroPage}, {0x16, ZeroPageX}, {0x0E, Absolute}, {0x1E, AbsoluteX}} {
		def(e.op, "ASL", e.mode, accRMW).rmw = aslVal
	}
	for _, e := range []struct {
		op   uint8
		mode AddressingMode
	}{{0x46, ZeroPage}, {0x56, ZeroPageX}, {0x4E, Absolute}, {0x5E, AbsoluteX}} {
		def(e.op, "LSR", e.mode, accRMW).rmw = lsrVal
	}
	for _, e := range []struct {
		op   uint8
		mode AddressingMode
	}{{0x26, ZeroPage}, {0x36, ZeroPageX}, {0x2E, Absolute}, {0x3E, AbsoluteX}} {
		def(e.op, "ROL", e.mode, accRMW).rmw = rolVal
	}
	for _, e := range []struct {
		op   uint8
		mode AddressingMode
	}{{0x66, ZeroPage}, {0x76, ZeroPageX}, {0x6E, Absolute}, {0x7E, AbsoluteX}} {
		def(e.op, "ROR", e.mode, accRMW).rmw = rorVal
	}
}

func defineJumps() {
	def(0x4C, "JMP", Absolute, accJump)
	def(0x6C, "JMP", Indirect, accJump)
	def(0x20, "JSR", Absolute, accSpecial)
	def(0x60, "RTS", Implied, accSpecial)
	def(0x40, "RTI", Implied, accSpecial)
	def(0x00, "BRK", Implied, accSpecial)
}

func defineBranches() {
	def(0x90, "BCC", Relative, accBranch).branchCond = func(c *CPU) bool { return !c.C }
	def(0xB0, "BCS", Relative, accBranch).branchCond = func(c *CPU) bool { return c.C }
	def(0xD0, "BNE", Relative, accBranch).branchCond = func(c *CPU) bool { return !c.Z }
	def(0xF0, "BEQ", Relative, accBranch).branchCond = func(c *CPU) bool { return c.Z }
	def(0x10, "BPL", Relative, accBranch).branchCond = func(c *CPU) bool { return !c.N }
	def(0x30, "BMI", Relative, accBranch).branchCond = func(c *CPU) bool { return c.N }
	def(0x50, "BVC", Relative, accBranch).branchCond = func(c *CPU) bool { return !c.V }
	def(0x70, "BVS", Relative, accBranch).branchCond = func(c *CPU) bool { return c.V }
}

func defineFlags() {
	def(0x18, "CLC", Implied, accImplied).implied = func(c *CPU) { c.C = false }
	def(0x38, "SEC", Implied, accImplied).implied = func(c *CPU) { c.C = true }
	def(0x58, "CLI", Implied, accImplied).pollBeforeOp = true
	opcodeTable[0x58].implied = func(c *CPU) { c.I = false }
	def(0x78, "SEI", Implied, accImplied).pollBeforeOp = true
	opcodeTable[0x78].implied = func(c *CPU) { c.I = true }
	def(0xB8, "CLV", Implied, accImplied).implied = func(c *CPU) { c.V = false }
	def(0xD8, "CLD", Implied, accImplied).implied = func(c *CPU) { c.D = false }
	def(0xF8, "SED", Implied, accImplied).implied = func(c *CPU) { c.D = true }
}

func defineMisc() {
	def(0xEA, "NOP", Implied, accImplied).implied = func(c *CPU) {}

	for _, op := range []uint8{0x02, 0x12, 0x22, 0x32, 0x42, 0x52, 0x62, 0x72, 0x92, 0xB2, 0xD2, 0xF2} {
		def(op, "JAM", Implied, accSpecial).unofficialHalt = true
	}
}

// --- Unofficial (illegal) opcodes ---

func defineUnofficial() {
	lax := func(c *CPU, v uint8) { c.A = v; c.X = v; c.setZN(v) }
	for _, e := range []struct {
		op   uint8
		mode AddressingMode
	}{{0xA7, ZeroPage}, {0xB7, ZeroPageY}, {0xAF, Absolute}, {0xBF, AbsoluteY}, {0xA3, IndexedIndirect}, {0xB3, IndirectIndexed}} {
		def(e.op, "LAX", e.mode, accRead).read = lax
	}

	sax := func(c *CPU) uint8 { return c.A & c.X }
	for _, e := range []struct {
		op   uint8
		mode AddressingMode
	}{{0x87, ZeroPage}, {0x97, ZeroPageY}, {0x8F, Absolute}, {0x83, IndexedIndirect}} {
		def(e.op, "SAX", e.mode, accWrite).writeVal = sax
	}

	slo := func(c *CPU, v uint8) uint8 { r := aslVal(c, v); c.A |= r; c.setZN(c.A); return r }
	rla := func(c *CPU, v uint8) uint8 { r := rolVal(c, v); c.A &= r; c.setZN(c.A); return r }
	sre := func(c *CPU, v uint8) uint8 { r := lsrVal(c, v); c.A ^= r; c.setZN(c.A); return r }
	rra := func(c *CPU, v uint8) uint8 { r := rorVal(c, v); adc(c, r); return r }
	dcp := func(c *CPU, v uint8) uint8 { r := v - 1; compare(c, c.A, r); return r }
	isb := func(c *CPU, v uint8) uint8 { r := v + 1; sbc(c, r); return r }

	rmwGroups := []struct {
		name string
		op   func(c *CPU, v uint8) uint8
		ops  []struct {
			op   uint8
			mode AddressingMode
		}
	}{
		{"SLO", slo, []struct {
			op   uint8
			mode AddressingMode
		}{{0x07, ZeroPage}, {0x17, ZeroPageX}, {0x0F, Absolute}, {0x1F, AbsoluteX}, {0x1B, AbsoluteY}, {0x03, IndexedIndirect}, {0x13, IndirectIndexed}}},
		{"RLA", rla, []struct {
			op   uint8
			mode AddressingMode
		}{{0x27, ZeroPage}, {0x37, ZeroPageX}, {0x2F, Absolute}, {0x3F, AbsoluteX}, {0x3B, AbsoluteY}, {0x23, IndexedIndirect}, {0x33, IndirectIndexed}}},
		{"SRE", sre, []struct {
			op   uint8
			mode AddressingMode
		}{{0x47, ZeroPage}, {0x57, ZeroPageX}, {0x4F, Absolute}, {0x5F, AbsoluteX}, {0x5B, AbsoluteY}, {0x43, IndexedIndirect}, {0x53, IndirectIndexed}}},
		{"RRA", rra, []struct {
			op   uint8
			mode AddressingMode
		}{{0x67, ZeroPage}, {0x77, ZeroPageX}, {0x6F, Absolute}, {0x7F, AbsoluteX}, {0x7B, AbsoluteY}, {0x63, IndexedIndirect}, {0x73, IndirectIndexed}}},
		{"DCP", dcp, []struct {
			op   uint8
			mode AddressingMode
		}{{0xC7, ZeroPage}, {0xD7, ZeroPageX}, {0xCF, Absolute}, {0xDF, AbsoluteX}, {0xDB, AbsoluteY}, {0xC3, IndexedIndirect}, {0xD3, IndirectIndexed}}},
		{"ISB", isb, []struct {
			op   uint8
			mode AddressingMode
		}{{0xE7, ZeroPage}, {0xF7, ZeroPageX}, {0xEF, Absolute}, {0xFF, AbsoluteX}, {0xFB, AbsoluteY}, {0xE3, IndexedIndirect}, {0xF3, IndirectIndexed}}},
	}
	for _, g := range rmwGroups {
		for _, e := range g.ops {
			def(e.op, g.name, e.mode, accRMW).rmw = g.op
		}
	}

	// ANC: AND #imm, then C = N (bit 7 of the result)
	anc := func(c *CPU, v uint8) {
		c.A &= v
		c.setZN(c.A)
		c.C = c.N
	}
	def(0x0B, "ANC", Immediate, accRead).read = anc
	def(0x2B, "ANC", Immediate, accRead).read = anc

	// ALR: AND #imm, then LSR A
	def(0x4B, "ALR", Immediate, accRead).read = func(c *CPU, v uint8) {
		c.A &= v
		c.A = lsrVal(c, c.A)
	}

	// ARR: AND #imm, then ROR A, with the unusual C/V derivation.
	def(0x6B, "ARR", Immediate, accRead).read = func(c *CPU, v uint8) {
		c.A &= v
		c.A = (c.A >> 1) | (boolBit(c.C) << 7)
		c.setZN(c.A)
		c.C = c.A&0x40 != 0
		c.V = (c.A&0x40 != 0) != (c.A&0x20 != 0)
	}

	// AXS/SBX: X = (A&X) - #imm, C = no borrow.
	def(0xCB, "AXS", Immediate, accRead).read = func(c *CPU, v uint8) {
		t := c.A & c.X
		c.C = t >= v
		c.X = t - v
		c.setZN(c.X)
	}

	// Unofficial NOPs: consume operand bytes and the matching addressing
	// cycles, but otherwise do nothing.
	noRead := func(c *CPU, v uint8) {}
	for _, op := range []uint8{0x1A, 0x3A, 0x5A, 0x7A, 0xDA, 0xFA} {
		def(op, "NOP", Implied, accImplied).implied = func(c *CPU) {}
	}
	for _, op := range []uint8{0x80, 0x82, 0x89, 0xC2, 0xE2} {
		def(op, "NOP", Immediate, accRead).read = noRead
	}
	for _, op := range []uint8{0x04, 0x44, 0x64} {
		def(op, "NOP", ZeroPage, accRead).read = noRead
	}
	for _, op := range []uint8{0x14, 0x34, 0x54, 0x74, 0xD4, 0xF4} {
		def(op, "NOP", ZeroPageX, accRead).read = noRead
	}
	def(0x0C, "NOP", Absolute, accRead).read = noRead
	for _, op := range []uint8{0x1C, 0x3C, 0x5C, 0x7C, 0xDC, 0xFC} {
		def(op, "NOP", AbsoluteX, accRead).read = noRead
	}
}
