package cpu

// buildSteps returns the micro-op queue for the cycle(s) remaining after
// the opcode fetch, for every opcode whose accessKind is not accSpecial
// (those are built individually in special.go).
func (c *CPU) buildSteps(info *opcodeInfo) []step {
	switch info.kind {
	case accImplied:
		return []step{c.finalStep(func(c *CPU) {
			c.bus.Read(c.PC) // dummy read of the next byte, PC not advanced
			info.implied(c)
		})}
	case accBranch:
		return c.buildBranch(info)
	case accJump:
		return c.buildJump(info)
	case accRead:
		return c.buildReadSteps(info)
	case accWrite:
		return c.buildWriteSteps(info)
	case accRMW:
		return c.buildRMWSteps(info)
	}
	panic("cpu: buildSteps called with accSpecial opcode")
}

// --- Read-kind: LDA/LDX/LDY/AND/ORA/EOR/ADC/SBC/CMP/CPX/CPY/BIT/LAX/NOP(read) ---

func (c *CPU) buildReadSteps(info *opcodeInfo) []step {
	switch info.mode {
	case Immediate:
		return []step{c.finalStep(func(c *CPU) {
			c.operand = c.bus.Read(c.PC)
			c.PC++
			info.read(c, c.operand)
		})}
	case ZeroPage:
		return []step{
			func(c *CPU) { c.addr = uint16(c.bus.Read(c.PC)); c.PC++ },
			c.finalStep(func(c *CPU) { info.read(c, c.bus.Read(c.addr)) }),
		}
	case ZeroPageX:
		return c.zeroPageIndexedRead(info, &c.X)
	case ZeroPageY:
		return c.zeroPageIndexedRead(info, &c.Y)
	case Absolute:
		return []step{
			func(c *CPU) { c.addr = uint16(c.bus.Read(c.PC)); c.PC++ },
			func(c *CPU) { c.addr |= uint16(c.bus.Read(c.PC)) << 8; c.PC++ },
			c.finalStep(func(c *CPU) { info.read(c, c.bus.Read(c.addr)) }),
		}
	case AbsoluteX:
		return c.absoluteIndexedRead(info, &c.X)
	case AbsoluteY:
		return c.absoluteIndexedRead(info, &c.Y)
	case IndexedIndirect:
		return []step{
			func(c *CPU) { c.ptr = c.bus.Read(c.PC); c.PC++ },
			func(c *CPU) { c.bus.Read(uint16(c.ptr)) }, // dummy read, then index
			func(c *CPU) {
				c.addr = uint16(c.bus.Read(uint16(c.ptr + c.X)))
			},
			func(c *CPU) {
				c.addr |= uint16(c.bus.Read(uint16(c.ptr+c.X+1))) << 8
			},
			c.finalStep(func(c *CPU) { info.read(c, c.bus.Read(c.addr)) }),
		}
	case IndirectIndexed:
		return []step{
			func(c *CPU) { c.ptr = c.bus.Read(c.PC); c.PC++ },
			func(c *CPU) { c.base = uint16(c.bus.Read(uint16(c.ptr))) },
			func(c *CPU) {
				c.base |= uint16(c.bus.Read(uint16(c.ptr+1))) << 8
				target := c.base + uint16(c.Y)
				c.pageCrossed = (target & pageMask) != (c.base & pageMask)
				c.addr = target
			},
			c.conditionalFinal(func() bool { return !c.pageCrossed }, func(c *CPU) {
				if !c.pageCrossed {
					info.read(c, c.bus.Read(c.addr))
					return
				}
				wrong := (c.base & pageMask) | (c.addr & 0x00FF)
				c.bus.Read(wrong)
			}, func(c *CPU) { info.read(c, c.bus.Read(c.addr)) }),
		}
	}
	return nil
}

// zeroPageIndexedRead builds the 4-cycle zero-page,index read sequence
// shared by LDA zp,X / LDY zp,X / etc.
func (c *CPU) zeroPageIndexedRead(info *opcodeInfo, index *uint8) []step {
	return []step{
		func(c *CPU) { c.base = uint16(c.bus.Read(c.PC)); c.PC++ },
		func(c *CPU) {
			c.bus.Read(c.base) // dummy read at unindexed address
			c.addr = uint16(uint8(c.base) + *index)
		},
		c.finalStep(func(c *CPU) { info.read(c, c.bus.Read(c.addr)) }),
	}
}

// absoluteIndexedRead builds the 4-or-5-cycle absolute,index read
// sequence: 4 cycles when the index does not cross a page, 5 when it
// does (the extra cycle re-reads at the corrected address).
func (c *CPU) absoluteIndexedRead(info *opcodeInfo, index *uint8) []step {
	return []step{
		func(c *CPU) { c.base = uint16(c.bus.Read(c.PC)); c.PC++ },
		func(c *CPU) {
			c.base |= uint16(c.bus.Read(c.PC)) << 8
			c.PC++
			target := c.base + uint16(*index)
			c.pageCrossed = (target & pageMask) != (c.base & pageMask)
			c.addr = target
		},
		c.conditionalFinal(func() bool { return !c.pageCrossed }, func(c *CPU) {
			if !c.pageCrossed {
				info.read(c, c.bus.Read(c.addr))
				return
			}
			wrong := (c.base & pageMask) | (c.addr & 0x00FF)
			c.bus.Read(wrong)
		}, func(c *CPU) { info.read(c, c.bus.Read(c.addr)) }),
	}
}

// conditionalFinal builds a variable-length tail: if cond() is true when
// the first step runs, that step IS the final (polled) step; otherwise an
// extra step follows and that one is final. cond is evaluated once the
// preceding steps have populated pageCrossed, so it is passed as a
// closure rather than a plain bool.
//
// This helper exists because Go can't splice a conditionally-sized slice
// into a step list inline; buildSteps callers use it to keep the
// addressing-mode builders linear instead of duplicating four near
// identical 4/5-cycle variants.
func (c *CPU) conditionalFinal(cond func() bool, first step, second step) step {
	return func(c *CPU) {
		if cond() {
			c.finalStep(first)(c)
			return
		}
		first(c)
		c.steps = append(c.steps, c.finalStep(second))
	}
}

// --- Write-kind: STA/STX/STY/SAX ---

func (c *CPU) buildWriteSteps(info *opcodeInfo) []step {
	switch info.mode {
	case ZeroPage:
		return []step{
			func(c *CPU) { c.addr = uint16(c.bus.Read(c.PC)); c.PC++ },
			c.finalStep(func(c *CPU) { c.bus.Write(c.addr, info.writeVal(c)) }),
		}
	case ZeroPageX:
		return []step{
			func(c *CPU) { c.base = uint16(c.bus.Read(c.PC)); c.PC++ },
			func(c *CPU) { c.bus.Read(c.base); c.addr = uint16(uint8(c.base) + c.X) },
			c.finalStep(func(c *CPU) { c.bus.Write(c.addr, info.writeVal(c)) }),
		}
	case ZeroPageY:
		return []step{
			func(c *CPU) { c.base = uint16(c.bus.Read(c.PC)); c.PC++ },
			func(c *CPU) { c.bus.Read(c.base); c.addr = uint16(uint8(c.base) + c.Y) },
			c.finalStep(func(c *CPU) { c.bus.Write(c.addr, info.writeVal(c)) }),
		}
	case Absolute:
		return []step{
			func(c *CPU) { c.addr = uint16(c.bus.Read(c.PC)); c.PC++ },
			func(c *CPU) { c.addr |= uint16(c.bus.Read(c.PC)) << 8; c.PC++ },
			c.finalStep(func(c *CPU) { c.bus.Write(c.addr, info.writeVal(c)) }),
		}
	case AbsoluteX:
		return c.absoluteIndexedWrite(info, &c.X)
	case AbsoluteY:
		return c.absoluteIndexedWrite(info, &c.Y)
	case IndexedIndirect:
		return []step{
			func(c *CPU) { c.ptr = c.bus.Read(c.PC); c.PC++ },
			func(c *CPU) { c.bus.Read(uint16(c.ptr)) },
			func(c *CPU) { c.addr = uint16(c.bus.Read(uint16(c.ptr + c.X))) },
			func(c *CPU) { c.addr |= uint16(c.bus.Read(uint16(c.ptr+c.X+1))) << 8 },
			c.finalStep(func(c *CPU) { c.bus.Write(c.addr, info.writeVal(c)) }),
		}
	case IndirectIndexed:
		return []step{
			func(c *CPU) { c.ptr = c.bus.Read(c.PC); c.PC++ },
			func(c *CPU) { c.base = uint16(c.bus.Read(uint16(c.ptr))) },
			func(c *CPU) {
				c.base |= uint16(c.bus.Read(uint16(c.ptr+1))) << 8
				c.addr = c.base + uint16(c.Y)
			},
			func(c *CPU) {
				wrong := (c.base & pageMask) | (c.addr & 0x00FF)
				c.bus.Read(wrong) // always dummy-read the uncorrected address
			},
			c.finalStep(func(c *CPU) { c.bus.Write(c.addr, info.writeVal(c)) }),
		}
	}
	return nil
}

func (c *CPU) absoluteIndexedWrite(info *opcodeInfo, index *uint8) []step {
	return []step{
		func(c *CPU) { c.base = uint16(c.bus.Read(c.PC)); c.PC++ },
		func(c *CPU) {
			c.base |= uint16(c.bus.Read(c.PC)) << 8
			c.PC++
			c.addr = c.base + uint16(*index)
		},
		func(c *CPU) {
			wrong := (c.base & pageMask) | (c.addr & 0x00FF)
			c.bus.Read(wrong) // always dummy-read, even without a page cross
		},
		c.finalStep(func(c *CPU) { c.bus.Write(c.addr, info.writeVal(c)) }),
	}
}

// --- Read-modify-write: ASL/LSR/ROL/ROR/INC/DEC/SLO/RLA/SRE/RRA/DCP/ISB ---

func (c *CPU) buildRMWSteps(info *opcodeInfo) []step {
	switch info.mode {
	case ZeroPage:
		return []step{
			func(c *CPU) { c.addr = uint16(c.bus.Read(c.PC)); c.PC++ },
			func(c *CPU) { c.operand = c.bus.Read(c.addr) },
			func(c *CPU) { c.bus.Write(c.addr, c.operand) },
			c.finalStep(func(c *CPU) { c.bus.Write(c.addr, info.rmw(c, c.operand)) }),
		}
	case ZeroPageX:
		return []step{
			func(c *CPU) { c.base = uint16(c.bus.Read(c.PC)); c.PC++ },
			func(c *CPU) { c.bus.Read(c.base); c.addr = uint16(uint8(c.base) + c.X) },
			func(c *CPU) { c.operand = c.bus.Read(c.addr) },
			func(c *CPU) { c.bus.Write(c.addr, c.operand) },
			c.finalStep(func(c *CPU) { c.bus.Write(c.addr, info.rmw(c, c.operand)) }),
		}
	case Absolute:
		return []step{
			func(c *CPU) { c.addr = uint16(c.bus.Read(c.PC)); c.PC++ },
			func(c *CPU) { c.addr |= uint16(c.bus.Read(c.PC)) << 8; c.PC++ },
			func(c *CPU) { c.operand = c.bus.Read(c.addr) },
			func(c *CPU) { c.bus.Write(c.addr, c.operand) },
			c.finalStep(func(c *CPU) { c.bus.Write(c.addr, info.rmw(c, c.operand)) }),
		}
	case AbsoluteX:
		return c.absoluteIndexedRMW(info, &c.X)
	case AbsoluteY:
		return c.absoluteIndexedRMW(info, &c.Y)
	case IndexedIndirect:
		return []step{
			func(c *CPU) { c.ptr = c.bus.Read(c.PC); c.PC++ },
			func(c *CPU) { c.bus.Read(uint16(c.ptr)) },
			func(c *CPU) { c.addr = uint16(c.bus.Read(uint16(c.ptr + c.X))) },
			func(c *CPU) { c.addr |= uint16(c.bus.Read(uint16(c.ptr+c.X+1))) << 8 },
			func(c *CPU) { c.operand = c.bus.Read(c.addr) },
			func(c *CPU) { c.bus.Write(c.addr, c.operand) },
			c.finalStep(func(c *CPU) { c.bus.Write(c.addr, info.rmw(c, c.operand)) }),
		}
	case IndirectIndexed:
		return []step{
			func(c *CPU) { c.ptr = c.bus.Read(c.PC); c.PC++ },
			func(c *CPU) { c.base = uint16(c.bus.Read(uint16(c.ptr))) },
			func(c *CPU) {
				c.base |= uint16(c.bus.Read(uint16(c.ptr+1))) << 8
				c.addr = c.base + uint16(c.Y)
			},
			func(c *CPU) {
				wrong := (c.base & pageMask) | (c.addr & 0x00FF)
				c.bus.Read(wrong)
			},
			func(c *CPU) { c.operand = c.bus.Read(c.addr) },
			func(c *CPU) { c.bus.Write(c.addr, c.operand) },
			c.finalStep(func(c *CPU) { c.bus.Write(c.addr, info.rmw(c, c.operand)) }),
		}
	}
	return nil
}

func (c *CPU) absoluteIndexedRMW(info *opcodeInfo, index *uint8) []step {
	return []step{
		func(c *CPU) { c.base = uint16(c.bus.Read(c.PC)); c.PC++ },
		func(c *CPU) {
			c.base |= uint16(c.bus.Read(c.PC)) << 8
			c.PC++
			c.addr = c.base + uint16(*index)
		},
		func(c *CPU) {
			wrong := (c.base & pageMask) | (c.addr & 0x00FF)
			c.bus.Read(wrong) // always paid, regardless of crossing
		},
		func(c *CPU) { c.operand = c.bus.Read(c.addr) },
		func(c *CPU) { c.bus.Write(c.addr, c.operand) },
		c.finalStep(func(c *CPU) { c.bus.Write(c.addr, info.rmw(c, c.operand)) }),
	}
}

// --- Branch ---

func (c *CPU) buildBranch(info *opcodeInfo) []step {
	return []step{
		func(c *CPU) {
			c.branchOffset = int8(c.bus.Read(c.PC))
			c.PC++
			if !info.branchCond(c) {
				c.pollInterrupts()
				c.steps = nil
				return
			}
			c.steps = append(c.steps, c.branchTakeStep())
		},
	}
}

func (c *CPU) branchTakeStep() step {
	return func(c *CPU) {
		c.bus.Read(c.PC) // dummy read at the not-yet-branched PC
		target := uint16(int32(c.PC) + int32(c.branchOffset))
		c.branchTarget = target
		if (target & pageMask) == (c.PC & pageMask) {
			c.PC = target
			c.pollInterrupts()
			return
		}
		c.PC = (c.PC & pageMask) | (target & 0x00FF)
		c.steps = append(c.steps, c.finalStep(func(c *CPU) {
			c.bus.Read(c.PC) // dummy read with the stale high byte
			c.PC = c.branchTarget
		}))
	}
}

// --- Jump: JMP absolute / JMP (indirect) ---

func (c *CPU) buildJump(info *opcodeInfo) []step {
	if info.mode == Indirect {
		return []step{
			func(c *CPU) { c.ptr = c.bus.Read(c.PC); c.PC++ },
			func(c *CPU) { c.base = uint16(c.ptr) | uint16(c.bus.Read(c.PC))<<8; c.PC++ },
			func(c *CPU) { c.addr = uint16(c.bus.Read(c.base)) },
			c.finalStep(func(c *CPU) {
				// hardware bug: the high-byte fetch wraps within the page
				// instead of crossing it when the pointer's low byte is $FF.
				hiAddr := (c.base & pageMask) | ((c.base + 1) & 0x00FF)
				c.addr |= uint16(c.bus.Read(hiAddr)) << 8
				c.PC = c.addr
			}),
		}
	}
	return []step{
		func(c *CPU) { c.addr = uint16(c.bus.Read(c.PC)); c.PC++ },
		c.finalStep(func(c *CPU) {
			c.addr |= uint16(c.bus.Read(c.PC)) << 8
			c.PC = c.addr
		}),
	}
}
