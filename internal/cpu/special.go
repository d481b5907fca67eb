package cpu

// This file covers every accSpecial opcode plus the hardware NMI/IRQ
// sequences: BRK, JSR, RTS, RTI, PHA, PHP, PLA, PLP, and the 7-cycle
// push/vector sequence shared by BRK and the two hardware interrupts.

// beginInterruptSequence starts a hardware-triggered (non-BRK) interrupt.
// The first of its 7 cycles is the dummy read performed here; the
// remaining 6 are queued as steps.
func (c *CPU) beginInterruptSequence(kind intSeqKind) {
	c.inInterruptSequence = true
	c.seqKind = kind
	c.seqPushB = false
	if kind == seqNMI {
		c.seqVector = nmiVector
	} else {
		c.seqVector = irqVector
	}

	c.bus.Read(c.PC) // cycle 1: dummy opcode-fetch read, PC unchanged
	c.steps = append([]step{
		func(c *CPU) { c.bus.Read(c.PC) }, // cycle 2: second dummy read
	}, c.interruptTailSteps()...)
}

// beginBRK starts the software BRK sequence. The opcode fetch already
// consumed cycle 1; the padding-byte read is cycle 2.
func (c *CPU) beginBRK() {
	c.inInterruptSequence = true
	c.seqKind = seqBRK
	c.seqVector = irqVector
	c.seqPushB = true

	c.steps = append([]step{
		func(c *CPU) { c.bus.Read(c.PC); c.PC++ }, // cycle 2: padding byte
	}, c.interruptTailSteps()...)
}

// interruptTailSteps builds cycles 3-7 common to BRK/NMI/IRQ: push PCH,
// push PCL, push P, read vector low, read vector high. NMI can hijack an
// in-progress IRQ/BRK sequence during the push-PCL/push-P window (cycles
// 4-5): if the NMI edge latches during those cycles, the vector read at
// the end targets the NMI vector instead of the original one. The B flag
// baked into the pushed P byte is fixed at sequence start and is not
// affected by a later hijack.
func (c *CPU) interruptTailSteps() []step {
	return []step{
		func(c *CPU) { c.push(uint8(c.PC >> 8)) },
		func(c *CPU) {
			c.push(uint8(c.PC))
			c.checkHijack()
		},
		func(c *CPU) {
			c.push(c.StatusByte(c.seqPushB))
			c.I = true
			c.checkHijack()
		},
		func(c *CPU) { c.addr = uint16(c.bus.Read(c.seqVector)) },
		func(c *CPU) {
			c.addr |= uint16(c.bus.Read(c.seqVector+1)) << 8
			c.PC = c.addr
			c.inInterruptSequence = false
		},
	}
}

// checkHijack redirects the in-flight sequence's vector to NMI if an NMI
// edge has latched while a non-NMI sequence is mid-flight.
func (c *CPU) checkHijack() {
	if c.seqKind != seqNMI && c.nmiPending {
		c.seqVector = nmiVector
		c.seqKind = seqNMI
		c.nmiPending = false
	}
}

// --- Stack instructions: PHA, PHP, PLA, PLP ---

func (c *CPU) buildStack(info *opcodeInfo) []step {
	switch info.name {
	case "PHA":
		return []step{
			func(c *CPU) { c.bus.Read(c.PC) }, // dummy read
			c.finalStep(func(c *CPU) { c.push(c.A) }),
		}
	case "PHP":
		return []step{
			func(c *CPU) { c.bus.Read(c.PC) },
			c.finalStep(func(c *CPU) { c.push(c.StatusByte(true)) }),
		}
	case "PLA":
		return []step{
			func(c *CPU) { c.bus.Read(c.PC) },
			func(c *CPU) { c.bus.Read(stackBase + uint16(c.SP)); c.SP++ }, // pre-increment cycle: dummy stack read
			c.finalStep(func(c *CPU) {
				c.A = c.bus.Read(stackBase + uint16(c.SP))
				c.setZN(c.A)
			}),
		}
	case "PLP":
		return []step{
			func(c *CPU) { c.bus.Read(c.PC) },
			func(c *CPU) { c.bus.Read(stackBase + uint16(c.SP)); c.SP++ },
			c.finalStep(func(c *CPU) {
				c.LoadStatusByte(c.bus.Read(stackBase + uint16(c.SP)))
			}),
		}
	}
	panic("cpu: buildStack called with unknown opcode " + info.name)
}

// --- JSR / RTS / RTI ---

func (c *CPU) buildJSR() []step {
	return []step{
		func(c *CPU) { c.addr = uint16(c.bus.Read(c.PC)); c.PC++ },
		func(c *CPU) { c.bus.Read(stackBase + uint16(c.SP)) }, // internal delay
		func(c *CPU) { c.push(uint8(c.PC >> 8)) },
		func(c *CPU) { c.push(uint8(c.PC)) },
		c.finalStep(func(c *CPU) {
			c.addr |= uint16(c.bus.Read(c.PC)) << 8
			c.PC = c.addr
		}),
	}
}

func (c *CPU) buildRTS() []step {
	return []step{
		func(c *CPU) { c.bus.Read(c.PC) },
		func(c *CPU) { c.bus.Read(stackBase + uint16(c.SP)); c.SP++ },
		func(c *CPU) { c.addr = uint16(c.bus.Read(stackBase + uint16(c.SP))) },
		func(c *CPU) {
			c.SP++
			c.addr |= uint16(c.bus.Read(stackBase+uint16(c.SP))) << 8
		},
		c.finalStep(func(c *CPU) {
			c.bus.Read(c.PC)
			c.PC = c.addr + 1
		}),
	}
}

func (c *CPU) buildRTI() []step {
	return []step{
		func(c *CPU) { c.bus.Read(c.PC) },
		func(c *CPU) { c.bus.Read(stackBase + uint16(c.SP)) },
		func(c *CPU) {
			c.SP++
			c.LoadStatusByte(c.bus.Read(stackBase + uint16(c.SP)))
		},
		func(c *CPU) {
			c.SP++
			c.addr = uint16(c.bus.Read(stackBase + uint16(c.SP)))
		},
		c.finalStep(func(c *CPU) {
			c.SP++
			c.addr |= uint16(c.bus.Read(stackBase+uint16(c.SP))) << 8
			c.PC = c.addr
		}),
	}
}
