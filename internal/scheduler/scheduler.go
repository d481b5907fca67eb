// Package scheduler drives the NES's CPU/PPU/APU/DMA timing relationship.
//
// The teacher's bus ran one CPU instruction per Step call and advanced
// the PPU and APU by that instruction's total cycle count afterward, with
// OAM DMA applied as an instantaneous 256-byte copy. Once the CPU core
// became cycle-stepped (TickCycle, one bus access per call) that model no
// longer has anywhere to hook mid-instruction PPU/APU/DMA interleaving,
// so the per-cycle orchestration now lives here: one CPU cycle at a time,
// three PPU dots per CPU cycle (NTSC) or a 16/5 average ratio (PAL), one
// APU clock per CPU cycle, and a genuine cycle-stalling OAM DMA instead
// of a synchronous copy.
package scheduler

import (
	"nescore/internal/apu"
	"nescore/internal/cartridge"
	"nescore/internal/cpu"
	"nescore/internal/memory"
	"nescore/internal/ppu"
)

// Scheduler ticks the CPU, PPU, and APU in the ratio real NTSC hardware
// runs them at, and owns the cycle-accurate OAM DMA stall and the IRQ
// line merge (APU frame/DMC IRQ plus any mapper IRQ).
type Scheduler struct {
	CPU    *cpu.CPU
	PPU    *ppu.PPU
	APU    *apu.APU
	Memory *memory.Memory
	Cart   *cartridge.Cartridge // nil when the loaded cartridge has no mapper IRQ/scanline source

	// Cycles is the total number of CPU-clock cycles the scheduler has
	// advanced, including cycles spent stalled for OAM DMA (which the
	// CPU core's own Cycles counter does not see, since the CPU isn't
	// ticked at all while DMA owns the bus).
	Cycles uint64

	dmaActive     bool
	dmaWaitCycles int // cycles to burn before the first read: 1 on an even start, 2 on odd
	dmaPage       uint8
	dmaIndex      int
	dmaReadDone   bool
	dmaLatch      uint8

	region   ppu.Region
	ppuAccum int // PAL only: sub-dots owed, in fifths of a dot
}

// New wires a scheduler to its components. The PPU's NMI and scanline
// callbacks and the memory's OAM DMA callback are registered here so the
// scheduler owns every cross-component timing hook. The scheduler (and
// its PPU) default to NTSC; call SetRegion for PAL.
func New(c *cpu.CPU, p *ppu.PPU, a *apu.APU, m *memory.Memory) *Scheduler {
	s := &Scheduler{CPU: c, PPU: p, APU: a, Memory: m}
	p.SetNMICallback(c.RequestNMI)
	p.SetScanlineCallback(s.onScanline)
	m.SetDMACallback(s.beginOAMDMA)
	a.SetMemory(m)
	return s
}

// SetRegion switches the scheduler and its PPU between NTSC's exact 3
// dots-per-cycle and PAL's 16/5 ratio. The PAL ratio is driven by an
// integer accumulator (add 16 per CPU cycle, step the PPU and subtract 5
// each time the accumulator reaches 5) so the long-run average is exactly
// 3.2 dots/cycle without ever computing a fractional dot.
func (s *Scheduler) SetRegion(region ppu.Region) {
	s.region = region
	s.ppuAccum = 0
	s.PPU.SetRegion(region)
}

// Region reports the scheduler's configured region.
func (s *Scheduler) Region() ppu.Region { return s.region }

// SetCartridge registers the loaded cartridge's mapper IRQ/scanline
// source. Call again (with nil) when unloading.
func (s *Scheduler) SetCartridge(cart *cartridge.Cartridge) {
	s.Cart = cart
}

func (s *Scheduler) onScanline() {
	if s.Cart != nil {
		s.Cart.Scanline()
	}
}

func (s *Scheduler) beginOAMDMA(page uint8) {
	if s.dmaActive {
		return
	}
	s.dmaActive = true
	s.dmaPage = page
	s.dmaIndex = 0
	s.dmaReadDone = false
	// One cycle to halt the CPU, plus one more alignment cycle when DMA
	// starts on an odd CPU cycle, giving the well-known 513/514-cycle
	// stall (1 or 2 wait cycles, then 256 read/write pairs).
	s.dmaWaitCycles = 1
	if s.Cycles%2 == 1 {
		s.dmaWaitCycles = 2
	}
}

// IsDMAInProgress reports whether an OAM DMA transfer is currently
// stalling the CPU.
func (s *Scheduler) IsDMAInProgress() bool { return s.dmaActive }

// Reset clears the scheduler's own timing state (DMA in flight, elapsed
// cycle count). It does not reset the CPU/PPU/APU themselves — callers
// reset those explicitly, since a cartridge swap needs the scheduler
// rewired to new component instances anyway.
func (s *Scheduler) Reset() {
	s.Cycles = 0
	s.dmaActive = false
	s.dmaWaitCycles = 0
	s.dmaIndex = 0
	s.dmaReadDone = false
	s.ppuAccum = 0
}

// TickCPUCycle advances the whole system by exactly one CPU cycle: the
// CPU (or, if a DMA transfer is in flight, the DMA state machine) by one
// cycle, the PPU by its region's dot ratio, and the APU by one clock.
func (s *Scheduler) TickCPUCycle() {
	if s.dmaActive {
		s.stepDMA()
	} else {
		s.CPU.TickCycle()
	}

	s.stepPPUDots()
	s.APU.Step()

	s.updateIRQLine()
	s.Cycles++
}

// stepPPUDots advances the PPU by the number of dots this CPU cycle owes:
// exactly 3 on NTSC, or the PAL region's 16/5 average via an integer
// accumulator (never a fractional dot).
func (s *Scheduler) stepPPUDots() {
	if s.region == ppu.RegionPAL {
		s.ppuAccum += 16
		for s.ppuAccum >= 5 {
			s.PPU.Step()
			s.ppuAccum -= 5
		}
		return
	}
	s.PPU.Step()
	s.PPU.Step()
	s.PPU.Step()
}

// StepInstruction advances the system through exactly one CPU instruction
// (including any interrupt sequence the CPU begins in its place), plus
// any OAM DMA stall that preempts it, and returns the number of CPU
// cycles it took.
func (s *Scheduler) StepInstruction() uint64 {
	before := s.Cycles
	s.TickCPUCycle()
	for s.dmaActive || s.CPU.Busy() {
		s.TickCPUCycle()
	}
	return s.Cycles - before
}

// stepDMA advances the OAM DMA transfer by one CPU cycle: the halt/
// alignment wait cycles first, then alternating read/write cycles for
// each of the 256 bytes, matching real hardware's halt-read-write cadence
// rather than copying all 256 bytes in one call.
func (s *Scheduler) stepDMA() {
	if s.dmaWaitCycles > 0 {
		s.dmaWaitCycles--
		return
	}
	if !s.dmaReadDone {
		addr := uint16(s.dmaPage)<<8 | uint16(s.dmaIndex)
		s.dmaLatch = s.Memory.Read(addr)
		s.dmaReadDone = true
		return
	}
	s.PPU.WriteOAM(uint8(s.dmaIndex), s.dmaLatch)
	s.dmaReadDone = false
	s.dmaIndex++
	if s.dmaIndex >= 256 {
		s.dmaActive = false
	}
}

func (s *Scheduler) updateIRQLine() {
	irq := s.APU.GetFrameIRQ() || s.APU.GetDMCIRQ()
	if s.Cart != nil && s.Cart.IRQPending() {
		irq = true
	}
	s.CPU.SetIRQ(irq)
}

// RunFrame advances the system until the PPU completes exactly one more
// frame.
func (s *Scheduler) RunFrame() {
	target := s.PPU.GetFrameCount() + 1
	for s.PPU.GetFrameCount() < target {
		s.TickCPUCycle()
	}
}

// RunCPUCycles advances the system by exactly n CPU cycles.
func (s *Scheduler) RunCPUCycles(n uint64) {
	for i := uint64(0); i < n; i++ {
		s.TickCPUCycle()
	}
}
