// Package bus implements the system bus for communication between NES components.
package bus

import (
	"nescore/internal/apu"
	"nescore/internal/cartridge"
	"nescore/internal/cpu"
	"nescore/internal/input"
	"nescore/internal/memory"
	"nescore/internal/ppu"
	"nescore/internal/scheduler"
)

// Bus connects all NES components together and drives them through a
// Scheduler, which owns the CPU/PPU/APU cycle ratio, OAM DMA stall, and
// IRQ line merge.
type Bus struct {
	CPU       *cpu.CPU
	PPU       *ppu.PPU
	APU       *apu.APU
	Memory    *memory.Memory
	Input     *input.InputState
	Scheduler *scheduler.Scheduler

	cart *cartridge.Cartridge // nil until a real (non-mock) cartridge is loaded

	region ppu.Region // applied to the PPU/Scheduler on New and every LoadCartridge rewiring

	// Memory monitoring for debugging
	memoryWatchpoints map[uint16]uint8
	watchpointLogging bool
}

// New creates a new system bus with all components, unwired to any
// cartridge until LoadCartridge is called.
func New() *Bus {
	b := &Bus{
		PPU:   ppu.New(),
		APU:   apu.New(),
		Input: input.NewInputState(),

		memoryWatchpoints: make(map[uint16]uint8),
	}

	b.Memory = memory.New(b.PPU, b.APU, nil)
	b.Memory.SetInputSystem(b.Input)
	b.CPU = cpu.New(b.Memory)
	b.Scheduler = scheduler.New(b.CPU, b.PPU, b.APU, b.Memory)

	b.Reset()
	return b
}

// SetRegion switches the bus's PPU and scheduler between NTSC and PAL
// timing. Persists across LoadCartridge, which otherwise rebuilds the
// scheduler from scratch.
func (b *Bus) SetRegion(r ppu.Region) {
	b.region = r
	b.Scheduler.SetRegion(r)
}

// Reset resets all components to their initial state.
func (b *Bus) Reset() {
	b.CPU.Reset()
	b.PPU.Reset()
	b.APU.Reset()
	b.Input.Reset()
	b.Scheduler.Reset()

	b.memoryWatchpoints = make(map[uint16]uint8)
	b.watchpointLogging = false
}

// Step executes one CPU instruction (plus any OAM DMA stall preempting
// it) and advances the PPU/APU in lockstep through the scheduler.
func (b *Bus) Step() {
	b.Scheduler.StepInstruction()

	if b.watchpointLogging {
		b.CheckMemoryWatchpoints()
	}
}

// LoadCartridge loads a cartridge into the system, rebuilding the memory
// maps and rewiring the scheduler's mapper-IRQ/scanline source.
func (b *Bus) LoadCartridge(cart memory.CartridgeInterface) {
	b.Memory = memory.New(b.PPU, b.APU, cart)
	b.Memory.SetInputSystem(b.Input)
	b.CPU = cpu.New(b.Memory)
	b.Scheduler = scheduler.New(b.CPU, b.PPU, b.APU, b.Memory)
	b.Scheduler.SetRegion(b.region)

	mirrorMode := memory.MirrorHorizontal
	if realCart, ok := cart.(*cartridge.Cartridge); ok {
		b.cart = realCart
		b.Scheduler.SetCartridge(realCart)
		switch realCart.GetMirrorMode() {
		case cartridge.MirrorHorizontal:
			mirrorMode = memory.MirrorHorizontal
		case cartridge.MirrorVertical:
			mirrorMode = memory.MirrorVertical
		case cartridge.MirrorSingleScreen0:
			mirrorMode = memory.MirrorSingleScreen0
		case cartridge.MirrorSingleScreen1:
			mirrorMode = memory.MirrorSingleScreen1
		case cartridge.MirrorFourScreen:
			mirrorMode = memory.MirrorFourScreen
		}
	} else {
		b.cart = nil
		b.Scheduler.SetCartridge(nil)
	}

	ppuMemory := memory.NewPPUMemory(cart, mirrorMode)
	b.PPU.SetMemory(ppuMemory)

	b.CPU.Reset()
}

// Run runs the emulator for a specified number of frames.
func (b *Bus) Run(frames int) {
	for i := 0; i < frames; i++ {
		b.Scheduler.RunFrame()
	}
}

// RunCycles runs the emulator for a specified number of CPU cycles.
func (b *Bus) RunCycles(cycles uint64) {
	b.Scheduler.RunCPUCycles(cycles)
}

// Frame executes one complete frame.
func (b *Bus) Frame() {
	b.Scheduler.RunFrame()
}

// GetFrameRate returns the configured region's real PPU frame rate.
func (b *Bus) GetFrameRate() float64 {
	if b.region == ppu.RegionPAL {
		return 50.007
	}
	return 60.098803
}

// GetFrameBuffer returns the current PPU frame buffer.
func (b *Bus) GetFrameBuffer() []uint32 {
	frameBuffer := b.PPU.GetFrameBuffer()
	return frameBuffer[:]
}

// GetAudioSamples returns the current audio samples from the APU.
func (b *Bus) GetAudioSamples() []float32 {
	return b.APU.GetSamples()
}

// SetAudioSampleRate sets the target audio sample rate for the APU.
func (b *Bus) SetAudioSampleRate(rate int) {
	b.APU.SetSampleRate(rate)
}

// GetCycleCount returns the current CPU cycle count.
func (b *Bus) GetCycleCount() uint64 {
	return b.Scheduler.Cycles
}

// GetFrameCount returns the current frame count.
func (b *Bus) GetFrameCount() uint64 {
	return b.PPU.GetFrameCount()
}

// CartridgeInfo returns the loaded cartridge's mapper number and
// mirroring mode. ok is false when no real cartridge (only a mock, or
// nothing) is loaded.
func (b *Bus) CartridgeInfo() (mapperID uint8, mirror cartridge.MirrorMode, ok bool) {
	if b.cart == nil {
		return 0, 0, false
	}
	return b.cart.MapperID(), b.cart.GetMirrorMode(), true
}

// IsDMAInProgress returns whether OAM DMA is currently stalling the CPU.
func (b *Bus) IsDMAInProgress() bool {
	return b.Scheduler.IsDMAInProgress()
}

// isRenderingEnabled checks if PPU rendering is enabled.
func (b *Bus) isRenderingEnabled() bool {
	return b.PPU.IsRenderingEnabled()
}

// SetControllerButton sets the state of a controller button.
func (b *Bus) SetControllerButton(controller int, button input.Button, pressed bool) {
	switch controller {
	case 0, 1:
		b.Input.Controller1.SetButton(button, pressed)
	case 2:
		b.Input.Controller2.SetButton(button, pressed)
	}
}

// SetControllerButtons sets all button states for a controller at once.
func (b *Bus) SetControllerButtons(controller int, buttons [8]bool) {
	switch controller {
	case 0, 1:
		b.Input.SetButtons1(buttons)
	case 2:
		b.Input.SetButtons2(buttons)
	}
}

// EnableInputDebug enables debug logging for the input system.
func (b *Bus) EnableInputDebug(enable bool) {
	b.Input.EnableDebug(enable)
}

// GetInputState returns the input state for direct access.
func (b *Bus) GetInputState() *input.InputState {
	return b.Input
}

// GetCPUState returns the current CPU state for testing.
func (b *Bus) GetCPUState() CPUState {
	return CPUState{
		PC:     b.CPU.PC,
		A:      b.CPU.A,
		X:      b.CPU.X,
		Y:      b.CPU.Y,
		SP:     b.CPU.SP,
		Cycles: b.Scheduler.Cycles,
		Flags: CPUFlags{
			N: b.CPU.N,
			V: b.CPU.V,
			D: b.CPU.D,
			I: b.CPU.I,
			Z: b.CPU.Z,
			C: b.CPU.C,
		},
	}
}

// CPUState represents a CPU state snapshot for testing.
type CPUState struct {
	PC      uint16
	A, X, Y uint8
	SP      uint8
	Cycles  uint64
	Flags   CPUFlags
}

// CPUFlags represents CPU status flags for testing.
type CPUFlags struct {
	N, V, D, I, Z, C bool
}

// GetPPUState returns the current PPU state for testing.
func (b *Bus) GetPPUState() PPUState {
	return PPUState{
		Scanline:    b.PPU.GetScanline(),
		Cycle:       b.PPU.GetCycle(),
		FrameCount:  b.PPU.GetFrameCount(),
		VBlankFlag:  b.PPU.IsVBlank(),
		RenderingOn: b.PPU.IsRenderingEnabled(),
	}
}

// PPUState represents a PPU state snapshot for testing.
type PPUState struct {
	Scanline    int
	Cycle       int
	FrameCount  uint64
	VBlankFlag  bool
	RenderingOn bool
}

// AddMemoryWatchpoint adds a memory address to monitor for changes.
func (b *Bus) AddMemoryWatchpoint(address uint16) {
	if b.Memory != nil {
		b.memoryWatchpoints[address] = b.Memory.Read(address)
	}
}

// EnableWatchpointLogging enables/disables memory watchpoint logging.
func (b *Bus) EnableWatchpointLogging(enabled bool) {
	b.watchpointLogging = enabled
}

// CheckMemoryWatchpoints checks all watchpoints for changes.
func (b *Bus) CheckMemoryWatchpoints() []WatchpointChange {
	if b.Memory == nil {
		return nil
	}
	var changes []WatchpointChange
	for address, previousValue := range b.memoryWatchpoints {
		currentValue := b.Memory.Read(address)
		if currentValue != previousValue {
			changes = append(changes, WatchpointChange{Address: address, Previous: previousValue, Current: currentValue})
			b.memoryWatchpoints[address] = currentValue
		}
	}
	return changes
}

// WatchpointChange records one memory watchpoint's observed change.
type WatchpointChange struct {
	Address  uint16
	Previous uint8
	Current  uint8
}

// EnableCPUDebug is retained for API compatibility with older callers;
// the cycle-accurate CPU core has no built-in debug logging or loop
// detector to toggle.
func (b *Bus) EnableCPUDebug(enable bool) {}
