package bus

// Test helper methods for bus testing

// SetFrameBufferForTesting sets a frame buffer for testing purposes
func (b *Bus) SetFrameBufferForTesting(frameBuffer [256 * 240]uint32) {
	if b.PPU != nil {
		b.PPU.SetFrameBufferForTesting(frameBuffer)
	}
}

// StepWithError executes one CPU instruction (through the scheduler) and
// returns any error, for call sites written against an error-returning step.
func (b *Bus) StepWithError() error {
	b.Scheduler.StepInstruction()
	return nil
}
