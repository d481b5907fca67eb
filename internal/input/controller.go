// Package input implements the NES's two standard controller ports
// ($4016/$4017), including the serial shift-register read protocol real
// games drive directly.
package input

import "log"

// Button identifies one of the eight standard controller buttons, in the
// order the shift register reports them.
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// Short aliases for the call sites (input mapping tables, UI code) that
// spell out full button lists often enough that the longer names get
// noisy.
const (
	A      = ButtonA
	B      = ButtonB
	Select = ButtonSelect
	Start  = ButtonStart
	Up     = ButtonUp
	Down   = ButtonDown
	Left   = ButtonLeft
	Right  = ButtonRight
)

// Controller holds one standard NES controller's button state and its
// $4016/$4017 shift register.
//
// Real hardware loads the register from the button latch while strobe
// ($4016 bit 0) is high, and shifts one bit out per read once strobe goes
// low; reads past the eighth bit return 1 on real consoles (pulled high
// by the absence of a further shift stage). This model returns 0 in bit 0
// past bit 8 instead, matching the common software-controller convention used by
// games that only ever read 8 bits and several widely used emulators;
// only a real four-player adapter or similar expansion device would
// observe the difference.
type Controller struct {
	buttons uint8

	shiftRegister uint8
	strobe        bool
	bitPosition   uint8

	readCount    uint64
	writeCount   uint64
	debugEnabled bool
}

// New creates a controller with no buttons held.
func New() *Controller {
	return &Controller{}
}

// SetButton sets or clears a single button's held state.
func (c *Controller) SetButton(button Button, pressed bool) {
	before := c.buttons
	if pressed {
		c.buttons |= uint8(button)
	} else {
		c.buttons &^= uint8(button)
	}
	if c.debugEnabled {
		log.Printf("input: button=%d pressed=%t buttons %#02x -> %#02x", uint8(button), pressed, before, c.buttons)
	}
}

// SetButtons sets every button's held state at once, in NES shift-register
// order: A, B, Select, Start, Up, Down, Left, Right.
func (c *Controller) SetButtons(buttons [8]bool) {
	var bits uint8
	order := [8]Button{ButtonA, ButtonB, ButtonSelect, ButtonStart, ButtonUp, ButtonDown, ButtonLeft, ButtonRight}
	for i, held := range buttons {
		if held {
			bits |= uint8(order[i])
		}
	}
	before := c.buttons
	c.buttons = bits
	if c.debugEnabled {
		log.Printf("input: buttons %#02x -> %#02x", before, c.buttons)
	}
}

// IsPressed reports whether button is currently held.
func (c *Controller) IsPressed(button Button) bool {
	return c.buttons&uint8(button) != 0
}

// Write handles a write to the controller's strobe line. While strobe is
// high the shift register continuously reloads from the live button
// state; the falling edge latches whatever the buttons read at that
// instant for the read sequence that follows.
func (c *Controller) Write(value uint8) {
	c.writeCount++
	wasStrobe := c.strobe
	c.strobe = value&1 != 0

	if c.strobe || wasStrobe {
		c.shiftRegister = c.buttons
		c.bitPosition = 0
	}
}

// Read shifts the next bit out of the register. While strobe is held high
// the register keeps reloading, so every read returns button A's current
// state regardless of bit position. Bit 6 of every read is set, as the
// open-bus upper bits of $4016/$4017 read on real consoles; the other
// upper bits are 0.
func (c *Controller) Read() uint8 {
	c.readCount++

	if c.strobe {
		c.bitPosition = 0
		return (c.buttons & 1) | 0x40
	}

	if c.bitPosition >= 8 {
		c.bitPosition++
		return 0x40
	}

	bit := c.shiftRegister & 1
	c.shiftRegister >>= 1
	c.bitPosition++
	return bit | 0x40
}

// Reset returns the controller to its power-on state: no buttons held,
// strobe low, register empty.
func (c *Controller) Reset() {
	*c = Controller{debugEnabled: c.debugEnabled}
}

// EnableDebug toggles per-access logging for this controller.
func (c *Controller) EnableDebug(enable bool) { c.debugEnabled = enable }

// BitPosition reports how many bits have been shifted out since the last
// strobe, for test assertions on the read sequence.
func (c *Controller) BitPosition() uint8 { return c.bitPosition }

// InputState owns both standard controller ports. Writes to $4016 strobe
// both controllers simultaneously (real hardware ties the strobe line to
// both ports); each port's shift register and read position are
// otherwise independent.
type InputState struct {
	Controller1 *Controller
	Controller2 *Controller
}

// NewInputState creates an InputState with two idle controllers.
func NewInputState() *InputState {
	return &InputState{Controller1: New(), Controller2: New()}
}

// Reset resets both controllers to their power-on state.
func (is *InputState) Reset() {
	is.Controller1.Reset()
	is.Controller2.Reset()
}

// EnableDebug toggles per-access logging on both controllers.
func (is *InputState) EnableDebug(enable bool) {
	is.Controller1.EnableDebug(enable)
	is.Controller2.EnableDebug(enable)
}

// SetButtons1 sets controller 1's held buttons in shift-register order.
func (is *InputState) SetButtons1(buttons [8]bool) { is.Controller1.SetButtons(buttons) }

// SetButtons2 sets controller 2's held buttons in shift-register order.
func (is *InputState) SetButtons2(buttons [8]bool) { is.Controller2.SetButtons(buttons) }

// Read dispatches a CPU read to the addressed controller port. Both ports
// return bit 6 set (see Controller.Read); the extra 0x40 on $4017 leaves
// that value unchanged.
func (is *InputState) Read(address uint16) uint8 {
	switch address {
	case 0x4016:
		return is.Controller1.Read()
	case 0x4017:
		return is.Controller2.Read() | 0x40
	default:
		return 0
	}
}

// Write dispatches a CPU write to $4016; both controllers latch from the
// same strobe line.
func (is *InputState) Write(address uint16, value uint8) {
	if address == 0x4016 {
		is.Controller1.Write(value)
		is.Controller2.Write(value)
	}
}
