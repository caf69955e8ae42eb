// Package device defines the hardware around an endpoint: two buttons,
// the feedback actuator and the character display.
package device

import (
	"github.com/robotalks/morse.go/pkg/morse"
)

// Button identifies one of the two buttons.
type Button int

const (
	// KeyButton keys dots and dashes.
	KeyButton Button = iota
	// SpaceButton sends a word space.
	SpaceButton
)

func (b Button) String() string {
	switch b {
	case KeyButton:
		return "key"
	case SpaceButton:
		return "space"
	}
	return "unknown"
}

// Buttons reports button states.
type Buttons interface {
	Pressed(Button) bool
}

// Sample reads both buttons as capture input.
func Sample(b Buttons) morse.Input {
	return morse.Input{Key: b.Pressed(KeyButton), Space: b.Pressed(SpaceButton)}
}

// Actuator drives the indicator light and the buzzer.
// Pulse blocks for the duration of the pulse.
type Actuator interface {
	morse.Feedback
}

// FaultSignaler is implemented by actuators able to signal a local
// failure distinct from a Morse pulse.
type FaultSignaler interface {
	SignalFault()
}

// Display is the character display.
type Display interface {
	// ClearAndWrite clears and writes from the top-left corner, wrapping
	// to the next row and dropping what doesn't fit.
	ClearAndWrite(text string)
	// Print appends at the cursor.
	Print(text string)
	// SetAutoscroll clears and makes Print scroll the top row leftwards.
	SetAutoscroll()
}

// ButtonFunc adapts a func to Buttons.
type ButtonFunc func(Button) bool

// Pressed implements Buttons.
func (f ButtonFunc) Pressed(b Button) bool {
	return f(b)
}
