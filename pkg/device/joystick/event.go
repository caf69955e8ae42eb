// Package joystick reads buttons from a Linux joystick device.
package joystick

import (
	"encoding/binary"
	"errors"
	"io"
)

// ErrUnsupported is returned where joystick devices are not available.
var ErrUnsupported = errors.New("joystick not supported")

// Event is a change on a button or an axis.
type Event struct {
	Time   uint32
	Value  int16
	Type   uint8
	Number uint8
}

const (
	eventSize = 8

	typeButton uint8 = 0x01
	typeAxis   uint8 = 0x02
	typeInit   uint8 = 0x80
)

// IsButton tells a button event.
func (e Event) IsButton() bool {
	return e.Type&^typeInit == typeButton
}

// IsInit tells the synthetic events reporting initial state on open.
func (e Event) IsInit() bool {
	return e.Type&typeInit != 0
}

// Pressed is the button state of a button event.
func (e Event) Pressed() bool {
	return e.Value != 0
}

// ReadEvent reads one event in the kernel js_event layout.
func ReadEvent(r io.Reader) (Event, error) {
	var ev Event
	err := binary.Read(r, binary.LittleEndian, &ev)
	return ev, err
}

// Device is an opened joystick.
type Device interface {
	io.Closer
	Index() int
	Name() string
	ButtonCount() int
	ReadEvent() (Event, error)
}
