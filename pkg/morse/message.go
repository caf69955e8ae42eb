package morse

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Capacity is the maximum number of marks a message carries.
const Capacity = 128

// FrameSize is the encoded size of a Message.
// Layout: Capacity mark bytes, int32 count (little-endian), space flag, padding.
const FrameSize = Capacity + 4 + 1 + 3

var (
	// ErrInvalidFrame indicates the encoded message is malformed.
	ErrInvalidFrame = errors.New("invalid frame")
)

// Message is the unit exchanged between endpoints: either one symbol
// or a word space.
type Message struct {
	Marks [Capacity]Mark
	Count int
	Space bool
}

// Frame builds a Message from the first count marks.
// count is clamped to both Capacity and len(marks).
func Frame(marks []Mark, count int, space bool) *Message {
	if count > len(marks) {
		count = len(marks)
	}
	if count > Capacity {
		count = Capacity
	}
	if count < 0 {
		count = 0
	}
	m := &Message{Count: count, Space: space}
	copy(m.Marks[:], marks[:count])
	return m
}

// SpaceMessage creates a word space message.
func SpaceMessage() *Message {
	return &Message{Space: true}
}

// Pattern returns the marks carried by the message.
func (m *Message) Pattern() Pattern {
	n := m.Count
	if n < 0 {
		n = 0
	} else if n > Capacity {
		n = Capacity
	}
	return append(Pattern(nil), m.Marks[:n]...)
}

// String implements fmt.Stringer.
func (m *Message) String() string {
	if m.Space {
		return "<space>"
	}
	return m.Pattern().String()
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (m *Message) MarshalBinary() ([]byte, error) {
	if m.Count < 0 || m.Count > Capacity {
		return nil, fmt.Errorf("%w: count %d", ErrInvalidFrame, m.Count)
	}
	b := make([]byte, FrameSize)
	for i := 0; i < m.Count; i++ {
		b[i] = byte(m.Marks[i] & Dash)
	}
	binary.LittleEndian.PutUint32(b[Capacity:], uint32(int32(m.Count)))
	if m.Space {
		b[Capacity+4] = 1
	}
	return b, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (m *Message) UnmarshalBinary(b []byte) error {
	if len(b) != FrameSize {
		return fmt.Errorf("%w: size %d", ErrInvalidFrame, len(b))
	}
	count := int(int32(binary.LittleEndian.Uint32(b[Capacity:])))
	if count < 0 || count > Capacity {
		return fmt.Errorf("%w: count %d", ErrInvalidFrame, count)
	}
	*m = Message{Count: count, Space: b[Capacity+4] != 0}
	for i := 0; i < count; i++ {
		if b[i] != 0 {
			m.Marks[i] = Dash
		}
	}
	return nil
}
