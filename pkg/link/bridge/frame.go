package bridge

import (
	"fmt"

	"github.com/robotalks/morse.go/pkg/morse"
)

// compactSize is a message packed as flags, count and one bit per mark.
const compactSize = 2 + morse.Capacity/8

const flagSpace = 0x01

func packMessage(m *morse.Message) []byte {
	b := make([]byte, compactSize)
	if m.Space {
		b[0] |= flagSpace
	}
	b[1] = byte(m.Count)
	for i := 0; i < m.Count; i++ {
		if m.Marks[i] == morse.Dash {
			b[2+i/8] |= 1 << uint(i%8)
		}
	}
	return b
}

func unpackMessage(b []byte) (*morse.Message, error) {
	if len(b) != compactSize {
		return nil, fmt.Errorf("%w: %d bytes packed", morse.ErrInvalidFrame, len(b))
	}
	count := int(b[1])
	if count > morse.Capacity {
		return nil, fmt.Errorf("%w: count %d", morse.ErrInvalidFrame, count)
	}
	marks := make([]morse.Mark, count)
	for i := range marks {
		if b[2+i/8]&(1<<uint(i%8)) != 0 {
			marks[i] = morse.Dash
		}
	}
	return morse.Frame(marks, count, b[0]&flagSpace != 0), nil
}
