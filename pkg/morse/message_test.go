package morse

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrame(t *testing.T) {
	marks := []Mark{Dot, Dash, Dash, Dot}
	m := Frame(marks, 3, false)
	require.Equal(t, 3, m.Count)
	require.False(t, m.Space)
	require.Equal(t, Pattern{Dot, Dash, Dash}, m.Pattern())

	m = Frame(marks, 10, false)
	require.Equal(t, 4, m.Count)

	long := make([]Mark, Capacity+5)
	m = Frame(long, len(long), false)
	require.Equal(t, Capacity, m.Count)

	m = Frame(nil, 0, true)
	require.True(t, m.Space)
	require.Zero(t, m.Count)
	require.Equal(t, "<space>", m.String())
}

func TestMessageBinary(t *testing.T) {
	m := Frame([]Mark{Dash, Dot, Dash}, 3, false)
	b, err := m.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, FrameSize)
	require.Equal(t, []byte{1, 0, 1, 0}, b[:4])
	require.Equal(t, []byte{3, 0, 0, 0, 0, 0, 0, 0}, b[Capacity:])

	var decoded Message
	require.NoError(t, decoded.UnmarshalBinary(b))
	require.Equal(t, *m, decoded)

	b, err = SpaceMessage().MarshalBinary()
	require.NoError(t, err)
	require.Equal(t, byte(1), b[Capacity+4])
	require.NoError(t, decoded.UnmarshalBinary(b))
	require.True(t, decoded.Space)
	require.Zero(t, decoded.Count)
}

func TestMessageBinaryInvalid(t *testing.T) {
	var m Message
	err := m.UnmarshalBinary(make([]byte, FrameSize-1))
	require.True(t, errors.Is(err, ErrInvalidFrame))

	b := make([]byte, FrameSize)
	b[Capacity] = Capacity + 1
	err = m.UnmarshalBinary(b)
	require.True(t, errors.Is(err, ErrInvalidFrame))

	b[Capacity], b[Capacity+3] = 0xff, 0xff
	err = m.UnmarshalBinary(b)
	require.True(t, errors.Is(err, ErrInvalidFrame))

	_, err = (&Message{Count: -1}).MarshalBinary()
	require.True(t, errors.Is(err, ErrInvalidFrame))
}
