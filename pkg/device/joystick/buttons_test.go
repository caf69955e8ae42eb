package joystick

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/morse.go/pkg/device"
)

type fakeDevice struct {
	events chan Event
	closed chan struct{}
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{events: make(chan Event), closed: make(chan struct{})}
}

func (d *fakeDevice) Close() error {
	select {
	case <-d.closed:
	default:
		close(d.closed)
	}
	return nil
}

func (d *fakeDevice) Index() int       { return 3 }
func (d *fakeDevice) Name() string     { return "fake" }
func (d *fakeDevice) ButtonCount() int { return 4 }

func (d *fakeDevice) ReadEvent() (Event, error) {
	select {
	case ev := <-d.events:
		return ev, nil
	case <-d.closed:
		return Event{}, io.EOF
	}
}

func TestReadEvent(t *testing.T) {
	raw := []byte{0x10, 0, 0, 0, 1, 0, 0x81, 2}
	ev, err := ReadEvent(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, Event{Time: 16, Value: 1, Type: 0x81, Number: 2}, ev)
	require.True(t, ev.IsButton())
	require.True(t, ev.IsInit())
	require.True(t, ev.Pressed())
	require.False(t, Event{Type: typeAxis}.IsButton())
}

func TestButtons(t *testing.T) {
	dev := newFakeDevice()
	var opened []int
	b := NewButtons(-1)
	b.Open = func(index int) (Device, error) {
		opened = append(opened, index)
		if index < 3 {
			return nil, os.ErrNotExist
		}
		return dev, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	dev.events <- Event{Type: typeButton | typeInit, Number: 0}
	dev.events <- Event{Type: typeAxis, Number: 0, Value: 100}
	dev.events <- Event{Type: typeButton, Number: 1, Value: 1}
	dev.events <- Event{Type: typeButton, Number: 5, Value: 1}
	require.Eventually(t, func() bool {
		return b.Pressed(device.SpaceButton)
	}, time.Second, time.Millisecond)
	require.False(t, b.Pressed(device.KeyButton))
	require.Equal(t, []int{0, 1, 2, 3}, opened)

	dev.events <- Event{Type: typeButton, Number: 0, Value: 1}
	require.Eventually(t, func() bool {
		return device.Sample(b).Key
	}, time.Second, time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	require.False(t, b.Pressed(device.KeyButton))
}

func TestButtonsLiteral(t *testing.T) {
	dev := newFakeDevice()
	b := &Buttons{
		DeviceIndex: 2,
		Mapping:     map[uint8]device.Button{3: device.KeyButton},
		Open: func(index int) (Device, error) {
			require.Equal(t, 2, index)
			return dev, nil
		},
	}
	require.False(t, b.Pressed(device.KeyButton))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	dev.events <- Event{Type: typeButton, Number: 3, Value: 1}
	require.Eventually(t, func() bool {
		return b.Pressed(device.KeyButton)
	}, time.Second, time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
