package device

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/morse.go/pkg/morse"
)

func TestConsole(t *testing.T) {
	var out bytes.Buffer
	var slept []time.Duration
	c := NewConsole(&out)
	c.Sleep = func(d time.Duration) { slept = append(slept, d) }

	c.SetIndicator(true)
	require.True(t, c.Indicator())
	c.Pulse(morse.Dot)
	c.Pulse(morse.Dash)
	c.SignalFault()

	require.Equal(t, ".-\a", out.String())
	require.Equal(t, []time.Duration{morse.DotPulse, morse.DashPulse}, slept)
	require.Equal(t, 1, c.Faults())
}

func TestSample(t *testing.T) {
	pressed := map[Button]bool{SpaceButton: true}
	in := Sample(ButtonFunc(func(b Button) bool { return pressed[b] }))
	require.Equal(t, morse.Input{Space: true}, in)
}
