package device

import (
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/morse.go/pkg/morse"
)

// Console is an Actuator on a terminal: pulses are echoed as marks,
// the fault tone is the terminal bell.
type Console struct {
	Out   io.Writer
	Sleep func(time.Duration)

	lock      sync.Mutex
	indicator bool
	faults    int
}

// NewConsole creates a Console writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{Out: out, Sleep: time.Sleep}
}

// SetIndicator implements Actuator.
func (c *Console) SetIndicator(on bool) {
	c.lock.Lock()
	changed := c.indicator != on
	c.indicator = on
	c.lock.Unlock()
	if changed {
		glog.V(1).Infof("indicator %v", on)
	}
}

// Indicator reports the indicator state.
func (c *Console) Indicator() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.indicator
}

// Pulse implements Actuator.
func (c *Console) Pulse(m morse.Mark) {
	c.write(m.String())
	if c.Sleep != nil {
		c.Sleep(morse.PulseDuration(m))
	}
}

// SignalFault implements FaultSignaler.
func (c *Console) SignalFault() {
	c.lock.Lock()
	c.faults++
	c.lock.Unlock()
	c.write("\a")
}

// Faults counts signalled faults.
func (c *Console) Faults() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.faults
}

func (c *Console) write(s string) {
	if c.Out == nil {
		return
	}
	if _, err := io.WriteString(c.Out, s); err != nil {
		glog.Warningf("console: %v", err)
	}
}
