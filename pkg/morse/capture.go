package morse

// Timing holds the capture thresholds, counted in poll ticks.
type Timing struct {
	// HoldCheck is the number of ticks after a press when the key is
	// sampled to tell a dash from a dot.
	HoldCheck int
	// IdleTimeout is the number of idle ticks which completes a symbol.
	IdleTimeout int
	// SpaceSettle is the number of ticks ignored after a space.
	SpaceSettle int
}

// DefaultTiming is the timing at one tick per millisecond.
func DefaultTiming() Timing {
	return Timing{
		HoldCheck:   200,
		IdleTimeout: 1200,
		SpaceSettle: 500,
	}
}

func (t Timing) withDefaults() Timing {
	def := DefaultTiming()
	if t.HoldCheck <= 0 {
		t.HoldCheck = def.HoldCheck
	}
	if t.IdleTimeout <= 0 {
		t.IdleTimeout = def.IdleTimeout
	}
	if t.SpaceSettle <= 0 {
		t.SpaceSettle = def.SpaceSettle
	}
	return t
}

// Input is the button state sampled at one tick.
type Input struct {
	// Key is the mark button (button 1).
	Key bool
	// Space is the word space button (button 2).
	Space bool
}

// CaptureState is the state of the Capture machine.
type CaptureState int

// Capture states.
const (
	StateIdle CaptureState = iota
	StatePressed
	StateWaitRelease
	StateSettle
)

var captureStateNames = [...]string{"idle", "pressed", "wait-release", "settle"}

// String implements fmt.Stringer.
func (s CaptureState) String() string {
	if s >= 0 && int(s) < len(captureStateNames) {
		return captureStateNames[s]
	}
	return "unknown"
}

// Capture turns sampled button states into messages.
// It is driven by Tick once per poll tick and never blocks.
type Capture struct {
	Timing Timing

	state   CaptureState
	ticks   int
	idle    int
	marks   [Capacity]Mark
	count   int
	present bool
	dropped int
}

// NewCapture creates a Capture with default timing.
func NewCapture() *Capture {
	return &Capture{Timing: DefaultTiming()}
}

// State returns the current state.
func (c *Capture) State() CaptureState {
	return c.state
}

// Active reports whether the current session has seen a key press.
func (c *Capture) Active() bool {
	return c.present
}

// Pending returns the marks captured so far in the session.
func (c *Capture) Pending() Pattern {
	return append(Pattern(nil), c.marks[:c.count]...)
}

// Dropped returns the number of marks discarded because the session
// was full.
func (c *Capture) Dropped() int {
	return c.dropped
}

// Reset discards the session and returns to idle.
func (c *Capture) Reset() {
	c.state, c.ticks = StateIdle, 0
	c.resetSession()
}

func (c *Capture) resetSession() {
	c.idle, c.count, c.present, c.dropped = 0, 0, false, 0
}

// Tick advances the machine by one tick.
// It returns a message when a symbol or a space is complete.
func (c *Capture) Tick(in Input) *Message {
	t := c.Timing.withDefaults()
	switch c.state {
	case StateSettle:
		if c.ticks++; c.ticks >= t.SpaceSettle {
			c.state, c.ticks = StateIdle, 0
		}
	case StatePressed:
		if c.ticks++; c.ticks < t.HoldCheck {
			break
		}
		c.ticks = 0
		if in.Key {
			c.addMark(Dash)
			c.state = StateWaitRelease
		} else {
			c.addMark(Dot)
			c.state = StateIdle
		}
	case StateWaitRelease:
		if !in.Key {
			c.state = StateIdle
		}
	default:
		switch {
		case in.Key:
			c.idle, c.present = 0, true
			c.state, c.ticks = StatePressed, 0
		case in.Space:
			c.resetSession()
			c.state, c.ticks = StateSettle, 0
			return SpaceMessage()
		default:
			if c.idle++; c.idle < t.IdleTimeout {
				break
			}
			var msg *Message
			if c.present {
				msg = Frame(c.marks[:], c.count, false)
			}
			c.resetSession()
			return msg
		}
	}
	return nil
}

func (c *Capture) addMark(m Mark) {
	if c.count >= Capacity {
		c.dropped++
		return
	}
	c.marks[c.count] = m
	c.count++
}
