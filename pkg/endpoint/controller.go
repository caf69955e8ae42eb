// Package endpoint runs one Morse communicator: it captures symbols from
// the buttons and sends them to the peer, and decodes what the peer sends
// onto the display.
package endpoint

import (
	"context"
	"fmt"

	"github.com/golang/glog"

	"github.com/robotalks/morse.go/pkg/device"
	fx "github.com/robotalks/morse.go/pkg/framework"
	"github.com/robotalks/morse.go/pkg/link"
	"github.com/robotalks/morse.go/pkg/link/msgs"
	"github.com/robotalks/morse.go/pkg/morse"
	"github.com/robotalks/morse.go/pkg/transcript"
)

// Phase is the lifecycle stage of a Controller.
type Phase int

// Phases.
const (
	// PhaseSetup shows the local address until the space button confirms.
	PhaseSetup Phase = iota
	// PhaseRunning exchanges symbols.
	PhaseRunning
	// PhaseFailed stalls after a setup failure shown on the display.
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseRunning:
		return "running"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

// Controller is the control loop of an endpoint.
type Controller struct {
	Link     link.Link
	Peer     link.Addr
	Buttons  device.Buttons
	Actuator device.Actuator
	Display  device.Display
	Capture  *morse.Capture
	Decoder  *morse.Decoder
	// Transcript records exchanged symbols when set.
	Transcript *transcript.Store
	// WaitConfirm keeps the address on the display until the space
	// button is pressed and released.
	WaitConfirm bool

	phase         Phase
	confirming    bool
	active        bool
	status        msgs.Status
	statusChanged bool
}

// NewController creates a Controller.
func NewController(l link.Link, peer link.Addr, buttons device.Buttons, actuator device.Actuator, display device.Display) *Controller {
	return &Controller{
		Link:     l,
		Peer:     peer,
		Buttons:  buttons,
		Actuator: actuator,
		Display:  display,
		Capture:  morse.NewCapture(),
		Decoder:  morse.NewDecoder(actuator),
		status:   msgs.Status{Peer: peer.String()},
	}
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Status returns a copy of the reported status.
func (c *Controller) Status() msgs.Status {
	return c.status
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	c.Link.SetHandler(link.PostTo(loop))
	if adder, ok := c.Link.(fx.LoopAdder); ok {
		loop.Add(adder)
	} else if runnable, ok := c.Link.(fx.Runnable); ok {
		loop.AddRunnable(runnable)
	}
	if adder, ok := c.Buttons.(fx.LoopAdder); ok {
		loop.Add(adder)
	}
	loop.AddController(fx.PrLvControl, c)
	loop.AddController(fx.PrLvPostProc, fx.ControlFunc(c.publishStatus))
}

// Start shows the local address and, unless WaitConfirm is set, opens
// the session with the peer right away.
func (c *Controller) Start(ctx context.Context) error {
	local := c.Link.Local()
	glog.Infof("local address %s, peer %s", local, c.Peer)
	c.Display.ClearAndWrite("Address: " + local.String())
	c.phase = PhaseSetup
	if c.WaitConfirm {
		return nil
	}
	return c.open(ctx)
}

func (c *Controller) open(_ context.Context) error {
	if err := c.Link.AddPeer(c.Peer); err != nil {
		return c.fail("Failed to add peer", fmt.Errorf("add peer %s: %w", c.Peer, err))
	}
	c.Display.SetAutoscroll()
	c.Capture.Reset()
	c.active = false
	c.Actuator.SetIndicator(true)
	c.phase = PhaseRunning
	c.status.Ready, c.status.Fault = true, ""
	c.statusChanged = true
	return nil
}

func (c *Controller) fail(text string, err error) error {
	glog.Errorf("%s: %v", text, err)
	c.Display.ClearAndWrite(text)
	c.phase = PhaseFailed
	c.status.Ready, c.status.Fault = false, err.Error()
	c.statusChanged = true
	return err
}

// Control implements Controller.
func (c *Controller) Control(cc fx.ControlContext) error {
	ctx := cc.Context()
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		r, ok := mctx.CurrentMessage().(*link.Received)
		if !ok {
			return
		}
		mctx.MessageTaken()
		if c.phase != PhaseRunning {
			glog.V(1).Infof("symbol from %s ignored while %s", r.From, c.phase)
			return
		}
		c.receive(ctx, r)
	}))

	switch c.phase {
	case PhaseSetup:
		if c.Buttons.Pressed(device.SpaceButton) {
			c.confirming = true
		} else if c.confirming {
			c.confirming = false
			// shown and logged by fail
			_ = c.open(ctx)
		}
	case PhaseRunning:
		msg := c.Capture.Tick(device.Sample(c.Buttons))
		if active := c.Capture.Active(); active != c.active {
			// ready until the first press of a session
			c.active = active
			c.Actuator.SetIndicator(!active)
		}
		if msg != nil {
			c.send(ctx, msg)
		}
	}
	return nil
}

// receive decodes a symbol. Decoding blocks the loop while the marks are
// played back.
func (c *Controller) receive(ctx context.Context, r *link.Received) {
	if r.From != c.Peer {
		glog.V(1).Infof("symbol from %s, not the peer", r.From)
	}
	tok := c.Decoder.Decode(r.Message)
	glog.V(1).Infof("rx %s %q", r.Message, tok)
	if c.Capture.Active() && !r.Message.Space {
		// decoding turned it on in the middle of a session
		c.Actuator.SetIndicator(false)
	}
	c.Display.Print(tok.String())
	c.status.Last = tok.String()
	c.statusChanged = true
	c.record(ctx, transcript.Received, r.Message, tok.String())
}

func (c *Controller) send(ctx context.Context, msg *morse.Message) {
	glog.V(1).Infof("tx %s", msg)
	if err := c.Link.Send(ctx, c.Peer, msg); err != nil {
		glog.Errorf("send to %s: %v", c.Peer, err)
		if fs, ok := c.Actuator.(device.FaultSignaler); ok {
			fs.SignalFault()
		}
		c.status.Fault = err.Error()
		c.statusChanged = true
		return
	}
	if c.status.Fault != "" {
		c.status.Fault = ""
		c.statusChanged = true
	}
	text := "?"
	if msg.Space {
		text = " "
	} else if ch, ok := morse.Lookup(msg.Pattern()); ok {
		text = string(ch)
	}
	c.record(ctx, transcript.Sent, msg, text)
}

func (c *Controller) record(ctx context.Context, dir transcript.Direction, msg *morse.Message, text string) {
	if c.Transcript == nil {
		return
	}
	e := &transcript.Entry{
		Direction: dir,
		Local:     c.Link.Local().String(),
		Remote:    c.Peer.String(),
		Pattern:   msg.Pattern().String(),
		Text:      text,
	}
	if err := c.Transcript.Record(ctx, e); err != nil {
		glog.Warningf("transcript: %v", err)
	}
}

func (c *Controller) publishStatus(cc fx.ControlContext) error {
	if !c.statusChanged {
		return nil
	}
	c.statusChanged = false
	pub, ok := c.Link.(link.StatusPublisher)
	if !ok {
		return nil
	}
	st := c.status
	return pub.PublishStatus(cc.Context(), &st)
}
