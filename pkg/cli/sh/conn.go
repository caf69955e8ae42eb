package sh

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/morse.go/pkg/framework"
	"github.com/robotalks/morse.go/pkg/link"
	"github.com/robotalks/morse.go/pkg/morse"
	"github.com/robotalks/morse.go/pkg/transcript"
)

// Stats counts traffic over a Conn.
type Stats struct {
	Local    string `json:"local"`
	Peer     string `json:"peer,omitempty"`
	Sent     int    `json:"sent"`
	Received int    `json:"received"`
	Failed   int    `json:"failed"`
	Last     string `json:"last,omitempty"`
}

// Conn is a link driven by its own loop. Received symbols are
// translated without playback and handed to Print.
type Conn struct {
	Ctx    context.Context
	Cancel func()
	Link   link.Link
	Loop   *fx.Loop
	Print  func(from link.Addr, tok morse.Token)
	// Transcript records exchanged symbols when set.
	Transcript *transcript.Store

	done  chan struct{}
	lock  sync.Mutex
	peer  link.Addr
	stats Stats
}

// NewConn attaches a link to a new loop. The loop isn't running until
// Start is called.
func NewConn(l link.Link, print func(link.Addr, morse.Token)) *Conn {
	c := &Conn{
		Link:  l,
		Loop:  fx.NewLoop(),
		Print: print,
	}
	c.stats.Local = l.Local().String()
	c.Loop.Add(c)
	return c
}

// AddToLoop implements LoopAdder.
func (c *Conn) AddToLoop(loop *fx.Loop) {
	c.Link.SetHandler(link.PostTo(loop))
	if adder, ok := c.Link.(fx.LoopAdder); ok {
		loop.Add(adder)
	} else if runnable, ok := c.Link.(fx.Runnable); ok {
		loop.AddRunnable(runnable)
	}
	loop.AddController(fx.PrLvControl, c)
}

// Start runs the loop in background.
func (c *Conn) Start() {
	c.Ctx, c.Cancel = context.WithCancel(context.Background())
	c.done = make(chan struct{})
	go func() {
		defer close(c.done)
		if err := c.Loop.Run(c.Ctx); err != nil && err != context.Canceled {
			glog.Errorf("connection loop: %v", err)
		}
	}()
}

// Close stops the loop, which also stops the link, and waits for it
// to exit before closing the transcript.
func (c *Conn) Close() {
	if c.Cancel != nil {
		c.Cancel()
	}
	if c.done != nil {
		<-c.done
	}
	if c.Transcript != nil {
		if err := c.Transcript.Close(); err != nil {
			glog.Warningf("close transcript: %v", err)
		}
	}
	if closer, ok := c.Link.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			glog.Warningf("close link: %v", err)
		}
	}
}

// SetPeer registers the peer which symbols are sent to.
func (c *Conn) SetPeer(a link.Addr) error {
	if err := c.Link.AddPeer(a); err != nil {
		return fmt.Errorf("add peer %s: %w", a, err)
	}
	c.lock.Lock()
	c.peer = a
	c.stats.Peer = a.String()
	c.lock.Unlock()
	return nil
}

// Peer returns the current peer, zero if not set.
func (c *Conn) Peer() link.Addr {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.peer
}

// Stats returns a snapshot of the counters.
func (c *Conn) Stats() Stats {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.stats
}

// SendText encodes text and sends one symbol at a time. It returns the
// number of symbols sent before the first failure.
func (c *Conn) SendText(ctx context.Context, text string) (int, error) {
	symbols, err := morse.EncodeText(text)
	if err != nil {
		return 0, err
	}
	for n, msg := range symbols {
		if err := c.Send(ctx, msg); err != nil {
			return n, err
		}
	}
	return len(symbols), nil
}

// Send sends a single message to the peer.
func (c *Conn) Send(ctx context.Context, msg *morse.Message) error {
	peer := c.Peer()
	if peer.IsZero() {
		return fmt.Errorf("peer not set")
	}
	err := c.Link.Send(ctx, peer, msg)
	c.lock.Lock()
	if err != nil {
		c.stats.Failed++
	} else {
		c.stats.Sent++
	}
	c.lock.Unlock()
	if err == nil {
		c.record(ctx, transcript.Sent, peer, msg)
	}
	return err
}

func (c *Conn) record(ctx context.Context, dir transcript.Direction, remote link.Addr, msg *morse.Message) {
	if c.Transcript == nil {
		return
	}
	e := &transcript.Entry{
		Direction: dir,
		Local:     c.Link.Local().String(),
		Remote:    remote.String(),
		Pattern:   msg.Pattern().String(),
		Text:      morse.Translate(msg).String(),
	}
	if err := c.Transcript.Record(ctx, e); err != nil {
		glog.Errorf("record: %v", err)
	}
}

// Control implements Controller.
func (c *Conn) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		r, ok := mctx.CurrentMessage().(*link.Received)
		if !ok {
			return
		}
		mctx.MessageTaken()
		tok := morse.Translate(r.Message)
		c.lock.Lock()
		c.stats.Received++
		c.stats.Last = tok.String()
		c.lock.Unlock()
		c.record(cc.Context(), transcript.Received, r.From, r.Message)
		if c.Print != nil {
			c.Print(r.From, tok)
		}
	}))
	return nil
}
