package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/morse.go/pkg/framework"
	"github.com/robotalks/morse.go/pkg/link"
	"github.com/robotalks/morse.go/pkg/morse"
)

// ErrNoReply fails a command when the dongle answered a later one.
var ErrNoReply = errors.New("bridge: no reply")

// DefaultTimeout bounds a command round trip.
const DefaultTimeout = time.Second

// CommandError carries the failure code from the dongle.
type CommandError struct {
	Code byte
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("bridge: command failed 0x%02x", e.Code)
}

type result struct {
	data []byte
	err  error
}

type command struct {
	seq    Seq
	result chan result
}

// Link implements link.Link through a radio dongle.
type Link struct {
	link.PeerTable
	link.HandlerSlot

	Timeout time.Duration

	port  *Port
	local link.Addr
	rxSeq uint32

	lock    sync.Mutex
	pending []*command

	cancel func()
	done   chan error
}

// NewLink creates a Link over a serial stream.
func NewLink(stream io.ReadWriter) *Link {
	l := &Link{Timeout: DefaultTimeout, port: NewPort(stream)}
	l.port.Handler = l
	return l
}

// Open opens a serial device. The line settings (baud, parity) must be
// configured beforehand, e.g. with stty.
func Open(ctx context.Context, device string) (*Link, error) {
	f, err := os.OpenFile(device, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	l := NewLink(f)
	if err := l.Start(ctx); err != nil {
		f.Close()
		return nil, err
	}
	return l, nil
}

// Start runs the port in the background, waits for sync and queries the
// dongle address.
func (l *Link) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	l.cancel, l.done = cancel, make(chan error, 1)
	go func() {
		l.done <- l.port.Run(runCtx)
	}()
	if err := l.waitReady(ctx); err != nil {
		l.Close()
		return err
	}
	data, err := l.Do(ctx, CmdAddr, nil)
	if err == nil {
		l.local, err = link.AddrFromBytes(data)
	}
	if err != nil {
		l.Close()
		return fmt.Errorf("query address: %w", err)
	}
	glog.Infof("bridge ready, address %s", l.local)
	return nil
}

func (l *Link) waitReady(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for !l.port.State().IsReady() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("sync: %w", ctx.Err())
		case err := <-l.done:
			l.done <- err
			return err
		case <-ticker.C:
		}
	}
	return nil
}

// Close stops the port and closes the stream if closable.
func (l *Link) Close() error {
	if l.cancel == nil {
		return nil
	}
	l.cancel()
	var err error
	if closer, ok := l.port.Stream.(io.Closer); ok {
		err = closer.Close()
	}
	<-l.done
	l.cancel = nil
	return err
}

// Run implements Runnable. The link is closed when ctx is done.
func (l *Link) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		l.Close()
		return ctx.Err()
	case err := <-l.done:
		l.done <- err
		return fmt.Errorf("bridge stopped: %w", err)
	}
}

// AddToLoop implements LoopAdder.
func (l *Link) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(l)
}

// Local implements link.Link.
func (l *Link) Local() link.Addr {
	return l.local
}

// AddPeer implements link.Link. The peer is registered on the dongle
// first.
func (l *Link) AddPeer(a link.Addr) error {
	if a.IsZero() {
		return link.ErrInvalidAddr
	}
	if _, err := l.Do(context.Background(), CmdAddPeer, a.Bytes()); err != nil {
		return err
	}
	return l.PeerTable.AddPeer(a)
}

// Send implements link.Link.
func (l *Link) Send(ctx context.Context, to link.Addr, msg *morse.Message) error {
	if !l.HasPeer(to) {
		return link.ErrPeerNotRegistered
	}
	_, err := l.Do(ctx, CmdSend, append(to.Bytes(), packMessage(msg)...))
	return err
}

// Do sends a command and waits for its reply.
func (l *Link) Do(ctx context.Context, code byte, data []byte) ([]byte, error) {
	if l.Timeout > 0 {
		var cancel func()
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}
	cmd := &command{result: make(chan result, 1)}
	pkt := &Packet{Code: code, Data: data}
	l.lock.Lock()
	err := l.port.Send(pkt)
	if err == nil {
		cmd.seq = pkt.Seq
		l.pending = append(l.pending, cmd)
	}
	l.lock.Unlock()
	if err != nil {
		return nil, err
	}
	select {
	case r := <-cmd.result:
		return r.data, r.err
	case <-ctx.Done():
		l.forget(cmd)
		return nil, ctx.Err()
	}
}

func (l *Link) forget(cmd *command) {
	l.lock.Lock()
	defer l.lock.Unlock()
	for i, c := range l.pending {
		if c == cmd {
			l.pending = append(l.pending[:i:i], l.pending[i+1:]...)
			return
		}
	}
}

// HandlePacket implements PacketHandler.
func (l *Link) HandlePacket(ctx context.Context, pkt *Packet) {
	if pkt.IsEvent() {
		l.handleEvent(ctx, pkt)
		return
	}
	if len(pkt.Data) == 0 || !Seq(pkt.Data[0]).Valid() {
		glog.Warningf("bridge: malformed reply %02x", pkt.Code)
		return
	}
	seq := Seq(pkt.Data[0])
	l.lock.Lock()
	var skipped []*command
	var matched *command
	for i, c := range l.pending {
		if c.seq == seq {
			skipped, matched = l.pending[:i], c
			l.pending = l.pending[i+1:]
			break
		}
	}
	l.lock.Unlock()
	if matched == nil {
		glog.V(2).Infof("bridge: stale reply %d", seq)
		return
	}
	// replies come in order, so earlier commands were lost.
	for _, c := range skipped {
		c.result <- result{err: ErrNoReply}
	}
	if pkt.Code&errorBit != 0 {
		matched.result <- result{err: &CommandError{Code: pkt.Code &^ errorBit}}
		return
	}
	matched.result <- result{data: pkt.Data[1:]}
}

func (l *Link) handleEvent(ctx context.Context, pkt *Packet) {
	switch pkt.Code {
	case EvtReceived:
		if len(pkt.Data) != link.AddrLen+compactSize {
			glog.Warningf("bridge: received %d bytes", len(pkt.Data))
			return
		}
		from, _ := link.AddrFromBytes(pkt.Data[:link.AddrLen])
		msg, err := unpackMessage(pkt.Data[link.AddrLen:])
		if err != nil {
			glog.Warningf("bridge: from %s: %v", from, err)
			return
		}
		l.lock.Lock()
		l.rxSeq++
		seq := l.rxSeq
		l.lock.Unlock()
		if !l.Deliver(ctx, &link.Received{From: from, Sequence: seq, Message: msg}) {
			glog.Warningf("symbol from %s dropped: no handler", from)
		}
	default:
		glog.V(2).Infof("bridge: event %02x ignored", pkt.Code)
	}
}
