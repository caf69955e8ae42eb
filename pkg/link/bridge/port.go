package bridge

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"
)

var (
	// ErrNotReady is returned when sending before sync completes.
	ErrNotReady = errors.New("bridge not synced")
	// ErrTooLarge is returned for packets exceeding MaxDataLen.
	ErrTooLarge = errors.New("packet data too large")
)

// DefaultSyncTimeout is how long a partial sync or packet may stall.
const DefaultSyncTimeout = 100 * time.Millisecond

// PacketHandler receives packets from a Port.
type PacketHandler interface {
	HandlePacket(context.Context, *Packet)
}

// HandlePacketFunc is the func form of PacketHandler.
type HandlePacketFunc func(context.Context, *Packet)

// HandlePacket implements PacketHandler.
func (f HandlePacketFunc) HandlePacket(ctx context.Context, pkt *Packet) {
	f(ctx, pkt)
}

// Port runs the protocol over a byte stream.
type Port struct {
	Stream      io.ReadWriter
	Handler     PacketHandler
	OnState     func(SyncState)
	SyncTimeout time.Duration

	lock   sync.Mutex
	seq    Seq
	state  SyncState
	parser Parser
}

// NewPort creates a Port.
func NewPort(stream io.ReadWriter) *Port {
	return &Port{Stream: stream, SyncTimeout: DefaultSyncTimeout, seq: RandomSeq()}
}

// State reports the sync state.
func (p *Port) State() SyncState {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.state
}

// Send assigns the next seq and writes the packet.
func (p *Port) Send(pkt *Packet) error {
	if len(pkt.Data) > MaxDataLen {
		return ErrTooLarge
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	if !p.state.IsReady() {
		return ErrNotReady
	}
	pkt.Seq = p.seq
	if _, err := pkt.WriteTo(p.Stream); err != nil {
		return err
	}
	p.seq = p.seq.Next()
	return nil
}

// Run processes the stream until ctx is done or reading fails.
func (p *Port) Run(ctx context.Context) error {
	bytesCh, errCh := make(chan byte, 64), make(chan error, 1)
	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go p.read(readCtx, bytesCh, errCh)

	timer := time.NewTimer(p.SyncTimeout)
	defer timer.Stop()
	apply := func(s Step) error {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		if s.needsTimer() {
			timer.Reset(p.SyncTimeout)
		}
		return p.apply(ctx, s)
	}
	if err := apply(p.parser.Reset()); err != nil {
		return err
	}
	for {
		var err error
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err = <-errCh:
			return err
		case b := <-bytesCh:
			err = apply(p.parser.Feed(b))
		case <-timer.C:
			err = apply(p.parser.Timeout())
		}
		if err != nil {
			return err
		}
	}
}

func (p *Port) read(ctx context.Context, bytesCh chan<- byte, errCh chan<- error) {
	buf := make([]byte, 1)
	for {
		if _, err := io.ReadFull(p.Stream, buf); err != nil {
			errCh <- err
			return
		}
		select {
		case bytesCh <- buf[0]:
		case <-ctx.Done():
			return
		}
	}
}

func (p *Port) apply(ctx context.Context, s Step) error {
	p.lock.Lock()
	changed := p.state != s.State
	p.state = s.State
	var err error
	if s.Reply != 0 {
		_, err = p.Stream.Write([]byte{s.Reply, byte(p.seq)})
	}
	p.lock.Unlock()
	if err != nil {
		return err
	}
	if changed {
		glog.V(3).Infof("bridge %s", s.State)
		if fn := p.OnState; fn != nil {
			fn(s.State)
		}
	}
	if s.Packet != nil && p.Handler != nil {
		p.Handler.HandlePacket(ctx, s.Packet)
	}
	return nil
}
