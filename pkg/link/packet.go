package link

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"

	fx "github.com/robotalks/morse.go/pkg/framework"
	"github.com/robotalks/morse.go/pkg/link/msgs"
	"github.com/robotalks/morse.go/pkg/morse"
)

// PacketReader reads packets in bytes.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes packets in bytes.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter reads/writes packets in bytes.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}

// EnvelopeObserver sees every envelope received, before dispatching.
type EnvelopeObserver interface {
	ObserveEnvelope(context.Context, *msgs.Envelope)
}

// ObserveEnvelopeFunc is the func form of EnvelopeObserver.
type ObserveEnvelopeFunc func(context.Context, *msgs.Envelope)

// ObserveEnvelope implements EnvelopeObserver.
func (f ObserveEnvelopeFunc) ObserveEnvelope(ctx context.Context, env *msgs.Envelope) {
	f(ctx, env)
}

// PacketLink implements Link by exchanging envelopes over a
// PacketReadWriter shared with other endpoints.
type PacketLink struct {
	PeerTable
	HandlerSlot

	ReadWriter PacketReadWriter
	Observer   EnvelopeObserver

	local    Addr
	seq      uint32
	sendLock sync.Mutex
}

// NewPacketLink creates a PacketLink.
func NewPacketLink(local Addr, rw PacketReadWriter) *PacketLink {
	return &PacketLink{ReadWriter: rw, local: local}
}

// Local implements Link.
func (p *PacketLink) Local() Addr {
	return p.local
}

// Send implements Link.
func (p *PacketLink) Send(ctx context.Context, to Addr, msg *morse.Message) error {
	if !p.HasPeer(to) {
		return ErrPeerNotRegistered
	}
	sym, err := msgs.NewSymbol(msg)
	if err != nil {
		return err
	}
	env, err := msgs.EnvelopeFrom(sym)
	if err != nil {
		return err
	}
	env.Target = to.Bytes()
	return p.SendEnvelope(env)
}

// PublishStatus implements StatusPublisher.
func (p *PacketLink) PublishStatus(ctx context.Context, st *msgs.Status) error {
	env, err := msgs.EnvelopeFrom(st)
	if err != nil {
		return err
	}
	return p.SendEnvelope(env)
}

// SendEnvelope stamps the sender and sequence and writes the envelope.
func (p *PacketLink) SendEnvelope(env *msgs.Envelope) error {
	env.Sender = p.local.Bytes()
	env.Sequence = atomic.AddUint32(&p.seq, 1)
	pkt, err := env.Encode()
	if err != nil {
		return err
	}
	p.sendLock.Lock()
	defer p.sendLock.Unlock()
	return p.ReadWriter.WritePacket(pkt)
}

// Run implements Runnable.
func (p *PacketLink) Run(ctx context.Context) error {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return fx.RunWithContextCloser(ctx, closer, func() error {
			return p.receive(ctx)
		})
	}
	return fx.RunWithContext(ctx, func() error {
		return p.receive(ctx)
	})
}

func (p *PacketLink) receive(ctx context.Context) error {
	for {
		pkt, err := p.ReadWriter.ReadPacket()
		if err != nil {
			return err
		}
		env, err := msgs.DecodeEnvelope(pkt)
		if err != nil {
			glog.Warningf("bad envelope: %v", err)
			continue
		}
		p.Dispatch(ctx, env)
	}
}

// Dispatch delivers a received envelope.
func (p *PacketLink) Dispatch(ctx context.Context, env *msgs.Envelope) {
	if o := p.Observer; o != nil {
		o.ObserveEnvelope(ctx, env)
	}
	if len(env.Target) != 0 {
		if to, err := AddrFromBytes(env.Target); err != nil || to != p.local {
			glog.V(3).Infof("envelope for %x ignored", env.Target)
			return
		}
	}
	r, err := ReceivedFrom(env)
	if err != nil {
		glog.Warningf("bad symbol: %v", err)
		return
	}
	if r != nil && !p.Deliver(ctx, r) {
		glog.Warningf("symbol from %s dropped: no handler", r.From)
	}
}

// ReceivedFrom extracts the symbol carried by an envelope.
// It returns nil without error when the envelope carries something else.
func ReceivedFrom(env *msgs.Envelope) (*Received, error) {
	if env.TypeId != msgs.SymbolTypeID {
		return nil, nil
	}
	from, err := AddrFromBytes(env.Sender)
	if err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}
	msg, err := env.Decode()
	if err != nil {
		return nil, fmt.Errorf("from %s: %w", from, err)
	}
	m, err := msg.(*msgs.Symbol).Decode()
	if err != nil {
		return nil, fmt.Errorf("from %s: %w", from, err)
	}
	return &Received{From: from, Sequence: env.Sequence, Message: m}, nil
}

// AddToLoop implements LoopAdder.
func (p *PacketLink) AddToLoop(loop *fx.Loop) {
	if adder, ok := p.ReadWriter.(fx.LoopAdder); ok {
		loop.Add(adder)
	} else if runnable, ok := p.ReadWriter.(fx.Runnable); ok {
		loop.AddRunnable(runnable)
	}
	loop.AddRunnable(p)
}
