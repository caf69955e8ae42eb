package link

import (
	"context"
	"sync"

	"github.com/robotalks/morse.go/pkg/morse"
)

// MemLink is one end of an in-memory connection created by Pipe.
// Delivery is synchronous: Send returns after the peer handler ran.
type MemLink struct {
	PeerTable
	HandlerSlot

	local Addr
	peer  *MemLink

	lock   sync.Mutex
	seq    uint32
	closed bool
}

// Pipe connects two endpoints in memory.
func Pipe(a, b Addr) (*MemLink, *MemLink) {
	la, lb := &MemLink{local: a}, &MemLink{local: b}
	la.peer, lb.peer = lb, la
	return la, lb
}

// Local implements Link.
func (l *MemLink) Local() Addr {
	return l.local
}

// Send implements Link.
func (l *MemLink) Send(ctx context.Context, to Addr, msg *morse.Message) error {
	if !l.HasPeer(to) {
		return ErrPeerNotRegistered
	}
	l.lock.Lock()
	if l.closed {
		l.lock.Unlock()
		return ErrClosed
	}
	l.seq++
	seq := l.seq
	l.lock.Unlock()
	if to != l.peer.local || l.peer.isClosed() {
		return ErrUnreachable
	}
	frame, err := msg.MarshalBinary()
	if err != nil {
		return err
	}
	var copied morse.Message
	if err := copied.UnmarshalBinary(frame); err != nil {
		return err
	}
	if !l.peer.Deliver(ctx, &Received{From: l.local, Sequence: seq, Message: &copied}) {
		return ErrUnreachable
	}
	return nil
}

// Close disconnects this end.
func (l *MemLink) Close() error {
	l.lock.Lock()
	l.closed = true
	l.lock.Unlock()
	return nil
}

func (l *MemLink) isClosed() bool {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.closed
}
