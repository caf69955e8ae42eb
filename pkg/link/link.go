// Package link delivers Morse messages between paired endpoints.
//
// A Link sends to registered peers only, mirroring a point-to-point
// radio where each peer is added before use. Failures are always
// returned to the caller.
package link

import (
	"context"
	"errors"
	"sync"

	fx "github.com/robotalks/morse.go/pkg/framework"
	"github.com/robotalks/morse.go/pkg/link/msgs"
	"github.com/robotalks/morse.go/pkg/morse"
)

var (
	// ErrInvalidAddr indicates a malformed hardware address.
	ErrInvalidAddr = errors.New("invalid address")
	// ErrPeerNotRegistered indicates sending to a peer never added.
	ErrPeerNotRegistered = errors.New("peer not registered")
	// ErrUnreachable indicates the peer can't be reached over the link.
	ErrUnreachable = errors.New("peer unreachable")
	// ErrClosed indicates the link is closed.
	ErrClosed = errors.New("link closed")
)

// Received is a message delivered by a peer.
type Received struct {
	From     Addr
	Sequence uint32
	Message  *morse.Message
}

// NewMessage implements fx.Message.
func (r *Received) NewMessage() fx.Message { return &Received{} }

// Handler receives messages from peers.
type Handler interface {
	HandleReceived(context.Context, *Received)
}

// HandleFunc is the func form of Handler.
type HandleFunc func(context.Context, *Received)

// HandleReceived implements Handler.
func (f HandleFunc) HandleReceived(ctx context.Context, r *Received) {
	f(ctx, r)
}

// PostTo creates a Handler which posts received messages to a loop
// and wakes it up.
func PostTo(ctl fx.LoopControl) Handler {
	return HandleFunc(func(_ context.Context, r *Received) {
		ctl.PostMessage(r)
		ctl.TriggerNext()
	})
}

// Link is the transport between two endpoints.
type Link interface {
	// Local is the address peers use to reach this endpoint.
	Local() Addr
	// AddPeer registers a peer before sending to it.
	AddPeer(Addr) error
	// Send transmits a message to a registered peer.
	Send(context.Context, Addr, *morse.Message) error
	// SetHandler installs the receiver of incoming messages.
	SetHandler(Handler)
}

// StatusPublisher is implemented by links able to report endpoint status
// to observers.
type StatusPublisher interface {
	PublishStatus(context.Context, *msgs.Status) error
}

// PeerTable tracks registered peers.
type PeerTable struct {
	lock  sync.RWMutex
	peers map[Addr]struct{}
}

// AddPeer registers a peer.
func (t *PeerTable) AddPeer(a Addr) error {
	if a.IsZero() {
		return ErrInvalidAddr
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.peers == nil {
		t.peers = make(map[Addr]struct{})
	}
	t.peers[a] = struct{}{}
	return nil
}

// HasPeer reports whether a peer is registered.
func (t *PeerTable) HasPeer(a Addr) bool {
	t.lock.RLock()
	defer t.lock.RUnlock()
	_, ok := t.peers[a]
	return ok
}

// Peers lists registered peers.
func (t *PeerTable) Peers() []Addr {
	t.lock.RLock()
	defer t.lock.RUnlock()
	addrs := make([]Addr, 0, len(t.peers))
	for a := range t.peers {
		addrs = append(addrs, a)
	}
	return addrs
}

// HandlerSlot holds the Handler of a Link.
type HandlerSlot struct {
	lock    sync.RWMutex
	handler Handler
}

// SetHandler implements Link.
func (h *HandlerSlot) SetHandler(handler Handler) {
	h.lock.Lock()
	h.handler = handler
	h.lock.Unlock()
}

// Deliver hands r to the handler, false if none is installed.
func (h *HandlerSlot) Deliver(ctx context.Context, r *Received) bool {
	h.lock.RLock()
	handler := h.handler
	h.lock.RUnlock()
	if handler == nil {
		return false
	}
	handler.HandleReceived(ctx, r)
	return true
}
