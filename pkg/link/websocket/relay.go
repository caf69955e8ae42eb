package websocket

import (
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/morse.go/pkg/link"
	"github.com/robotalks/morse.go/pkg/link/msgs"
)

// Relay forwards envelopes between endpoints connected over websocket.
// An endpoint is known by the sender address of its first envelope.
// Envelopes with a target go to that endpoint only, others go to
// every other endpoint.
type Relay struct {
	// Observer sees every envelope passing through.
	Observer func(*msgs.Envelope)

	lock  sync.RWMutex
	conns map[link.Addr]*relayConn
}

type relayConn struct {
	rw   *ReadWriter
	lock sync.Mutex
}

func (c *relayConn) write(pkt []byte) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.rw.WritePacket(pkt)
}

// NewRelay creates a Relay.
func NewRelay() *Relay {
	return &Relay{conns: make(map[link.Addr]*relayConn)}
}

// Handler returns the http.Handler accepting websocket connections.
func (r *Relay) Handler() http.Handler {
	return websocket.Handler(r.serve)
}

// Endpoints lists addresses currently connected.
func (r *Relay) Endpoints() []link.Addr {
	r.lock.RLock()
	defer r.lock.RUnlock()
	addrs := make([]link.Addr, 0, len(r.conns))
	for a := range r.conns {
		addrs = append(addrs, a)
	}
	return addrs
}

func (r *Relay) serve(ws *websocket.Conn) {
	conn := &relayConn{rw: New(ws)}
	var self link.Addr
	defer func() {
		ws.Close()
		if !self.IsZero() {
			r.lock.Lock()
			if r.conns[self] == conn {
				delete(r.conns, self)
			}
			r.lock.Unlock()
			glog.Infof("relay: %s left", self)
		}
	}()
	for {
		pkt, err := conn.rw.ReadPacket()
		if err != nil {
			glog.V(2).Infof("relay: read: %v", err)
			return
		}
		env, err := msgs.DecodeEnvelope(pkt)
		if err != nil {
			glog.Warningf("relay: bad envelope: %v", err)
			continue
		}
		sender, err := link.AddrFromBytes(env.Sender)
		if err != nil {
			glog.Warningf("relay: envelope without sender dropped")
			continue
		}
		if !self.IsZero() && sender != self {
			glog.Warningf("relay: %s sent as %s, dropped", self, sender)
			continue
		}
		if o := r.Observer; o != nil {
			o(env)
		}
		if self.IsZero() {
			self = sender
			r.lock.Lock()
			r.conns[self] = conn
			r.lock.Unlock()
			glog.Infof("relay: %s joined", self)
		}
		if env.TypeId == msgs.HelloTypeID {
			continue
		}
		r.forward(self, env, pkt)
	}
}

func (r *Relay) forward(from link.Addr, env *msgs.Envelope, pkt []byte) {
	var targets []*relayConn
	r.lock.RLock()
	if len(env.Target) != 0 {
		if to, err := link.AddrFromBytes(env.Target); err == nil {
			if c := r.conns[to]; c != nil {
				targets = append(targets, c)
			} else {
				glog.Warningf("relay: %s unreachable from %s", to, from)
			}
		}
	} else {
		for a, c := range r.conns {
			if a != from {
				targets = append(targets, c)
			}
		}
	}
	r.lock.RUnlock()
	for _, c := range targets {
		if err := c.write(pkt); err != nil {
			glog.Warningf("relay: forward: %v", err)
		}
	}
}
