// Package websocket carries link packets over websocket connections,
// either directly between endpoints or through a Relay.
package websocket

import (
	"fmt"
	"net/url"

	"golang.org/x/net/websocket"

	"github.com/robotalks/morse.go/pkg/link"
	"github.com/robotalks/morse.go/pkg/link/msgs"
)

// ReadWriter implements link.PacketReadWriter.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return (*ReadWriter)(conn)
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive((*websocket.Conn)(p), &pkt)
	return
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	return websocket.Message.Send((*websocket.Conn)(p), pkt)
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	return (*websocket.Conn)(p).Close()
}

// Dial opens a link through the relay at relayURL (ws:// or wss://) and
// announces the local address.
func Dial(relayURL string, local link.Addr, name string) (*link.PacketLink, error) {
	u, err := url.Parse(relayURL)
	if err != nil {
		return nil, fmt.Errorf("invalid relay URL: %v", err)
	}
	origin := "http://" + u.Host
	if u.Scheme == "wss" {
		origin = "https://" + u.Host
	}
	conn, err := websocket.Dial(relayURL, "", origin)
	if err != nil {
		return nil, err
	}
	l := link.NewPacketLink(local, New(conn))
	env, err := msgs.EnvelopeFrom(&msgs.Hello{Name: name})
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := l.SendEnvelope(env); err != nil {
		conn.Close()
		return nil, fmt.Errorf("hello: %v", err)
	}
	return l, nil
}
