package bridge

import (
	"io"
	"time"
)

const (
	syncREQ byte = 0xff
	syncACK byte = 0xfe

	eventBit   = 0x80
	errorBit   = 0x01
	codeMask   = 0x8f
	shortLimit = 7
	// MaxDataLen is the largest payload of a packet.
	MaxDataLen = 0x7f
)

// Host to dongle commands.
const (
	CmdAddPeer byte = 0x02
	CmdSend    byte = 0x04
	CmdAddr    byte = 0x06
)

// Dongle to host events.
const (
	EvtReceived byte = eventBit | 0x02
)

// Seq is a packet sequence number, valid in [1, 0xf0).
type Seq byte

// RandomSeq picks a starting sequence number.
func RandomSeq() Seq {
	return Seq(byte(time.Now().UnixNano())).Next()
}

// Next returns the sequence number after s.
func (s Seq) Next() Seq {
	if n := byte(s) + 1; n > 0 && n < 0xf0 {
		return Seq(n)
	}
	return 1
}

// Valid tells if s can appear on the wire.
func (s Seq) Valid() bool {
	return s > 0 && s < 0xf0
}

// Packet is a decoded packet.
type Packet struct {
	Seq  Seq
	Code byte
	Data []byte
}

// IsEvent tells an unsolicited packet from a reply.
func (p *Packet) IsEvent() bool {
	return p.Code&eventBit != 0
}

func (p *Packet) header() []byte {
	n := byte(len(p.Data))
	if n < shortLimit {
		return []byte{byte(p.Seq), p.Code&codeMask | n<<4}
	}
	return []byte{byte(p.Seq), p.Code&codeMask | shortLimit<<4, n}
}

// Bytes encodes the packet.
func (p *Packet) Bytes() []byte {
	return append(p.header(), p.Data...)
}

// WriteTo implements io.WriterTo.
func (p *Packet) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(p.Bytes())
	return int64(n), err
}
