package bridge

// SyncState tells whether packets can be exchanged.
type SyncState int

const (
	// Syncing means sequence numbers are not agreed yet.
	Syncing SyncState = 0
	// Ready means packets can be sent.
	Ready SyncState = 0x01
	// Busy means a sync or packet is partially received.
	Busy SyncState = 0x02
)

// IsReady tells if packets can be sent.
func (s SyncState) IsReady() bool {
	return s&Ready != 0
}

// IsBusy tells if something is partially received.
func (s SyncState) IsBusy() bool {
	return s&Busy != 0
}

func (s SyncState) String() string {
	switch s {
	case Syncing:
		return "syncing"
	case Ready:
		return "ready"
	case Busy:
		return "syncing+busy"
	case Ready | Busy:
		return "ready+busy"
	}
	return "invalid"
}

// Step is the outcome of feeding the parser.
type Step struct {
	// Reply is syncREQ or syncACK when a sync byte must be sent, followed
	// by the local seq.
	Reply  byte
	State  SyncState
	Packet *Packet
}

// needsTimer tells if a timeout should be armed after the step.
// Only an idle synced parser waits without limit.
func (s Step) needsTimer() bool {
	return s.State != Ready
}

type parsePos int

const (
	posWaitSync    parsePos = iota // REQ sent, expecting ACK or REQ
	posReqSeq                      // REQ received, expecting seq
	posAckSeq                      // ACK received, expecting seq
	posIdle                        // synced, expecting seq of next packet
	posIdleAckSeq                  // ACK received when synced
	posCode                        // expecting code and length
	posLen                         // expecting long length
	posData                        // expecting data
)

// Parser is the receiving half of the protocol.
type Parser struct {
	pos      parsePos
	expected Seq
	pkt      *Packet
	filled   int
}

// State reports the sync state.
func (p *Parser) State() SyncState {
	switch {
	case p.pos == posWaitSync:
		return Syncing
	case p.pos == posIdle:
		return Ready
	case p.pos > posIdle:
		return Ready | Busy
	}
	return Syncing | Busy
}

// Reset drops everything and asks for sync.
func (p *Parser) Reset() Step {
	p.pkt = nil
	return p.step(p.resync())
}

// Timeout resyncs unless the parser is idle.
func (p *Parser) Timeout() Step {
	if p.pos == posIdle {
		return p.step(0, nil)
	}
	return p.step(p.resync())
}

// Feed consumes a received byte.
func (p *Parser) Feed(b byte) Step {
	return p.step(p.feed(b))
}

func (p *Parser) step(reply byte, pkt *Packet) Step {
	return Step{Reply: reply, State: p.State(), Packet: pkt}
}

func (p *Parser) feed(b byte) (byte, *Packet) {
	switch p.pos {
	case posWaitSync:
		if b == syncREQ {
			p.pos = posReqSeq
		} else if b == syncACK {
			p.pos = posAckSeq
		}
	case posReqSeq, posAckSeq:
		seq := Seq(b)
		if !seq.Valid() {
			return p.resync()
		}
		reply := p.pos == posReqSeq
		p.expected, p.pos = seq, posIdle
		if reply {
			return syncACK, nil
		}
	case posIdle:
		switch {
		case b == syncREQ:
			p.pos = posReqSeq
		case b == syncACK:
			p.pos = posIdleAckSeq
		case Seq(b) != p.expected:
			return p.resync()
		default:
			p.pkt = &Packet{Seq: p.expected}
			p.expected = p.expected.Next()
			p.pos = posCode
		}
	case posIdleAckSeq:
		if Seq(b) != p.expected {
			return p.resync()
		}
		p.pos = posIdle
	case posCode:
		p.pkt.Code = b & codeMask
		n := int(b>>4) & shortLimit
		if n == shortLimit {
			p.pos = posLen
			break
		}
		return p.expect(n)
	case posLen:
		if b > MaxDataLen {
			return p.resync()
		}
		return p.expect(int(b))
	case posData:
		p.pkt.Data[p.filled] = b
		if p.filled++; p.filled == len(p.pkt.Data) {
			return p.done()
		}
	}
	return 0, nil
}

func (p *Parser) expect(n int) (byte, *Packet) {
	if n == 0 {
		return p.done()
	}
	p.pkt.Data, p.filled = make([]byte, n), 0
	p.pos = posData
	return 0, nil
}

func (p *Parser) resync() (byte, *Packet) {
	p.pos, p.pkt = posWaitSync, nil
	return syncREQ, nil
}

func (p *Parser) done() (byte, *Packet) {
	pkt := p.pkt
	p.pos, p.pkt = posIdle, nil
	return 0, pkt
}
