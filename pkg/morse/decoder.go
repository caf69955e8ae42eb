package morse

import "time"

// Feedback timing.
const (
	DotPulse  = 50 * time.Millisecond
	DashPulse = 200 * time.Millisecond
	MarkGap   = 100 * time.Millisecond
)

// PulseDuration returns how long the tone of a mark lasts.
func PulseDuration(m Mark) time.Duration {
	if m == Dash {
		return DashPulse
	}
	return DotPulse
}

// Feedback is the audible and visual output driven by the Decoder.
type Feedback interface {
	// SetIndicator switches the ready indicator.
	SetIndicator(on bool)
	// Pulse emits a tone for the mark and returns when it ends.
	Pulse(Mark)
}

// TokenKind classifies a decoded Token.
type TokenKind int

// Token kinds.
const (
	LiteralSpace TokenKind = iota
	Character
	Unknown
)

// Token is the outcome of decoding one Message.
type Token struct {
	Kind TokenKind
	Char rune
}

// String renders the token the way it is displayed.
func (t Token) String() string {
	switch t.Kind {
	case LiteralSpace:
		return " "
	case Character:
		return string(t.Char)
	}
	return "?"
}

// Decoder translates received messages into tokens.
type Decoder struct {
	Feedback Feedback
	// Sleep waits between marks, time.Sleep if nil.
	Sleep func(time.Duration)
}

// NewDecoder creates a Decoder.
func NewDecoder(fb Feedback) *Decoder {
	return &Decoder{Feedback: fb, Sleep: time.Sleep}
}

// Decode plays back the marks of msg and looks them up in the table.
// A space message yields LiteralSpace without any feedback.
func (d *Decoder) Decode(msg *Message) Token {
	if msg.Space {
		return Token{Kind: LiteralSpace}
	}
	sleep := d.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	d.setIndicator(false)
	pattern := msg.Pattern()
	for _, m := range pattern {
		if d.Feedback != nil {
			d.Feedback.Pulse(m)
		}
		sleep(MarkGap)
	}
	tok := Translate(msg)
	d.setIndicator(true)
	return tok
}

// Translate looks up msg without any feedback.
func Translate(msg *Message) Token {
	if msg.Space {
		return Token{Kind: LiteralSpace}
	}
	if c, ok := Lookup(msg.Pattern()); ok {
		return Token{Kind: Character, Char: c}
	}
	return Token{Kind: Unknown}
}

func (d *Decoder) setIndicator(on bool) {
	if d.Feedback != nil {
		d.Feedback.SetIndicator(on)
	}
}
