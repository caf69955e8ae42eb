package morse

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	events []string
}

func (r *recorder) SetIndicator(on bool) {
	r.events = append(r.events, fmt.Sprintf("led:%v", on))
}

func (r *recorder) Pulse(m Mark) {
	r.events = append(r.events, "pulse:"+m.String())
}

func (r *recorder) sleep(d time.Duration) {
	r.events = append(r.events, "sleep:"+d.String())
}

func newTestDecoder() (*Decoder, *recorder) {
	rec := &recorder{}
	d := NewDecoder(rec)
	d.Sleep = rec.sleep
	return d, rec
}

func TestDecodeCharacter(t *testing.T) {
	d, rec := newTestDecoder()
	tok := d.Decode(Frame([]Mark{Dot, Dash}, 2, false))
	require.Equal(t, Token{Kind: Character, Char: 'A'}, tok)
	require.Equal(t, "A", tok.String())
	require.Equal(t, []string{
		"led:false",
		"pulse:.", "sleep:100ms",
		"pulse:-", "sleep:100ms",
		"led:true",
	}, rec.events)
}

func TestDecodeSpace(t *testing.T) {
	d, rec := newTestDecoder()
	msg := Frame([]Mark{Dash, Dash}, 2, true)
	tok := d.Decode(msg)
	require.Equal(t, LiteralSpace, tok.Kind)
	require.Equal(t, " ", tok.String())
	require.Empty(t, rec.events)
}

func TestDecodeUnknown(t *testing.T) {
	testCases := []struct {
		name  string
		marks []Mark
	}{
		{"empty", nil},
		{"six dots", []Mark{Dot, Dot, Dot, Dot, Dot, Dot}},
		{"unused pattern", []Mark{Dot, Dot, Dash, Dash}},
		{"full", make([]Mark, Capacity)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, rec := newTestDecoder()
			tok := d.Decode(Frame(tc.marks, len(tc.marks), false))
			require.Equal(t, Unknown, tok.Kind)
			require.Equal(t, "?", tok.String())
			require.Len(t, rec.events, 2+2*len(tc.marks))
			require.Equal(t, "led:false", rec.events[0])
			require.Equal(t, "led:true", rec.events[len(rec.events)-1])
		})
	}
}

func TestDecodeAllCharacters(t *testing.T) {
	d, _ := newTestDecoder()
	for _, ent := range Table {
		p, _ := ParsePattern(ent.Pattern)
		tok := d.Decode(Frame(p, len(p), false))
		require.Equal(t, string(ent.Char), tok.String())
	}
}

func TestPulseDuration(t *testing.T) {
	require.Equal(t, 50*time.Millisecond, PulseDuration(Dot))
	require.Equal(t, 200*time.Millisecond, PulseDuration(Dash))
}

func TestTranslate(t *testing.T) {
	require.Equal(t, Token{Kind: LiteralSpace}, Translate(SpaceMessage()))
	require.Equal(t, Token{Kind: Character, Char: 'K'}, Translate(Frame([]Mark{Dash, Dot, Dash}, 3, false)))
	require.Equal(t, "?", Translate(Frame([]Mark{Dot, Dot, Dot, Dot, Dot, Dot}, 6, false)).String())
}
