package endpoint

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/morse.go/pkg/device"
	fx "github.com/robotalks/morse.go/pkg/framework"
	"github.com/robotalks/morse.go/pkg/link"
	"github.com/robotalks/morse.go/pkg/link/msgs"
	"github.com/robotalks/morse.go/pkg/morse"
	"github.com/robotalks/morse.go/pkg/transcript"
)

var (
	addrA = link.MustParseAddr("02:00:00:00:00:0a")
	addrB = link.MustParseAddr("02:00:00:00:00:0b")
)

type recorder struct {
	events []string
	faults int
}

func (r *recorder) SetIndicator(on bool) {
	if on {
		r.events = append(r.events, "on")
	} else {
		r.events = append(r.events, "off")
	}
}

func (r *recorder) Pulse(m morse.Mark) {
	r.events = append(r.events, m.String())
}

func (r *recorder) SignalFault() {
	r.faults++
}

type buttons struct {
	key, space bool
}

func (b *buttons) Pressed(btn device.Button) bool {
	if btn == device.KeyButton {
		return b.key
	}
	return b.space
}

// statusLink publishes status into a slice.
type statusLink struct {
	*link.MemLink

	lock     sync.Mutex
	statuses []msgs.Status
}

func (l *statusLink) PublishStatus(_ context.Context, st *msgs.Status) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.statuses = append(l.statuses, *st)
	return nil
}

type node struct {
	t       *testing.T
	ctl     *Controller
	loop    *fx.Loop
	buttons *buttons
	act     *recorder
	lcd     *device.LCD
	link    *link.MemLink
}

func newNode(t *testing.T, l link.Link, mem *link.MemLink, peer link.Addr) *node {
	n := &node{
		t:       t,
		loop:    fx.NewLoop(),
		buttons: &buttons{},
		act:     &recorder{},
		lcd:     device.NewLCD(nil),
		link:    mem,
	}
	n.ctl = NewController(l, peer, n.buttons, n.act, n.lcd)
	n.ctl.Decoder.Sleep = func(time.Duration) {}
	n.loop.Add(n.ctl)
	return n
}

func newPair(t *testing.T) (*node, *node) {
	la, lb := link.Pipe(addrA, addrB)
	a, b := newNode(t, la, la, addrB), newNode(t, lb, lb, addrA)
	require.NoError(t, a.ctl.Start(context.Background()))
	require.NoError(t, b.ctl.Start(context.Background()))
	return a, b
}

func (n *node) step(times int) {
	for i := 0; i < times; i++ {
		n.loop.Step(context.Background())
	}
}

func (n *node) dot() {
	n.buttons.key = true
	n.step(1)
	n.buttons.key = false
	n.step(200)
}

func (n *node) dash() {
	n.buttons.key = true
	n.step(201)
	n.buttons.key = false
	n.step(1)
}

func (n *node) space() {
	n.buttons.space = true
	n.step(1)
	n.buttons.space = false
	n.step(500)
}

func (n *node) complete() {
	n.step(1200)
}

func (n *node) text() string {
	return strings.TrimSpace(n.lcd.Lines()[0])
}

func TestExchangeCharacter(t *testing.T) {
	a, b := newPair(t)
	require.Equal(t, PhaseRunning, a.ctl.Phase())
	require.Equal(t, []string{"on"}, a.act.events)

	a.dot()
	require.Equal(t, []string{"on", "off"}, a.act.events)
	a.step(1199)
	b.step(1)
	require.Empty(t, b.text())

	a.step(1)
	require.Equal(t, []string{"on", "off", "on"}, a.act.events)
	b.step(1)
	require.Equal(t, "E", b.text())
	require.Equal(t, []string{"on", "off", ".", "on"}, b.act.events)
	require.Equal(t, "E", b.ctl.Status().Last)

	// nothing more is sent
	a.step(3000)
	b.step(1)
	require.Equal(t, "E", b.text())
}

func TestExchangeWords(t *testing.T) {
	a, b := newPair(t)

	a.dash()
	a.complete()
	b.step(1)
	a.space()
	b.step(1)
	a.dot()
	a.dash()
	a.complete()
	b.step(1)
	require.Equal(t, "T A", b.text())

	a.dot()
	a.dot()
	a.dot()
	a.dot()
	a.dot()
	a.dot()
	a.complete()
	b.step(1)
	require.Equal(t, "T A?", b.text())
}

func TestSpaceDiscardsPartial(t *testing.T) {
	a, b := newPair(t)
	a.dash()
	a.dash()
	a.space()
	a.complete()
	b.step(1)
	require.Equal(t, " ", b.ctl.Status().Last)
	require.Equal(t, []string{"on"}, b.act.events)
}

func TestSendFailure(t *testing.T) {
	a, b := newPair(t)
	require.NoError(t, b.link.Close())
	a.dot()
	a.complete()
	require.Equal(t, 1, a.act.faults)
	require.Contains(t, a.ctl.Status().Fault, link.ErrUnreachable.Error())

	// recovers once the link works again
	la, lb := link.Pipe(addrA, addrB)
	a.ctl.Link = la
	require.NoError(t, la.AddPeer(addrB))
	lb.SetHandler(link.HandleFunc(func(context.Context, *link.Received) {}))
	a.dot()
	a.complete()
	require.Equal(t, 1, a.act.faults)
	require.Empty(t, a.ctl.Status().Fault)
}

func TestAddPeerFailure(t *testing.T) {
	la, _ := link.Pipe(addrA, addrB)
	n := newNode(t, la, la, link.Addr{})
	require.ErrorIs(t, n.ctl.Start(context.Background()), link.ErrInvalidAddr)
	require.Equal(t, PhaseFailed, n.ctl.Phase())
	require.Equal(t, []string{"Failed to add pe", "er"}, n.lcd.Lines())
	require.False(t, n.ctl.Status().Ready)

	// stalled: input is ignored
	n.dot()
	n.complete()
	require.Empty(t, n.act.events)
}

func TestIndicatorDuringSession(t *testing.T) {
	a, b := newPair(t)
	a.dot()
	require.Equal(t, []string{"on", "off"}, a.act.events)

	b.dash()
	b.complete()
	a.step(1)
	require.Equal(t, []string{"on", "off", "off", "-", "on", "off"}, a.act.events)
	require.Equal(t, "T", a.text())

	a.dot()
	require.Equal(t, "off", a.act.events[len(a.act.events)-1])
	a.complete()
	require.Equal(t, "on", a.act.events[len(a.act.events)-1])
	b.step(1)
	require.Equal(t, "I", b.text())
}

func TestConfirmFailure(t *testing.T) {
	la, _ := link.Pipe(addrA, addrB)
	n := newNode(t, la, la, link.Addr{})
	n.ctl.WaitConfirm = true
	require.NoError(t, n.ctl.Start(context.Background()))
	require.Equal(t, PhaseSetup, n.ctl.Phase())

	n.buttons.space = true
	n.step(1)
	n.buttons.space = false
	n.step(1)
	require.Equal(t, PhaseFailed, n.ctl.Phase())
	require.Equal(t, []string{"Failed to add pe", "er"}, n.lcd.Lines())
	require.Contains(t, n.ctl.Status().Fault, link.ErrInvalidAddr.Error())
}

func TestWaitConfirm(t *testing.T) {
	la, lb := link.Pipe(addrA, addrB)
	a := newNode(t, la, la, addrB)
	a.ctl.WaitConfirm = true
	b := newNode(t, lb, lb, addrA)
	require.NoError(t, b.ctl.Start(context.Background()))

	require.NoError(t, a.ctl.Start(context.Background()))
	require.Equal(t, PhaseSetup, a.ctl.Phase())
	require.Equal(t, []string{"Address: 02:00:0", "0:00:00:0A"}, a.lcd.Lines())

	// symbols before confirmation are dropped
	require.NoError(t, lb.AddPeer(addrA))
	require.NoError(t, lb.Send(context.Background(), addrA, morse.SpaceMessage()))
	a.step(10)
	require.Equal(t, PhaseSetup, a.ctl.Phase())

	a.buttons.space = true
	a.step(5)
	require.Equal(t, PhaseSetup, a.ctl.Phase())
	a.buttons.space = false
	a.step(1)
	require.Equal(t, PhaseRunning, a.ctl.Phase())
	require.Equal(t, []string{"", ""}, a.lcd.Lines())
	require.Equal(t, []string{"on"}, a.act.events)
	require.Empty(t, a.ctl.Status().Last)
}

func TestStatusPublished(t *testing.T) {
	la, lb := link.Pipe(addrA, addrB)
	sl := &statusLink{MemLink: la}
	a, b := newNode(t, sl, la, addrB), newNode(t, lb, lb, addrA)
	require.NoError(t, a.ctl.Start(context.Background()))
	require.NoError(t, b.ctl.Start(context.Background()))

	a.step(1)
	a.step(1)
	require.Len(t, sl.statuses, 1)
	require.True(t, sl.statuses[0].Ready)
	require.Equal(t, addrB.String(), sl.statuses[0].Peer)

	b.dash()
	b.dash()
	b.dash()
	b.complete()
	a.step(1)
	require.Len(t, sl.statuses, 2)
	require.Equal(t, "O", sl.statuses[1].Last)
}

func TestTranscript(t *testing.T) {
	a, b := newPair(t)
	var err error
	a.ctl.Transcript, err = transcript.Open(filepath.Join(t.TempDir(), "a.db"))
	require.NoError(t, err)
	defer a.ctl.Transcript.Close()
	b.ctl.Transcript, err = transcript.Open(filepath.Join(t.TempDir(), "b.db"))
	require.NoError(t, err)
	defer b.ctl.Transcript.Close()

	a.dot()
	a.dot()
	a.dot()
	a.complete()
	b.step(1)

	sent, err := a.ctl.Transcript.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	require.Equal(t, transcript.Sent, sent[0].Direction)
	require.Equal(t, "S", sent[0].Text)
	require.Equal(t, "...", sent[0].Pattern)

	received, err := b.ctl.Transcript.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, received, 1)
	require.Equal(t, transcript.Received, received[0].Direction)
	require.Equal(t, "S", received[0].Text)
	require.Equal(t, addrA.String(), received[0].Remote)
}
