package bridge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type feed struct {
	in   []byte // empty means timeout
	want Step
}

func synced() Step { return Step{State: Ready} }

func resync() Step { return Step{Reply: syncREQ, State: Syncing} }

func packet(seq Seq, code byte, data ...byte) Step {
	return Step{State: Ready, Packet: &Packet{Seq: seq, Code: code, Data: data}}
}

func TestParser(t *testing.T) {
	testCases := []struct {
		name  string
		feeds []feed
	}{
		{"sync by ack", []feed{
			{[]byte{syncACK, 1}, synced()},
			{[]byte{1, 0x02}, packet(1, 2)},
			{[]byte{2, 0x74, 0}, packet(2, 4)},
			{[]byte{3, 0x92, 7}, packet(3, 0x82, 7)},
			{[]byte{4, 0x76, 8, 1, 2, 3, 4, 5, 6, 7, 8}, packet(4, 6, 1, 2, 3, 4, 5, 6, 7, 8)},
		}},
		{"sync by req", []feed{
			{[]byte{syncREQ, 5}, Step{Reply: syncACK, State: Ready}},
			{[]byte{5, 0x02}, packet(5, 2)},
		}},
		{"garbage before sync", []feed{
			{[]byte{1, 2, 0x80, 0xf1}, Step{State: Syncing}},
			{[]byte{syncACK, 1}, synced()},
		}},
		{"invalid seq in sync", []feed{
			{[]byte{syncREQ, syncREQ}, resync()},
			{[]byte{syncACK, 0}, resync()},
			{[]byte{syncACK, 3}, synced()},
		}},
		{"timeout while syncing", []feed{
			{nil, resync()},
			{[]byte{syncACK}, Step{State: Syncing | Busy}},
			{nil, resync()},
		}},
		{"timeout while idle", []feed{
			{[]byte{syncACK, 1}, synced()},
			{nil, synced()},
		}},
		{"timeout inside packet", []feed{
			{[]byte{syncACK, 1}, synced()},
			{[]byte{1, 0x32, 1}, Step{State: Ready | Busy}},
			{nil, resync()},
		}},
		{"ack when synced", []feed{
			{[]byte{syncACK, 1}, synced()},
			{[]byte{syncACK, 1}, synced()},
			{[]byte{syncACK, 2}, resync()},
		}},
		{"resync when synced", []feed{
			{[]byte{syncACK, 1}, synced()},
			{[]byte{syncREQ, 9}, Step{Reply: syncACK, State: Ready}},
			{[]byte{9, 0x02}, packet(9, 2)},
		}},
		{"unexpected seq", []feed{
			{[]byte{syncACK, 1}, synced()},
			{[]byte{2}, resync()},
		}},
		{"length out of range", []feed{
			{[]byte{syncACK, 1}, synced()},
			{[]byte{1, 0x70, 0x80}, resync()},
		}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var p Parser
			for n, f := range tc.feeds {
				var s Step
				if len(f.in) == 0 {
					s = p.Timeout()
				}
				for _, b := range f.in {
					s = p.Feed(b)
				}
				require.Equalf(t, f.want, s, "feed %d", n)
			}
		})
	}
}

func TestParserReset(t *testing.T) {
	var p Parser
	p.Feed(syncACK)
	require.Equal(t, resync(), p.Reset())
	require.Equal(t, Syncing, p.State())
}

func TestStepTimer(t *testing.T) {
	require.True(t, Step{State: Syncing}.needsTimer())
	require.True(t, Step{State: Ready | Busy}.needsTimer())
	require.False(t, Step{State: Ready}.needsTimer())
	require.Equal(t, "ready+busy", (Ready | Busy).String())
}
