package endpoint

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/morse.go/pkg/device"
	"github.com/robotalks/morse.go/pkg/link"
)

func TestConfigAddrs(t *testing.T) {
	conf := NewConfig()
	conf.Addr, conf.Peer = "02-00-00-00-00-01", "020000000002"
	local, err := conf.LocalAddr()
	require.NoError(t, err)
	require.Equal(t, link.MustParseAddr("02:00:00:00:00:01"), local)
	peer, err := conf.PeerAddr()
	require.NoError(t, err)
	require.Equal(t, link.MustParseAddr("02:00:00:00:00:02"), peer)

	conf.Peer = ""
	_, err = conf.PeerAddr()
	require.Error(t, err)
	conf.Peer = "02:00"
	_, err = conf.PeerAddr()
	require.ErrorIs(t, err, link.ErrInvalidAddr)
}

func TestConfigNewLink(t *testing.T) {
	conf := NewConfig()
	conf.Addr = "02:00:00:00:00:01"

	conf.LinkURL = "udp://localhost:1234"
	_, err := conf.NewLink(context.Background())
	require.ErrorContains(t, err, "unsupported link scheme")

	dev := filepath.Join(t.TempDir(), "tty")
	require.NoError(t, os.WriteFile(dev, nil, 0600))
	conf.LinkURL = "file://" + dev
	l, err := conf.NewLink(context.Background())
	require.NoError(t, err)
	require.IsType(t, &link.PacketLink{}, l)
	require.Equal(t, "02:00:00:00:00:01", l.Local().String())
}

func TestConfigNewController(t *testing.T) {
	conf := NewConfig()
	conf.Peer = "02:00:00:00:00:0b"
	conf.WaitConfirm = true
	conf.Transcript = filepath.Join(t.TempDir(), "transcript.db")
	la, _ := link.Pipe(addrA, addrB)
	ctl, err := conf.NewController(la, &buttons{}, &recorder{}, device.NewLCD(nil))
	require.NoError(t, err)
	defer ctl.Transcript.Close()
	require.Equal(t, addrB, ctl.Peer)
	require.True(t, ctl.WaitConfirm)
	require.NotNil(t, ctl.Transcript)
}

func TestOpenLinkFailure(t *testing.T) {
	conf := NewConfig()
	conf.LinkURL = "udp://localhost:1234"
	conf.Addr = "02:00:00:00:00:01"
	lcd := device.NewLCD(nil)

	ctx, cancel := context.WithCancel(context.Background())
	var l link.Link
	done := make(chan error, 1)
	go func() {
		var err error
		l, err = conf.OpenLink(ctx, lcd)
		done <- err
	}()
	require.Never(t, func() bool { return len(done) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	require.Equal(t, []string{"Error initializi", "ng link"}, lcd.Lines())

	cancel()
	select {
	case err := <-done:
		require.Error(t, err)
		require.Nil(t, l)
	case <-time.After(time.Second):
		t.Fatal("OpenLink didn't return after cancel")
	}
}

func TestOpenLink(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "tty")
	require.NoError(t, err)
	f.Close()
	conf := NewConfig()
	conf.LinkURL = "file://" + f.Name()
	conf.Addr = "02:00:00:00:00:01"
	lcd := device.NewLCD(nil)
	l, err := conf.OpenLink(context.Background(), lcd)
	require.NoError(t, err)
	require.IsType(t, &link.PacketLink{}, l)
	require.Equal(t, []string{"", ""}, lcd.Lines())
}
