package endpoint

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/morse.go/pkg/device"
	"github.com/robotalks/morse.go/pkg/link"
	"github.com/robotalks/morse.go/pkg/link/bridge"
	"github.com/robotalks/morse.go/pkg/link/mqtt"
	"github.com/robotalks/morse.go/pkg/link/stream"
	"github.com/robotalks/morse.go/pkg/link/websocket"
	"github.com/robotalks/morse.go/pkg/transcript"
)

// Config defines how an endpoint is set up.
type Config struct {
	// LinkURL selects the transport:
	//   mqtt://host:port/topic-prefix/
	//   ws://host:port/path        (relay)
	//   tcp://host:port            (dial) or tcp://:port (accept one peer)
	//   file:///dev/ttyX           (framed envelopes over a serial line)
	//   serial:///dev/ttyUSB0      (radio dongle)
	LinkURL string
	// Addr overrides the local address derived from the machine ID.
	// It's ignored with the radio dongle which has its own.
	Addr string
	// Peer is the address of the other endpoint.
	Peer string
	// Name is announced to the relay.
	Name string
	// WaitConfirm keeps the address on the display until the space button
	// is pressed.
	WaitConfirm bool
	// Transcript is the path of the transcript database, disabled if empty.
	Transcript string
	// SetupTimeout bounds connecting the link.
	SetupTimeout time.Duration
}

var defaultConfig = Config{
	LinkURL:      "mqtt://localhost:1883/morse/",
	Name:         "morse",
	SetupTimeout: 10 * time.Second,
}

func init() {
	if val := os.Getenv("MORSE_LINK_URL"); val != "" {
		defaultConfig.LinkURL = val
	}
	if val := os.Getenv("MORSE_ADDR"); val != "" {
		defaultConfig.Addr = val
	}
	if val := os.Getenv("MORSE_PEER"); val != "" {
		defaultConfig.Peer = val
	}
	if val := os.Getenv("MORSE_TRANSCRIPT"); val != "" {
		defaultConfig.Transcript = val
	}
	if host, err := os.Hostname(); err == nil {
		defaultConfig.Name = host
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.LinkURL, "link", defaultConfig.LinkURL, "Link URL: mqtt://, ws://, tcp://, file://, serial://")
	flag.StringVar(&defaultConfig.Addr, "addr", defaultConfig.Addr, "Local address, derived from machine ID if empty")
	flag.StringVar(&defaultConfig.Peer, "peer", defaultConfig.Peer, "Peer address, e.g. 24:6F:28:AB:CD:EF")
	flag.StringVar(&defaultConfig.Name, "name", defaultConfig.Name, "Name announced to the relay")
	flag.BoolVar(&defaultConfig.WaitConfirm, "confirm", defaultConfig.WaitConfirm, "Wait for the space button before starting")
	flag.StringVar(&defaultConfig.Transcript, "transcript", defaultConfig.Transcript, "Transcript database path")
	flag.DurationVar(&defaultConfig.SetupTimeout, "setup-timeout", defaultConfig.SetupTimeout, "Timeout connecting the link")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// LocalAddr resolves the local address.
func (c *Config) LocalAddr() (link.Addr, error) {
	if c.Addr != "" {
		return link.ParseAddr(c.Addr)
	}
	return link.LocalAddr()
}

// PeerAddr parses the peer address.
func (c *Config) PeerAddr() (link.Addr, error) {
	if c.Peer == "" {
		return link.Addr{}, fmt.Errorf("peer address required")
	}
	return link.ParseAddr(c.Peer)
}

// NewLink connects the link selected by LinkURL.
func (c *Config) NewLink(ctx context.Context) (link.Link, error) {
	u, err := url.Parse(c.LinkURL)
	if err != nil {
		return nil, fmt.Errorf("link URL: %w", err)
	}
	if c.SetupTimeout > 0 {
		var cancel func()
		ctx, cancel = context.WithTimeout(ctx, c.SetupTimeout)
		defer cancel()
	}
	if u.Scheme == "serial" {
		l, err := bridge.Open(ctx, u.Path)
		if err != nil {
			return nil, err
		}
		return l, nil
	}
	local, err := c.LocalAddr()
	if err != nil {
		return nil, fmt.Errorf("local address: %w", err)
	}
	switch u.Scheme {
	case "mqtt", "ssl":
		l, err := mqtt.NewLink(c.LinkURL, local)
		if err != nil {
			return nil, err
		}
		if err := l.Connect(); err != nil {
			return nil, err
		}
		return l, nil
	case "ws", "wss":
		l, err := websocket.Dial(c.LinkURL, local, c.Name)
		if err != nil {
			return nil, err
		}
		return l, nil
	case "tcp":
		var rw *stream.ReadWriter
		if u.Hostname() == "" {
			rw, err = stream.Accept(ctx, u.Host)
		} else {
			rw, err = stream.Dial(ctx, u.Host)
		}
		if err != nil {
			return nil, err
		}
		return link.NewPacketLink(local, rw), nil
	case "file":
		rw, err := stream.OpenDevice(u.Path)
		if err != nil {
			return nil, err
		}
		return link.NewPacketLink(local, rw), nil
	}
	return nil, fmt.Errorf("unsupported link scheme %q", u.Scheme)
}

// LinkInitFailed is displayed when the link can't be initialized.
const LinkInitFailed = "Error initializing link"

// OpenLink creates the link. On failure it reports on the display and
// stalls until ctx is done, then returns the error.
func (c *Config) OpenLink(ctx context.Context, display device.Display) (link.Link, error) {
	l, err := c.NewLink(ctx)
	if err == nil {
		return l, nil
	}
	glog.Errorf("link %s: %v", c.LinkURL, err)
	display.ClearAndWrite(LinkInitFailed)
	<-ctx.Done()
	return nil, err
}

// NewController creates a Controller on the link, with the transcript
// opened if configured.
func (c *Config) NewController(l link.Link, buttons device.Buttons, actuator device.Actuator, display device.Display) (*Controller, error) {
	peer, err := c.PeerAddr()
	if err != nil {
		return nil, err
	}
	ctl := NewController(l, peer, buttons, actuator, display)
	ctl.WaitConfirm = c.WaitConfirm
	if c.Transcript != "" {
		if ctl.Transcript, err = transcript.Open(c.Transcript); err != nil {
			return nil, err
		}
	}
	return ctl, nil
}
