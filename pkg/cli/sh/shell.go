// Package sh provides an interactive shell talking to a Morse endpoint
// from the keyboard.
package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/robotalks/morse.go/pkg/endpoint"
	"github.com/robotalks/morse.go/pkg/link"
	"github.com/robotalks/morse.go/pkg/morse"
	"github.com/robotalks/morse.go/pkg/transcript"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell  *ishell.Shell
	Config *endpoint.Config
	Conn   *Conn
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	commands = []*ishell.Cmd{
		&ConnectCmd,
		&PeerCmd,
		&SendCmd,
		&SpaceCmd,
		&StatusCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *endpoint.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires a connection.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Conn == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// WithAutoConnect sets AutoConnect.
func (s *Shell) WithAutoConnect(en bool) *Shell {
	s.AutoConnect = en
	return s
}

// Connect opens the link at linkURL, or the configured one if empty,
// and registers the configured peer if any.
func (s *Shell) Connect(linkURL string) error {
	conf := *s.Config
	if linkURL != "" {
		conf.LinkURL = linkURL
	}
	l, err := conf.NewLink(context.Background())
	if err != nil {
		return err
	}
	conn := NewConn(l, s.printReceived)
	if conf.Transcript != "" {
		if conn.Transcript, err = transcript.Open(conf.Transcript); err != nil {
			conn.Close()
			return err
		}
	}
	if conf.Peer != "" {
		peer, err := conf.PeerAddr()
		if err == nil {
			err = conn.SetPeer(peer)
		}
		if err != nil {
			conn.Close()
			return err
		}
	}
	s.Disconnect()
	s.Conn = conn
	conn.Start()
	s.updatePrompt()
	return nil
}

// Disconnect disconnects current link.
func (s *Shell) Disconnect() {
	if s.Conn != nil {
		s.Conn.Close()
		s.Conn = nil
		s.Shell.SetPrompt(unconnectedPrompt)
	}
}

func (s *Shell) updatePrompt() {
	if s.Conn == nil {
		s.Shell.SetPrompt(unconnectedPrompt)
		return
	}
	prompt := s.Conn.Link.Local().String()
	if peer := s.Conn.Peer(); !peer.IsZero() {
		prompt += " -> " + peer.String()
	}
	s.Shell.SetPrompt(prompt + " > ")
}

func (s *Shell) printReceived(from link.Addr, tok morse.Token) {
	if s.OutputJSON {
		out, err := json.Marshal(map[string]string{"from": from.String(), "text": tok.String()})
		if err != nil {
			glog.Errorf("encode received: %v", err)
			return
		}
		s.Shell.Println(string(out))
		return
	}
	s.Shell.Printf("%s: %q\n", from, tok.String())
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect && s.Config.LinkURL != "" {
		if s.Interactive {
			s.Shell.Printf("Connecting %s ...\n", s.Config.LinkURL)
		}
		if err := s.Connect(""); err != nil {
			glog.Exitf("connect %q failed: %v", s.Config.LinkURL, err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			glog.Exit(err)
		}
		s.Disconnect()
		return
	}
	if s.Interactive {
		s.Shell.Run()
		s.Disconnect()
		return
	}
	glog.Exit("command expected")
}

var (
	// ConnectCmd opens a link.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "[LINK-URL]",
		Func: func(c *ishell.Context) {
			var linkURL string
			if len(c.Args) > 0 {
				linkURL = c.Args[0]
			}
			if err := ShellFrom(c).Connect(linkURL); err != nil {
				c.Err(err)
			}
		},
	}

	// PeerCmd shows or sets the peer.
	PeerCmd = ishell.Cmd{
		Name:    "peer",
		Aliases: []string{"p"},
		Help:    "[ADDR]",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			if len(c.Args) == 0 {
				if peer := s.Conn.Peer(); !peer.IsZero() {
					c.Println(peer.String())
				}
				return
			}
			peer, err := link.ParseAddr(c.Args[0])
			if err == nil {
				err = s.Conn.SetPeer(peer)
			}
			if err != nil {
				c.Err(err)
				return
			}
			s.updatePrompt()
		}),
	}

	// SendCmd sends text, one symbol per character.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "TEXT",
		Func: MustBeConnected(func(c *ishell.Context) {
			text := strings.Join(c.Args, " ")
			n, err := ShellFrom(c).Conn.SendText(context.Background(), text)
			if err != nil {
				c.Err(fmt.Errorf("sent %d symbols: %w", n, err))
				return
			}
			c.Printf("sent %d symbols\n", n)
		}),
	}

	// SpaceCmd sends a word space.
	SpaceCmd = ishell.Cmd{
		Name: "space",
		Help: "",
		Func: MustBeConnected(func(c *ishell.Context) {
			if err := ShellFrom(c).Conn.Send(context.Background(), morse.SpaceMessage()); err != nil {
				c.Err(err)
			}
		}),
	}

	// StatusCmd prints traffic counters.
	StatusCmd = ishell.Cmd{
		Name: "status",
		Help: "",
		Func: MustBeConnected(func(c *ishell.Context) {
			s := ShellFrom(c)
			st := s.Conn.Stats()
			if s.OutputJSON {
				out, err := json.Marshal(st)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			c.Printf("local %s peer %s sent %d received %d failed %d last %q\n",
				st.Local, st.Peer, st.Sent, st.Received, st.Failed, st.Last)
		}),
	}

	// DisconnectCmd closes current link.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(endpoint.NewConfig()).WithAutoConnect(true).Run(flag.Args()...)
}
