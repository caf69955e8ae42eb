// Package transcript adds shell commands reading the transcript.
package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/morse.go/pkg/cli/sh"
	"github.com/robotalks/morse.go/pkg/transcript"
)

// DefaultHistory is the number of entries listed by default.
const DefaultHistory = 20

var (
	// HistoryCmd lists recent transcript entries.
	HistoryCmd = ishell.Cmd{
		Name:    "history",
		Aliases: []string{"h"},
		Help:    "[N]",
		Func: func(c *ishell.Context) {
			limit := DefaultHistory
			if len(c.Args) > 0 {
				n, err := strconv.Atoi(c.Args[0])
				if err != nil || n <= 0 {
					c.Err(fmt.Errorf("invalid count %q", c.Args[0]))
					return
				}
				limit = n
			}
			s := sh.ShellFrom(c)
			entries, err := recent(s, limit)
			if err != nil {
				c.Err(err)
				return
			}
			if s.OutputJSON {
				if entries == nil {
					entries = []*transcript.Entry{}
				}
				out, err := json.Marshal(entries)
				if err != nil {
					c.Err(err)
					return
				}
				c.Println(string(out))
				return
			}
			for _, e := range entries {
				c.Println(Format(e))
			}
		},
	}
)

// Format renders an entry on one line.
func Format(e *transcript.Entry) string {
	peer := e.Remote
	arrow := "<-"
	if e.Direction == transcript.Sent {
		arrow = "->"
	}
	return fmt.Sprintf("%s %s %s %-6s %q", e.Time.Format("15:04:05.000"), arrow, peer, e.Pattern, e.Text)
}

func recent(s *sh.Shell, limit int) ([]*transcript.Entry, error) {
	if s.Conn != nil && s.Conn.Transcript != nil {
		return s.Conn.Transcript.Recent(context.Background(), limit)
	}
	if s.Config.Transcript == "" {
		return nil, fmt.Errorf("transcript not configured")
	}
	store, err := transcript.Open(s.Config.Transcript)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Recent(context.Background(), limit)
}

func init() {
	sh.AddCmds(&HistoryCmd)
}
