package main

import (
	"context"
	"flag"
	"os"
	"strings"

	"github.com/golang/glog"

	fx "github.com/robotalks/morse.go/pkg/framework"
	"github.com/robotalks/morse.go/pkg/link"
	"github.com/robotalks/morse.go/pkg/link/mqtt"
	"github.com/robotalks/morse.go/pkg/link/msgs"
	"github.com/robotalks/morse.go/pkg/morse"
	"github.com/robotalks/morse.go/pkg/transcript"
)

var (
	mqttURL        = "mqtt://localhost:1883/morse/"
	transcriptPath string
	history        int
)

func init() {
	if val := os.Getenv("MORSE_LINK_URL"); strings.HasPrefix(val, "mqtt") || strings.HasPrefix(val, "ssl") {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&transcriptPath, "transcript", transcriptPath, "Record observed symbols into the database.")
	flag.IntVar(&history, "history", history, "Print the last N recorded symbols and exit.")
}

func main() {
	flag.Parse()

	var store *transcript.Store
	if transcriptPath != "" {
		var err error
		if store, err = transcript.Open(transcriptPath); err != nil {
			glog.Exit(err)
		}
		defer store.Close()
	}
	if history > 0 {
		printHistory(store)
		return
	}

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		glog.Exit(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		glog.Exit(token.Error())
	}
	defer q.Close()

	q.Sub("#", func(topic string, payload []byte) {
		observe(store, topic, payload)
	})

	runner := fx.NewRunner().HandleSignals()
	<-runner.Context.Done()
}

func printHistory(store *transcript.Store) {
	if store == nil {
		glog.Exit("-history requires -transcript")
	}
	entries, err := store.Recent(context.Background(), history)
	if err != nil {
		glog.Exit(err)
	}
	for _, e := range entries {
		glog.Infof("%s %s %s -> %s %s %q", e.Time.Format("15:04:05.000"), e.Direction, e.Remote, e.Local, e.Pattern, e.Text)
	}
	glog.Flush()
}

func observe(store *transcript.Store, topic string, payload []byte) {
	env, err := msgs.DecodeEnvelope(payload)
	if err != nil {
		glog.Warningf("%s: bad envelope: %v", topic, err)
		return
	}
	msg, err := env.Decode()
	if err != nil {
		glog.Warningf("%s: decode error: (type_id=%x) %v", topic, env.TypeId, err)
		return
	}
	sender, _ := link.AddrFromBytes(env.Sender)
	r, err := link.ReceivedFrom(env)
	if err != nil {
		glog.Warningf("%s: %v", topic, err)
		return
	}
	if r == nil {
		glog.Infof("%s: %s #%d %s", topic, sender, env.Sequence, msg.Serializable().String())
		return
	}
	tok := morse.Translate(r.Message).String()
	target, _ := link.AddrFromBytes(env.Target)
	glog.Infof("%s: %s -> %s #%d %s %q", topic, sender, target, env.Sequence, r.Message, tok)
	if store == nil {
		return
	}
	e := &transcript.Entry{
		Direction: transcript.Received,
		Local:     target.String(),
		Remote:    sender.String(),
		Pattern:   r.Message.Pattern().String(),
		Text:      tok,
	}
	if err := store.Record(context.Background(), e); err != nil {
		glog.Errorf("record: %v", err)
	}
}
