package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/morse.go/pkg/framework"
	"github.com/robotalks/morse.go/pkg/link"
	"github.com/robotalks/morse.go/pkg/link/msgs"
	"github.com/robotalks/morse.go/pkg/link/websocket"
)

//go-build: CGO_ENABLED=0

var (
	listenAddr = ":8080"
)

func init() {
	flag.StringVar(&listenAddr, "listen", listenAddr, "HTTP listen address.")
}

func main() {
	flag.Parse()

	relay := websocket.NewRelay()
	relay.Observer = func(env *msgs.Envelope) {
		if glog.V(2) {
			from, _ := link.AddrFromBytes(env.Sender)
			glog.Infof("%s #%d type=%x target=%x", from, env.Sequence, env.TypeId, env.Target)
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/morse", relay.Handler())
	mux.HandleFunc("/endpoints", func(w http.ResponseWriter, r *http.Request) {
		addrs := relay.Endpoints()
		list := make([]string, len(addrs))
		for n, a := range addrs {
			list[n] = a.String()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(list)
	})
	server := &http.Server{Addr: listenAddr, Handler: mux}

	runner := fx.NewRunner().HandleSignals()
	err := fx.RunWithContextCancel(runner.Context, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}, func() error {
		glog.Infof("relay listening on %s", listenAddr)
		return server.ListenAndServe()
	})
	if err != nil && err != context.Canceled && err != http.ErrServerClosed {
		glog.Exit(err)
	}
}
