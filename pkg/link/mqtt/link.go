package mqtt

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/morse.go/pkg/framework"
	"github.com/robotalks/morse.go/pkg/link"
	"github.com/robotalks/morse.go/pkg/link/msgs"
	"github.com/robotalks/morse.go/pkg/morse"
)

// DefaultSendTimeout bounds waiting for the broker to accept a message.
const DefaultSendTimeout = 2 * time.Second

// ErrTimeout indicates the broker didn't confirm in time.
var ErrTimeout = errors.New("mqtt timeout")

// RxTopic is where an endpoint receives symbols.
func RxTopic(a link.Addr) string {
	return a.Hex() + "/rx"
}

// StatusTopic is where an endpoint reports its status (retained).
func StatusTopic(a link.Addr) string {
	return a.Hex() + "/status"
}

// Link implements link.Link over MQTT.
type Link struct {
	link.PeerTable
	link.HandlerSlot

	Queue       *Queue
	SendTimeout time.Duration

	local link.Addr
	seq   uint32
	sub   *Subscription
}

// NewLink creates a Link for the local address. It's not connected
// until Connect is called.
func NewLink(brokerURL string, local link.Addr) (*Link, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	offline, err := encodeEnvelope(local, &msgs.Status{Fault: "offline"})
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+StatusTopic(local), offline, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("morse:" + local.Hex())
	}
	return &Link{
		Queue:       NewQueue(opts, topicPrefix),
		SendTimeout: DefaultSendTimeout,
		local:       local,
	}, nil
}

// Connect connects to the broker and subscribes the receiving topic.
func (l *Link) Connect() error {
	token := l.Queue.Connect()
	if !token.WaitTimeout(l.timeout()) {
		return ErrTimeout
	}
	if err := token.Error(); err != nil {
		return err
	}
	l.sub = l.Queue.Sub(RxTopic(l.local), l.handleMsg)
	l.sub.Token.Wait()
	return l.sub.Token.Error()
}

// Local implements link.Link.
func (l *Link) Local() link.Addr {
	return l.local
}

// Send implements link.Link.
func (l *Link) Send(ctx context.Context, to link.Addr, msg *morse.Message) error {
	if !l.HasPeer(to) {
		return link.ErrPeerNotRegistered
	}
	sym, err := msgs.NewSymbol(msg)
	if err != nil {
		return err
	}
	env, err := msgs.EnvelopeFrom(sym)
	if err != nil {
		return err
	}
	env.Target = to.Bytes()
	return l.publish(ctx, RxTopic(to), env, false)
}

// PublishStatus implements link.StatusPublisher.
func (l *Link) PublishStatus(ctx context.Context, st *msgs.Status) error {
	env, err := msgs.EnvelopeFrom(st)
	if err != nil {
		return err
	}
	return l.publish(ctx, StatusTopic(l.local), env, true)
}

func (l *Link) publish(ctx context.Context, topic string, env *msgs.Envelope, retain bool) error {
	env.Sender = l.local.Bytes()
	env.Sequence = atomic.AddUint32(&l.seq, 1)
	payload, err := env.Encode()
	if err != nil {
		return err
	}
	token := l.Queue.PubWith(topic, payload, 1, retain)
	timeout := l.timeout()
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}
	if !token.WaitTimeout(timeout) {
		return ErrTimeout
	}
	return token.Error()
}

func (l *Link) timeout() time.Duration {
	if l.SendTimeout > 0 {
		return l.SendTimeout
	}
	return DefaultSendTimeout
}

func (l *Link) handleMsg(topic string, payload []byte) {
	env, err := msgs.DecodeEnvelope(payload)
	if err != nil {
		glog.Warningf("%s: bad envelope: %v", topic, err)
		return
	}
	r, err := link.ReceivedFrom(env)
	if err != nil {
		glog.Warningf("%s: %v", topic, err)
		return
	}
	if r != nil && !l.Deliver(context.Background(), r) {
		glog.Warningf("symbol from %s dropped: no handler", r.From)
	}
}

// Run implements Runnable. It reports offline and disconnects when
// the context is canceled.
func (l *Link) Run(ctx context.Context) error {
	<-ctx.Done()
	if l.sub != nil {
		if err := l.sub.Close(); err != nil {
			glog.Warningf("unsubscribe: %v", err)
		}
	}
	if err := l.PublishStatus(context.Background(), &msgs.Status{Fault: "offline"}); err != nil {
		glog.Warningf("publish offline status: %v", err)
	}
	l.Queue.Close()
	return ctx.Err()
}

// AddToLoop implements LoopAdder.
func (l *Link) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(l)
}

func encodeEnvelope(sender link.Addr, msg fx.Message) ([]byte, error) {
	env, err := msgs.EnvelopeFrom(msg)
	if err != nil {
		return nil, err
	}
	env.Sender = sender.Bytes()
	return env.Encode()
}
