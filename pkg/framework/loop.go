package framework

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"
)

// DefaultInterval is the tick of a loop when Interval is not set.
const DefaultInterval = time.Millisecond

// Loop runs controllers by priority level once per tick, and the
// runners feeding them in the background.
type Loop struct {
	Interval time.Duration

	controllers [PriorityLevels][]Controller
	runners     []Runnable

	lock     sync.Mutex
	pending  []Message
	tick     uint64
	wakeUpCh chan struct{}
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type loopCtxKeyType struct{}

var loopCtxKey loopCtxKeyType

// LoopCtlFrom gets the LoopControl from the context passed to runners
// and controllers, nil if absent.
func LoopCtlFrom(ctx context.Context) LoopControl {
	ctl, _ := ctx.Value(loopCtxKey).(LoopControl)
	return ctl
}

// NewLoop creates a Loop.
func NewLoop() *Loop {
	return &Loop{Interval: DefaultInterval}
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers at a priority level.
// Controllers which are also Runnable are started with the loop.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	l.controllers[priorityLevel] = append(l.controllers[priorityLevel], ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// AddRunnable adds background runners.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Run implements Runnable.
func (l *Loop) Run(ctx context.Context) error {
	l.init()
	runner := NewRunnerWith(context.WithValue(ctx, loopCtxKey, LoopControl(l)))
	runner.Go(l.runners...)
	defer runner.Wait()

	interval := l.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Step(ctx)
		case <-l.wakeUpCh:
			l.Step(ctx)
		}
	}
}

// RunOrFail is intended to be used in main to simply run the loop.
func (l *Loop) RunOrFail() {
	if err := l.Run(context.Background()); err != nil && err != context.Canceled {
		glog.Exit(err)
	}
}

// Step runs exactly one iteration in the calling goroutine.
func (l *Loop) Step(ctx context.Context) {
	l.init()
	l.lock.Lock()
	l.tick++
	iter := &iteration{
		loop:     l,
		time:     time.Now(),
		tick:     l.tick,
		messages: l.pending,
	}
	l.pending = nil
	l.lock.Unlock()

	iter.ctx = context.WithValue(ctx, loopCtxKey, LoopControl(iter))
	for lv, ctls := range l.controllers {
		iter.level = lv
		for _, ctl := range ctls {
			if err := ctl.Control(iter); err != nil {
				glog.Errorf("controller error: %v", err)
			}
		}
	}
	if n := len(iter.messages); n > 0 && glog.V(3) {
		glog.Infof("tick %d: %d unprocessed messages dropped", iter.tick, n)
	}
}

// Tick returns the number of iterations run so far.
func (l *Loop) Tick() uint64 {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.tick
}

// PostMessage implements LoopControl.
func (l *Loop) PostMessage(msg Message) {
	l.lock.Lock()
	l.pending = append(l.pending, msg)
	l.lock.Unlock()
}

// TriggerNext implements LoopControl.
func (l *Loop) TriggerNext() {
	l.init()
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

func (l *Loop) init() {
	l.lock.Lock()
	if l.wakeUpCh == nil {
		l.wakeUpCh = make(chan struct{}, 1)
	}
	l.lock.Unlock()
}

type iteration struct {
	loop     *Loop
	ctx      context.Context
	time     time.Time
	tick     uint64
	level    int
	messages []Message
}

func (it *iteration) Context() context.Context { return it.ctx }
func (it *iteration) Time() time.Time          { return it.time }
func (it *iteration) Tick() uint64             { return it.tick }
func (it *iteration) PriorityLevel() int       { return it.level }
func (it *iteration) Messages() MessageStore   { return it }
func (it *iteration) PostMessage(msg Message)  { it.loop.PostMessage(msg) }
func (it *iteration) TriggerNext()             { it.loop.TriggerNext() }

func (it *iteration) AddMessages(msgs ...Message) {
	it.messages = append(it.messages, msgs...)
}

func (it *iteration) ProcessMessages(proc MessageProcessor) {
	msgs := it.messages
	it.messages = nil
	var remains []Message
	for n, msg := range msgs {
		mc := &messageContext{iter: it, msg: msg}
		proc.ProcessMessage(mc)
		if !mc.taken {
			remains = append(remains, msg)
		}
		if mc.stop {
			remains = append(remains, msgs[n+1:]...)
			break
		}
	}
	it.messages = append(remains, it.messages...)
}

type messageContext struct {
	iter  *iteration
	msg   Message
	taken bool
	stop  bool
}

func (c *messageContext) CurrentMessage() Message     { return c.msg }
func (c *messageContext) MessageTaken()               { c.taken = true }
func (c *messageContext) StopProcessing()             { c.stop = true }
func (c *messageContext) AddMessages(msgs ...Message) { c.iter.AddMessages(msgs...) }
