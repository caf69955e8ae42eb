package joystick

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/morse.go/pkg/device"
	fx "github.com/robotalks/morse.go/pkg/framework"
)

// RetryInterval is the wait before opening the device again.
const RetryInterval = time.Second

// Buttons maps joystick buttons to endpoint buttons: joystick button 0
// is the key, button 1 the space. Device opening is retried, and all
// buttons read released while no device is present.
type Buttons struct {
	// DeviceIndex selects /dev/input/jsN, negative for detection.
	DeviceIndex int
	Mapping     map[uint8]device.Button
	Verbose     bool
	Open        func(index int) (Device, error)

	lock    sync.RWMutex
	pressed map[device.Button]bool
}

// NewButtons creates Buttons with the default mapping.
func NewButtons(index int) *Buttons {
	return &Buttons{
		DeviceIndex: index,
		Mapping:     map[uint8]device.Button{0: device.KeyButton, 1: device.SpaceButton},
		pressed:     make(map[device.Button]bool),
	}
}

// Pressed implements device.Buttons.
func (b *Buttons) Pressed(btn device.Button) bool {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.pressed[btn]
}

// AddToLoop implements LoopAdder.
func (b *Buttons) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(b)
}

// Run implements Runnable.
func (b *Buttons) Run(ctx context.Context) error {
	retry := time.NewTimer(0)
	defer retry.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-retry.C:
		}
		dev, err := b.open()
		switch {
		case err != nil:
			glog.Errorf("open joystick: %v", err)
		case dev == nil:
			glog.V(1).Info("no joystick detected")
		default:
			glog.Infof("joystick %d %q opened, %d buttons", dev.Index(), dev.Name(), dev.ButtonCount())
			err = fx.RunWithContextCloser(ctx, dev, func() error {
				return b.poll(ctx, dev)
			})
			b.releaseAll()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			glog.Warningf("joystick %d: %v", dev.Index(), err)
		}
		retry.Reset(RetryInterval)
	}
}

func (b *Buttons) open() (Device, error) {
	open := b.Open
	if open == nil {
		open = Open
	}
	if b.DeviceIndex >= 0 {
		return open(b.DeviceIndex)
	}
	for index := 0; index < 32; index++ {
		dev, err := open(index)
		if err == nil || !os.IsNotExist(err) {
			return dev, err
		}
	}
	return nil, nil
}

func (b *Buttons) poll(ctx context.Context, dev Device) error {
	loopCtl := fx.LoopCtlFrom(ctx)
	for {
		ev, err := dev.ReadEvent()
		if err != nil {
			return err
		}
		if !ev.IsButton() {
			continue
		}
		if b.Verbose {
			glog.Infof("button %d: %v (init %v)", ev.Number, ev.Pressed(), ev.IsInit())
		}
		btn, ok := b.Mapping[ev.Number]
		if !ok {
			continue
		}
		b.lock.Lock()
		if b.pressed == nil {
			b.pressed = make(map[device.Button]bool)
		}
		b.pressed[btn] = ev.Pressed()
		b.lock.Unlock()
		if loopCtl != nil {
			loopCtl.TriggerNext()
		}
	}
}

func (b *Buttons) releaseAll() {
	b.lock.Lock()
	b.pressed = make(map[device.Button]bool)
	b.lock.Unlock()
}
