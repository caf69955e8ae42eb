package main

import (
	"context"
	"flag"
	"os"

	"github.com/golang/glog"

	fx "github.com/robotalks/morse.go/pkg/framework"
	"github.com/robotalks/morse.go/pkg/device"
	"github.com/robotalks/morse.go/pkg/device/joystick"
	"github.com/robotalks/morse.go/pkg/endpoint"
)

var (
	joystickIndex   = -1
	joystickVerbose bool
)

func init() {
	endpoint.SetupFlags()
	flag.IntVar(&joystickIndex, "joystick", joystickIndex, "Joystick index, detected if negative")
	flag.BoolVar(&joystickVerbose, "joystick-verbose", joystickVerbose, "Log joystick events")
}

func main() {
	flag.Parse()

	runner := fx.NewRunner().HandleSignals()
	conf := endpoint.NewConfig()
	lcd := device.NewLCD(os.Stdout)
	l, err := conf.OpenLink(runner.Context, lcd)
	if err != nil {
		glog.Exit(err)
	}

	buttons := joystick.NewButtons(joystickIndex)
	buttons.Verbose = joystickVerbose
	ctl, err := conf.NewController(l, buttons, device.NewConsole(os.Stderr), lcd)
	if err != nil {
		glog.Exit(err)
	}
	if ctl.Transcript != nil {
		defer ctl.Transcript.Close()
	}

	loop := fx.NewLoop().Add(ctl)
	if err := ctl.Start(runner.Context); err != nil {
		glog.Errorf("start: %v", err)
	}
	runner.Go(loop)
	if err := runner.Wait(); err != nil && err != context.Canceled {
		glog.Exit(err)
	}
}
