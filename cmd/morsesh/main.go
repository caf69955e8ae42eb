package main

import (
	"github.com/robotalks/morse.go/pkg/cli/sh"
	"github.com/robotalks/morse.go/pkg/endpoint"

	_ "github.com/robotalks/morse.go/pkg/cli/cmds/transcript"
)

//go-build: CGO_ENABLED=0

func init() {
	endpoint.SetupFlags()
}

func main() {
	sh.Main()
}
