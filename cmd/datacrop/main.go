package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"

	"github.com/menta2k/datacrop"
	"github.com/menta2k/datacrop/internal/cli"
)

func main() {
	root := cli.NewRootCmd()

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(datacrop.Version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
