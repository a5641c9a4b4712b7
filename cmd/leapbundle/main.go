// Package main is the leapbundle command.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/leapbundle/internal/cli"
	"github.com/leapstack-labs/leapbundle/internal/engine"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := engine.ExitCode(cli.Execute(ctx, os.Args[1:]))
	stop()
	os.Exit(code)
}
