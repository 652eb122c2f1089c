package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/lexica-labs/lexica/internal/adapters/driving/cli"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.Execute(ctx, version)
	if shutdownErr := cli.Shutdown(); err == nil {
		err = shutdownErr
	}
	if err != nil {
		os.Exit(1)
	}
}
