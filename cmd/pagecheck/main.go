package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		// A failed check run has already been reported.
		if !errors.Is(err, errChecksFailed) {
			fmt.Fprintln(os.Stderr, color.RedString("✗ %v", err))
		}
		os.Exit(1)
	}
}
