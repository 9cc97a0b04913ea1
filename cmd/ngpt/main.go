package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/earlysvahn/ngpt/cmd/ngpt/commands"
	"github.com/earlysvahn/ngpt/internal/client"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := commands.NewRootCommand(version).ExecuteContext(ctx)
	if err == nil {
		return
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "\nOperation cancelled by user.")
		stop()
		os.Exit(130)
	}
	fmt.Fprintln(os.Stderr, client.Describe(err))
	stop()
	os.Exit(1)
}
