package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/bjulian5/scmsource/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	cmd.Execute(ctx)
}
