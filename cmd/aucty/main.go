package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/catalogfi/aucty/cli"
)

var BinaryVersion = "undefined"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Run(ctx, BinaryVersion); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
