package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/catalogsync/svc/catalogsync"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := catalogsync.Main(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
