package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"tts-mcp-go/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Execute(ctx, cli.NewTTSCommand(cli.StdStreams()), os.Stderr)
	stop()
	os.Exit(code)
}
