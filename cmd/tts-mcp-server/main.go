package main

import (
	"context"
	"os"

	"tts-mcp-go/internal/cli"
)

func main() {
	code := cli.Execute(context.Background(), cli.NewServerCommand(cli.StdStreams()), os.Stderr)
	os.Exit(code)
}
