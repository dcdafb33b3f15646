package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yndnr/sdncli-go/internal/cli/command"
	"github.com/yndnr/sdncli-go/internal/cli/config"
	"github.com/yndnr/sdncli-go/internal/infra/shutdown"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	path := config.ResolvePath(command.ConfigFlagValue(args[1:]))
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	h := shutdown.NewHandler(5 * time.Second)
	ctx, stop := h.Watch(context.Background())
	defer stop()

	app := command.WithShutdown(command.App(cfg, path), h)
	runErr := app.RunContext(ctx, args)
	if err := h.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	switch {
	case shutdown.Interrupted(ctx):
		fmt.Fprintln(os.Stderr, "error: interrupted")
		return 130
	case runErr != nil:
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		return 1
	}
	return 0
}
