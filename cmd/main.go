package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"server-json-validator/internal/app"
	"server-json-validator/internal/config"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg := config.Load()

	fs := pflag.NewFlagSet("validate-server-json", pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: validate-server-json [flags] [data-path]\n\n")
		fs.PrintDefaults()
	}
	config.BindFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return app.ExitOK
		}
		return app.ExitFail
	}
	cfg.ApplyArgs(fs.Args())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := app.NewDefault(cfg)
	defer a.Shutdown()

	return a.Run(ctx)
}
