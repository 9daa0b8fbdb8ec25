package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/projectdiscovery/gologger"

	"github.com/cognicore/exapt/internal/runner"
)

func main() {
	opts := runner.ParseFlags()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := runner.New(opts)
	if err != nil {
		gologger.Fatal().Msgf("could not load inputs: %s", err)
	}
	if err := r.Run(ctx); err != nil {
		gologger.Fatal().Msgf("%s failed: %s", opts.Mode, err)
	}
}
