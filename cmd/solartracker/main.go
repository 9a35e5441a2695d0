package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/raterudder/solartracker/pkg/ephemeris"
	"github.com/raterudder/solartracker/pkg/log"
	"github.com/raterudder/solartracker/pkg/server"
	"github.com/raterudder/solartracker/pkg/simulator"

	"github.com/levenlabs/go-lflag"
)

func main() {
	// init packages
	providers := ephemeris.Configured()
	cfg := simulator.Configured()

	// init server
	srv := server.Configured(providers, cfg)

	// parse flags
	lflag.Configure()

	// lflag automatically sets llog's level, but we need to set the slog level
	level, err := log.Configure(os.Stdout)
	if err != nil {
		panic(err)
	}
	slog.Debug("logger configured", slog.String("level", level.String()))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Run will block until context is canceled or error happens
	if err := srv.Run(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "server failed", "error", err)
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "server exited cleanly")
}
