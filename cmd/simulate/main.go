package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/raterudder/solartracker/pkg/ephemeris"
	"github.com/raterudder/solartracker/pkg/log"
	"github.com/raterudder/solartracker/pkg/scenario"
	"github.com/raterudder/solartracker/pkg/simulator"
	"github.com/raterudder/solartracker/pkg/types"

	"github.com/levenlabs/go-lflag"
)

func main() {
	providers := ephemeris.Configured()
	cfg := simulator.Configured()

	scenarioPath := lflag.RequiredString("scenario", "Path to the YAML scenario file")
	dailyOnly := lflag.Bool("daily", false, "Only print daily averages and the summary, not every record")
	provider := lflag.String("provider", "", "Override the scenario's ephemeris provider")

	lflag.Configure()

	// stdout carries the results so logs go to stderr
	if _, err := log.Configure(os.Stderr); err != nil {
		panic(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sc, err := scenario.Load(*scenarioPath)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to load scenario", slog.Any("error", err))
		os.Exit(1)
	}
	if *provider != "" {
		sc.Provider = *provider
	}

	run, err := sc.Build(providers, *cfg)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "invalid scenario", slog.Any("error", err))
		os.Exit(2)
	}
	log.Ctx(ctx).InfoContext(ctx, "running simulation", slog.String("run", run.String()))

	res, err := run.Execute(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "simulation failed", slog.Any("error", err))
		os.Exit(1)
	}
	if *dailyOnly {
		res.Records = []types.Record{}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to write results", slog.Any("error", err))
		os.Exit(1)
	}
}
