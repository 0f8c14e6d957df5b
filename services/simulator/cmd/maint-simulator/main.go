package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/bus"
	"github.com/WKyuki/Challenge-Hermes-Reply/services/simulator"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := simulator.LoadConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	b, err := bus.New(cfg.NATSURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect nats")
	}
	defer b.Close()

	sim, err := simulator.New(b, nil, cfg, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("build simulator")
	}

	log.Info().Dur("interval", cfg.Interval).Msg("starting maint-simulator")

	if err := sim.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("simulator loop")
	}
}
