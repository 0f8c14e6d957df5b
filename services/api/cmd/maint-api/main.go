package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/alerts"
	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/bus"
	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/db"
	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/telemetry"
	"github.com/WKyuki/Challenge-Hermes-Reply/services/api"
)

const serviceName = "maint-api"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := api.LoadServiceConfig(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	rules := alerts.DefaultConfig()
	if cfg.RulesPath != "" {
		rules, err = alerts.LoadConfig(cfg.RulesPath)
		if err != nil {
			log.Fatal().Err(err).Msg("load alert rules")
		}
	}

	shutdownTelemetry, err := telemetry.Init(ctx, serviceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("init telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	pool, err := db.Open(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	orm, err := db.OpenGorm(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("open orm")
	}
	defer func() {
		if err := db.CloseGorm(orm); err != nil {
			log.Error().Err(err).Msg("close orm")
		}
	}()

	var b *bus.Bus
	if cfg.NATSURL != "" {
		b, err = bus.New(cfg.NATSURL)
		if err != nil {
			log.Fatal().Err(err).Msg("connect nats")
		}
		defer b.Close()
	} else {
		log.Warn().Msg("NATS_URL unset, event publishing disabled")
	}

	store := &api.Store{DB: pool, ORM: orm, Bus: b}

	app, err := api.New(store, api.Config{AlertWindow: cfg.AlertWindow, Rules: rules}, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("build api")
	}

	router, err := app.Routes(api.RouterOptions{
		AllowedOrigins: cfg.AllowedOrigins,
		RequestsPerMin: cfg.RequestsPerMin,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build router")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           telemetry.Middleware(serviceName, log.Logger)(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("starting maint-api")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown server")
	}
}
