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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/alerts"
	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/bus"
	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/db"
	"github.com/WKyuki/Challenge-Hermes-Reply/services/api"
	"github.com/WKyuki/Challenge-Hermes-Reply/services/evaluator"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := evaluator.LoadConfig(ctx)
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

	pool, err := db.Open(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer pool.Close()

	orm, err := db.OpenGorm(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("open orm")
	}
	defer func() {
		if err := db.CloseGorm(orm); err != nil {
			log.Error().Err(err).Msg("close orm")
		}
	}()

	b, err := bus.New(cfg.NATSURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect nats")
	}
	defer b.Close()

	store := &api.Store{DB: pool, ORM: orm, Bus: b}
	predictor := evaluator.NewPredictor(cfg.PredictorURL, log.Logger)

	svc, err := evaluator.NewService(store, b, rules, predictor, cfg.AlertWindow, cfg.Interval, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("build evaluator")
	}

	go func() {
		if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Fatal().Err(err).Msg("evaluation loop")
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.MetricsAddr).Msg("starting maint-evaluator")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("metrics server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown server")
	}
}
