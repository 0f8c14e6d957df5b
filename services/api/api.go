package api

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/alerts"
	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/reading"
)

const defaultAlertWindow = 24 * time.Hour

// Config controls runtime behaviour for the API handlers.
type Config struct {
	// AlertWindow is how far back the on-demand alert feed looks.
	AlertWindow time.Duration
	// Rules holds the threshold set shared by the normalizer's fault
	// heuristic and the alert feed.
	Rules alerts.Config
}

// API wires the store, rule set, and configuration for the HTTP handlers.
type API struct {
	store      *Store
	config     Config
	normalizer *reading.Normalizer
	evaluator  *alerts.Evaluator
	log        zerolog.Logger
}

// New initialises the API layer with defaults applied to the provided
// configuration.
func New(store *Store, cfg Config, log zerolog.Logger) (*API, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if store.ORM == nil {
		return nil, errors.New("store ORM is required")
	}

	if cfg.AlertWindow <= 0 {
		cfg.AlertWindow = defaultAlertWindow
	}
	if cfg.Rules == (alerts.Config{}) {
		cfg.Rules = alerts.DefaultConfig()
	}

	return &API{
		store:      store,
		config:     cfg,
		normalizer: reading.NewNormalizer(cfg.Rules.Envelope()),
		evaluator:  alerts.NewEvaluator(cfg.Rules),
		log:        log,
	}, nil
}
