package ingest

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

// Config holds runtime configuration for the ingest service.
type Config struct {
	MetricsAddr string `env:"METRICS_ADDR,default=:9102"`
	DBDSN       string `env:"DB_DSN,required"`
	NATSURL     string `env:"NATS_URL,default=nats://127.0.0.1:4222"`
	RulesPath   string `env:"ALERT_RULES_PATH"`
}

// LoadConfig returns a Config populated from environment variables.
func LoadConfig(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
