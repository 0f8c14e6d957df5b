package api

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// ServiceConfig holds runtime configuration for the API service binary.
type ServiceConfig struct {
	Addr           string        `env:"ADDR,default=:8080"`
	DBDSN          string        `env:"DB_DSN,required"`
	NATSURL        string        `env:"NATS_URL"`
	RulesPath      string        `env:"ALERT_RULES_PATH"`
	AlertWindow    time.Duration `env:"ALERT_WINDOW,default=24h"`
	OTLPEndpoint   string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS,default=http://localhost:5173"`
	RequestsPerMin int           `env:"HTTP_REQUESTS_PER_MINUTE,default=600"`
}

// LoadServiceConfig returns a ServiceConfig populated from environment
// variables.
func LoadServiceConfig(ctx context.Context) (ServiceConfig, error) {
	var cfg ServiceConfig
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return ServiceConfig{}, err
	}
	return cfg, nil
}
