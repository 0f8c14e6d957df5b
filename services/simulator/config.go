package simulator

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds runtime configuration for the simulator.
type Config struct {
	NATSURL     string        `env:"NATS_URL,default=nats://127.0.0.1:4222"`
	Interval    time.Duration `env:"SIM_INTERVAL,default=2s"`
	AnomalyRate float64       `env:"SIM_ANOMALY_RATE,default=0.05"`
	FaultRate   float64       `env:"SIM_FAULT_RATE,default=0.02"`
	Seed        int64         `env:"SIM_SEED"`
}

// LoadConfig returns a Config populated from environment variables.
func LoadConfig(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
