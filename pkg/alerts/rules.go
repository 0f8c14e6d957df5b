package alerts

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/reading"
)

// Severity orders alerts for reporting. CRITICAL sorts before WARNING.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
)

func (s Severity) rank() int {
	if s == SeverityCritical {
		return 0
	}
	return 1
}

// Recognised rule names.
const (
	RuleTemperatureCritical = "temperature-critical"
	RuleTemperatureWarning  = "temperature-warning"
	RulePressureAnomaly     = "pressure-anomaly"
	RuleHumidityHigh        = "humidity-high"
	RuleFaultFlag           = "fault-flag"
	RuleMLPredictedFailure  = "ml-predicted-failure"
)

// Alert sources.
const (
	SourceThreshold = "threshold"
	SourceMLModel   = "ml-model"
)

// Config holds the rule thresholds. The defaults are the domain constants
// from the demo rig; deployments tune them via YAML rather than recompiling.
type Config struct {
	TemperatureCritical   float64 `yaml:"temperature_critical"`
	TemperatureWarning    float64 `yaml:"temperature_warning"`
	PressureMin           float64 `yaml:"pressure_min"`
	PressureMax           float64 `yaml:"pressure_max"`
	HumidityCritical      float64 `yaml:"humidity_critical"`
	MLProbabilityCritical float64 `yaml:"ml_probability_critical"`
	MLProbabilityWarning  float64 `yaml:"ml_probability_warning"`
}

// DefaultConfig returns the stock threshold set.
func DefaultConfig() Config {
	return Config{
		TemperatureCritical:   95,
		TemperatureWarning:    85,
		PressureMin:           960,
		PressureMax:           1040,
		HumidityCritical:      80,
		MLProbabilityCritical: 0.8,
		MLProbabilityWarning:  0.6,
	}
}

// LoadConfig reads thresholds from a YAML file, filling any omitted field
// from the defaults. An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse rules file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.PressureMin >= c.PressureMax {
		return fmt.Errorf("pressure_min %g must be below pressure_max %g", c.PressureMin, c.PressureMax)
	}
	if c.TemperatureWarning > c.TemperatureCritical {
		return fmt.Errorf("temperature_warning %g must not exceed temperature_critical %g", c.TemperatureWarning, c.TemperatureCritical)
	}
	if c.MLProbabilityWarning > c.MLProbabilityCritical {
		return fmt.Errorf("ml_probability_warning %g must not exceed ml_probability_critical %g", c.MLProbabilityWarning, c.MLProbabilityCritical)
	}
	return nil
}

// Envelope maps the threshold set onto the normalizer's fault heuristic.
func (c Config) Envelope() reading.Envelope {
	return reading.Envelope{
		TemperatureCritical: c.TemperatureCritical,
		PressureMin:         c.PressureMin,
		PressureMax:         c.PressureMax,
		HumidityCritical:    c.HumidityCritical,
	}
}
