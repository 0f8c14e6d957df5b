package alerts

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/reading"
)

// Alert is one rule-evaluation outcome over the supplied window.
type Alert struct {
	EquipmentID   string    `json:"equipment_id"`
	Rule          string    `json:"rule"`
	Severity      Severity  `json:"severity"`
	Value         float64   `json:"value"`
	Threshold     float64   `json:"threshold"`
	Source        string    `json:"source"`
	MeasurementID int64     `json:"measurement_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	Message       string    `json:"message"`
}

// Evaluator applies the configured rule set to a window of persisted
// measurements plus externally supplied failure probabilities. It performs
// no I/O and holds no state between calls, so repeated evaluation of the
// same inputs yields the same list.
type Evaluator struct {
	cfg Config
}

// NewEvaluator builds an Evaluator. A zero config falls back to defaults.
func NewEvaluator(cfg Config) *Evaluator {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	return &Evaluator{cfg: cfg}
}

// Evaluate scans the window oldest-to-newest and returns all matching alerts
// ordered by severity (CRITICAL first) then timestamp descending.
// probabilities maps equipment id to an ML failure probability; equipment
// without an entry simply has no ml-predicted-failure evaluation.
//
// Records carrying non-finite channel values are skipped and reported via
// the joined error; evaluation of the remaining records continues.
func (e *Evaluator) Evaluate(window []reading.Stored, probabilities map[string]float64) ([]Alert, error) {
	var (
		alerts []Alert
		errs   []error
	)

	latest := make(map[string]time.Time, 8)

	for i := range window {
		rec := &window[i]
		if err := checkFinite(rec); err != nil {
			errs = append(errs, err)
			continue
		}
		if ts, ok := latest[rec.EquipmentID]; !ok || rec.Timestamp.After(ts) {
			latest[rec.EquipmentID] = rec.Timestamp
		}
		alerts = append(alerts, e.evaluateRecord(rec)...)
	}

	for equipmentID, p := range probabilities {
		if alert, ok := e.evaluateProbability(equipmentID, p, latest[equipmentID]); ok {
			alerts = append(alerts, alert)
		}
	}

	alerts = dedupe(alerts)
	sortAlerts(alerts)

	return alerts, errors.Join(errs...)
}

func (e *Evaluator) evaluateRecord(rec *reading.Stored) []Alert {
	var out []Alert

	mk := func(rule string, sev Severity, value, threshold float64, msg string) Alert {
		return Alert{
			EquipmentID:   rec.EquipmentID,
			Rule:          rule,
			Severity:      sev,
			Value:         value,
			Threshold:     threshold,
			Source:        SourceThreshold,
			MeasurementID: rec.ID,
			Timestamp:     rec.Timestamp,
			Message:       msg,
		}
	}

	if t := rec.Temperature; t != nil {
		switch {
		case *t > e.cfg.TemperatureCritical:
			out = append(out, mk(RuleTemperatureCritical, SeverityCritical, *t, e.cfg.TemperatureCritical,
				fmt.Sprintf("temperature %.1f exceeds critical threshold %.1f", *t, e.cfg.TemperatureCritical)))
		case *t > e.cfg.TemperatureWarning:
			out = append(out, mk(RuleTemperatureWarning, SeverityWarning, *t, e.cfg.TemperatureWarning,
				fmt.Sprintf("temperature %.1f exceeds warning threshold %.1f", *t, e.cfg.TemperatureWarning)))
		}
	}

	if p := rec.Pressure; p != nil && (*p < e.cfg.PressureMin || *p > e.cfg.PressureMax) {
		out = append(out, mk(RulePressureAnomaly, SeverityCritical, *p, e.cfg.PressureMin,
			fmt.Sprintf("pressure %.1f outside operating band [%.0f, %.0f]", *p, e.cfg.PressureMin, e.cfg.PressureMax)))
	}

	if h := rec.Humidity; h != nil && *h > e.cfg.HumidityCritical {
		out = append(out, mk(RuleHumidityHigh, SeverityWarning, *h, e.cfg.HumidityCritical,
			fmt.Sprintf("humidity %.1f exceeds threshold %.1f", *h, e.cfg.HumidityCritical)))
	}

	if rec.FaultFlag {
		out = append(out, mk(RuleFaultFlag, SeverityCritical, 1, 1,
			"reading arrived with the fault flag set"))
	}

	return out
}

func (e *Evaluator) evaluateProbability(equipmentID string, p float64, ts time.Time) (Alert, bool) {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return Alert{}, false
	}

	var (
		sev       Severity
		threshold float64
	)
	switch {
	case p > e.cfg.MLProbabilityCritical:
		sev, threshold = SeverityCritical, e.cfg.MLProbabilityCritical
	case p > e.cfg.MLProbabilityWarning:
		sev, threshold = SeverityWarning, e.cfg.MLProbabilityWarning
	default:
		return Alert{}, false
	}

	return Alert{
		EquipmentID: equipmentID,
		Rule:        RuleMLPredictedFailure,
		Severity:    sev,
		Value:       p,
		Threshold:   threshold,
		Source:      SourceMLModel,
		Timestamp:   ts,
		Message:     fmt.Sprintf("predicted failure probability %.2f exceeds %.2f", p, threshold),
	}, true
}

// dedupe keeps the most recent alert per (equipment, rule) pair so the feed
// shows one row per active condition.
func dedupe(alerts []Alert) []Alert {
	type key struct {
		equipment string
		rule      string
	}
	kept := make(map[key]Alert, len(alerts))
	for _, a := range alerts {
		k := key{a.EquipmentID, a.Rule}
		prev, ok := kept[k]
		if !ok || a.Timestamp.After(prev.Timestamp) ||
			(a.Timestamp.Equal(prev.Timestamp) && a.MeasurementID > prev.MeasurementID) {
			kept[k] = a
		}
	}

	out := make([]Alert, 0, len(kept))
	for _, a := range kept {
		out = append(out, a)
	}
	return out
}

func sortAlerts(alerts []Alert) {
	sort.Slice(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		if a.Severity.rank() != b.Severity.rank() {
			return a.Severity.rank() < b.Severity.rank()
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		if a.EquipmentID != b.EquipmentID {
			return a.EquipmentID < b.EquipmentID
		}
		return a.Rule < b.Rule
	})
}

func checkFinite(rec *reading.Stored) error {
	for name, v := range rec.Channels() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &reading.ValidationError{
				Field:  name,
				Reason: fmt.Sprintf("non-finite value on measurement %d for %s", rec.ID, rec.EquipmentID),
			}
		}
	}
	return nil
}
