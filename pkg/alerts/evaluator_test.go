package alerts

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/reading"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func floatPtr(v float64) *float64 { return &v }

func stored(id int64, equipment string, ts time.Time, mutate func(*reading.Measurement)) reading.Stored {
	m := reading.Measurement{
		EquipmentID: equipment,
		SensorID:    "MPU_001",
		Timestamp:   ts,
		Source:      reading.SourceDevice,
	}
	if mutate != nil {
		mutate(&m)
	}
	return reading.Stored{ID: id, Measurement: m}
}

func rules(alerts []Alert) []string {
	out := make([]string, len(alerts))
	for i, a := range alerts {
		out[i] = a.Rule
	}
	return out
}

func TestEvaluateSingleHotReading(t *testing.T) {
	window := []reading.Stored{
		stored(1, "PUMP_001", base, func(m *reading.Measurement) {
			m.Temperature = floatPtr(98.5)
			m.Pressure = floatPtr(1050)
			m.Humidity = floatPtr(85.2)
		}),
	}

	alerts, err := NewEvaluator(Config{}).Evaluate(window, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{RuleTemperatureCritical, RulePressureAnomaly, RuleHumidityHigh}
	got := rules(alerts)
	if len(got) != 3 {
		t.Fatalf("rules = %v, want 3 alerts", got)
	}
	for _, rule := range want {
		found := false
		for _, g := range got {
			if g == rule {
				found = true
			}
		}
		if !found {
			t.Fatalf("missing rule %s in %v", rule, got)
		}
	}

	// Both CRITICAL alerts sort before the WARNING one.
	if alerts[0].Severity != SeverityCritical || alerts[1].Severity != SeverityCritical {
		t.Fatalf("severity order wrong: %+v", alerts)
	}
	if alerts[2].Rule != RuleHumidityHigh || alerts[2].Severity != SeverityWarning {
		t.Fatalf("last alert = %+v, want humidity WARNING", alerts[2])
	}
}

func TestEvaluateNominalReadingRaisesNothing(t *testing.T) {
	window := []reading.Stored{
		stored(1, "PUMP_001", base, func(m *reading.Measurement) {
			m.Temperature = floatPtr(75.5)
			m.Pressure = floatPtr(1013.25)
			m.Humidity = floatPtr(45.2)
		}),
	}

	alerts, err := NewEvaluator(Config{}).Evaluate(window, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 0 {
		t.Fatalf("nominal reading produced %+v", alerts)
	}
}

func TestEvaluateWarningBand(t *testing.T) {
	window := []reading.Stored{
		stored(1, "PUMP_001", base, func(m *reading.Measurement) {
			m.Temperature = floatPtr(90)
		}),
	}

	alerts, err := NewEvaluator(Config{}).Evaluate(window, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 1 || alerts[0].Rule != RuleTemperatureWarning || alerts[0].Severity != SeverityWarning {
		t.Fatalf("alerts = %+v, want single temperature WARNING", alerts)
	}
}

func TestEvaluateThresholdIsExclusive(t *testing.T) {
	window := []reading.Stored{
		stored(1, "PUMP_001", base, func(m *reading.Measurement) {
			m.Temperature = floatPtr(95)
			m.Humidity = floatPtr(80)
			m.Pressure = floatPtr(960)
		}),
	}

	alerts, err := NewEvaluator(Config{}).Evaluate(window, nil)
	if err != nil {
		t.Fatal(err)
	}
	// 95 triggers the warning band (> 85) but not critical; boundary values
	// on humidity and pressure trigger nothing.
	if len(alerts) != 1 || alerts[0].Rule != RuleTemperatureWarning {
		t.Fatalf("alerts = %v, want only temperature-warning", rules(alerts))
	}
}

func TestEvaluateLowPressureIsCritical(t *testing.T) {
	window := []reading.Stored{
		stored(1, "TURB_001", base, func(m *reading.Measurement) {
			m.Pressure = floatPtr(950)
		}),
	}

	alerts, err := NewEvaluator(Config{}).Evaluate(window, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 1 || alerts[0].Rule != RulePressureAnomaly || alerts[0].Severity != SeverityCritical {
		t.Fatalf("alerts = %+v", alerts)
	}
}

func TestEvaluateFaultFlag(t *testing.T) {
	window := []reading.Stored{
		stored(1, "MOTOR_001", base, func(m *reading.Measurement) {
			m.FaultFlag = true
		}),
	}

	alerts, err := NewEvaluator(Config{}).Evaluate(window, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 1 || alerts[0].Rule != RuleFaultFlag || alerts[0].Severity != SeverityCritical {
		t.Fatalf("alerts = %+v", alerts)
	}
}

func TestEvaluateMLProbability(t *testing.T) {
	window := []reading.Stored{
		stored(1, "PUMP_001", base, nil),
		stored(2, "PUMP_001", base.Add(time.Minute), nil),
	}

	cases := []struct {
		name        string
		probability float64
		wantRules   int
		wantSev     Severity
	}{
		{"critical", 0.85, 1, SeverityCritical},
		{"warning", 0.7, 1, SeverityWarning},
		{"warning boundary", 0.6, 0, ""},
		{"below band", 0.5, 0, ""},
		{"nan skipped", math.NaN(), 0, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			alerts, err := NewEvaluator(Config{}).Evaluate(window, map[string]float64{"PUMP_001": tc.probability})
			if err != nil {
				t.Fatal(err)
			}
			if len(alerts) != tc.wantRules {
				t.Fatalf("alerts = %+v, want %d", alerts, tc.wantRules)
			}
			if tc.wantRules == 1 {
				a := alerts[0]
				if a.Rule != RuleMLPredictedFailure || a.Severity != tc.wantSev || a.Source != SourceMLModel {
					t.Fatalf("alert = %+v", a)
				}
				// ML alerts carry the latest measurement time for the equipment.
				if !a.Timestamp.Equal(base.Add(time.Minute)) {
					t.Fatalf("timestamp = %v, want latest record time", a.Timestamp)
				}
			}
		})
	}
}

func TestEvaluateOrderingAndDedup(t *testing.T) {
	window := []reading.Stored{
		stored(1, "PUMP_001", base, func(m *reading.Measurement) {
			m.Temperature = floatPtr(99)
		}),
		stored(2, "PUMP_001", base.Add(time.Minute), func(m *reading.Measurement) {
			m.Temperature = floatPtr(101)
		}),
		stored(3, "COMP_001", base.Add(2*time.Minute), func(m *reading.Measurement) {
			m.Humidity = floatPtr(88)
		}),
	}

	alerts, err := NewEvaluator(Config{}).Evaluate(window, nil)
	if err != nil {
		t.Fatal(err)
	}

	// Two hot readings on the same pump collapse to the latest one.
	if len(alerts) != 2 {
		t.Fatalf("alerts = %+v, want 2 after dedup", alerts)
	}
	if alerts[0].Rule != RuleTemperatureCritical || alerts[0].Value != 101 || alerts[0].MeasurementID != 2 {
		t.Fatalf("first alert = %+v, want latest critical", alerts[0])
	}
	if alerts[1].Rule != RuleHumidityHigh {
		t.Fatalf("second alert = %+v, want humidity warning after critical", alerts[1])
	}
}

func TestEvaluateEmptyWindow(t *testing.T) {
	alerts, err := NewEvaluator(Config{}).Evaluate(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 0 {
		t.Fatalf("empty window produced %+v", alerts)
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	window := []reading.Stored{
		stored(1, "PUMP_001", base, func(m *reading.Measurement) {
			m.Temperature = floatPtr(98.5)
			m.Humidity = floatPtr(85)
		}),
		stored(2, "TURB_001", base.Add(time.Second), func(m *reading.Measurement) {
			m.Pressure = floatPtr(1050)
		}),
	}

	e := NewEvaluator(Config{})
	first, err := e.Evaluate(window, map[string]float64{"PUMP_001": 0.7})
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Evaluate(window, map[string]float64{"PUMP_001": 0.7})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated evaluation differs:\n%+v\n%+v", first, second)
	}
}

func TestEvaluateSkipsNonFiniteRecords(t *testing.T) {
	window := []reading.Stored{
		stored(1, "PUMP_001", base, func(m *reading.Measurement) {
			m.Temperature = floatPtr(math.Inf(1))
		}),
		stored(2, "TURB_001", base.Add(time.Second), func(m *reading.Measurement) {
			m.Pressure = floatPtr(1050)
		}),
	}

	alerts, err := NewEvaluator(Config{}).Evaluate(window, nil)
	if err == nil {
		t.Fatal("expected a joined error for the corrupt record")
	}
	if len(alerts) != 1 || alerts[0].EquipmentID != "TURB_001" {
		t.Fatalf("alerts = %+v, want evaluation of the healthy record to continue", alerts)
	}
}

func TestEvaluateCustomThresholds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TemperatureCritical = 60

	window := []reading.Stored{
		stored(1, "PUMP_001", base, func(m *reading.Measurement) {
			m.Temperature = floatPtr(65)
		}),
	}

	alerts, err := NewEvaluator(cfg).Evaluate(window, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 1 || alerts[0].Rule != RuleTemperatureCritical || alerts[0].Threshold != 60 {
		t.Fatalf("alerts = %+v, want critical at tuned threshold", alerts)
	}
}
