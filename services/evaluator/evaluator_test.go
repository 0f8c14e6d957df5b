package evaluator

import (
	"reflect"
	"testing"
	"time"

	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/alerts"
	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/reading"
)

func TestTransition(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tempAlert := alerts.Alert{EquipmentID: "PUMP_001", Rule: "temperature-critical", Severity: alerts.SeverityCritical, Timestamp: base}
	humAlert := alerts.Alert{EquipmentID: "COMP_001", Rule: "humidity-high", Severity: alerts.SeverityWarning, Timestamp: base}

	s := &Service{active: make(map[stateKey]alerts.Alert)}

	raised, cleared := s.transition([]alerts.Alert{tempAlert, humAlert})
	if len(raised) != 2 || len(cleared) != 0 {
		t.Fatalf("first cycle: raised %d cleared %d, want 2 raised 0 cleared", len(raised), len(cleared))
	}

	// Same conditions again: steady state, no transitions.
	raised, cleared = s.transition([]alerts.Alert{tempAlert, humAlert})
	if len(raised) != 0 || len(cleared) != 0 {
		t.Fatalf("steady state: raised %d cleared %d, want none", len(raised), len(cleared))
	}

	// Humidity recovers, pressure starts firing.
	pressAlert := alerts.Alert{EquipmentID: "PUMP_001", Rule: "pressure-anomaly", Severity: alerts.SeverityCritical, Timestamp: base.Add(time.Minute)}
	raised, cleared = s.transition([]alerts.Alert{tempAlert, pressAlert})
	if len(raised) != 1 || raised[0].Rule != "pressure-anomaly" {
		t.Fatalf("raised = %+v, want single pressure-anomaly", raised)
	}
	if len(cleared) != 1 || cleared[0].Rule != "humidity-high" {
		t.Fatalf("cleared = %+v, want single humidity-high", cleared)
	}

	// Everything recovers.
	raised, cleared = s.transition(nil)
	if len(raised) != 0 || len(cleared) != 2 {
		t.Fatalf("recovery: raised %d cleared %d, want 0 raised 2 cleared", len(raised), len(cleared))
	}
	if len(s.active) != 0 {
		t.Fatalf("active set not emptied: %+v", s.active)
	}
}

func TestEquipmentIDs(t *testing.T) {
	window := []reading.Stored{
		{Measurement: reading.Measurement{EquipmentID: "TURB_001"}},
		{Measurement: reading.Measurement{EquipmentID: "PUMP_001"}},
		{Measurement: reading.Measurement{EquipmentID: "TURB_001"}},
		{Measurement: reading.Measurement{EquipmentID: "MOTOR_001"}},
	}

	got := equipmentIDs(window)
	want := []string{"MOTOR_001", "PUMP_001", "TURB_001"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("equipmentIDs = %v, want %v", got, want)
	}
}

func TestNilPredictorReturnsNoProbabilities(t *testing.T) {
	var p *Predictor
	if got := p.Probabilities(t.Context(), []string{"PUMP_001"}); got != nil {
		t.Fatalf("nil predictor returned %v", got)
	}
}
