package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/alerts"
	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/reading"
)

func newTestAPI(t *testing.T) (*API, http.Handler) {
	t.Helper()

	store := newTestStore(t)
	seedCatalog(t, store)

	app, err := New(store, Config{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new api: %v", err)
	}
	router, err := app.Routes(RouterOptions{})
	if err != nil {
		t.Fatalf("routes: %v", err)
	}
	return app, router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPostReadingPersistsMeasurement(t *testing.T) {
	app, router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/readings", reading.Payload{
		EquipmentID: "PUMP_001",
		SensorID:    "MPU_001",
		Timestamp:   "2026-03-01T12:00:00Z",
		Channels:    map[string]any{"temperature": 72.4},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Measurement reading.Stored `json:"measurement"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Measurement.ID <= 0 {
		t.Fatalf("measurement id = %d", resp.Measurement.ID)
	}
	if resp.Measurement.Source != reading.SourceBridge {
		t.Fatalf("source = %q, want bridge default on the HTTP path", resp.Measurement.Source)
	}

	window, err := app.store.QueryWindow(context.Background(), "PUMP_001", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(window) != 1 {
		t.Fatalf("window = %+v", window)
	}
}

func TestPostReadingValidationFailure(t *testing.T) {
	_, router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/readings", reading.Payload{
		EquipmentID: "COMP_001",
		SensorID:    "MPU_001",
		Channels:    map[string]any{"humidity": 150.0},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body %s", rec.Code, rec.Body.String())
	}
}

func TestPostReadingUnknownSensor(t *testing.T) {
	_, router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/readings", reading.Payload{
		EquipmentID: "PUMP_001",
		SensorID:    "GHOST_SENSOR",
		Channels:    map[string]any{"temperature": 25.0},
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body %s", rec.Code, rec.Body.String())
	}
}

func TestPostReadingUnknownEquipment(t *testing.T) {
	_, router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/readings", reading.Payload{
		EquipmentID: "GHOST_001",
		SensorID:    "MPU_001",
		Channels:    map[string]any{"temperature": 25.0},
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body %s", rec.Code, rec.Body.String())
	}
}

func TestPostReadingRejectsUnknownFields(t *testing.T) {
	_, router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/readings", map[string]any{
		"equipment_id": "PUMP_001",
		"sensor_id":    "MPU_001",
		"channels":     map[string]any{"temperature": 25.0},
		"surprise":     true,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUpsertEquipmentHandler(t *testing.T) {
	_, router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/equipment", map[string]any{
		"id":       "FAN_001",
		"category": "Fan",
		"location": "Factory_B",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Equipment Equipment `json:"equipment"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Equipment.Category != "fan" {
		t.Fatalf("category = %q, want lowercased", resp.Equipment.Category)
	}
	if resp.Equipment.Status != StatusActive {
		t.Fatalf("status = %q, want default active", resp.Equipment.Status)
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/equipment", map[string]any{
		"id":       "FAN_002",
		"category": "fan",
		"status":   "exploded",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for bad status", rec.Code)
	}
}

func TestMeasurementWindowHandler(t *testing.T) {
	app, router := newTestAPI(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		m := measurement("PUMP_001", "MPU_001", base.Add(time.Duration(i)*time.Minute), func(m *reading.Measurement) {
			m.Temperature = floatPtr(70 + float64(i))
		})
		if _, err := app.store.AppendMeasurement(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	path := fmt.Sprintf("/v1/equipment/PUMP_001/measurements?since=%s", base.Add(time.Minute).Format(time.RFC3339))
	rec := doJSON(t, router, http.MethodGet, path, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Measurements []reading.Stored `json:"measurements"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Measurements) != 2 {
		t.Fatalf("measurements = %+v, want 2", resp.Measurements)
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/equipment/PUMP_001/measurements?since=lately", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for bad since", rec.Code)
	}
}

func TestAlertsHandler(t *testing.T) {
	app, router := newTestAPI(t)
	ctx := context.Background()

	now := time.Now().UTC()
	m := measurement("PUMP_001", "MPU_001", now.Add(-time.Minute), func(m *reading.Measurement) {
		m.Temperature = floatPtr(98.5)
	})
	if _, err := app.store.AppendMeasurement(ctx, m); err != nil {
		t.Fatal(err)
	}

	rec := doJSON(t, router, http.MethodGet, "/v1/alerts", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Alerts []alerts.Alert `json:"alerts"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Alerts) != 1 {
		t.Fatalf("alerts = %+v, want one", resp.Alerts)
	}
	a := resp.Alerts[0]
	if a.Rule != alerts.RuleTemperatureCritical || a.Severity != alerts.SeverityCritical {
		t.Fatalf("alert = %+v", a)
	}
}

func TestKPIHandler(t *testing.T) {
	app, router := newTestAPI(t)
	ctx := context.Background()

	m := measurement("TURB_001", "PRES_001", time.Now().UTC(), func(m *reading.Measurement) {
		m.Pressure = floatPtr(1013.25)
	})
	if _, err := app.store.AppendMeasurement(ctx, m); err != nil {
		t.Fatal(err)
	}

	rec := doJSON(t, router, http.MethodGet, "/v1/kpi/equipment", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Equipment []EquipmentSummary `json:"equipment"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Equipment) != 1 || resp.Equipment[0].EquipmentID != "TURB_001" {
		t.Fatalf("kpi = %+v", resp.Equipment)
	}
}

func TestHealthz(t *testing.T) {
	_, router := newTestAPI(t)

	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, "/readyz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz status = %d", rec.Code)
	}
}
