package export

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/reading"
)

func floatPtr(v float64) *float64 { return &v }

func TestNDJSONRoundTrip(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	window := []reading.Stored{
		{ID: 1, Measurement: reading.Measurement{
			EquipmentID: "PUMP_001",
			SensorID:    "MPU_001",
			Timestamp:   base,
			Temperature: floatPtr(72.4),
			Source:      reading.SourceDevice,
		}},
		{ID: 2, Measurement: reading.Measurement{
			EquipmentID: "TURB_001",
			SensorID:    "PRES_001",
			Timestamp:   base.Add(time.Minute),
			Pressure:    floatPtr(1013.25),
			FaultFlag:   true,
			Source:      reading.SourceSynthetic,
		}},
	}

	var buf bytes.Buffer
	if err := WriteNDJSON(&buf, window); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := ReadNDJSON(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(got, window) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, window)
	}
}

func TestNDJSONEmptyWindow(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteNDJSON(&buf, nil); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := ReadNDJSON(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty window, got %+v", got)
	}
}

func TestLoadCatalog(t *testing.T) {
	contents := `
equipment:
  - id: PUMP_001
    category: pump
    location: Factory_A
    install_date: "2024-06-01"
    status: active
sensors:
  - id: MPU_001
    category: imu
    unit: "°C"
    range_min: -50
    range_max: 200
    precision: 0.1
`
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}

	catalog, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if len(catalog.Equipment) != 1 || len(catalog.Sensors) != 1 {
		t.Fatalf("catalog = %+v", catalog)
	}
	if catalog.Equipment[0].ID != "PUMP_001" || catalog.Equipment[0].InstallDate != "2024-06-01" {
		t.Fatalf("equipment = %+v", catalog.Equipment[0])
	}
	sensor := catalog.Sensors[0]
	if sensor.Unit != "°C" || sensor.RangeMin != -50 || sensor.RangeMax != 200 {
		t.Fatalf("sensor = %+v", sensor)
	}
}

func TestDefaultCatalogCoversSimulatedFleet(t *testing.T) {
	catalog := DefaultCatalog()

	ids := make(map[string]bool)
	for _, eq := range catalog.Equipment {
		ids[eq.ID] = true
	}
	for _, want := range []string{"PUMP_001", "TURB_001", "COMP_001", "MOTOR_001"} {
		if !ids[want] {
			t.Fatalf("default catalog missing equipment %s", want)
		}
	}
}
