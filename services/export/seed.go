package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/WKyuki/Challenge-Hermes-Reply/services/api"
)

// Catalog is the declarative fleet description consumed by maintctl seed.
type Catalog struct {
	Equipment []CatalogEquipment `yaml:"equipment"`
	Sensors   []CatalogSensor    `yaml:"sensors"`
}

type CatalogEquipment struct {
	ID          string `yaml:"id"`
	Category    string `yaml:"category"`
	Location    string `yaml:"location"`
	InstallDate string `yaml:"install_date"`
	Status      string `yaml:"status"`
}

type CatalogSensor struct {
	ID        string  `yaml:"id"`
	Category  string  `yaml:"category"`
	Unit      string  `yaml:"unit"`
	RangeMin  float64 `yaml:"range_min"`
	RangeMax  float64 `yaml:"range_max"`
	Precision float64 `yaml:"precision"`
}

// DefaultCatalog returns the demo fleet used by the simulator.
func DefaultCatalog() Catalog {
	return Catalog{
		Equipment: []CatalogEquipment{
			{ID: "PUMP_001", Category: "pump", Location: "Factory_A", Status: api.StatusActive},
			{ID: "TURB_001", Category: "turbine", Location: "Factory_A", Status: api.StatusActive},
			{ID: "COMP_001", Category: "compressor", Location: "Factory_B", Status: api.StatusActive},
			{ID: "MOTOR_001", Category: "motor", Location: "Factory_B", Status: api.StatusActive},
		},
		Sensors: []CatalogSensor{
			{ID: "MPU_001", Category: "imu", Unit: "°C", RangeMin: -50, RangeMax: 200, Precision: 0.1},
			{ID: "DHT_001", Category: "climate", Unit: "%", RangeMin: 0, RangeMax: 100, Precision: 0.5},
			{ID: "PRES_001", Category: "pressure", Unit: "hPa", RangeMin: 300, RangeMax: 1100, Precision: 0.25},
			{ID: "VIBR_001", Category: "vibration", Unit: "mm/s", RangeMin: 0, RangeMax: 50, Precision: 0.01},
		},
	}
}

// LoadCatalog parses a YAML catalog file.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, err
	}

	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	return catalog, nil
}

// Seed upserts the catalog into the store. Existing rows are updated, so
// reseeding is safe.
func Seed(ctx context.Context, store *api.Store, catalog Catalog, stdout io.Writer) error {
	for _, eq := range catalog.Equipment {
		record := api.Equipment{
			ID:       eq.ID,
			Category: eq.Category,
			Location: eq.Location,
			Status:   eq.Status,
		}
		if record.Status == "" {
			record.Status = api.StatusActive
		}
		if eq.InstallDate != "" {
			installed, err := time.Parse("2006-01-02", eq.InstallDate)
			if err != nil {
				return fmt.Errorf("equipment %s: bad install_date: %w", eq.ID, err)
			}
			record.InstallDate = &installed
		}

		if _, err := store.UpsertEquipment(ctx, record); err != nil {
			return fmt.Errorf("seed equipment %s: %w", eq.ID, err)
		}
	}

	for _, sensor := range catalog.Sensors {
		record := api.Sensor{
			ID:        sensor.ID,
			Category:  sensor.Category,
			Unit:      sensor.Unit,
			RangeMin:  sensor.RangeMin,
			RangeMax:  sensor.RangeMax,
			Precision: sensor.Precision,
		}
		if _, err := store.UpsertSensor(ctx, record); err != nil {
			return fmt.Errorf("seed sensor %s: %w", sensor.ID, err)
		}
	}

	if stdout != nil {
		fmt.Fprintf(stdout, "seeded %d equipment and %d sensors\n", len(catalog.Equipment), len(catalog.Sensors))
	}
	return nil
}
