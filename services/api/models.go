package api

import (
	"time"

	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/reading"
)

// Equipment models a monitored industrial unit.
type Equipment struct {
	ID          string     `json:"id" db:"id"`
	Category    string     `json:"category" db:"category"`
	Location    string     `json:"location" db:"location"`
	InstallDate *time.Time `json:"install_date,omitempty" db:"install_date"`
	Status      string     `json:"status" db:"status"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Recognised equipment categories and statuses. Unknown categories are
// accepted (new plant hardware arrives faster than enum updates); statuses
// are closed.
const (
	StatusActive           = "active"
	StatusInactive         = "inactive"
	StatusUnderMaintenance = "under-maintenance"
)

// ValidStatus reports whether s is a recognised operational status.
func ValidStatus(s string) bool {
	switch s {
	case StatusActive, StatusInactive, StatusUnderMaintenance:
		return true
	}
	return false
}

// Sensor models a measurement source with its declared calibration.
type Sensor struct {
	ID        string    `json:"id" db:"id"`
	Category  string    `json:"category" db:"category"`
	Unit      string    `json:"unit" db:"unit"`
	RangeMin  float64   `json:"range_min" db:"range_min"`
	RangeMax  float64   `json:"range_max" db:"range_max"`
	Precision float64   `json:"precision" db:"precision"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Spec projects the sensor onto the calibration the normalizer needs.
func (s Sensor) Spec() reading.SensorSpec {
	return reading.SensorSpec{
		ID:       s.ID,
		Unit:     s.Unit,
		RangeMin: s.RangeMin,
		RangeMax: s.RangeMax,
	}
}

// EquipmentSummary is one row of the per-equipment KPI aggregate consumed by
// the dashboard layer.
type EquipmentSummary struct {
	EquipmentID      string     `json:"equipment_id" db:"equipment_id"`
	MeasurementCount int64      `json:"measurement_count" db:"measurement_count"`
	TemperatureMean  *float64   `json:"temperature_mean,omitempty" db:"temperature_mean"`
	TemperatureMin   *float64   `json:"temperature_min,omitempty" db:"temperature_min"`
	TemperatureMax   *float64   `json:"temperature_max,omitempty" db:"temperature_max"`
	PressureMean     *float64   `json:"pressure_mean,omitempty" db:"pressure_mean"`
	HumidityMean     *float64   `json:"humidity_mean,omitempty" db:"humidity_mean"`
	FaultCount       int64      `json:"fault_count" db:"fault_count"`
	LatestTimestamp  *time.Time `json:"latest_timestamp,omitempty" db:"latest_timestamp"`
}
