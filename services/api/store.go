package api

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"

	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/bus"
	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/reading"
)

// Store holds external dependencies required by the API layer. DB is the
// raw pgx pool used by sibling services; ORM is the gorm session every
// handler goes through; Bus may be nil when event publishing is disabled.
type Store struct {
	DB  *pgxpool.Pool
	ORM *gorm.DB
	Bus *bus.Bus
}

// AppendMeasurement inserts one canonical measurement and returns the
// monotonic identity the database assigned. Identity assignment and
// uniqueness checks happen inside the insert transaction, so concurrent
// producers serialize on the database rather than in Go.
func (s *Store) AppendMeasurement(ctx context.Context, m reading.Measurement) (int64, error) {
	model := newMeasurementModel(m)

	if err := s.ORM.WithContext(ctx).Create(&model).Error; err != nil {
		return 0, classifyStoreError("append measurement", err)
	}
	return model.ID, nil
}

// QueryWindow returns the measurements for one equipment unit with
// timestamp >= since, ordered oldest to newest. Unknown equipment yields an
// empty window, not an error.
func (s *Store) QueryWindow(ctx context.Context, equipmentID string, since time.Time) ([]reading.Stored, error) {
	var models []measurementModel
	err := s.ORM.WithContext(ctx).
		Where("equipment_id = ? AND timestamp >= ?", equipmentID, since.UTC()).
		Order("timestamp ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, classifyStoreError("query window", err)
	}

	out := make([]reading.Stored, 0, len(models))
	for _, m := range models {
		out = append(out, m.toStored())
	}
	return out, nil
}

// RecentWindow returns all measurements across equipment with
// timestamp >= since, ordered oldest to newest. Used by the alert feed and
// the evaluation cycle.
func (s *Store) RecentWindow(ctx context.Context, since time.Time) ([]reading.Stored, error) {
	var models []measurementModel
	err := s.ORM.WithContext(ctx).
		Where("timestamp >= ?", since.UTC()).
		Order("timestamp ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, classifyStoreError("recent window", err)
	}

	out := make([]reading.Stored, 0, len(models))
	for _, m := range models {
		out = append(out, m.toStored())
	}
	return out, nil
}

// AggregateByEquipment computes the per-equipment KPI rows. The same
// aggregate is exposed to SQL consumers as the equipment_summary view; this
// query is kept dialect-portable so the store tests can run it too.
func (s *Store) AggregateByEquipment(ctx context.Context) ([]EquipmentSummary, error) {
	var rows []EquipmentSummary
	err := s.ORM.WithContext(ctx).Raw(`
SELECT
	equipment_id,
	COUNT(*)         AS measurement_count,
	AVG(temperature) AS temperature_mean,
	MIN(temperature) AS temperature_min,
	MAX(temperature) AS temperature_max,
	AVG(pressure)    AS pressure_mean,
	AVG(humidity)    AS humidity_mean,
	SUM(CASE WHEN fault_flag THEN 1 ELSE 0 END) AS fault_count,
	MAX(timestamp)   AS latest_timestamp
FROM measurements
GROUP BY equipment_id
ORDER BY equipment_id
`).Scan(&rows).Error
	if err != nil {
		return nil, classifyStoreError("aggregate by equipment", err)
	}
	return rows, nil
}

// SensorSpec fetches the declared calibration for a provisioned sensor.
func (s *Store) SensorSpec(ctx context.Context, sensorID string) (reading.SensorSpec, error) {
	var model sensorModel
	err := s.ORM.WithContext(ctx).First(&model, "id = ?", sensorID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return reading.SensorSpec{}, &IntegrityError{Op: "sensor spec", Err: ErrNotFound}
	case err != nil:
		return reading.SensorSpec{}, classifyStoreError("sensor spec", err)
	}
	return model.toAPI().Spec(), nil
}

// EquipmentExists reports whether the equipment unit has been provisioned.
func (s *Store) EquipmentExists(ctx context.Context, equipmentID string) (bool, error) {
	var count int64
	err := s.ORM.WithContext(ctx).
		Model(&equipmentModel{}).
		Where("id = ?", equipmentID).
		Count(&count).Error
	if err != nil {
		return false, classifyStoreError("equipment exists", err)
	}
	return count > 0, nil
}

// ListEquipment returns every provisioned equipment unit ordered by id.
func (s *Store) ListEquipment(ctx context.Context) ([]Equipment, error) {
	var models []equipmentModel
	if err := s.ORM.WithContext(ctx).Order("id ASC").Find(&models).Error; err != nil {
		return nil, classifyStoreError("list equipment", err)
	}

	out := make([]Equipment, 0, len(models))
	for _, m := range models {
		out = append(out, m.toAPI())
	}
	return out, nil
}

// ListSensors returns every provisioned sensor ordered by id.
func (s *Store) ListSensors(ctx context.Context) ([]Sensor, error) {
	var models []sensorModel
	if err := s.ORM.WithContext(ctx).Order("id ASC").Find(&models).Error; err != nil {
		return nil, classifyStoreError("list sensors", err)
	}

	out := make([]Sensor, 0, len(models))
	for _, m := range models {
		out = append(out, m.toAPI())
	}
	return out, nil
}

// UpsertEquipment creates the equipment unit or updates its mutable fields.
func (s *Store) UpsertEquipment(ctx context.Context, eq Equipment) (Equipment, error) {
	orm := s.ORM.WithContext(ctx)

	var existing equipmentModel
	err := orm.First(&existing, "id = ?", eq.ID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		model := equipmentModel{
			ID:          eq.ID,
			Category:    eq.Category,
			Location:    eq.Location,
			InstallDate: eq.InstallDate,
			Status:      eq.Status,
		}
		if err := orm.Create(&model).Error; err != nil {
			return Equipment{}, classifyStoreError("create equipment", err)
		}
		return model.toAPI(), nil
	case err != nil:
		return Equipment{}, classifyStoreError("upsert equipment", err)
	default:
		updates := map[string]any{
			"category":   eq.Category,
			"location":   eq.Location,
			"status":     eq.Status,
			"updated_at": time.Now().UTC(),
		}
		if eq.InstallDate != nil {
			updates["install_date"] = eq.InstallDate
		}
		if err := orm.Model(&existing).Updates(updates).Error; err != nil {
			return Equipment{}, classifyStoreError("update equipment", err)
		}
		if err := orm.First(&existing, "id = ?", eq.ID).Error; err != nil {
			return Equipment{}, classifyStoreError("reload equipment", err)
		}
		return existing.toAPI(), nil
	}
}

// UpsertSensor creates the sensor or recalibrates its range and precision.
// Category and unit are immutable after creation.
func (s *Store) UpsertSensor(ctx context.Context, sensor Sensor) (Sensor, error) {
	orm := s.ORM.WithContext(ctx)

	var existing sensorModel
	err := orm.First(&existing, "id = ?", sensor.ID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		model := sensorModel{
			ID:        sensor.ID,
			Category:  sensor.Category,
			Unit:      sensor.Unit,
			RangeMin:  sensor.RangeMin,
			RangeMax:  sensor.RangeMax,
			Precision: sensor.Precision,
		}
		if err := orm.Create(&model).Error; err != nil {
			return Sensor{}, classifyStoreError("create sensor", err)
		}
		return model.toAPI(), nil
	case err != nil:
		return Sensor{}, classifyStoreError("upsert sensor", err)
	default:
		updates := map[string]any{
			"range_min":  sensor.RangeMin,
			"range_max":  sensor.RangeMax,
			"precision":  sensor.Precision,
			"updated_at": time.Now().UTC(),
		}
		if err := orm.Model(&existing).Updates(updates).Error; err != nil {
			return Sensor{}, classifyStoreError("update sensor", err)
		}
		if err := orm.First(&existing, "id = ?", sensor.ID).Error; err != nil {
			return Sensor{}, classifyStoreError("reload sensor", err)
		}
		return existing.toAPI(), nil
	}
}
