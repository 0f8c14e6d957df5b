// Package ingest consumes raw sensor readings from the bus, normalizes them
// against the provisioned sensor catalog and persists the canonical
// measurements.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/bus"
	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/db"
	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/reading"
)

const consumerDurable = "ingest-readings"

// Ingestor coordinates draining raw readings from NATS into the measurement
// store while emitting created/rejected events describing the outcome.
type Ingestor struct {
	pool       *pgxpool.Pool
	bus        *bus.Bus
	normalizer *reading.Normalizer
	log        zerolog.Logger

	subMu sync.Mutex
	sub   io.Closer
}

// NewIngestor constructs an Ingestor for the provided dependencies.
func NewIngestor(pool *pgxpool.Pool, b *bus.Bus, envelope reading.Envelope, log zerolog.Logger) (*Ingestor, error) {
	if pool == nil {
		return nil, errors.New("database pool is required")
	}
	if b == nil {
		return nil, errors.New("bus is required")
	}

	return &Ingestor{
		pool:       pool,
		bus:        b,
		normalizer: reading.NewNormalizer(envelope),
		log:        log,
	}, nil
}

// Start subscribes to raw readings and processes them until ctx is cancelled.
func (i *Ingestor) Start(ctx context.Context) error {
	if i == nil {
		return errors.New("nil ingestor")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	handler := func(msgCtx context.Context, data []byte) error {
		return i.handleReading(msgCtx, data)
	}

	sub, err := i.bus.Subscribe(ctx, bus.SubjectReadingsRaw, consumerDurable, handler)
	if err != nil {
		return err
	}

	i.subMu.Lock()
	i.sub = sub
	i.subMu.Unlock()

	return nil
}

// Close stops the underlying subscription if it was created.
func (i *Ingestor) Close() error {
	if i == nil {
		return nil
	}

	i.subMu.Lock()
	defer i.subMu.Unlock()

	if i.sub == nil {
		return nil
	}
	err := i.sub.Close()
	i.sub = nil
	return err
}

// handleReading processes one raw reading. Returning an error NAKs the
// message for redelivery, so only transient failures may propagate; malformed
// or integrity-violating readings are recorded and acknowledged.
func (i *Ingestor) handleReading(ctx context.Context, data []byte) error {
	readingsConsumed.Inc()

	var payload reading.Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		i.reject(ctx, payload, "undecodable payload", err)
		return nil
	}
	if payload.Source == "" {
		payload.Source = reading.SourceDevice
	}

	spec, err := i.sensorSpec(ctx, payload.SensorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			i.reject(ctx, payload, "unknown sensor", err)
			return nil
		}
		return err
	}

	m, err := i.normalizer.Normalize(payload, spec, time.Now().UTC())
	if err != nil {
		i.reject(ctx, payload, "normalization failed", err)
		return nil
	}

	id, err := i.insertMeasurement(ctx, m, data)
	if err != nil {
		if terminal(err) {
			i.reject(ctx, payload, "rejected by store", err)
			return nil
		}
		return err
	}

	readingsStored.Inc()
	stored := reading.Stored{ID: id, Measurement: m}
	return i.publishCreated(ctx, stored)
}

type sensorRow struct {
	ID       string  `db:"id"`
	Unit     string  `db:"unit"`
	RangeMin float64 `db:"range_min"`
	RangeMax float64 `db:"range_max"`
}

func (i *Ingestor) sensorSpec(ctx context.Context, sensorID string) (reading.SensorSpec, error) {
	var row sensorRow
	err := db.Get(ctx, i.pool, &row, `
SELECT id, unit, range_min, range_max
FROM sensors
WHERE id = $1
`, sensorID)
	if err != nil {
		return reading.SensorSpec{}, err
	}

	return reading.SensorSpec{
		ID:       row.ID,
		Unit:     row.Unit,
		RangeMin: row.RangeMin,
		RangeMax: row.RangeMax,
	}, nil
}

func (i *Ingestor) insertMeasurement(ctx context.Context, m reading.Measurement, raw []byte) (int64, error) {
	if !json.Valid(raw) {
		raw = []byte(`{}`)
	}

	var id int64
	err := db.Get(ctx, i.pool, &id, `
INSERT INTO measurements (
	equipment_id, sensor_id, timestamp,
	temperature, pressure, vibration, humidity,
	vibration_x, vibration_y, vibration_z,
	gyro_x, gyro_y, gyro_z,
	fault_flag, source, raw
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16::jsonb)
RETURNING id
`,
		m.EquipmentID, m.SensorID, m.Timestamp,
		m.Temperature, m.Pressure, m.Vibration, m.Humidity,
		m.VibrationX, m.VibrationY, m.VibrationZ,
		m.GyroX, m.GyroY, m.GyroZ,
		m.FaultFlag, string(m.Source), string(raw),
	)
	return id, err
}

func (i *Ingestor) publishCreated(ctx context.Context, stored reading.Stored) error {
	event := map[string]any{
		"event_id":     uuid.NewString(),
		"measurement":  stored,
		"equipment_id": stored.EquipmentID,
		"sensor_id":    stored.SensorID,
		"fault_flag":   stored.FaultFlag,
	}

	return i.bus.Publish(ctx, bus.SubjectMeasurementsCreated, event)
}

// reject records a terminal failure: the reading is counted, logged with its
// identifiers and announced on the rejected subject so operators can replay
// it once the producer is fixed.
func (i *Ingestor) reject(ctx context.Context, payload reading.Payload, reason string, cause error) {
	readingsRejected.WithLabelValues(reason).Inc()

	i.log.Warn().
		Err(cause).
		Str("equipment_id", payload.EquipmentID).
		Str("sensor_id", payload.SensorID).
		Str("reason", reason).
		Msg("reading rejected")

	event := map[string]any{
		"event_id":     uuid.NewString(),
		"equipment_id": payload.EquipmentID,
		"sensor_id":    payload.SensorID,
		"reason":       reason,
		"error":        cause.Error(),
		"rejected_at":  time.Now().UTC(),
	}

	if err := i.bus.Publish(ctx, bus.SubjectReadingsRejected, event); err != nil {
		i.log.Warn().Err(err).Msg("publish rejected event")
	}
}

// terminal reports whether a store error can never succeed on redelivery.
// Integrity violations (class 23) stay terminal; connection and serialization
// failures are worth a retry.
func terminal(err error) bool {
	if reading.IsValidation(err) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return len(pgErr.Code) >= 2 && pgErr.Code[:2] == "23"
	}
	return false
}
