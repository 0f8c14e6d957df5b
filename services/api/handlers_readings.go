package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/bus"
	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/reading"
)

func (a *API) handleReading(w http.ResponseWriter, r *http.Request) {
	var payload reading.Payload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	// Readings posted over HTTP come through the bridge unless the
	// producer says otherwise.
	if payload.Source == "" {
		payload.Source = reading.SourceBridge
	}

	ctx, cancel := withTimeout(r.Context())
	defer cancel()

	spec, err := a.store.SensorSpec(ctx, payload.SensorID)
	if err != nil {
		if _, idErr := normalizeRejectLog(a, payload, err); idErr != nil {
			// Identifiers were unusable; the validation error wins.
			respondStoreError(w, idErr)
			return
		}
		respondStoreError(w, err)
		return
	}

	m, err := a.normalizer.Normalize(payload, spec, time.Now().UTC())
	if err != nil {
		a.log.Warn().Err(err).
			Str("equipment_id", payload.EquipmentID).
			Str("sensor_id", payload.SensorID).
			Msg("reading rejected")
		respondStoreError(w, err)
		return
	}

	id, err := a.store.AppendMeasurement(ctx, m)
	if err != nil {
		a.log.Warn().Err(err).
			Str("equipment_id", m.EquipmentID).
			Str("sensor_id", m.SensorID).
			Msg("reading rejected")
		respondStoreError(w, err)
		return
	}

	stored := reading.Stored{ID: id, Measurement: m}
	a.publishJSON(bus.SubjectMeasurementsCreated, measurementCreatedEvent(stored))

	respondJSON(w, http.StatusCreated, map[string]any{"measurement": stored})
}

// measurementCreatedEvent is the wire shape shared with the ingest service.
func measurementCreatedEvent(stored reading.Stored) map[string]any {
	return map[string]any{
		"event_id":     uuid.NewString(),
		"measurement":  stored,
		"equipment_id": stored.EquipmentID,
		"sensor_id":    stored.SensorID,
		"fault_flag":   stored.FaultFlag,
	}
}

// normalizeRejectLog distinguishes "sensor missing" from "identifiers are
// garbage" so the producer sees the more precise failure.
func normalizeRejectLog(a *API, payload reading.Payload, lookupErr error) (reading.Measurement, error) {
	m, err := a.normalizer.Normalize(payload, reading.SensorSpec{}, time.Now().UTC())
	if err != nil && reading.IsValidation(err) {
		a.log.Warn().Err(err).
			Str("equipment_id", payload.EquipmentID).
			Str("sensor_id", payload.SensorID).
			Msg("reading rejected")
		return m, err
	}
	a.log.Warn().Err(lookupErr).
		Str("equipment_id", payload.EquipmentID).
		Str("sensor_id", payload.SensorID).
		Msg("reading rejected")
	return m, nil
}
