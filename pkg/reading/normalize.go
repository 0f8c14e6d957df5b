package reading

import (
	"encoding/json"
	"math"
	"strings"
	"time"
	"unicode"
)

// Envelope holds the default threshold set used for the opportunistic fault
// flag computed at normalization time. The authoritative evaluation over
// persisted history lives in pkg/alerts; the constants are the same domain
// numbers and are configurable there as well.
type Envelope struct {
	TemperatureCritical float64 `yaml:"temperature_critical"`
	PressureMin         float64 `yaml:"pressure_min"`
	PressureMax         float64 `yaml:"pressure_max"`
	HumidityCritical    float64 `yaml:"humidity_critical"`
}

// DefaultEnvelope returns the safe operating envelope used by the demo rig.
func DefaultEnvelope() Envelope {
	return Envelope{
		TemperatureCritical: 95,
		PressureMin:         960,
		PressureMax:         1040,
		HumidityCritical:    80,
	}
}

// Normalizer converts raw producer payloads into canonical Measurements.
// It is a pure transformation: no I/O, no retained state beyond config.
type Normalizer struct {
	envelope Envelope
}

// NewNormalizer builds a Normalizer. A zero envelope falls back to defaults.
func NewNormalizer(env Envelope) *Normalizer {
	if env == (Envelope{}) {
		env = DefaultEnvelope()
	}
	return &Normalizer{envelope: env}
}

// Hard per-channel invariants of the persisted schema. Checked here so a
// caller can short-circuit before attempting persistence; the store enforces
// the same bounds with CHECK constraints.
const (
	humidityMin    = 0
	humidityMax    = 100
	temperatureMin = -50
	temperatureMax = 200
)

// Channels the sensor's declared range applies to, keyed by declared unit.
// For mixed-unit sensors (empty or unrecognised unit) the declared range is
// not applied per channel; the hard invariants above still are.
var unitChannel = map[string]string{
	"°c":      ChannelTemperature,
	"c":       ChannelTemperature,
	"celsius": ChannelTemperature,
	"hpa":     ChannelPressure,
	"pa":      ChannelPressure,
	"%":       ChannelHumidity,
	"%rh":     ChannelHumidity,
	"mm/s":    ChannelVibration,
	"g":       ChannelVibration,
}

// Normalize validates p against the sensor's declared calibration and returns
// the canonical Measurement. arrival is used when the payload carries no
// timestamp. Any failure is a *ValidationError; nothing is persisted here.
func (n *Normalizer) Normalize(p Payload, spec SensorSpec, arrival time.Time) (Measurement, error) {
	equipmentID, err := normalizeID("equipment_id", p.EquipmentID)
	if err != nil {
		return Measurement{}, err
	}
	sensorID, err := normalizeID("sensor_id", p.SensorID)
	if err != nil {
		return Measurement{}, err
	}
	if spec.ID != "" && spec.ID != sensorID {
		return Measurement{}, validationf("sensor_id", "payload sensor %q does not match spec %q", sensorID, spec.ID)
	}

	ts, err := parseTimestamp(p.Timestamp, arrival)
	if err != nil {
		return Measurement{}, err
	}

	source := p.Source
	if source == "" {
		source = SourceSynthetic
	}
	if !source.Valid() {
		return Measurement{}, validationf("source", "unrecognised source %q", source)
	}

	m := Measurement{
		EquipmentID: equipmentID,
		SensorID:    sensorID,
		Timestamp:   ts,
		Source:      source,
	}

	rangedChannel := unitChannel[strings.ToLower(strings.TrimSpace(spec.Unit))]

	for name, raw := range p.Channels {
		canonical := strings.ToLower(strings.TrimSpace(name))
		if alias, ok := channelAliases[canonical]; ok {
			canonical = alias
		}

		value, err := coerceNumeric(canonical, raw)
		if err != nil {
			return Measurement{}, err
		}

		if err := checkChannelBounds(canonical, value); err != nil {
			return Measurement{}, err
		}
		if canonical == rangedChannel && spec.RangeMax > spec.RangeMin {
			if value < spec.RangeMin || value > spec.RangeMax {
				return Measurement{}, validationf(canonical, "value %g outside declared range [%g, %g]", value, spec.RangeMin, spec.RangeMax)
			}
		}

		if !m.setChannel(canonical, value) {
			return Measurement{}, validationf(canonical, "unknown channel")
		}
	}

	// Vibration magnitude derived from the three axes when the scalar
	// channel was not supplied directly.
	if m.Vibration == nil && m.VibrationX != nil && m.VibrationY != nil && m.VibrationZ != nil {
		mag := math.Sqrt(*m.VibrationX**m.VibrationX + *m.VibrationY**m.VibrationY + *m.VibrationZ**m.VibrationZ)
		m.Vibration = &mag
	}

	if p.FaultDetected != nil {
		m.FaultFlag = *p.FaultDetected
	} else {
		m.FaultFlag = n.faultHeuristic(&m)
	}

	return m, nil
}

func (n *Normalizer) faultHeuristic(m *Measurement) bool {
	if m.Temperature != nil && *m.Temperature > n.envelope.TemperatureCritical {
		return true
	}
	if m.Pressure != nil && (*m.Pressure < n.envelope.PressureMin || *m.Pressure > n.envelope.PressureMax) {
		return true
	}
	if m.Humidity != nil && *m.Humidity > n.envelope.HumidityCritical {
		return true
	}
	return false
}

func checkChannelBounds(name string, value float64) error {
	switch name {
	case ChannelHumidity:
		if value < humidityMin || value > humidityMax {
			return validationf(name, "humidity %g outside [%d, %d]", value, humidityMin, humidityMax)
		}
	case ChannelPressure:
		if value < 0 {
			return validationf(name, "pressure %g is negative", value)
		}
	case ChannelTemperature:
		if value < temperatureMin || value > temperatureMax {
			return validationf(name, "temperature %g outside [%d, %d]", value, temperatureMin, temperatureMax)
		}
	}
	return nil
}

func coerceNumeric(name string, raw any) (float64, error) {
	var value float64
	switch v := raw.(type) {
	case float64:
		value = v
	case float32:
		value = float64(v)
	case int:
		value = float64(v)
	case int64:
		value = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, validationf(name, "non-numeric value %q", v.String())
		}
		value = f
	default:
		return 0, validationf(name, "non-numeric value of type %T", raw)
	}
	if !finite(value) {
		return 0, validationf(name, "value is not finite")
	}
	return value, nil
}

func parseTimestamp(raw any, arrival time.Time) (time.Time, error) {
	switch v := raw.(type) {
	case nil:
		return arrival.UTC(), nil
	case time.Time:
		return v.UTC(), nil
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, validationf("timestamp", "unparseable timestamp %q", v)
	case float64:
		// Firmware emits epoch milliseconds.
		if !finite(v) || v < 0 {
			return time.Time{}, validationf("timestamp", "invalid epoch value")
		}
		return time.UnixMilli(int64(v)).UTC(), nil
	case json.Number:
		ms, err := v.Int64()
		if err != nil || ms < 0 {
			return time.Time{}, validationf("timestamp", "invalid epoch value %q", v.String())
		}
		return time.UnixMilli(ms).UTC(), nil
	default:
		return time.Time{}, validationf("timestamp", "unsupported timestamp type %T", raw)
	}
}

func normalizeID(field, raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", validationf(field, "must not be empty")
	}
	if len(id) > 64 {
		return "", validationf(field, "longer than 64 characters")
	}
	for _, r := range id {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' {
			continue
		}
		return "", validationf(field, "contains invalid character %q", r)
	}
	return id, nil
}
