package reading

import (
	"math"
	"time"
)

// Source identifies which kind of producer emitted a reading.
type Source string

const (
	SourceDevice    Source = "physical-device"
	SourceBridge    Source = "bridge-service"
	SourceSynthetic Source = "synthetic-generator"
)

// Valid reports whether s is one of the recognised producer kinds.
func (s Source) Valid() bool {
	switch s {
	case SourceDevice, SourceBridge, SourceSynthetic:
		return true
	}
	return false
}

// Canonical channel names carried by a measurement. Producers may use the
// short vibr_* aliases emitted by the ESP32 firmware.
const (
	ChannelTemperature = "temperature"
	ChannelPressure    = "pressure"
	ChannelVibration   = "vibration"
	ChannelHumidity    = "humidity"
	ChannelVibrationX  = "vibration_x"
	ChannelVibrationY  = "vibration_y"
	ChannelVibrationZ  = "vibration_z"
	ChannelGyroX       = "gyro_x"
	ChannelGyroY       = "gyro_y"
	ChannelGyroZ       = "gyro_z"
)

var channelAliases = map[string]string{
	"vibr_x": ChannelVibrationX,
	"vibr_y": ChannelVibrationY,
	"vibr_z": ChannelVibrationZ,
}

// Payload is the wire schema accepted from any producer. Channels and
// Timestamp are loosely typed on purpose: coercion failures become
// per-field ValidationErrors instead of opaque decode errors.
type Payload struct {
	EquipmentID   string         `json:"equipment_id"`
	SensorID      string         `json:"sensor_id"`
	Timestamp     any            `json:"timestamp,omitempty"`
	Channels      map[string]any `json:"channels"`
	FaultDetected *bool          `json:"fault_detected,omitempty"`
	Source        Source         `json:"source,omitempty"`
}

// SensorSpec carries the declared calibration of a provisioned sensor, the
// part of the Sensor entity the normalizer needs.
type SensorSpec struct {
	ID       string
	Unit     string
	RangeMin float64
	RangeMax float64
}

// Measurement is the canonical record produced by normalization. Channel
// pointers are nil when the producer did not supply the channel; absent is
// never zero-filled.
type Measurement struct {
	EquipmentID string     `json:"equipment_id"`
	SensorID    string     `json:"sensor_id"`
	Timestamp   time.Time  `json:"timestamp"`
	Temperature *float64   `json:"temperature,omitempty"`
	Pressure    *float64   `json:"pressure,omitempty"`
	Vibration   *float64   `json:"vibration,omitempty"`
	Humidity    *float64   `json:"humidity,omitempty"`
	VibrationX  *float64   `json:"vibration_x,omitempty"`
	VibrationY  *float64   `json:"vibration_y,omitempty"`
	VibrationZ  *float64   `json:"vibration_z,omitempty"`
	GyroX       *float64   `json:"gyro_x,omitempty"`
	GyroY       *float64   `json:"gyro_y,omitempty"`
	GyroZ       *float64   `json:"gyro_z,omitempty"`
	FaultFlag   bool       `json:"fault_flag"`
	Source      Source     `json:"source"`
}

// Channel returns the named canonical channel value, or nil when absent.
func (m *Measurement) Channel(name string) *float64 {
	switch name {
	case ChannelTemperature:
		return m.Temperature
	case ChannelPressure:
		return m.Pressure
	case ChannelVibration:
		return m.Vibration
	case ChannelHumidity:
		return m.Humidity
	case ChannelVibrationX:
		return m.VibrationX
	case ChannelVibrationY:
		return m.VibrationY
	case ChannelVibrationZ:
		return m.VibrationZ
	case ChannelGyroX:
		return m.GyroX
	case ChannelGyroY:
		return m.GyroY
	case ChannelGyroZ:
		return m.GyroZ
	}
	return nil
}

func (m *Measurement) setChannel(name string, value float64) bool {
	v := value
	switch name {
	case ChannelTemperature:
		m.Temperature = &v
	case ChannelPressure:
		m.Pressure = &v
	case ChannelVibration:
		m.Vibration = &v
	case ChannelHumidity:
		m.Humidity = &v
	case ChannelVibrationX:
		m.VibrationX = &v
	case ChannelVibrationY:
		m.VibrationY = &v
	case ChannelVibrationZ:
		m.VibrationZ = &v
	case ChannelGyroX:
		m.GyroX = &v
	case ChannelGyroY:
		m.GyroY = &v
	case ChannelGyroZ:
		m.GyroZ = &v
	default:
		return false
	}
	return true
}

// Channels returns the populated channels as a map, suitable for the raw
// JSONB column and for export.
func (m *Measurement) Channels() map[string]float64 {
	out := make(map[string]float64)
	for _, name := range []string{
		ChannelTemperature, ChannelPressure, ChannelVibration, ChannelHumidity,
		ChannelVibrationX, ChannelVibrationY, ChannelVibrationZ,
		ChannelGyroX, ChannelGyroY, ChannelGyroZ,
	} {
		if v := m.Channel(name); v != nil {
			out[name] = *v
		}
	}
	return out
}

// Stored is a Measurement after persistence: the canonical record plus the
// monotonic identity the store assigned on insert.
type Stored struct {
	ID int64 `json:"id"`
	Measurement
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
