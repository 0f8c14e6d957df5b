// Package simulator emits synthetic sensor readings for the seeded fleet,
// standing in for the ESP32 firmware during development.
package simulator

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/bus"
	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/reading"
)

// Device pairs one equipment with the sensor producing its readings and the
// channels that sensor emits.
type Device struct {
	EquipmentID string
	SensorID    string
	Channels    []string
}

// DefaultFleet mirrors the seeded catalog: one device per equipment.
func DefaultFleet() []Device {
	return []Device{
		{EquipmentID: "PUMP_001", SensorID: "MPU_001", Channels: []string{
			reading.ChannelTemperature,
			reading.ChannelGyroX, reading.ChannelGyroY, reading.ChannelGyroZ,
		}},
		{EquipmentID: "COMP_001", SensorID: "DHT_001", Channels: []string{
			reading.ChannelTemperature, reading.ChannelHumidity,
		}},
		{EquipmentID: "TURB_001", SensorID: "PRES_001", Channels: []string{
			reading.ChannelPressure,
		}},
		{EquipmentID: "MOTOR_001", SensorID: "VIBR_001", Channels: []string{
			reading.ChannelVibrationX, reading.ChannelVibrationY, reading.ChannelVibrationZ,
		}},
	}
}

// Simulator publishes one reading per device per tick. AnomalyRate is the
// probability a reading carries a value past the alert thresholds; FaultRate
// the probability the firmware fault flag is set.
type Simulator struct {
	bus   *bus.Bus
	fleet []Device
	rng   *rand.Rand
	log   zerolog.Logger

	interval    time.Duration
	anomalyRate float64
	faultRate   float64
}

// New creates a Simulator. A zero seed derives one from the clock.
func New(b *bus.Bus, fleet []Device, cfg Config, log zerolog.Logger) (*Simulator, error) {
	if b == nil {
		return nil, errors.New("bus is required")
	}
	if len(fleet) == 0 {
		fleet = DefaultFleet()
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Simulator{
		bus:         b,
		fleet:       fleet,
		rng:         rand.New(rand.NewSource(seed)),
		log:         log,
		interval:    cfg.Interval,
		anomalyRate: cfg.AnomalyRate,
		faultRate:   cfg.FaultRate,
	}, nil
}

// Run publishes readings until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, device := range s.fleet {
				payload := s.nextPayload(device, time.Now().UTC())
				if err := s.bus.Publish(ctx, bus.SubjectReadingsRaw, payload); err != nil {
					s.log.Warn().Err(err).Str("equipment_id", device.EquipmentID).Msg("publish reading")
				}
			}
		}
	}
}

// nextPayload draws channel values from the firmware's operating bands, with
// an occasional excursion past the alert thresholds.
func (s *Simulator) nextPayload(device Device, now time.Time) reading.Payload {
	channels := make(map[string]any, len(device.Channels))
	anomalous := s.rng.Float64() < s.anomalyRate

	for _, name := range device.Channels {
		channels[name] = round2(s.channelValue(name, anomalous))
	}

	fault := s.rng.Float64() < s.faultRate

	return reading.Payload{
		EquipmentID:   device.EquipmentID,
		SensorID:      device.SensorID,
		Timestamp:     now.Format(time.RFC3339Nano),
		Channels:      channels,
		FaultDetected: &fault,
		Source:        reading.SourceSynthetic,
	}
}

func (s *Simulator) channelValue(name string, anomalous bool) float64 {
	switch name {
	case reading.ChannelTemperature:
		if anomalous {
			return s.uniform(96, 120)
		}
		return s.uniform(20, 90)
	case reading.ChannelHumidity:
		if anomalous {
			return s.uniform(81, 100)
		}
		return s.uniform(30, 78)
	case reading.ChannelPressure:
		if anomalous {
			return s.uniform(1041, 1080)
		}
		return s.uniform(965, 1035)
	case reading.ChannelVibrationX, reading.ChannelVibrationY:
		return s.uniform(-10, 10)
	case reading.ChannelVibrationZ:
		return s.uniform(8, 12)
	case reading.ChannelGyroX, reading.ChannelGyroY:
		return s.uniform(-5, 5)
	case reading.ChannelGyroZ:
		return s.uniform(-1, 1)
	}
	return 0
}

func (s *Simulator) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
