package api

import (
	"time"

	"gorm.io/datatypes"

	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/reading"
)

type measurementModel struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	SensorID    string    `gorm:"type:text;not null;index"`
	EquipmentID string    `gorm:"type:text;not null;index:idx_measurements_equipment_ts,priority:1"`
	Timestamp   time.Time `gorm:"not null;index:idx_measurements_equipment_ts,priority:2"`
	Temperature *float64  `gorm:"check:chk_measurements_temperature,temperature IS NULL OR (temperature >= -50 AND temperature <= 200)"`
	Pressure    *float64  `gorm:"check:chk_measurements_pressure,pressure IS NULL OR pressure >= 0"`
	Vibration   *float64
	Humidity    *float64 `gorm:"check:chk_measurements_humidity,humidity IS NULL OR (humidity >= 0 AND humidity <= 100)"`
	VibrationX  *float64
	VibrationY  *float64
	VibrationZ  *float64
	GyroX       *float64
	GyroY       *float64
	GyroZ       *float64
	FaultFlag   bool              `gorm:"not null;default:false"`
	Source      string            `gorm:"type:text;not null;default:'synthetic-generator'"`
	Raw         datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt   time.Time         `gorm:"not null;autoCreateTime"`

	Equipment equipmentModel `gorm:"foreignKey:EquipmentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Sensor    sensorModel    `gorm:"foreignKey:SensorID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (measurementModel) TableName() string { return "measurements" }

func newMeasurementModel(m reading.Measurement) measurementModel {
	raw := datatypes.JSONMap{}
	for name, value := range m.Channels() {
		raw[name] = value
	}

	return measurementModel{
		SensorID:    m.SensorID,
		EquipmentID: m.EquipmentID,
		Timestamp:   m.Timestamp.UTC(),
		Temperature: m.Temperature,
		Pressure:    m.Pressure,
		Vibration:   m.Vibration,
		Humidity:    m.Humidity,
		VibrationX:  m.VibrationX,
		VibrationY:  m.VibrationY,
		VibrationZ:  m.VibrationZ,
		GyroX:       m.GyroX,
		GyroY:       m.GyroY,
		GyroZ:       m.GyroZ,
		FaultFlag:   m.FaultFlag,
		Source:      string(m.Source),
		Raw:         raw,
	}
}

func (m measurementModel) toStored() reading.Stored {
	return reading.Stored{
		ID: m.ID,
		Measurement: reading.Measurement{
			EquipmentID: m.EquipmentID,
			SensorID:    m.SensorID,
			Timestamp:   m.Timestamp.UTC(),
			Temperature: m.Temperature,
			Pressure:    m.Pressure,
			Vibration:   m.Vibration,
			Humidity:    m.Humidity,
			VibrationX:  m.VibrationX,
			VibrationY:  m.VibrationY,
			VibrationZ:  m.VibrationZ,
			GyroX:       m.GyroX,
			GyroY:       m.GyroY,
			GyroZ:       m.GyroZ,
			FaultFlag:   m.FaultFlag,
			Source:      reading.Source(m.Source),
		},
	}
}
