package api

import (
	"time"
)

type sensorModel struct {
	ID        string    `gorm:"type:text;primaryKey"`
	Category  string    `gorm:"type:text;not null"`
	Unit      string    `gorm:"type:text"`
	RangeMin  float64   `gorm:"not null"`
	RangeMax  float64   `gorm:"not null"`
	Precision float64   `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`
}

func (sensorModel) TableName() string { return "sensors" }

func (m sensorModel) toAPI() Sensor {
	return Sensor{
		ID:        m.ID,
		Category:  m.Category,
		Unit:      m.Unit,
		RangeMin:  m.RangeMin,
		RangeMax:  m.RangeMax,
		Precision: m.Precision,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
